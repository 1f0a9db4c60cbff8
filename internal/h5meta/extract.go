// Copyright (c) 2025 SciGo HDF5 Library Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h5meta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/scigolib/hdf5"

	"github.com/scigolib/eppic-xdmf/internal/utils"
)

// hdf5Signature is the 8-byte format signature at offset 0.
const hdf5Signature = "\x89HDF\r\n\x1a\n"

// ExtractConfig holds extraction settings.
type ExtractConfig struct {
	Logger *slog.Logger
}

// ExtractOption configures Extract.
type ExtractOption func(*ExtractConfig)

// WithLogger sets the logger used for per-dataset debug output and
// skipped-attribute notices. Default: slog.Default().
func WithLogger(l *slog.Logger) ExtractOption {
	return func(cfg *ExtractConfig) {
		cfg.Logger = l
	}
}

type walkedDataset struct {
	path string
	ds   *hdf5.Dataset
}

// Extract opens the HDF5 file at path read-only and describes every dataset
// in it. The file is closed before Extract returns.
//
// Errors are *utils.Error values classified as FileNotFound, NotReadable,
// InvalidFormat or InternalError. A file without datasets is not an error;
// the returned metadata is then Empty.
func Extract(path string, opts ...ExtractOption) (meta *FileMetadata, err error) {
	cfg := &ExtractConfig{Logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.Logger

	if err := checkInput(path); err != nil {
		return nil, err
	}

	// The HDF5 reader may panic on corrupted structures.
	defer func() {
		if r := recover(); r != nil {
			meta = nil
			err = utils.NewError(utils.InternalError, path, fmt.Errorf("traversal aborted: %v", r))
		}
	}()

	f, err := hdf5.Open(path)
	if err != nil {
		return nil, utils.NewError(utils.InvalidFormat, path, utils.WrapError("not a readable HDF5 file", err))
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Debug("close failed", slog.String("path", path), slog.Any("error", cerr))
		}
	}()

	log.Debug("opened HDF5 file",
		slog.String("path", path),
		slog.Int("superblock_version", int(f.SuperblockVersion())),
	)

	fl := layoutOf(f)
	reader := f.Reader()

	var found []walkedDataset
	f.Walk(func(p string, obj hdf5.Object) {
		if ds, ok := obj.(*hdf5.Dataset); ok {
			found = append(found, walkedDataset{path: p, ds: ds})
		}
	})

	meta = &FileMetadata{
		Source:         path,
		RootAttributes: rootAttributes(f, log),
		Datasets:       make([]DatasetDescriptor, 0, len(found)),
	}

	for _, w := range found {
		desc, err := describe(reader, fl, w, log)
		if err != nil {
			return nil, utils.NewError(utils.InvalidFormat, path, utils.WrapError("dataset "+w.path, err))
		}
		meta.Datasets = append(meta.Datasets, desc)
	}

	return meta, nil
}

// checkInput classifies a missing, irregular or unreadable input and
// rejects files that do not start with the HDF5 signature or whose
// superblock points outside the file.
func checkInput(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return utils.NewError(utils.FileNotFound, path, errors.New("file does not exist"))
	case errors.Is(err, fs.ErrPermission):
		return utils.NewError(utils.NotReadable, path, err)
	case err != nil:
		return utils.NewError(utils.NotReadable, path, err)
	case !info.Mode().IsRegular():
		return utils.NewError(utils.FileNotFound, path, errors.New("not a regular file"))
	}

	//nolint:gosec // G304: user-provided input path is the point of the tool
	f, err := os.Open(path)
	if err != nil {
		return utils.NewError(utils.NotReadable, path, err)
	}
	defer func() { _ = f.Close() }()

	sig := make([]byte, len(hdf5Signature))
	n, err := f.ReadAt(sig, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return utils.NewError(utils.NotReadable, path, err)
	}
	if n < len(sig) || string(sig) != hdf5Signature {
		return utils.NewError(utils.InvalidFormat, path, errors.New("missing HDF5 signature"))
	}
	if err := checkSuperblock(f, info.Size()); err != nil {
		return utils.NewError(utils.InvalidFormat, path, err)
	}
	return nil
}

func layoutOf(f *hdf5.File) fileLayout {
	sb := f.Superblock()
	fl := fileLayout{
		OffsetSize: sb.OffsetSize,
		LengthSize: sb.LengthSize,
		Order:      sb.Endianness,
	}
	if fl.Order == nil {
		fl.Order = binary.LittleEndian
	}
	return fl
}

func describe(r utils.ReaderAt, fl fileLayout, w walkedDataset, log *slog.Logger) (DatasetDescriptor, error) {
	space, dtype, err := probeDataset(r, w.ds.Address(), fl)
	if err != nil {
		return DatasetDescriptor{}, err
	}

	attrs, err := w.ds.Attributes()
	if err != nil {
		return DatasetDescriptor{}, utils.WrapError("attribute read failed", err)
	}

	desc := DatasetDescriptor{
		Path:      w.path,
		Shape:     space.Shape,
		Null:      space.Null,
		Type:      dtype.Type,
		ByteOrder: dtype.Order,
	}
	for _, a := range attrs {
		v, err := a.ReadValue()
		if err != nil {
			log.Debug("skipping attribute",
				slog.String("dataset", w.path),
				slog.String("attribute", a.Name),
				slog.Any("error", err),
			)
			continue
		}
		setAttribute(&desc.Attributes, a.Name, v, log)
	}

	size, err := desc.StorageBytes()
	if err != nil {
		return DatasetDescriptor{}, err
	}
	log.Debug("dataset",
		slog.String("path", desc.Path),
		slog.Any("shape", desc.Shape),
		slog.String("type", desc.Type.String()),
		slog.Uint64("bytes", size),
		slog.Int("attributes", len(desc.Attributes)),
	)

	return desc, nil
}

// rootAttributes reads the root group's attributes. They are optional
// context, so failures are logged and ignored.
func rootAttributes(f *hdf5.File, log *slog.Logger) map[string]interface{} {
	root := f.Root()
	if root == nil {
		return nil
	}
	attrs, err := root.Attributes()
	if err != nil {
		log.Debug("root attributes unavailable", slog.Any("error", err))
		return nil
	}

	var out map[string]interface{}
	for _, a := range attrs {
		v, err := a.ReadValue()
		if err != nil {
			log.Debug("skipping root attribute", slog.String("attribute", a.Name), slog.Any("error", err))
			continue
		}
		setAttribute(&out, a.Name, v, log)
	}
	return out
}

func setAttribute(m *map[string]interface{}, name string, v interface{}, log *slog.Logger) {
	nv, ok := normalizeValue(v)
	if !ok {
		log.Debug("skipping attribute with unsupported value", slog.String("attribute", name), slog.String("go_type", fmt.Sprintf("%T", v)))
		return
	}
	if *m == nil {
		*m = make(map[string]interface{})
	}
	(*m)[name] = nv
}
