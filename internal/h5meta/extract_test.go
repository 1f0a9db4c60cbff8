// Copyright (c) 2025 SciGo HDF5 Library Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package h5meta

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/scigolib/hdf5"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/eppic-xdmf/internal/utils"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ramp(n int) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i) * 0.5
	}
	return data
}

// writeFieldFile creates an HDF5 file holding one float64 field per name,
// each with the given dimensions.
func writeFieldFile(t *testing.T, dims []uint64, names ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fields.h5")
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	require.NoError(t, err)

	n, err := utils.ElementCount(dims)
	require.NoError(t, err)

	for _, name := range names {
		dw, err := fw.CreateDataset("/"+name, hdf5.Float64, dims)
		require.NoError(t, err)
		require.NoError(t, dw.Write(ramp(int(n))))
	}
	require.NoError(t, fw.Close())
	return path
}

func TestExtract_Fields(t *testing.T) {
	path := writeFieldFile(t, []uint64{4, 5, 6}, "ex", "ey", "ez")

	meta, err := Extract(path, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.Equal(t, path, meta.Source)
	require.False(t, meta.Empty())
	require.Len(t, meta.Datasets, 3)

	var paths []string
	for _, d := range meta.Datasets {
		paths = append(paths, d.Path)
		require.Equal(t, []uint64{4, 5, 6}, d.Shape)
		require.Equal(t, TypeFloat64, d.Type)
		require.Equal(t, LittleEndian, d.ByteOrder)
		require.Equal(t, 3, d.Rank())

		n, err := d.Elements()
		require.NoError(t, err)
		require.Equal(t, uint64(120), n)
	}
	sort.Strings(paths)
	require.Equal(t, []string{"/ex", "/ey", "/ez"}, paths)
}

func TestExtract_DatasetAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attrs.h5")
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	require.NoError(t, err)

	dw, err := fw.CreateDataset("/phi", hdf5.Float64, []uint64{8})
	require.NoError(t, err)
	require.NoError(t, dw.Write(ramp(8)))
	require.NoError(t, dw.WriteAttribute("dx", 0.5))
	require.NoError(t, dw.WriteAttribute("units", "V"))
	require.NoError(t, fw.Close())

	meta, err := Extract(path, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.Len(t, meta.Datasets, 1)

	d := meta.Datasets[0]
	require.Equal(t, "/phi", d.Path)
	require.Equal(t, "phi", d.Name())
	require.Equal(t, []uint64{8}, d.Shape)

	dx, ok := NumericAttribute(d.Attributes, "dx")
	require.True(t, ok)
	require.InDelta(t, 0.5, dx, 1e-12)
	require.Contains(t, d.Attributes, "units")
}

func TestExtract_IntegerDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ints.h5")
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	require.NoError(t, err)

	dw, err := fw.CreateDataset("/count", hdf5.Int32, []uint64{2, 3})
	require.NoError(t, err)
	require.NoError(t, dw.Write([]int32{1, 2, 3, 4, 5, 6}))
	require.NoError(t, fw.Close())

	meta, err := Extract(path, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.Len(t, meta.Datasets, 1)

	d := meta.Datasets[0]
	require.Equal(t, []uint64{2, 3}, d.Shape)
	require.True(t, d.Type.IsInteger())
	require.Equal(t, uint32(4), d.Type.Size())
}

func TestExtract_NestedGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.h5")
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	require.NoError(t, err)
	_, err = fw.CreateGroup("/fields")
	require.NoError(t, err)

	ex, err := fw.CreateDataset("/fields/ex", hdf5.Float64, []uint64{2, 3})
	require.NoError(t, err)
	require.NoError(t, ex.Write(ramp(6)))

	den, err := fw.CreateDataset("/den", hdf5.Float64, []uint64{4})
	require.NoError(t, err)
	require.NoError(t, den.Write(ramp(4)))
	require.NoError(t, fw.Close())

	meta, err := Extract(path, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.Len(t, meta.Datasets, 2)

	byPath := map[string]DatasetDescriptor{}
	for _, d := range meta.Datasets {
		byPath[d.Path] = d
	}
	require.Contains(t, byPath, "/fields/ex")
	require.Contains(t, byPath, "/den")
	require.Equal(t, []uint64{2, 3}, byPath["/fields/ex"].Shape)
	require.Equal(t, "ex", byPath["/fields/ex"].Name())
	require.Equal(t, []uint64{4}, byPath["/den"].Shape)
}

func TestExtract_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.h5")
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	meta, err := Extract(path, WithLogger(quietLogger()))
	require.NoError(t, err)
	require.True(t, meta.Empty())
	require.NotNil(t, meta.Datasets)
}

func TestExtract_DebugLogging(t *testing.T) {
	path := writeFieldFile(t, []uint64{3}, "rho")

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Extract(path, WithLogger(log))
	require.NoError(t, err)
	require.Contains(t, buf.String(), "path=/rho")
	require.Contains(t, buf.String(), "type=float64")
}

func TestExtract_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(dir, "does_not_exist.h5")
		_, err := Extract(path)
		require.Error(t, err)
		require.Equal(t, utils.FileNotFound, utils.KindOf(err))
		require.Contains(t, err.Error(), path)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Extract(dir)
		require.Equal(t, utils.FileNotFound, utils.KindOf(err))
	})

	t.Run("text file", func(t *testing.T) {
		path := filepath.Join(dir, "notes.h5")
		require.NoError(t, os.WriteFile(path, []byte("this is not an HDF5 file"), 0o600))
		_, err := Extract(path)
		require.Equal(t, utils.InvalidFormat, utils.KindOf(err))
	})

	t.Run("short file", func(t *testing.T) {
		path := filepath.Join(dir, "short.h5")
		require.NoError(t, os.WriteFile(path, []byte{0x89, 'H', 'D'}, 0o600))
		_, err := Extract(path)
		require.Equal(t, utils.InvalidFormat, utils.KindOf(err))
	})

	t.Run("signature only", func(t *testing.T) {
		path := filepath.Join(dir, "truncated.h5")
		require.NoError(t, os.WriteFile(path, []byte(hdf5Signature), 0o600))
		_, err := Extract(path, WithLogger(quietLogger()))
		require.Error(t, err)
		require.Equal(t, utils.InvalidFormat, utils.KindOf(err))
	})

	t.Run("unreadable", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("permission bits are not enforced for root")
		}
		path := writeFieldFile(t, []uint64{2}, "ex")
		require.NoError(t, os.Chmod(path, 0))
		t.Cleanup(func() { _ = os.Chmod(path, 0o600) })

		_, err := Extract(path)
		require.Equal(t, utils.NotReadable, utils.KindOf(err))
	})
}

func TestDatasetDescriptor_StorageBytes(t *testing.T) {
	d := DatasetDescriptor{Path: "/ex", Shape: []uint64{4, 5, 6}, Type: TypeFloat32}
	n, err := d.StorageBytes()
	require.NoError(t, err)
	require.Equal(t, uint64(480), n)

	d = DatasetDescriptor{Path: "/names", Shape: []uint64{3}, Type: TypeString}
	n, err = d.StorageBytes()
	require.NoError(t, err)
	require.Zero(t, n)

	d = DatasetDescriptor{Path: "/none", Null: true, Type: TypeFloat64}
	n, err = d.StorageBytes()
	require.NoError(t, err)
	require.Zero(t, n)
}
