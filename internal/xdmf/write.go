// Copyright (c) 2025 SciGo HDF5 Library Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package xdmf

import (
	"bytes"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"

	"github.com/scigolib/eppic-xdmf/internal/utils"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	doctype   = `<!DOCTYPE Xdmf SYSTEM "Xdmf.dtd" []>` + "\n"
)

// Encode serializes doc with the XML declaration and XDMF doctype.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString(doctype)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, utils.NewError(utils.InternalError, "", utils.WrapError("XDMF encoding failed", err))
	}
	if err := enc.Close(); err != nil {
		return nil, utils.NewError(utils.InternalError, "", utils.WrapError("XDMF encoding failed", err))
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// WriteFile replaces path with data atomically: data goes to a temporary
// file in the same directory which is then renamed over path. On failure
// the temporary file is removed and any existing file at path is left as
// it was. Errors are classified as WriteError.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return utils.NewError(utils.WriteError, path, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return utils.NewError(utils.WriteError, path, err)
	}
	if err = tmp.Sync(); err != nil {
		return utils.NewError(utils.WriteError, path, err)
	}
	if err = tmp.Close(); err != nil {
		return utils.NewError(utils.WriteError, path, err)
	}
	//nolint:gosec // G302: sidecar files are meant to be world-readable
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return utils.NewError(utils.WriteError, path, err)
	}

	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		err = utils.NewError(utils.WriteError, path, errors.New("output path is a directory"))
		return err
	}

	if err = os.Rename(tmpName, path); err != nil {
		return utils.NewError(utils.WriteError, path, err)
	}
	return nil
}
