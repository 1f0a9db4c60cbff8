// Copyright (c) 2025 SciGo HDF5 Library Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Package h5meta extracts a point-in-time description of the datasets stored
// in an HDF5 file: their paths, shapes, element types and attributes.
// No array data is read.
package h5meta

import (
	"path"

	"github.com/scigolib/eppic-xdmf/internal/utils"
)

// ElementType is the scalar kind of a dataset element.
type ElementType uint8

// Element types. Only the numeric kinds can be described in XDMF.
const (
	TypeOther ElementType = iota
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeCompound
	TypeOpaque
)

var elementTypeNames = map[ElementType]string{
	TypeOther:    "other",
	TypeInt8:     "int8",
	TypeInt16:    "int16",
	TypeInt32:    "int32",
	TypeInt64:    "int64",
	TypeUint8:    "uint8",
	TypeUint16:   "uint16",
	TypeUint32:   "uint32",
	TypeUint64:   "uint64",
	TypeFloat32:  "float32",
	TypeFloat64:  "float64",
	TypeString:   "string",
	TypeCompound: "compound",
	TypeOpaque:   "opaque",
}

// String returns the lower-case type name (e.g. "float64").
func (t ElementType) String() string {
	if name, ok := elementTypeNames[t]; ok {
		return name
	}
	return "other"
}

// MarshalYAML renders the type by name.
func (t ElementType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// IsNumeric reports whether t is an integer or floating-point kind.
func (t ElementType) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

// IsInteger reports whether t is a fixed-point kind.
func (t ElementType) IsInteger() bool {
	return t >= TypeInt8 && t <= TypeUint64
}

// IsSigned reports whether t is a signed integer kind.
func (t ElementType) IsSigned() bool {
	return t >= TypeInt8 && t <= TypeInt64
}

// IsFloat reports whether t is an IEEE 754 kind.
func (t ElementType) IsFloat() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// Size returns the element size in bytes, or 0 for non-numeric kinds.
func (t ElementType) Size() uint32 {
	switch t {
	case TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64:
		return 8
	default:
		return 0
	}
}

// ByteOrder is the storage byte order of numeric elements.
type ByteOrder uint8

// Byte orders.
const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// String returns the XDMF spelling of the byte order.
func (o ByteOrder) String() string {
	if o == BigEndian {
		return "Big"
	}
	return "Little"
}

// MarshalYAML renders the byte order by name.
func (o ByteOrder) MarshalYAML() (interface{}, error) {
	return o.String(), nil
}

// DatasetDescriptor describes one dataset as found at extraction time.
type DatasetDescriptor struct {
	// Path is the absolute slash-separated location, e.g. "/ex".
	Path string `yaml:"path"`
	// Shape holds the current dimensions, slowest varying first.
	// Empty for scalar and null dataspaces.
	Shape []uint64 `yaml:"shape,flow"`
	// Null is set for datasets with a null dataspace (no elements).
	Null       bool                   `yaml:"null,omitempty"`
	Type       ElementType            `yaml:"type"`
	ByteOrder  ByteOrder              `yaml:"byte_order"`
	Attributes map[string]interface{} `yaml:"attributes,omitempty"`
}

// Name returns the last path component.
func (d DatasetDescriptor) Name() string {
	return path.Base(d.Path)
}

// Rank returns the number of dimensions.
func (d DatasetDescriptor) Rank() int {
	return len(d.Shape)
}

// Elements returns the number of elements in the dataset.
func (d DatasetDescriptor) Elements() (uint64, error) {
	if d.Null {
		return 0, nil
	}
	return utils.ElementCount(d.Shape)
}

// StorageBytes returns the in-file size of the raw data, or 0 for
// non-numeric kinds.
func (d DatasetDescriptor) StorageBytes() (uint64, error) {
	if d.Null {
		return 0, nil
	}
	return utils.StorageSize(d.Shape, uint64(d.Type.Size()))
}

// FileMetadata is the description of a whole file, in walk order.
type FileMetadata struct {
	// Source is the HDF5 path as given to Extract.
	Source         string                 `yaml:"source"`
	RootAttributes map[string]interface{} `yaml:"root_attributes,omitempty"`
	Datasets       []DatasetDescriptor    `yaml:"datasets"`
}

// Empty reports whether the file holds no datasets.
func (m *FileMetadata) Empty() bool {
	return len(m.Datasets) == 0
}
