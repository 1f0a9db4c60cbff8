// Copyright (c) 2025 SciGo HDF5 Library Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Package xdmf builds XDMF 3.0 documents that describe the datasets of an
// HDF5 file, and writes them to disk atomically.
package xdmf

import "encoding/xml"

// Version is the XDMF schema version written to the root element.
const Version = "3.0"

const xincludeNS = "http://www.w3.org/2001/XInclude"

// Document is the root <Xdmf> element.
type Document struct {
	XMLName  xml.Name `xml:"Xdmf"`
	Version  string   `xml:"Version,attr"`
	XInclude string   `xml:"xmlns:xi,attr,omitempty"`
	Domain   Domain   `xml:"Domain"`
}

// Domain holds the grids of a document.
type Domain struct {
	Grids []Grid `xml:"Grid"`
}

// Grid is a uniform grid and the attributes defined on it.
type Grid struct {
	Name       string      `xml:"Name,attr"`
	GridType   string      `xml:"GridType,attr"`
	Time       *Time       `xml:"Time,omitempty"`
	Topology   *Topology   `xml:"Topology,omitempty"`
	Geometry   *Geometry   `xml:"Geometry,omitempty"`
	Attributes []Attribute `xml:"Attribute"`
}

// Time stamps a grid with the simulation time.
type Time struct {
	Value string `xml:"Value,attr"`
}

// Topology describes the connectivity of a grid.
type Topology struct {
	TopologyType     string `xml:"TopologyType,attr"`
	Dimensions       string `xml:"Dimensions,attr,omitempty"`
	NumberOfElements string `xml:"NumberOfElements,attr,omitempty"`
}

// Geometry places a structured grid in space.
type Geometry struct {
	GeometryType string     `xml:"GeometryType,attr"`
	DataItems    []DataItem `xml:"DataItem"`
}

// Attribute is a field defined on a grid.
type Attribute struct {
	Name          string        `xml:"Name,attr"`
	AttributeType string        `xml:"AttributeType,attr"`
	Center        string        `xml:"Center,attr"`
	Information   []Information `xml:"Information"`
	DataItem      DataItem      `xml:"DataItem"`
}

// DataItem is either an inline XML array or a reference into an HDF5 file.
type DataItem struct {
	Name       string `xml:"Name,attr,omitempty"`
	Format     string `xml:"Format,attr"`
	NumberType string `xml:"NumberType,attr"`
	Precision  string `xml:"Precision,attr"`
	Dimensions string `xml:"Dimensions,attr"`
	Endian     string `xml:"Endian,attr,omitempty"`
	Value      string `xml:",chardata"`
}

// Information is a free-form name/value pair.
type Information struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:"Value,attr"`
}

// References returns the number of HDF5 DataItems in the document.
func (d *Document) References() int {
	n := 0
	for _, g := range d.Domain.Grids {
		for _, a := range g.Attributes {
			if a.DataItem.Format == FormatHDF {
				n++
			}
		}
	}
	return n
}
