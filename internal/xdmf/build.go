// Copyright (c) 2025 SciGo HDF5 Library Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package xdmf

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/scigolib/eppic-xdmf/internal/h5meta"
	"github.com/scigolib/eppic-xdmf/internal/utils"
)

// DataItem formats.
const (
	FormatHDF = "HDF"
	FormatXML = "XML"
)

// GridMode selects how datasets are distributed over grids.
type GridMode uint8

// Grid modes.
const (
	// GridByShape puts all datasets of the same shape on one grid.
	GridByShape GridMode = iota
	// GridPerDataset gives every dataset its own grid.
	GridPerDataset
)

// String returns the command-line spelling of the mode.
func (m GridMode) String() string {
	if m == GridPerDataset {
		return "dataset"
	}
	return "shape"
}

// ParseGridMode parses "shape" or "dataset".
func ParseGridMode(s string) (GridMode, error) {
	switch strings.ToLower(s) {
	case "shape", "":
		return GridByShape, nil
	case "dataset":
		return GridPerDataset, nil
	default:
		return GridByShape, fmt.Errorf("unknown grid mode %q (want shape or dataset)", s)
	}
}

// Options controls document construction.
type Options struct {
	// OutputPath is where the document will be written. Relative HDF5
	// references are computed from its directory.
	OutputPath string
	// Absolute makes HDF5 references absolute paths.
	Absolute bool
	Grid     GridMode
	// Logger receives warnings for skipped datasets. Default: slog.Default().
	Logger *slog.Logger
}

// Build describes meta as an XDMF document.
//
// Datasets whose element type has no XDMF number type, and datasets with a
// null dataspace, are skipped with a warning. Grids appear in the order of
// their first dataset.
func Build(meta *h5meta.FileMetadata, opts Options) (*Document, error) {
	if meta == nil {
		return nil, utils.NewError(utils.InternalError, "", fmt.Errorf("nil metadata"))
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	ref, err := sourceReference(meta.Source, opts)
	if err != nil {
		return nil, utils.NewError(utils.InternalError, meta.Source, err)
	}

	doc := &Document{
		Version:  Version,
		XInclude: xincludeNS,
	}

	var timeStamp *Time
	if t, ok := h5meta.NumericAttribute(meta.RootAttributes, "time"); ok {
		timeStamp = &Time{Value: formatFloat(t)}
	}

	var groups []*gridGroup
	index := make(map[string]*gridGroup)

	for i := range meta.Datasets {
		d := &meta.Datasets[i]
		if reason := unsupported(d); reason != "" {
			log.Warn("skipping dataset",
				slog.String("dataset", d.Path),
				slog.String("type", d.Type.String()),
				slog.String("reason", reason),
			)
			continue
		}

		key := d.Path
		if opts.Grid == GridByShape {
			mesh, _ := meshShape(d)
			key = shapeName(mesh)
		}
		g, ok := index[key]
		if !ok {
			g = &gridGroup{key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.datasets = append(g.datasets, d)
	}

	for _, g := range groups {
		grid := g.build(ref, meta.RootAttributes, opts.Grid)
		grid.Time = timeStamp
		doc.Domain.Grids = append(doc.Domain.Grids, grid)
	}

	return doc, nil
}

// unsupported returns why d cannot be referenced, or "" when it can.
func unsupported(d *h5meta.DatasetDescriptor) string {
	switch {
	case d.Null:
		return "null dataspace"
	case !d.Type.IsNumeric():
		return "no XDMF number type"
	default:
		return ""
	}
}

// sourceReference returns the HDF5 file name as written into DataItems.
func sourceReference(source string, opts Options) (string, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}
	if opts.Absolute || opts.OutputPath == "" {
		return filepath.ToSlash(abs), nil
	}

	outDir, err := filepath.Abs(filepath.Dir(opts.OutputPath))
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(outDir, abs)
	if err != nil {
		// Different volumes.
		return filepath.ToSlash(abs), nil
	}
	return filepath.ToSlash(rel), nil
}

type gridGroup struct {
	key      string
	datasets []*h5meta.DatasetDescriptor
}

func (g *gridGroup) build(ref string, root map[string]interface{}, mode GridMode) Grid {
	first := g.datasets[0]
	grid := Grid{
		Name:     g.key,
		GridType: "Uniform",
	}
	if mode == GridPerDataset {
		grid.Name = first.Path
	}

	mesh, _ := meshShape(first)
	center := "Node"
	switch len(mesh) {
	case 3, 2:
		grid.Topology = &Topology{
			TopologyType: fmt.Sprintf("%dDCoRectMesh", len(mesh)),
			Dimensions:   joinDims(mesh),
		}
		grid.Geometry = geometry(len(mesh), first.Attributes, root)
	case 1:
		grid.Topology = &Topology{
			TopologyType:     "Polyvertex",
			NumberOfElements: strconv.FormatUint(mesh[0], 10),
		}
	default:
		center = "Grid"
	}

	names := attributeNames(g.datasets)
	for i, d := range g.datasets {
		attrType := "Scalar"
		if _, vector := meshShape(d); vector {
			attrType = "Vector"
		}
		grid.Attributes = append(grid.Attributes, Attribute{
			Name:          names[i],
			AttributeType: attrType,
			Center:        center,
			Information:   information(d.Attributes),
			DataItem:      hdfItem(ref, d),
		})
	}
	return grid
}

// meshShape returns the grid dimensions of d. A rank-4 dataset whose last
// dimension is 3, such as an (nz, ny, nx, 3) field triplet, is a vector
// field on the 3-D mesh formed by its first three dimensions.
func meshShape(d *h5meta.DatasetDescriptor) ([]uint64, bool) {
	if d.Rank() == 4 && d.Shape[3] == 3 {
		return d.Shape[:3], true
	}
	return d.Shape, false
}

// attributeNames returns the base name of each dataset, falling back to
// the full path where base names collide.
func attributeNames(ds []*h5meta.DatasetDescriptor) []string {
	count := make(map[string]int, len(ds))
	for _, d := range ds {
		count[d.Name()]++
	}
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name()
		if count[names[i]] > 1 {
			names[i] = strings.TrimPrefix(d.Path, "/")
		}
	}
	return names
}

// Axis attribute names, fastest varying (x) first.
var (
	originNames  = []string{"x0", "y0", "z0"}
	spacingNames = []string{"dx", "dy", "dz"}
)

// geometry builds the ORIGIN_DXDY(DZ) geometry of a 2-D or 3-D grid.
// Values are written slowest axis first, matching the topology dimensions.
func geometry(rank int, attrs, root map[string]interface{}) *Geometry {
	origin := make([]string, rank)
	spacing := make([]string, rank)
	for axis := 0; axis < rank; axis++ {
		slot := rank - 1 - axis
		origin[slot] = formatFloat(lookup(attrs, root, originNames[axis], 0))
		spacing[slot] = formatFloat(lookup(attrs, root, spacingNames[axis], 1))
	}

	geomType := "ORIGIN_DXDY"
	if rank == 3 {
		geomType = "ORIGIN_DXDYDZ"
	}
	dims := strconv.Itoa(rank)

	return &Geometry{
		GeometryType: geomType,
		DataItems: []DataItem{
			{Name: "Origin", Format: FormatXML, NumberType: "Float", Precision: "8", Dimensions: dims, Value: strings.Join(origin, " ")},
			{Name: "Spacing", Format: FormatXML, NumberType: "Float", Precision: "8", Dimensions: dims, Value: strings.Join(spacing, " ")},
		},
	}
}

func lookup(attrs, root map[string]interface{}, name string, def float64) float64 {
	if v, ok := h5meta.NumericAttribute(attrs, name); ok {
		return v
	}
	if v, ok := h5meta.NumericAttribute(root, name); ok {
		return v
	}
	return def
}

func hdfItem(ref string, d *h5meta.DatasetDescriptor) DataItem {
	dims := joinDims(d.Shape)
	if d.Rank() == 0 {
		dims = "1"
	}
	return DataItem{
		Format:     FormatHDF,
		NumberType: numberType(d.Type),
		Precision:  strconv.FormatUint(uint64(d.Type.Size()), 10),
		Dimensions: dims,
		Endian:     d.ByteOrder.String(),
		Value:      ref + ":" + d.Path,
	}
}

// numberType maps a numeric element type to its XDMF NumberType.
func numberType(t h5meta.ElementType) string {
	switch t {
	case h5meta.TypeInt8:
		return "Char"
	case h5meta.TypeUint8:
		return "UChar"
	case h5meta.TypeInt16, h5meta.TypeInt32, h5meta.TypeInt64:
		return "Int"
	case h5meta.TypeUint16, h5meta.TypeUint32, h5meta.TypeUint64:
		return "UInt"
	default:
		return "Float"
	}
}

func information(attrs map[string]interface{}) []Information {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	info := make([]Information, 0, len(keys))
	for _, k := range keys {
		info = append(info, Information{Name: k, Value: formatValue(attrs[k])})
	}
	return info
}

// formatValue renders an attribute value. Slices are space separated.
func formatValue(v interface{}) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatValue(rv.Index(i).Interface())
		}
		return strings.Join(parts, " ")
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32)
	case reflect.Float64:
		return formatFloat(rv.Float())
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func joinDims(shape []uint64) string {
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = strconv.FormatUint(n, 10)
	}
	return strings.Join(parts, " ")
}

// shapeName names a shape group, e.g. "grid_64x32x16" or "grid_scalar".
func shapeName(shape []uint64) string {
	if len(shape) == 0 {
		return "grid_scalar"
	}
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = strconv.FormatUint(n, 10)
	}
	return "grid_" + strings.Join(parts, "x")
}
