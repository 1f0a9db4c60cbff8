package h5meta

import (
	"reflect"
)

// normalizeValue reduces an attribute value as returned by the HDF5 reader
// to a scalar or a slice of scalars. Single-element slices collapse to
// their element. Compound and reference values are rejected.
func normalizeValue(v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if isScalarKind(rv.Kind()) {
		return v, true
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if !isScalarKind(rv.Type().Elem().Kind()) {
		return nil, false
	}

	switch rv.Len() {
	case 0:
		return nil, false
	case 1:
		return rv.Index(0).Interface(), true
	default:
		return v, true
	}
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Bool:
		return true
	default:
		return false
	}
}

// NumericAttribute returns attrs[name] as a float64 when it holds a
// numeric scalar.
func NumericAttribute(attrs map[string]interface{}, name string) (float64, bool) {
	v, ok := attrs[name]
	if !ok {
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
