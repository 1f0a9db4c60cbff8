package h5meta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
		ok   bool
	}{
		{"float64 scalar", 0.5, 0.5, true},
		{"int32 scalar", int32(7), int32(7), true},
		{"string", "V/m", "V/m", true},
		{"single element slice", []float32{2.5}, float32(2.5), true},
		{"vector", []int64{1, 2, 3}, []int64{1, 2, 3}, true},
		{"string slice", []string{"a", "b"}, []string{"a", "b"}, true},
		{"empty slice", []float64{}, nil, false},
		{"empty interface slice", []interface{}{}, nil, false},
		{"nil", nil, nil, false},
		{"struct", struct{ A int }{1}, nil, false},
		{"nested slice", [][]int{{1}}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeValue(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNumericAttribute(t *testing.T) {
	attrs := map[string]interface{}{
		"dx":    0.25,
		"nx":    int32(64),
		"ny":    uint64(32),
		"dt":    float32(0.5),
		"units": "V/m",
		"vec":   []float64{1, 2},
	}

	v, ok := NumericAttribute(attrs, "dx")
	require.True(t, ok)
	require.Equal(t, 0.25, v)

	v, ok = NumericAttribute(attrs, "nx")
	require.True(t, ok)
	require.Equal(t, 64.0, v)

	v, ok = NumericAttribute(attrs, "ny")
	require.True(t, ok)
	require.Equal(t, 32.0, v)

	v, ok = NumericAttribute(attrs, "dt")
	require.True(t, ok)
	require.Equal(t, 0.5, v)

	_, ok = NumericAttribute(attrs, "units")
	require.False(t, ok)

	_, ok = NumericAttribute(attrs, "vec")
	require.False(t, ok)

	_, ok = NumericAttribute(attrs, "missing")
	require.False(t, ok)

	_, ok = NumericAttribute(nil, "dx")
	require.False(t, ok)
}
