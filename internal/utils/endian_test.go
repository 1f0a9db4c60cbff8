package utils

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeUint(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	tests := []struct {
		name  string
		size  uint8
		order binary.ByteOrder
		want  uint64
	}{
		{"1 byte", 1, binary.LittleEndian, 0x01},
		{"2 bytes LE", 2, binary.LittleEndian, 0x0201},
		{"2 bytes BE", 2, binary.BigEndian, 0x0102},
		{"4 bytes LE", 4, binary.LittleEndian, 0x04030201},
		{"8 bytes LE", 8, binary.LittleEndian, 0x0807060504030201},
		{"8 bytes BE", 8, binary.BigEndian, 0x0102030405060708},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeUint(buf, tt.size, tt.order)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeUint_Errors(t *testing.T) {
	_, err := DecodeUint([]byte{1, 2}, 4, binary.LittleEndian)
	require.Error(t, err, "short buffer")

	_, err = DecodeUint(make([]byte, 8), 3, binary.LittleEndian)
	require.Error(t, err, "invalid width")
}
