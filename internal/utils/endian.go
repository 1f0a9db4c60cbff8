package utils

import (
	"encoding/binary"
	"fmt"
)

// ReaderAt is a simplified interface for io.ReaderAt.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

// DecodeUint reads an unsigned integer of size bytes (1, 2, 4 or 8) from
// the start of buf. HDF5 stores offsets and lengths with widths taken from
// the superblock.
func DecodeUint(buf []byte, size uint8, order binary.ByteOrder) (uint64, error) {
	if len(buf) < int(size) {
		return 0, fmt.Errorf("need %d bytes, have %d", size, len(buf))
	}
	switch size {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(order.Uint16(buf)), nil
	case 4:
		return uint64(order.Uint32(buf)), nil
	case 8:
		return order.Uint64(buf), nil
	default:
		return 0, fmt.Errorf("invalid field size: %d", size)
	}
}
