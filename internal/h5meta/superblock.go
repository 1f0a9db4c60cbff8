package h5meta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/scigolib/eppic-xdmf/internal/utils"
)

// minSuperblock is the size of a version 2 superblock, the smallest one.
const minSuperblock = 48

// undefinedAddress marks an absent object in HDF5 address fields.
const undefinedAddress = ^uint64(0)

// checkSuperblock rejects files whose base or root group address lies
// outside the file. Such addresses make the HDF5 reader follow garbage.
//
// Superblock fields are little-endian. Versions 0 and 1 store the offset
// size at byte 13 and the root group symbol table entry after four
// addresses (from byte 24, or 28 for version 1); the entry holds the link
// name offset, the object header address and, in its scratch pad, the
// B-tree address. Versions 2 and 3 store the offset size at byte 9 and the
// base, extension, EOF and root addresses from byte 12.
func checkSuperblock(r utils.ReaderAt, size int64) error {
	buf := make([]byte, 128)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if n < minSuperblock {
		return errors.New("file too small to contain a superblock")
	}
	buf = buf[:n]

	var offsetSize uint8
	var base, root uint64

	switch version := buf[8]; version {
	case 0, 1:
		offsetSize = orDefault(buf[13])
		start := 24
		if version == 1 {
			start = 28
		}
		w := int(offsetSize)
		base, err = addressAt(buf, start, offsetSize)
		if err == nil {
			root, err = addressAt(buf, start+5*w, offsetSize)
		}
		if err == nil && root == 0 {
			// Symbol table entry scratch pad: B-tree address.
			root, err = addressAt(buf, start+6*w+8, offsetSize)
		}
	case 2, 3:
		offsetSize = orDefault(buf[9])
		base, err = addressAt(buf, 12, offsetSize)
		if err == nil {
			root, err = addressAt(buf, 12+3*int(offsetSize), offsetSize)
		}
	default:
		return fmt.Errorf("unsupported superblock version: %d", version)
	}
	if err != nil {
		return utils.WrapError("superblock decode failed", err)
	}

	//nolint:gosec // G115: size is a non-negative file length
	limit := uint64(size)
	if base >= limit {
		return fmt.Errorf("base address 0x%x beyond end of file (%d bytes)", base, size)
	}
	if root == undefinedAddress || root >= limit-base {
		return fmt.Errorf("root group address 0x%x beyond end of file (%d bytes)", root, size)
	}
	return nil
}

func orDefault(size uint8) uint8 {
	if size == 0 {
		return 8
	}
	return size
}

func addressAt(buf []byte, off int, size uint8) (uint64, error) {
	if off+int(size) > len(buf) {
		return 0, fmt.Errorf("address field at %d past superblock end", off)
	}
	return utils.DecodeUint(buf[off:], size, binary.LittleEndian)
}
