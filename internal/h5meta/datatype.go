package h5meta

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Datatype classes (low nibble of the first message byte).
const (
	classFixed    = 0
	classFloat    = 1
	classTime     = 2
	classString   = 3
	classBitfield = 4
	classOpaque   = 5
	classCompound = 6
	classEnum     = 8
	classVarLen   = 9
)

// datatypeInfo is the part of a datatype message the emitter needs.
type datatypeInfo struct {
	Type  ElementType
	Order ByteOrder
}

// decodeDatatype decodes a datatype message (0x0003).
//
// Layout (H5Odtype.c):
//   - Byte 0: class (bits 0-3) and version (bits 4-7).
//   - Bytes 1-3: class bit field.
//   - Bytes 4-7: element size.
//   - Then class-specific properties.
func decodeDatatype(data []byte) (datatypeInfo, error) {
	if len(data) < 8 {
		return datatypeInfo{}, errors.New("datatype message too short")
	}

	class := data[0] & 0x0F
	bits := uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16
	size := binary.LittleEndian.Uint32(data[4:8])

	order := LittleEndian
	if bits&0x01 != 0 {
		order = BigEndian
	}

	switch class {
	case classFixed:
		signed := bits&0x08 != 0
		t, err := integerType(size, signed)
		if err != nil {
			return datatypeInfo{}, err
		}
		return datatypeInfo{Type: t, Order: order}, nil
	case classFloat:
		// VAX ordering (bit 6) has no XDMF spelling.
		if bits&0x40 != 0 {
			return datatypeInfo{Type: TypeOther}, nil
		}
		switch size {
		case 4:
			return datatypeInfo{Type: TypeFloat32, Order: order}, nil
		case 8:
			return datatypeInfo{Type: TypeFloat64, Order: order}, nil
		default:
			// float16, bfloat16, fp8 and long double.
			return datatypeInfo{Type: TypeOther}, nil
		}
	case classEnum:
		// Properties start with the base integer datatype.
		if len(data) < 16 {
			return datatypeInfo{}, errors.New("enum datatype message too short")
		}
		return decodeDatatype(data[8:])
	case classString:
		return datatypeInfo{Type: TypeString}, nil
	case classVarLen:
		// Bits 0-3 of the bit field: 0 = sequence, 1 = string.
		if bits&0x0F == 1 {
			return datatypeInfo{Type: TypeString}, nil
		}
		return datatypeInfo{Type: TypeOther}, nil
	case classCompound:
		return datatypeInfo{Type: TypeCompound}, nil
	case classOpaque:
		return datatypeInfo{Type: TypeOpaque}, nil
	case classTime, classBitfield:
		return datatypeInfo{Type: TypeOther}, nil
	default:
		if class > 11 {
			return datatypeInfo{}, fmt.Errorf("invalid datatype class: %d", class)
		}
		return datatypeInfo{Type: TypeOther}, nil
	}
}

func integerType(size uint32, signed bool) (ElementType, error) {
	var t ElementType
	switch size {
	case 1:
		t = TypeUint8
	case 2:
		t = TypeUint16
	case 4:
		t = TypeUint32
	case 8:
		t = TypeUint64
	default:
		return TypeOther, fmt.Errorf("unsupported integer size: %d", size)
	}
	if signed {
		// Signed kinds sit four slots before their unsigned counterparts.
		t -= TypeUint8 - TypeInt8
	}
	return t, nil
}
