package h5meta

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/scigolib/eppic-xdmf/internal/utils"
)

// Dataspace types of a version 2 message.
const (
	spaceScalar = 0
	spaceSimple = 1
	spaceNull   = 2
)

// maxRank is the HDF5 limit on dataset dimensionality (H5S_MAX_RANK).
const maxRank = 32

// dataspaceInfo is the decoded shape of a dataset.
type dataspaceInfo struct {
	Shape []uint64
	Null  bool
}

// decodeDataspace decodes a dataspace message (0x0001).
// Dimension sizes are lengthSize bytes wide.
//
// Version 1: version, rank, flags, 5 reserved bytes, then dimensions.
// Version 2: version, rank, flags, type, then dimensions.
func decodeDataspace(data []byte, lengthSize uint8) (dataspaceInfo, error) {
	if len(data) < 4 {
		return dataspaceInfo{}, errors.New("dataspace message too short")
	}

	version := data[0]
	rank := int(data[1])

	var offset int
	switch version {
	case 1:
		offset = 8
	case 2:
		offset = 4
		switch data[3] {
		case spaceNull:
			return dataspaceInfo{Null: true}, nil
		case spaceScalar:
			return dataspaceInfo{}, nil
		case spaceSimple:
		default:
			return dataspaceInfo{}, fmt.Errorf("invalid dataspace type: %d", data[3])
		}
	default:
		return dataspaceInfo{}, fmt.Errorf("unsupported dataspace version: %d", version)
	}

	if rank == 0 {
		return dataspaceInfo{}, nil
	}
	if rank > maxRank {
		return dataspaceInfo{}, fmt.Errorf("dataspace rank %d exceeds %d", rank, maxRank)
	}

	need := offset + rank*int(lengthSize)
	if len(data) < need {
		return dataspaceInfo{}, fmt.Errorf("dataspace message too short: %d bytes, need %d", len(data), need)
	}

	shape := make([]uint64, rank)
	for i := range shape {
		dim, err := utils.DecodeUint(data[offset:], lengthSize, binary.LittleEndian)
		if err != nil {
			return dataspaceInfo{}, utils.WrapError("dimension decode failed", err)
		}
		shape[i] = dim
		offset += int(lengthSize)
	}

	if _, err := utils.ElementCount(shape); err != nil {
		return dataspaceInfo{}, err
	}

	return dataspaceInfo{Shape: shape}, nil
}
