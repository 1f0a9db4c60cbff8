package h5meta

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/scigolib/eppic-xdmf/internal/utils"
)

// Header message types read by the probe.
const (
	msgDataspace    = 0x0001
	msgDatatype     = 0x0003
	msgContinuation = 0x0010
)

const (
	signatureOHDR = "OHDR"
	signatureOCHK = "OCHK"

	// maxHeaderBlock bounds a single header chunk read into memory.
	maxHeaderBlock = 16 << 20
	// maxContinuations bounds how many continuation blocks one header may chain.
	maxContinuations = 1024
)

// fileLayout carries the superblock fields needed to decode object headers.
type fileLayout struct {
	OffsetSize uint8
	LengthSize uint8
	Order      binary.ByteOrder
}

// headerMessage is one raw message from an object header.
type headerMessage struct {
	Type uint16
	Data []byte
}

// block is a header chunk location.
type block struct {
	addr uint64
	size uint64
}

// readHeaderMessages returns every message of the object header at addr,
// following continuation blocks. Both version 1 and version 2 headers are
// supported.
func readHeaderMessages(r utils.ReaderAt, addr uint64, fl fileLayout) ([]headerMessage, error) {
	prefix := make([]byte, 8)
	if err := readFull(r, prefix, addr); err != nil {
		return nil, utils.WrapError("object header read failed", err)
	}

	switch {
	case string(prefix[0:4]) == signatureOHDR:
		if prefix[4] != 2 {
			return nil, fmt.Errorf("unsupported object header version: %d", prefix[4])
		}
		return readV2Header(r, addr, prefix[5], fl)
	case prefix[0] == 1 && prefix[1] == 0:
		return readV1Header(r, addr, fl)
	default:
		return nil, fmt.Errorf("invalid object header signature: % x", prefix[0:4])
	}
}

// readV1Header parses a version 1 object header.
//
// Prefix (16 bytes): version, reserved, message count (2), reference count
// (4), header size (4), 4 bytes of alignment padding. Messages follow, each
// with an 8-byte header: type (2), size (2), flags, 3 reserved bytes.
//
// The message count covers every block of the header. Chunk 0 is read one
// message at a time until the count is reached or, once a continuation has
// been seen, the declared header size is exhausted. Some writers record a
// header size that omits message data, so the size alone is not trusted.
func readV1Header(r utils.ReaderAt, addr uint64, fl fileLayout) ([]headerMessage, error) {
	prefix := make([]byte, 16)
	if err := readFull(r, prefix, addr); err != nil {
		return nil, utils.WrapError("v1 header read failed", err)
	}

	total := int(fl.Order.Uint16(prefix[2:4]))
	limit := addr + 16 + uint64(fl.Order.Uint32(prefix[8:12]))

	var msgs []headerMessage
	var queue []block
	count := 0
	pos := addr + 16
	msgHdr := make([]byte, 8)

	for count < total {
		if len(queue) > 0 && pos+8 > limit {
			break
		}
		if err := readFull(r, msgHdr, pos); err != nil {
			return nil, utils.WrapError("message header read failed", err)
		}
		msgType := fl.Order.Uint16(msgHdr[0:2])
		msgSize := uint64(fl.Order.Uint16(msgHdr[2:4]))
		count++

		if msgSize > 0 {
			data := make([]byte, msgSize)
			if err := readFull(r, data, pos+8); err != nil {
				return nil, utils.WrapError("message data read failed", err)
			}
			if msgType == msgContinuation {
				next, err := decodeContinuation(data, fl)
				if err != nil {
					return nil, err
				}
				queue = append(queue, next)
			} else {
				msgs = append(msgs, headerMessage{Type: msgType, Data: data})
			}
		}

		pos += align8(8 + msgSize)
	}

	if len(queue) == 0 {
		return msgs, nil
	}

	rest, err := walkBlocks(r, queue, fl, func(buf []byte) ([]headerMessage, error) {
		return parseV1Messages(buf, fl.Order)
	})
	if err != nil {
		return nil, err
	}
	return append(msgs, rest...), nil
}

func align8(n uint64) uint64 {
	if rem := n % 8; rem != 0 {
		n += 8 - rem
	}
	return n
}

// parseV1Messages parses the messages of a v1 continuation block.
func parseV1Messages(buf []byte, order binary.ByteOrder) ([]headerMessage, error) {
	var msgs []headerMessage
	pos := 0
	for pos+8 <= len(buf) {
		msgType := order.Uint16(buf[pos : pos+2])
		msgSize := int(order.Uint16(buf[pos+2 : pos+4]))
		start := pos + 8
		if start+msgSize > len(buf) {
			return nil, fmt.Errorf("message 0x%04x overruns header block (%d+%d > %d)", msgType, start, msgSize, len(buf))
		}
		if msgSize > 0 {
			msgs = append(msgs, headerMessage{Type: msgType, Data: buf[start : start+msgSize]})
		}
		//nolint:gosec // G115: start and msgSize are non-negative
		pos = int(align8(uint64(start + msgSize)))
	}
	return msgs, nil
}

// readV2Header parses a version 2 object header.
//
// Prefix: "OHDR", version, flags, optional times (16 bytes, flag 0x20),
// optional attribute phase change values (4 bytes, flag 0x10), then the
// size of chunk 0 in 1, 2, 4 or 8 bytes (flags bits 0-1). Messages follow,
// each with type (1), size (2), flags (1) and, when attribute creation
// order is tracked (flag 0x04), a 2-byte creation index.
func readV2Header(r utils.ReaderAt, addr uint64, flags uint8, fl fileLayout) ([]headerMessage, error) {
	pos := addr + 6
	if flags&0x20 != 0 {
		pos += 16
	}
	if flags&0x10 != 0 {
		pos += 4
	}

	width := uint8(1) << (flags & 0x03)
	sizeBuf := make([]byte, width)
	if err := readFull(r, sizeBuf, pos); err != nil {
		return nil, utils.WrapError("chunk size read failed", err)
	}
	chunkSize, err := utils.DecodeUint(sizeBuf, width, binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	pos += uint64(width)

	tracked := flags&0x04 != 0
	queue := []block{{addr: pos, size: chunkSize}}

	return walkBlocks(r, queue, fl, func(buf []byte) ([]headerMessage, error) {
		if len(buf) >= 4 && string(buf[0:4]) == signatureOCHK {
			// Continuation chunk: signature, messages, 4-byte checksum.
			if len(buf) < 8 {
				return nil, errors.New("continuation chunk too short")
			}
			buf = buf[4 : len(buf)-4]
		}
		return parseV2Messages(buf, tracked)
	})
}

func parseV2Messages(buf []byte, tracked bool) ([]headerMessage, error) {
	hdr := 4
	if tracked {
		hdr = 6
	}

	var msgs []headerMessage
	pos := 0
	// Anything shorter than a message header at the end is gap space.
	for pos+hdr <= len(buf) {
		msgType := uint16(buf[pos])
		msgSize := int(binary.LittleEndian.Uint16(buf[pos+1 : pos+3]))
		start := pos + hdr
		if start+msgSize > len(buf) {
			return nil, fmt.Errorf("message 0x%04x overruns header chunk (%d+%d > %d)", msgType, start, msgSize, len(buf))
		}
		if msgSize > 0 {
			msgs = append(msgs, headerMessage{Type: msgType, Data: buf[start : start+msgSize]})
		}
		pos = start + msgSize
	}
	return msgs, nil
}

// walkBlocks reads each queued block, parses its messages and appends the
// blocks named by continuation messages until the queue drains.
func walkBlocks(r utils.ReaderAt, queue []block, fl fileLayout, parse func([]byte) ([]headerMessage, error)) ([]headerMessage, error) {
	var all []headerMessage
	seen := make(map[uint64]bool)

	for n := 0; len(queue) > 0; n++ {
		if n > maxContinuations {
			return nil, fmt.Errorf("object header has more than %d continuation blocks", maxContinuations)
		}

		b := queue[0]
		queue = queue[1:]
		if seen[b.addr] {
			return nil, fmt.Errorf("continuation loop at address 0x%x", b.addr)
		}
		seen[b.addr] = true

		if b.size > maxHeaderBlock {
			return nil, fmt.Errorf("header block size %d exceeds limit %d", b.size, maxHeaderBlock)
		}
		buf := make([]byte, b.size)
		if err := readFull(r, buf, b.addr); err != nil {
			return nil, utils.WrapError("header block read failed", err)
		}

		msgs, err := parse(buf)
		if err != nil {
			return nil, err
		}

		for _, m := range msgs {
			if m.Type != msgContinuation {
				all = append(all, m)
				continue
			}
			next, err := decodeContinuation(m.Data, fl)
			if err != nil {
				return nil, err
			}
			queue = append(queue, next)
		}
	}

	return all, nil
}

// decodeContinuation decodes a continuation message: the address
// (OffsetSize bytes) and length (LengthSize bytes) of the next block.
func decodeContinuation(data []byte, fl fileLayout) (block, error) {
	need := int(fl.OffsetSize) + int(fl.LengthSize)
	if len(data) < need {
		return block{}, fmt.Errorf("continuation message too small: need %d bytes, got %d", need, len(data))
	}

	addr, err := utils.DecodeUint(data, fl.OffsetSize, fl.Order)
	if err != nil {
		return block{}, utils.WrapError("continuation address", err)
	}
	size, err := utils.DecodeUint(data[fl.OffsetSize:], fl.LengthSize, fl.Order)
	if err != nil {
		return block{}, utils.WrapError("continuation length", err)
	}
	if size == 0 {
		return block{}, errors.New("invalid continuation block size: 0")
	}

	return block{addr: addr, size: size}, nil
}

// readFull fills buf from r at addr.
func readFull(r utils.ReaderAt, buf []byte, addr uint64) error {
	if addr > 1<<62 {
		return fmt.Errorf("address 0x%x out of range", addr)
	}
	//nolint:gosec // G115: bounded above
	n, err := r.ReadAt(buf, int64(addr))
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// probeDataset reads the shape and element type of the dataset whose
// object header is at addr.
func probeDataset(r utils.ReaderAt, addr uint64, fl fileLayout) (dataspaceInfo, datatypeInfo, error) {
	msgs, err := readHeaderMessages(r, addr, fl)
	if err != nil {
		return dataspaceInfo{}, datatypeInfo{}, err
	}

	var space, dtype *headerMessage
	for i := range msgs {
		switch msgs[i].Type {
		case msgDataspace:
			if space == nil {
				space = &msgs[i]
			}
		case msgDatatype:
			if dtype == nil {
				dtype = &msgs[i]
			}
		}
	}
	if space == nil {
		return dataspaceInfo{}, datatypeInfo{}, errors.New("dataspace message not found")
	}
	if dtype == nil {
		return dataspaceInfo{}, datatypeInfo{}, errors.New("datatype message not found")
	}

	ds, err := decodeDataspace(space.Data, fl.LengthSize)
	if err != nil {
		return dataspaceInfo{}, datatypeInfo{}, utils.WrapError("dataspace decode failed", err)
	}
	dt, err := decodeDatatype(dtype.Data)
	if err != nil {
		return dataspaceInfo{}, datatypeInfo{}, utils.WrapError("datatype decode failed", err)
	}

	return ds, dt, nil
}
