package h5meta

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/eppic-xdmf/internal/utils"
)

func superblockV2(base, root uint64, size int) []byte {
	buf := make([]byte, size)
	copy(buf, hdf5Signature)
	buf[8] = 2
	buf[9] = 8
	buf[10] = 8
	binary.LittleEndian.PutUint64(buf[12:20], base)
	binary.LittleEndian.PutUint64(buf[20:28], undefinedAddress)
	binary.LittleEndian.PutUint64(buf[28:36], uint64(size))
	binary.LittleEndian.PutUint64(buf[36:44], root)
	return buf
}

func superblockV0(objHeader, btree uint64, size int) []byte {
	buf := make([]byte, size)
	copy(buf, hdf5Signature)
	buf[13] = 8
	buf[14] = 8
	binary.LittleEndian.PutUint64(buf[64:72], objHeader)
	binary.LittleEndian.PutUint64(buf[80:88], btree)
	return buf
}

func TestCheckSuperblock(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{"v2 valid", superblockV2(0, 48, 256), ""},
		{"v2 root past end", superblockV2(0, 1<<40, 256), "root group address"},
		{"v2 root undefined", superblockV2(0, undefinedAddress, 256), "root group address"},
		{"v2 base past end", superblockV2(4096, 48, 256), "base address"},
		{"v0 object header", superblockV0(96, 0, 512), ""},
		{"v0 btree fallback", superblockV0(0, 200, 512), ""},
		{"v0 root past end", superblockV0(0, 1<<32, 512), "root group address"},
		{"too small", superblockV2(0, 48, 256)[:40], "too small"},
		{"v0 truncated", superblockV0(96, 0, 512)[:60], "superblock decode failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSuperblock(bytes.NewReader(tt.data), int64(len(tt.data)))
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCheckSuperblock_UnsupportedVersion(t *testing.T) {
	data := superblockV2(0, 48, 256)
	data[8] = 7
	err := checkSuperblock(bytes.NewReader(data), int64(len(data)))
	require.ErrorContains(t, err, "unsupported superblock version")
}

func TestExtract_CorruptRootAddress(t *testing.T) {
	path := writeFieldFile(t, []uint64{2, 3}, "ex")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, byte(2), data[8], "fixture writer emits a version 2 superblock")
	binary.LittleEndian.PutUint64(data[36:44], 1<<40)

	corrupt := filepath.Join(t.TempDir(), "corrupt.h5")
	require.NoError(t, os.WriteFile(corrupt, data, 0o600))

	_, err = Extract(corrupt, WithLogger(quietLogger()))
	require.Equal(t, utils.InvalidFormat, utils.KindOf(err))
	require.ErrorContains(t, err, "root group address")
}
