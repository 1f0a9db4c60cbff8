package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "with path",
			err:      &Error{Kind: FileNotFound, Path: "/tmp/does_not_exist.h5", Cause: errors.New("no such file")},
			expected: "/tmp/does_not_exist.h5: no such file",
		},
		{
			name:     "without path",
			err:      &Error{Kind: InternalError, Cause: errors.New("boom")},
			expected: "InternalError: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestNewError_NilCause(t *testing.T) {
	require.NoError(t, NewError(WriteError, "out.xdmf", nil))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", NewError(InvalidFormat, "a.h5", errors.New("bad signature")), InvalidFormat},
		{"wrapped", fmt.Errorf("extract: %w", NewError(NotReadable, "a.h5", fs.ErrPermission)), NotReadable},
		{"inside H5Error", WrapError("probe", NewError(WriteError, "b.xdmf", errors.New("x"))), WriteError},
		{"unclassified", errors.New("plain"), InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	err := NewError(NotReadable, "a.h5", fs.ErrPermission)
	require.ErrorIs(t, err, fs.ErrPermission)

	var classified *Error
	require.ErrorAs(t, err, &classified)
	require.Equal(t, "a.h5", classified.Path)
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "FileNotFound", FileNotFound.String())
	require.Equal(t, "NotReadable", NotReadable.String())
	require.Equal(t, "InvalidFormat", InvalidFormat.String())
	require.Equal(t, "EmptyInput", EmptyInput.String())
	require.Equal(t, "WriteError", WriteError.String())
	require.Equal(t, "InternalError", InternalError.String())
}

func TestH5Error_Error(t *testing.T) {
	err := &H5Error{Context: "reading superblock", Cause: errors.New("invalid signature")}
	require.Equal(t, "reading superblock: invalid signature", err.Error())
}

func TestWrapError(t *testing.T) {
	require.NoError(t, WrapError("nothing", nil))

	cause := errors.New("IO error")
	err := WrapError("reading data", cause)
	require.Error(t, err)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "reading data: IO error", err.Error())
}

func TestWrapError_ChainedWrapping(t *testing.T) {
	base := errors.New("unexpected EOF")
	level1 := WrapError("message data read failed", base)
	level2 := WrapError("dataset /ex", level1)

	require.ErrorIs(t, level2, base)
	require.Equal(t, "dataset /ex: message data read failed: unexpected EOF", level2.Error())
}
