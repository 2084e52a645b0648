package io

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mocks io.Reader and io.Writer, always fails to Write() or Read().
type badRW struct{}

func (w *badRW) Write(p []byte) (int, error) {
	return 0, errors.New("it always fails")
}

func (w *badRW) Read(p []byte) (int, error) {
	return w.Write(p)
}

func TestWriteU64LE(t *testing.T) {
	var (
		val     uint64 = 0xbadc0de15a11dead
		readval uint64
		bin     = []byte{0xad, 0xde, 0x11, 0x5a, 0xe1, 0x0d, 0xdc, 0xba}
	)
	bw := NewBufBinWriter()
	bw.WriteU64LE(val)
	assert.Nil(t, bw.Err)
	wrotebin := bw.Bytes()
	assert.Equal(t, wrotebin, bin)
	br := NewBinReaderFromBuf(bin)
	readval = br.ReadU64LE()
	assert.Nil(t, br.Err)
	assert.Equal(t, val, readval)
}

func TestWriteU32LE(t *testing.T) {
	var (
		val uint32 = 0xdeadbeef
		bin        = []byte{0xef, 0xbe, 0xad, 0xde}
	)
	bw := NewBufBinWriter()
	bw.WriteU32LE(val)
	assert.Nil(t, bw.Err)
	assert.Equal(t, bin, bw.Bytes())
	br := NewBinReaderFromBuf(bin)
	assert.Equal(t, val, br.ReadU32LE())
	assert.Nil(t, br.Err)
}

func TestReadLEErrors(t *testing.T) {
	bin := []byte{0xad, 0xde, 0x11, 0x5a, 0xe1, 0x0d, 0xdc, 0xba}
	br := NewBinReaderFromBuf(bin)
	// Prime the buffers with something.
	_ = br.ReadU64LE()
	assert.Nil(t, br.Err)

	assert.Equal(t, uint64(0), br.ReadU64LE())
	assert.Equal(t, uint32(0), br.ReadU32LE())
	assert.Equal(t, byte(0), br.ReadB())
	assert.NotNil(t, br.Err)
}

func TestBufBinWriterDrained(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteB(1)
	require.Equal(t, 1, bw.Len())
	require.Equal(t, []byte{1}, bw.Bytes())
	require.Nil(t, bw.Bytes())
	require.ErrorIs(t, bw.Err, ErrDrained)

	bw.Reset()
	bw.WriteB(2)
	require.Equal(t, []byte{2}, bw.Bytes())
}

func TestWriterErrHandling(t *testing.T) {
	var badio = &badRW{}
	bw := NewBinWriterFromIO(badio)
	bw.WriteU32LE(uint32(0))
	assert.NotNil(t, bw.Err)
	// These should work (not panic), but not actually write anything.
	bw.WriteU64LE(uint64(0))
	bw.WriteVarUint(0)
	bw.WriteVarBytes([]byte{0x55, 0xaa})
	assert.NotNil(t, bw.Err)
}

func TestReaderErrHandling(t *testing.T) {
	var badio = &badRW{}
	br := NewBinReaderFromIO(badio)
	br.ReadU32LE()
	assert.NotNil(t, br.Err)
	// These should work (not panic), but not actually read anything.
	assert.Equal(t, uint64(0), br.ReadVarUint())
	assert.Nil(t, br.ReadVarBytes())
	assert.NotNil(t, br.Err)
}

func TestBufBinWriterVarUint(t *testing.T) {
	for val, size := range map[uint64]int{1: 1, 0xfc: 1, 0xfd: 3, 1000: 3, 0xfffe: 3, 0x10000: 5, 0xfffffffe: 5, 0x100000000: 9} {
		bw := NewBufBinWriter()
		bw.WriteVarUint(val)
		assert.Nil(t, bw.Err)
		require.Equal(t, size, bw.Len())
		br := NewBinReaderFromBuf(bw.Bytes())
		assert.Equal(t, val, br.ReadVarUint())
		assert.Nil(t, br.Err)
	}
}

func TestWriteVarBytes(t *testing.T) {
	b := []byte{0xde, 0xad, 0xbe, 0xef}
	bw := NewBufBinWriter()
	bw.WriteVarBytes(b)
	bw.WriteVarBytes(nil)
	assert.Nil(t, bw.Err)
	br := NewBinReaderFromBuf(bw.Bytes())
	assert.Equal(t, b, br.ReadVarBytes())
	assert.Equal(t, []byte{}, br.ReadVarBytes())
	assert.Nil(t, br.Err)
}

func TestReadVarBytesTooBig(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteVarBytes(make([]byte, 10))
	br := NewBinReaderFromBuf(bw.Bytes())
	br.ReadVarBytes(5)
	require.ErrorIs(t, br.Err, ErrTooBig)
}

type testSerializable uint32

func (t *testSerializable) EncodeBinary(w *BinWriter) {
	w.WriteU32LE(uint32(*t))
}

func (t *testSerializable) DecodeBinary(r *BinReader) {
	*t = testSerializable(r.ReadU32LE())
}

func TestArrays(t *testing.T) {
	arr := []testSerializable{1, 2, 3, 4}
	bw := NewBufBinWriter()
	WriteArray(bw.BinWriter, arr)
	require.NoError(t, bw.Err)

	br := NewBinReaderFromBuf(bw.Bytes())
	actual := ReadArray[testSerializable](br)
	require.NoError(t, br.Err)
	require.Equal(t, arr, actual)

	br = NewBinReaderFromBuf([]byte{4, 1, 0, 0, 0})
	actual = ReadArray[testSerializable](br, 3)
	require.ErrorIs(t, br.Err, ErrTooBig)
	require.Nil(t, actual)
}
