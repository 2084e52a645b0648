package io

import (
	"encoding/binary"
	"io"
)

// BinWriter wraps an io.Writer remembering the first write error, all
// subsequent writes are no-op then. Check Err once after encoding a whole
// structure.
type BinWriter struct {
	w   io.Writer
	Err error
	uv  [9]byte
}

// NewBinWriterFromIO makes a BinWriter from io.Writer.
func NewBinWriterFromIO(iow io.Writer) *BinWriter {
	return &BinWriter{w: iow}
}

// WriteU64LE writes a little-endian uint64.
func (w *BinWriter) WriteU64LE(u64 uint64) {
	binary.LittleEndian.PutUint64(w.uv[:8], u64)
	w.WriteBytes(w.uv[:8])
}

// WriteU32LE writes a little-endian uint32.
func (w *BinWriter) WriteU32LE(u32 uint32) {
	binary.LittleEndian.PutUint32(w.uv[:4], u32)
	w.WriteBytes(w.uv[:4])
}

// WriteB writes a single byte.
func (w *BinWriter) WriteB(u8 byte) {
	w.uv[0] = u8
	w.WriteBytes(w.uv[:1])
}

// WriteArray writes the length of arr followed by its elements.
func WriteArray[Slice ~[]E, E any, PE interface {
	*E
	Serializable
}](w *BinWriter, arr Slice) {
	w.WriteVarUint(uint64(len(arr)))
	for i := range arr {
		PE(&arr[i]).EncodeBinary(w)
	}
}

// WriteVarUint writes val in the variable-length form: values below 0xfd
// take one byte, larger ones are prefixed with 0xfd, 0xfe or 0xff followed by
// a little-endian uint16, uint32 or uint64 respectively.
func (w *BinWriter) WriteVarUint(val uint64) {
	var n int
	switch {
	case val < 0xfd:
		w.uv[0] = byte(val)
		n = 1
	case val < 0xFFFF:
		w.uv[0] = 0xfd
		binary.LittleEndian.PutUint16(w.uv[1:], uint16(val))
		n = 3
	case val < 0xFFFFFFFF:
		w.uv[0] = 0xfe
		binary.LittleEndian.PutUint32(w.uv[1:], uint32(val))
		n = 5
	default:
		w.uv[0] = 0xff
		binary.LittleEndian.PutUint64(w.uv[1:], val)
		n = 9
	}
	w.WriteBytes(w.uv[:n])
}

// WriteBytes writes b as is, without a length prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	if w.Err != nil {
		return
	}
	_, w.Err = w.w.Write(b)
}

// WriteVarBytes writes b prefixed with its length.
func (w *BinWriter) WriteVarBytes(b []byte) {
	w.WriteVarUint(uint64(len(b)))
	w.WriteBytes(b)
}
