package block

import (
	"crypto/sha256"

	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// Header holds the head info of a block.
type Header struct {
	// Version of the block format.
	Version uint32
	// Hash of the previous block.
	PrevHash util.Uint256
	// Root hash of the transaction list.
	MerkleRoot util.Uint256
	// Timestamp is a millisecond-precision timestamp.
	Timestamp uint64
	// Index (height) of the block.
	Index uint32
	// Nonce is the free field of the header.
	Nonce uint64

	hash   util.Uint256
	hashed bool
}

// Hash returns the hash of the block header. It's cached after the first
// call.
func (h *Header) Hash() util.Uint256 {
	if !h.hashed {
		buf := io.NewBufBinWriter()
		h.EncodeBinary(buf.BinWriter)
		if buf.Err != nil {
			panic(buf.Err)
		}
		first := sha256.Sum256(buf.Bytes())
		h.hash = sha256.Sum256(first[:])
		h.hashed = true
	}
	return h.hash
}

// EncodeBinary implements the io.Serializable interface.
func (h *Header) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(h.Version)
	h.PrevHash.EncodeBinary(w)
	h.MerkleRoot.EncodeBinary(w)
	w.WriteU64LE(h.Timestamp)
	w.WriteU32LE(h.Index)
	w.WriteU64LE(h.Nonce)
}

// DecodeBinary implements the io.Serializable interface.
func (h *Header) DecodeBinary(r *io.BinReader) {
	h.Version = r.ReadU32LE()
	h.PrevHash.DecodeBinary(r)
	h.MerkleRoot.DecodeBinary(r)
	h.Timestamp = r.ReadU64LE()
	h.Index = r.ReadU32LE()
	h.Nonce = r.ReadU64LE()
	h.hashed = false
}
