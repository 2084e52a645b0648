package block

import (
	"crypto/sha256"
	"errors"

	"github.com/nspcc-dev/sigma-go/pkg/core/transaction"
	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// MaxTransactionsPerBlock is the maximum number of transactions per block.
const MaxTransactionsPerBlock = 0xffff

var (
	// ErrDuplicateTx is returned by Verify for blocks containing the same
	// transaction twice.
	ErrDuplicateTx = errors.New("transaction duplication is not allowed")
	// ErrMerkleMismatch is returned by Verify if the header doesn't commit to
	// the block's transaction list.
	ErrMerkleMismatch = errors.New("MerkleRoot mismatch")
)

// Block represents one block in the chain.
type Block struct {
	// The header of the block.
	Header

	// Transaction list.
	Transactions []*transaction.Transaction
}

// New creates a new blank block.
func New() *Block {
	return &Block{}
}

// ComputeMerkleRoot computes Merkle tree root hash based on actual block's data.
func (b *Block) ComputeMerkleRoot() util.Uint256 {
	hashes := make([]util.Uint256, len(b.Transactions))
	for i, tx := range b.Transactions {
		hashes[i] = tx.Hash()
	}
	return CalcMerkleRoot(hashes)
}

// RebuildMerkleRoot rebuilds the merkleroot of the block.
func (b *Block) RebuildMerkleRoot() {
	b.MerkleRoot = b.ComputeMerkleRoot()
	b.hashed = false
}

// Verify verifies the integrity of the block: no duplicated transactions
// and a matching merkle root.
func (b *Block) Verify() error {
	hashes := make(map[util.Uint256]struct{}, len(b.Transactions))
	for _, tx := range b.Transactions {
		h := tx.Hash()
		if _, ok := hashes[h]; ok {
			return ErrDuplicateTx
		}
		hashes[h] = struct{}{}
	}
	if !b.MerkleRoot.Equals(b.ComputeMerkleRoot()) {
		return ErrMerkleMismatch
	}
	return nil
}

// EncodeBinary implements the io.Serializable interface.
func (b *Block) EncodeBinary(w *io.BinWriter) {
	b.Header.EncodeBinary(w)
	w.WriteVarUint(uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		tx.EncodeBinary(w)
	}
}

// DecodeBinary implements the io.Serializable interface.
func (b *Block) DecodeBinary(r *io.BinReader) {
	b.Header.DecodeBinary(r)
	n := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	if n > MaxTransactionsPerBlock {
		r.Err = errors.New("too many transactions")
		return
	}
	txes := make([]*transaction.Transaction, n)
	for i := range txes {
		tx := new(transaction.Transaction)
		tx.DecodeBinary(r)
		if r.Err != nil {
			return
		}
		txes[i] = tx
	}
	b.Transactions = txes
}

// CalcMerkleRoot calculates the Merkle root hash value for the given slice of
// hashes. An odd element on any level is paired with itself, an empty list
// has a zero root.
func CalcMerkleRoot(hashes []util.Uint256) util.Uint256 {
	if len(hashes) == 0 {
		return util.Uint256{}
	}
	level := make([]util.Uint256, len(hashes))
	copy(level, hashes)
	for len(level) > 1 {
		next := make([]util.Uint256, (len(level)+1)/2)
		for i := range next {
			left := level[2*i]
			right := left
			if 2*i+1 < len(level) {
				right = level[2*i+1]
			}
			next[i] = hashPair(left, right)
		}
		level = next
	}
	return level[0]
}

func hashPair(a, b util.Uint256) util.Uint256 {
	var buf [2 * util.Uint256Size]byte
	copy(buf[:], a[:])
	copy(buf[util.Uint256Size:], b[:])
	first := sha256.Sum256(buf[:])
	return sha256.Sum256(first[:])
}
