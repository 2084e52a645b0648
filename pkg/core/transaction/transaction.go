package transaction

import (
	"crypto/sha256"
	"errors"

	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

const (
	// MaxMintsPerTransaction is the maximum number of mint outputs a single
	// transaction can carry.
	MaxMintsPerTransaction = 1024
	// MaxSpendsPerTransaction is the maximum number of spend inputs a single
	// transaction can carry.
	MaxSpendsPerTransaction = 64
)

// ErrInvalidVersion is returned when decoding a transaction of unsupported
// version.
var ErrInvalidVersion = errors.New("invalid transaction version")

// Transaction is the decoded sigma part of a chain transaction: its coin
// mints and spends. Everything else the transaction carries is irrelevant to
// the coin state and is represented by the opaque Nonce making hashes unique.
type Transaction struct {
	// Version of the transaction format, currently 0.
	Version uint8
	// Nonce differentiates otherwise identical transactions.
	Nonce uint32
	// Mints are the coins created by this transaction.
	Mints []MintOutput
	// Spends reveal serials of the coins destroyed by this transaction.
	Spends []SpendInput

	hash   util.Uint256
	hashed bool
}

// New returns a new transaction with the given mints and spends.
func New(mints []MintOutput, spends []SpendInput) *Transaction {
	return &Transaction{
		Mints:  mints,
		Spends: spends,
	}
}

// Hash returns the hash of the transaction. It's cached, so modifications
// of a hashed transaction are not reflected in its hash.
func (t *Transaction) Hash() util.Uint256 {
	if !t.hashed {
		t.hash = t.computeHash()
		t.hashed = true
	}
	return t.hash
}

func (t *Transaction) computeHash() util.Uint256 {
	buf := io.NewBufBinWriter()
	t.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		panic(buf.Err)
	}
	first := sha256.Sum256(buf.Bytes())
	return sha256.Sum256(first[:])
}

// IsSigma tells whether the transaction touches the coin state at all.
func (t *Transaction) IsSigma() bool {
	return len(t.Mints) != 0 || len(t.Spends) != 0
}

// EncodeBinary implements the io.Serializable interface.
func (t *Transaction) EncodeBinary(w *io.BinWriter) {
	w.WriteB(t.Version)
	w.WriteU32LE(t.Nonce)
	io.WriteArray(w, t.Mints)
	io.WriteArray(w, t.Spends)
}

// DecodeBinary implements the io.Serializable interface.
func (t *Transaction) DecodeBinary(r *io.BinReader) {
	t.Version = r.ReadB()
	if r.Err == nil && t.Version != 0 {
		r.Err = ErrInvalidVersion
		return
	}
	t.Nonce = r.ReadU32LE()
	t.Mints = io.ReadArray[MintOutput](r, MaxMintsPerTransaction)
	t.Spends = io.ReadArray[SpendInput](r, MaxSpendsPerTransaction)
	t.hashed = false
}
