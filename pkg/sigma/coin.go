package sigma

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/nspcc-dev/sigma-go/pkg/io"
)

// PublicCoinSize is the size of a compressed public coin commitment.
const PublicCoinSize = bn254.SizeOfG1AffineCompressed

// SerialSize is the size of a canonically encoded serial number.
const SerialSize = fr.Bytes

var (
	// ErrInvalidCoin is returned for commitments that are not valid
	// compressed group elements.
	ErrInvalidCoin = errors.New("invalid public coin encoding")
	// ErrInvalidSerial is returned for serials that are not canonical
	// non-zero scalars.
	ErrInvalidSerial = errors.New("invalid serial encoding")
)

// PublicCoin is the public commitment of a minted coin, it's kept in its
// canonical compressed form, so it can be compared and used as a map key
// directly.
type PublicCoin [PublicCoinSize]byte

// Serial is the serial number revealed when a coin is spent, it's a
// canonically encoded big-endian scalar.
type Serial [SerialSize]byte

// NewPublicCoin decodes commitment bytes checking that they represent a
// valid non-identity point in the prime-order subgroup.
func NewPublicCoin(b []byte) (PublicCoin, error) {
	var (
		c PublicCoin
		p bn254.G1Affine
	)
	if len(b) != PublicCoinSize {
		return c, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidCoin, PublicCoinSize, len(b))
	}
	if _, err := p.SetBytes(b); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidCoin, err)
	}
	if p.IsInfinity() {
		return c, fmt.Errorf("%w: identity element", ErrInvalidCoin)
	}
	canonical := p.Bytes()
	if !bytes.Equal(canonical[:], b) {
		return c, fmt.Errorf("%w: non-canonical encoding", ErrInvalidCoin)
	}
	copy(c[:], b)
	return c, nil
}

// NewSerial decodes serial bytes checking that they are a canonical non-zero
// scalar.
func NewSerial(b []byte) (Serial, error) {
	var s Serial
	if len(b) != SerialSize {
		return s, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSerial, SerialSize, len(b))
	}
	v := new(big.Int).SetBytes(b)
	if v.Sign() == 0 {
		return s, fmt.Errorf("%w: zero", ErrInvalidSerial)
	}
	if v.Cmp(fr.Modulus()) >= 0 {
		return s, fmt.Errorf("%w: not reduced", ErrInvalidSerial)
	}
	copy(s[:], b)
	return s, nil
}

// Compare performs three-way comparison of canonical coin encodings.
func (c PublicCoin) Compare(other PublicCoin) int {
	return bytes.Compare(c[:], other[:])
}

// String implements the fmt.Stringer interface.
func (c PublicCoin) String() string {
	return hex.EncodeToString(c[:])
}

// EncodeBinary implements the io.Serializable interface.
func (c *PublicCoin) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(c[:])
}

// DecodeBinary implements the io.Serializable interface.
func (c *PublicCoin) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(c[:])
}

// Compare performs three-way comparison of serials.
func (s Serial) Compare(other Serial) int {
	return bytes.Compare(s[:], other[:])
}

// String implements the fmt.Stringer interface.
func (s Serial) String() string {
	return hex.EncodeToString(s[:])
}

// EncodeBinary implements the io.Serializable interface.
func (s *Serial) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(s[:])
}

// DecodeBinary implements the io.Serializable interface.
func (s *Serial) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(s[:])
}
