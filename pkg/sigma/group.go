package sigma

import (
	"fmt"

	"github.com/nspcc-dev/sigma-go/pkg/io"
)

// GroupKey identifies a single coin group: a bounded anonymity set of
// coins of the same denomination.
type GroupKey struct {
	Denomination Denomination
	ID           uint32
}

// Mint is a coin together with its denomination.
type Mint struct {
	Denomination Denomination
	Coin         PublicCoin
}

// String implements the fmt.Stringer interface.
func (k GroupKey) String() string {
	return fmt.Sprintf("%s/%d", k.Denomination, k.ID)
}

// Less orders keys by denomination first and then by id.
func (k GroupKey) Less(other GroupKey) bool {
	if k.Denomination != other.Denomination {
		return k.Denomination < other.Denomination
	}
	return k.ID < other.ID
}

// EncodeBinary implements the io.Serializable interface.
func (k *GroupKey) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(k.Denomination))
	w.WriteU32LE(k.ID)
}

// DecodeBinary implements the io.Serializable interface.
func (k *GroupKey) DecodeBinary(r *io.BinReader) {
	k.Denomination = Denomination(r.ReadB())
	k.ID = r.ReadU32LE()
}

// Compare orders mints by denomination and then by coin bytes.
func (m Mint) Compare(other Mint) int {
	if m.Denomination != other.Denomination {
		if m.Denomination < other.Denomination {
			return -1
		}
		return 1
	}
	return m.Coin.Compare(other.Coin)
}

// EncodeBinary implements the io.Serializable interface.
func (m *Mint) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(m.Denomination))
	m.Coin.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (m *Mint) DecodeBinary(r *io.BinReader) {
	m.Denomination = Denomination(r.ReadB())
	m.Coin.DecodeBinary(r)
}
