package transaction

import (
	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
)

// MintOutput creates a new coin of the given denomination. Commitment is
// kept raw, its validity is a consensus check.
type MintOutput struct {
	Denomination sigma.Denomination
	Commitment   []byte
}

// EncodeBinary implements the io.Serializable interface.
func (m *MintOutput) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(m.Denomination))
	w.WriteVarBytes(m.Commitment)
}

// DecodeBinary implements the io.Serializable interface.
func (m *MintOutput) DecodeBinary(r *io.BinReader) {
	m.Denomination = sigma.Denomination(r.ReadB())
	m.Commitment = r.ReadVarBytes(sigma.PublicCoinSize * 2)
}
