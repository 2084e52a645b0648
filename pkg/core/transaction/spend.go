package transaction

import (
	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// Spend versions.
const (
	SpendV1 uint8 = 1
	SpendV2 uint8 = 2
)

// MaxProofSize is the maximum size of a membership proof.
const MaxProofSize = 64 * 1024

// SpendInput destroys a coin of the given denomination from the GroupID
// coin group by revealing its serial with a membership proof. AnchorHash
// pins the anonymity set the proof was built against: all coins of the
// group minted up to and including that block.
type SpendInput struct {
	Version      uint8
	Denomination sigma.Denomination
	GroupID      uint32
	AnchorHash   util.Uint256
	Serial       []byte
	Proof        []byte
}

// EncodeBinary implements the io.Serializable interface.
func (s *SpendInput) EncodeBinary(w *io.BinWriter) {
	w.WriteB(s.Version)
	w.WriteB(byte(s.Denomination))
	w.WriteU32LE(s.GroupID)
	s.AnchorHash.EncodeBinary(w)
	w.WriteVarBytes(s.Serial)
	w.WriteVarBytes(s.Proof)
}

// DecodeBinary implements the io.Serializable interface.
func (s *SpendInput) DecodeBinary(r *io.BinReader) {
	s.Version = r.ReadB()
	s.Denomination = sigma.Denomination(r.ReadB())
	s.GroupID = r.ReadU32LE()
	s.AnchorHash.DecodeBinary(r)
	s.Serial = r.ReadVarBytes(sigma.SerialSize * 2)
	s.Proof = r.ReadVarBytes(MaxProofSize)
}
