package chain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// MaxGroupsPerBlock limits the number of coin groups a single decoded block
// index entry can touch.
const MaxGroupsPerBlock = 256

// Position describes a block by its height and hash.
type Position struct {
	Height uint32
	Hash   util.Uint256
}

// IsSet tells whether the position refers to some block.
func (p Position) IsSet() bool {
	return !p.Hash.IsZero()
}

// String implements the fmt.Stringer interface.
func (p Position) String() string {
	return fmt.Sprintf("%d:%s", p.Height, p.Hash.StringBE())
}

// EncodeBinary implements the io.Serializable interface.
func (p *Position) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(p.Height)
	p.Hash.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (p *Position) DecodeBinary(r *io.BinReader) {
	p.Height = r.ReadU32LE()
	p.Hash.DecodeBinary(r)
}

// BlockIndex is a per-block metadata entry. Besides linkage data it keeps
// the decoded sigma aggregate of the block: coins it minted (per group, in
// insertion order) and serials it spent. This is enough to apply or revert
// the block's effect on the coin registry without the block itself.
type BlockIndex struct {
	Height    uint32
	Hash      util.Uint256
	PrevHash  util.Uint256
	Timestamp uint64

	// Prev is the previous entry, nil for genesis or detached entries.
	Prev *BlockIndex

	MintedCoins  map[sigma.GroupKey][]sigma.PublicCoin
	SpentSerials map[sigma.Serial]sigma.Denomination
}

// NewBlockIndex creates an entry with empty aggregate.
func NewBlockIndex(height uint32, hash, prev util.Uint256, timestamp uint64) *BlockIndex {
	return &BlockIndex{
		Height:       height,
		Hash:         hash,
		PrevHash:     prev,
		Timestamp:    timestamp,
		MintedCoins:  make(map[sigma.GroupKey][]sigma.PublicCoin),
		SpentSerials: make(map[sigma.Serial]sigma.Denomination),
	}
}

// Pos returns the position of the block.
func (b *BlockIndex) Pos() Position {
	return Position{Height: b.Height, Hash: b.Hash}
}

// GroupKeys returns groups the block minted into, sorted.
func (b *BlockIndex) GroupKeys() []sigma.GroupKey {
	keys := make([]sigma.GroupKey, 0, len(b.MintedCoins))
	for k := range b.MintedCoins {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Serials returns serials spent by the block, sorted.
func (b *BlockIndex) Serials() []sigma.Serial {
	res := make([]sigma.Serial, 0, len(b.SpentSerials))
	for s := range b.SpentSerials {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Compare(res[j]) < 0 })
	return res
}

// EncodeBinary implements the io.Serializable interface. Maps are written in
// sorted order so equal entries have equal encodings.
func (b *BlockIndex) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(b.Height)
	b.Hash.EncodeBinary(w)
	b.PrevHash.EncodeBinary(w)
	w.WriteU64LE(b.Timestamp)
	keys := b.GroupKeys()
	w.WriteVarUint(uint64(len(keys)))
	for i := range keys {
		keys[i].EncodeBinary(w)
		io.WriteArray(w, b.MintedCoins[keys[i]])
	}
	serials := b.Serials()
	w.WriteVarUint(uint64(len(serials)))
	for i := range serials {
		serials[i].EncodeBinary(w)
		w.WriteB(byte(b.SpentSerials[serials[i]]))
	}
}

// DecodeBinary implements the io.Serializable interface.
func (b *BlockIndex) DecodeBinary(r *io.BinReader) {
	b.Height = r.ReadU32LE()
	b.Hash.DecodeBinary(r)
	b.PrevHash.DecodeBinary(r)
	b.Timestamp = r.ReadU64LE()
	b.Prev = nil

	n := r.ReadVarUint()
	if r.Err != nil {
		return
	}
	if n > MaxGroupsPerBlock {
		r.Err = fmt.Errorf("too many groups in block index entry: %d", n)
		return
	}
	b.MintedCoins = make(map[sigma.GroupKey][]sigma.PublicCoin, n)
	for i := uint64(0); i < n; i++ {
		var k sigma.GroupKey
		k.DecodeBinary(r)
		coins := io.ReadArray[sigma.PublicCoin](r)
		if r.Err != nil {
			return
		}
		if len(coins) == 0 {
			r.Err = errors.New("empty group in block index entry")
			return
		}
		b.MintedCoins[k] = coins
	}

	n = r.ReadVarUint()
	if r.Err != nil {
		return
	}
	if n > io.MaxArraySize {
		r.Err = fmt.Errorf("too many serials in block index entry: %d", n)
		return
	}
	b.SpentSerials = make(map[sigma.Serial]sigma.Denomination, n)
	for i := uint64(0); i < n; i++ {
		var s sigma.Serial
		s.DecodeBinary(r)
		b.SpentSerials[s] = sigma.Denomination(r.ReadB())
	}
}
