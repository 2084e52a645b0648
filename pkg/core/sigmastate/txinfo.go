package sigmastate

import (
	"sort"

	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// TxInfo aggregates sigma data of all transactions in a block. It's filled
// by the Validator and consumed by State.AddBlock.
type TxInfo struct {
	// Mints are in the validation order until Complete sorts them.
	Mints []sigma.Mint
	// SpentSerials maps spent serials to their denominations.
	SpentSerials map[sigma.Serial]sigma.Denomination
	// Transactions are hashes of sigma transactions accepted into the block.
	Transactions map[util.Uint256]struct{}

	HasSpendV1 bool
	HasSpendV2 bool

	minted   map[sigma.PublicCoin]struct{}
	complete bool
}

// NewTxInfo returns an empty aggregate.
func NewTxInfo() *TxInfo {
	return &TxInfo{
		SpentSerials: make(map[sigma.Serial]sigma.Denomination),
		Transactions: make(map[util.Uint256]struct{}),
		minted:       make(map[sigma.PublicCoin]struct{}),
	}
}

// HasMint tells whether the coin is minted by the block.
func (i *TxInfo) HasMint(c sigma.PublicCoin) bool {
	_, ok := i.minted[c]
	return ok
}

// HasSerial tells whether the serial is spent by the block.
func (i *TxInfo) HasSerial(s sigma.Serial) bool {
	_, ok := i.SpentSerials[s]
	return ok
}

// IsComplete tells whether Complete was called.
func (i *TxInfo) IsComplete() bool {
	return i.complete
}

// Complete sorts mints by denomination and coin and freezes the aggregate,
// the Validator doesn't record anything into it after that.
func (i *TxInfo) Complete() {
	sort.Slice(i.Mints, func(a, b int) bool { return i.Mints[a].Compare(i.Mints[b]) < 0 })
	i.complete = true
}

func (i *TxInfo) addMint(m sigma.Mint) {
	i.Mints = append(i.Mints, m)
	i.minted[m.Coin] = struct{}{}
}
