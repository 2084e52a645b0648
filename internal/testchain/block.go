package testchain

import (
	"github.com/nspcc-dev/sigma-go/pkg/core/block"
	"github.com/nspcc-dev/sigma-go/pkg/core/transaction"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// TimePerBlock is the timestamp step between test blocks in milliseconds.
const TimePerBlock = 15000

// Ledger is the part of the chain required to build the next block.
type Ledger interface {
	BlockHeight() uint32
	CurrentBlockHash() util.Uint256
}

// NewBlock creates a block following the given one.
func NewBlock(prev *block.Block, txs ...*transaction.Transaction) *block.Block {
	return newBlock(prev.Index+1, prev.Hash(), prev.Timestamp+TimePerBlock, txs)
}

// NextBlock creates a block on top of the current ledger tip.
func NextBlock(bc Ledger, txs ...*transaction.Transaction) *block.Block {
	h := bc.BlockHeight() + 1
	return newBlock(h, bc.CurrentBlockHash(), uint64(h)*TimePerBlock, txs)
}

func newBlock(index uint32, prev util.Uint256, ts uint64, txs []*transaction.Transaction) *block.Block {
	b := &block.Block{
		Header: block.Header{
			PrevHash:  prev,
			Timestamp: ts,
			Index:     index,
		},
		Transactions: txs,
	}
	b.RebuildMerkleRoot()
	return b
}
