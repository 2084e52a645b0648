package testchain

import (
	"github.com/nspcc-dev/sigma-go/pkg/core/transaction"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

var nonce uint32

// NewMintTx returns a transaction minting test coins with the given numbers.
func NewMintTx(d sigma.Denomination, coins ...uint64) *transaction.Transaction {
	mints := make([]transaction.MintOutput, len(coins))
	for i, n := range coins {
		mints[i] = transaction.MintOutput{Denomination: d, Commitment: CoinBytes(n)}
	}
	tx := transaction.New(mints, nil)
	nonce++
	tx.Nonce = nonce
	return tx
}

// NewSpend returns a version 2 spend of the test coin with number coin
// revealing the test serial with number serial. The proof is accepted by
// Verifier as long as the coin belongs to the anonymity set.
func NewSpend(d sigma.Denomination, groupID uint32, anchor util.Uint256, serial, coin uint64) transaction.SpendInput {
	return transaction.SpendInput{
		Version:      transaction.SpendV2,
		Denomination: d,
		GroupID:      groupID,
		AnchorHash:   anchor,
		Serial:       SerialBytes(serial),
		Proof:        CoinBytes(coin),
	}
}

// NewSpendTx wraps spends into a transaction.
func NewSpendTx(spends ...transaction.SpendInput) *transaction.Transaction {
	tx := transaction.New(nil, spends)
	nonce++
	tx.Nonce = nonce
	return tx
}
