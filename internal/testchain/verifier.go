package testchain

import (
	"bytes"

	"github.com/nspcc-dev/sigma-go/pkg/core/transaction"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// Verifier is a membership proof stub: a proof is the plain encoding of the
// spent coin and it's valid iff the coin is in the anonymity set.
type Verifier struct{}

// VerifySpend implements the proof verifier interface.
func (Verifier) VerifySpend(spend *transaction.SpendInput, coins []sigma.PublicCoin, _ util.Uint256) bool {
	for i := range coins {
		if bytes.Equal(coins[i][:], spend.Proof) {
			return true
		}
	}
	return false
}

// RejectAll is a proof verifier failing every proof.
type RejectAll struct{}

// VerifySpend implements the proof verifier interface.
func (RejectAll) VerifySpend(*transaction.SpendInput, []sigma.PublicCoin, util.Uint256) bool {
	return false
}
