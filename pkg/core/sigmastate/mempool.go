package sigmastate

import (
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// IsUsedCoinSerial tells whether the serial is spent on chain.
func (s *State) IsUsedCoinSerial(serial sigma.Serial) bool {
	_, ok := s.used[serial]
	return ok
}

// CanAddSpendToMempool tells whether the serial is neither spent nor claimed
// by an unconfirmed transaction.
func (s *State) CanAddSpendToMempool(serial sigma.Serial) bool {
	if s.IsUsedCoinSerial(serial) {
		return false
	}
	_, ok := s.pending[serial]
	return !ok
}

// AddSpendToMempool claims the serials for the transaction. Either all of
// them are claimed or nothing is changed and false is returned.
func (s *State) AddSpendToMempool(serials []sigma.Serial, txHash util.Uint256) bool {
	for i, serial := range serials {
		if !s.CanAddSpendToMempool(serial) {
			return false
		}
		for _, prev := range serials[:i] {
			if prev == serial {
				return false
			}
		}
	}
	for _, serial := range serials {
		s.pending[serial] = txHash
	}
	return true
}

// GetMempoolConflictingTxHash returns the hash of the transaction claiming
// the serial.
func (s *State) GetMempoolConflictingTxHash(serial sigma.Serial) (util.Uint256, bool) {
	h, ok := s.pending[serial]
	return h, ok
}

// RemoveSpendFromMempool drops claims for the serials.
func (s *State) RemoveSpendFromMempool(serials []sigma.Serial) {
	for _, serial := range serials {
		delete(s.pending, serial)
	}
}
