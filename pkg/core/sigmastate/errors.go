package sigmastate

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/sigma-go/pkg/util"
)

var (
	// ErrProtocolViolation is returned for malformed sigma data: bad
	// commitments or serials, unknown denominations, references to missing
	// groups or invalid proofs.
	ErrProtocolViolation = errors.New("sigma protocol violation")
	// ErrDoubleSpend is returned for serials that are already spent or
	// claimed by another transaction.
	ErrDoubleSpend = errors.New("double spend")
	// ErrActivation is returned for mints and spends of groups that are not
	// yet active at the given height.
	ErrActivation = errors.New("coin group is not active")
	// ErrInconsistentState is the panic value for broken registry invariants.
	// The registry can't be used after it.
	ErrInconsistentState = errors.New("inconsistent sigma state")
)

// ValidationState is the failure sink of transaction validation.
type ValidationState struct {
	// Err is nil for valid transactions and wraps one of ErrProtocolViolation,
	// ErrDoubleSpend or ErrActivation otherwise.
	Err error
	// ConflictingTx is the hash of the unconfirmed transaction already
	// claiming the serial for mempool double spends.
	ConflictingTx util.Uint256
}

// IsValid tells whether no failure was recorded.
func (s *ValidationState) IsValid() bool {
	return s.Err == nil
}

func (s *ValidationState) invalid(kind error, format string, args ...any) bool {
	s.Err = fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
	return false
}

func inconsistent(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrInconsistentState, fmt.Sprintf(format, args...)))
}
