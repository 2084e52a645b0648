package mempool

// Ledger is the part of the chain the pool needs to stamp and expire
// transactions.
type Ledger interface {
	BlockHeight() uint32
}
