package mempool

import (
	"errors"
	"sort"
	"sync"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/sigma-go/pkg/core/transaction"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

var (
	// ErrDup is returned when the transaction being added is already present
	// in the memory pool.
	ErrDup = errors.New("already in the memory pool")
	// ErrOOM is returned when the transaction just doesn't fit in the memory
	// pool because of its capacity constraints.
	ErrOOM = errors.New("out of memory")
	// ErrNotSigma is returned for transactions having neither mints nor
	// spends.
	ErrNotSigma = errors.New("not a sigma transaction")
)

// item represents a transaction in the the Memory pool.
type item struct {
	txn        *transaction.Transaction
	blockStamp uint32
}

// items is a slice of an item.
type items []item

// supply is the value moved by pooled transactions of a single denomination.
type supply struct {
	minted uint256.Int
	spent  uint256.Int
}

// Pool stores the unconfirmed sigma transactions. It doesn't check
// serials for conflicts, that's the job of the coin state tracker.
type Pool struct {
	lock         sync.RWMutex
	verifiedMap  map[util.Uint256]*transaction.Transaction
	verifiedTxes items
	supply       map[sigma.Denomination]*supply

	capacity        int
	updateMetricsCb func(int)
	evictedCb       func(*transaction.Transaction)
}

func (p items) Len() int           { return len(p) }
func (p items) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p items) Less(i, j int) bool { return p[i].CompareTo(p[j]) < 0 }

// CompareTo returns the difference between two items.
// difference < 0 implies p < otherP.
// difference = 0 implies p = otherP.
// difference > 0 implies p > otherP.
// Transactions that waited longer are more prioritized.
func (p item) CompareTo(otherP item) int {
	if p.blockStamp != otherP.blockStamp {
		if p.blockStamp < otherP.blockStamp {
			return 1
		}
		return -1
	}
	// Fewer proofs to verify for the same block space.
	return len(otherP.txn.Spends) - len(p.txn.Spends)
}

// Count returns the total number of uncofirmed transactions.
func (mp *Pool) Count() int {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	return len(mp.verifiedTxes)
}

// ContainsKey checks if the transactions hash is in the Pool.
func (mp *Pool) ContainsKey(hash util.Uint256) bool {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	_, ok := mp.verifiedMap[hash]
	return ok
}

// Supply returns the total value of coins minted and spent by the pooled
// transactions of denomination d in the smallest units.
func (mp *Pool) Supply(d sigma.Denomination) (minted, spent *uint256.Int) {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	minted, spent = new(uint256.Int), new(uint256.Int)
	if s, ok := mp.supply[d]; ok {
		minted.Set(&s.minted)
		spent.Set(&s.spent)
	}
	return minted, spent
}

// account adds (or subtracts if remove is set) tx values to the pool supply.
func (mp *Pool) account(tx *transaction.Transaction, remove bool) {
	var v uint256.Int
	apply := func(d sigma.Denomination, sum *uint256.Int) {
		v.SetUint64(uint64(d.Value()))
		if remove {
			sum.Sub(sum, &v)
		} else {
			sum.Add(sum, &v)
		}
	}
	for i := range tx.Mints {
		apply(tx.Mints[i].Denomination, &mp.supplyOf(tx.Mints[i].Denomination).minted)
	}
	for i := range tx.Spends {
		apply(tx.Spends[i].Denomination, &mp.supplyOf(tx.Spends[i].Denomination).spent)
	}
}

func (mp *Pool) supplyOf(d sigma.Denomination) *supply {
	s, ok := mp.supply[d]
	if !ok {
		s = new(supply)
		mp.supply[d] = s
	}
	return s
}

// Add tries to add the given transaction to the Pool. The transaction is
// expected to be validated by the caller.
func (mp *Pool) Add(t *transaction.Transaction, l Ledger) error {
	if !t.IsSigma() {
		return ErrNotSigma
	}
	var pItem = item{
		txn:        t,
		blockStamp: l.BlockHeight(),
	}
	mp.lock.Lock()
	defer mp.lock.Unlock()
	if _, ok := mp.verifiedMap[t.Hash()]; ok {
		return ErrDup
	}
	// Insert into a sorted array (from max to min). Searching for a position
	// strictly more prioritized than the new item keeps equal items in the
	// arrival order.
	n := sort.Search(len(mp.verifiedTxes), func(n int) bool {
		return pItem.CompareTo(mp.verifiedTxes[n]) > 0
	})

	// We've reached our capacity already.
	if len(mp.verifiedTxes) == mp.capacity {
		// Less prioritized than the least prioritized we already have, won't fit.
		if n == len(mp.verifiedTxes) {
			return ErrOOM
		}
		// Ditch the last one.
		unlucky := mp.verifiedTxes[len(mp.verifiedTxes)-1]
		delete(mp.verifiedMap, unlucky.txn.Hash())
		mp.account(unlucky.txn, true)
		mp.verifiedTxes[len(mp.verifiedTxes)-1] = pItem
		if mp.evictedCb != nil {
			mp.evictedCb(unlucky.txn)
		}
	} else {
		mp.verifiedTxes = append(mp.verifiedTxes, pItem)
	}
	if n != len(mp.verifiedTxes)-1 {
		copy(mp.verifiedTxes[n+1:], mp.verifiedTxes[n:])
		mp.verifiedTxes[n] = pItem
	}
	mp.verifiedMap[t.Hash()] = t
	mp.account(t, false)

	if mp.updateMetricsCb != nil {
		mp.updateMetricsCb(len(mp.verifiedTxes))
	}
	return nil
}

// Remove removes an item from the mempool if it exists there (and does
// nothing if it doesn't). The removed transaction is returned.
func (mp *Pool) Remove(hash util.Uint256) (*transaction.Transaction, bool) {
	mp.lock.Lock()
	defer mp.lock.Unlock()
	return mp.removeInternal(hash)
}

// removeInternal is an internal unlocked representation of Remove.
func (mp *Pool) removeInternal(hash util.Uint256) (*transaction.Transaction, bool) {
	tx, ok := mp.verifiedMap[hash]
	if !ok {
		return nil, false
	}
	delete(mp.verifiedMap, hash)
	for num := range mp.verifiedTxes {
		if hash.Equals(mp.verifiedTxes[num].txn.Hash()) {
			mp.verifiedTxes = append(mp.verifiedTxes[:num], mp.verifiedTxes[num+1:]...)
			break
		}
	}
	mp.account(tx, true)
	if mp.updateMetricsCb != nil {
		mp.updateMetricsCb(len(mp.verifiedTxes))
	}
	return tx, true
}

// RemoveStale filters verified transactions through the given function keeping
// only the transactions for which it returns true result. It's used to quickly
// drop a part of the mempool that is now invalid after the block acceptance.
// Dropped transactions are returned.
func (mp *Pool) RemoveStale(isOK func(*transaction.Transaction) bool) []*transaction.Transaction {
	mp.lock.Lock()
	defer mp.lock.Unlock()
	// We can reuse already allocated slice
	// because items are iterated one-by-one in increasing order.
	newVerifiedTxes := mp.verifiedTxes[:0]
	var stale []*transaction.Transaction
	for _, itm := range mp.verifiedTxes {
		if isOK(itm.txn) {
			newVerifiedTxes = append(newVerifiedTxes, itm)
			continue
		}
		delete(mp.verifiedMap, itm.txn.Hash())
		mp.account(itm.txn, true)
		stale = append(stale, itm.txn)
	}
	mp.verifiedTxes = newVerifiedTxes
	if mp.updateMetricsCb != nil {
		mp.updateMetricsCb(len(mp.verifiedTxes))
	}
	return stale
}

// New returns a new Pool struct.
func New(capacity int, updateMetricsCb func(int)) *Pool {
	return &Pool{
		verifiedMap:     make(map[util.Uint256]*transaction.Transaction, capacity),
		verifiedTxes:    make([]item, 0, capacity),
		supply:          make(map[sigma.Denomination]*supply),
		capacity:        capacity,
		updateMetricsCb: updateMetricsCb,
	}
}

// SetEvictedCallback sets a function called (with the Pool locked) for every
// transaction dropped to make room for a more prioritized one.
func (mp *Pool) SetEvictedCallback(f func(*transaction.Transaction)) {
	mp.lock.Lock()
	mp.evictedCb = f
	mp.lock.Unlock()
}

// TryGetValue returns a transaction if it exists in the memory pool.
func (mp *Pool) TryGetValue(hash util.Uint256) (*transaction.Transaction, bool) {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	if tx, ok := mp.verifiedMap[hash]; ok {
		return tx, ok
	}

	return nil, false
}

// GetVerifiedTransactions returns a slice of pooled transactions, most
// prioritized first.
func (mp *Pool) GetVerifiedTransactions() []*transaction.Transaction {
	mp.lock.RLock()
	defer mp.lock.RUnlock()

	var t = make([]*transaction.Transaction, len(mp.verifiedTxes))

	for i := range mp.verifiedTxes {
		t[i] = mp.verifiedTxes[i].txn
	}

	return t
}
