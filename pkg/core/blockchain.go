package core

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nspcc-dev/sigma-go/pkg/config"
	"github.com/nspcc-dev/sigma-go/pkg/core/block"
	"github.com/nspcc-dev/sigma-go/pkg/core/chain"
	"github.com/nspcc-dev/sigma-go/pkg/core/dao"
	"github.com/nspcc-dev/sigma-go/pkg/core/mempool"
	"github.com/nspcc-dev/sigma-go/pkg/core/sigmastate"
	"github.com/nspcc-dev/sigma-go/pkg/core/storage"
	"github.com/nspcc-dev/sigma-go/pkg/core/transaction"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Tuning parameters.
const (
	version = "0.1.0"

	// genesisTimestamp is the timestamp of the genesis block in milliseconds.
	genesisTimestamp = 1468595301000
)

var (
	// ErrGenesisDisconnect is returned on attempt to disconnect the genesis
	// block.
	ErrGenesisDisconnect = errors.New("can't disconnect genesis block")
	// ErrUnknownBlock is returned when verifying a block that neither
	// follows the tip nor is on the chain.
	ErrUnknownBlock = errors.New("block is neither next nor on the chain")
	// ErrInvalidTransaction wraps validation failures of block and pool
	// transactions.
	ErrInvalidTransaction = errors.New("invalid sigma transaction")
	// ErrVersionMismatch is returned when the database was created by an
	// incompatible version.
	ErrVersionMismatch = errors.New("storage version mismatch")
)

// ConflictError is returned by PoolTx when one of the transaction serials is
// already claimed by another unconfirmed transaction.
type ConflictError struct {
	// Hash is the hash of the transaction holding the serial.
	Hash util.Uint256
	Err  error
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicts with pooled transaction %s: %v", e.Hash.StringBE(), e.Err)
}

// Unwrap returns the underlying validation error.
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Blockchain represents the sigma state of the chain. It connects and
// disconnects blocks keeping the coin registry consistent with the active
// chain, and admits transactions into the memory pool. All registry mutations
// happen under its lock.
type Blockchain struct {
	lock sync.RWMutex

	config config.Blockchain

	dao *dao.Simple
	log *zap.Logger

	chain     *chain.Chain
	state     *sigmastate.State
	validator *sigmastate.Validator
	memPool   *mempool.Pool

	// Current index/height of the highest block.
	// Read access should always be called by BlockHeight().
	blockHeight atomic.Uint32
}

// NewBlockchain returns a new blockchain object that will use the given
// Store as its underlying storage and the given verifier for membership
// proofs. For it to work correctly you need to call its Close method
// after use.
func NewBlockchain(s storage.Store, cfg config.Blockchain, v sigmastate.ProofVerifier, log *zap.Logger) (*Blockchain, error) {
	if log == nil {
		return nil, errors.New("empty logger")
	}
	if cfg.MemPoolSize <= 0 {
		cfg.MemPoolSize = config.DefaultMemPoolSize
		log.Info("MemPoolSize is not set or wrong, using default value",
			zap.Int("MemPoolSize", cfg.MemPoolSize))
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	bc := &Blockchain{
		config:  cfg,
		dao:     dao.NewSimple(s),
		log:     log,
		chain:   chain.New(),
		state:   sigmastate.NewState(policy),
		memPool: mempool.New(cfg.MemPoolSize, updateMempoolMetrics),
	}
	bc.memPool.SetEvictedCallback(bc.evictPoolTx)
	bc.validator, err = sigmastate.NewValidator(bc.state, bc.chain, v, cfg.CoinSetCacheSize, log)
	if err != nil {
		return nil, err
	}
	if err := bc.init(); err != nil {
		return nil, err
	}
	return bc, nil
}

// createGenesisBlock returns the genesis block of the network, it carries no
// transactions.
func createGenesisBlock(cfg config.ProtocolConfiguration) *block.Block {
	b := block.New()
	b.Timestamp = genesisTimestamp
	b.Nonce = uint64(cfg.Magic)
	b.RebuildMerkleRoot()
	return b
}

func (bc *Blockchain) init() error {
	ver, err := bc.dao.GetVersion()
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			return err
		}
		bc.log.Info("no storage version found! creating genesis block")
		bc.dao.PutVersion(version)
		return bc.connectBlock(createGenesisBlock(bc.config.ProtocolConfiguration))
	}
	if ver != version {
		return fmt.Errorf("%w: CLI version = %s, DB version = %s", ErrVersionMismatch, version, ver)
	}

	entries, err := bc.dao.GetBlockIndexes()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries", dao.ErrBadIndex)
	}
	genesis := createGenesisBlock(bc.config.ProtocolConfiguration)
	if entries[0].Hash != genesis.Hash() {
		return fmt.Errorf("%w: genesis %s doesn't match the network", dao.ErrBadIndex, entries[0].Hash.StringBE())
	}
	for _, idx := range entries {
		if err := bc.chain.Append(idx); err != nil {
			return err
		}
	}
	tip := bc.chain.Tip()
	cur, err := bc.dao.GetCurrentBlock()
	if err != nil {
		return fmt.Errorf("can't retrieve current block: %w", err)
	}
	if cur != tip.Pos() {
		return fmt.Errorf("%w: current block %s doesn't match index tip %s", dao.ErrBadIndex, cur, tip.Pos())
	}
	bc.blockHeight.Store(tip.Height)

	snapTip, err := bc.dao.GetSigmaState(bc.state)
	switch {
	case err == nil && snapTip == tip.Pos():
		bc.log.Info("sigma state restored from snapshot",
			zap.Uint32("height", tip.Height))
	case err == nil || errors.Is(err, storage.ErrKeyNotFound):
		bc.log.Info("sigma state snapshot is outdated, rebuilding",
			zap.Stringer("snapshot", snapTip),
			zap.Stringer("tip", tip.Pos()))
		err = bc.buildStateFromIndex()
	default:
		bc.log.Warn("can't decode sigma state snapshot, rebuilding", zap.Error(err))
		err = bc.buildStateFromIndex()
	}
	if err != nil {
		return err
	}
	// A snapshot is only trusted once, after a crash it must not be loaded.
	bc.dao.DeleteSigmaState()
	if _, err := bc.dao.Persist(); err != nil {
		return err
	}
	updateStateMetrics(bc.state, tip.Height)
	return nil
}

// AddBlock connects the block on top of the chain. Blocks are verified if
// the configuration requires it.
func (bc *Blockchain) AddBlock(b *block.Block) error {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	if bc.config.VerifyBlocks {
		if err := b.Verify(); err != nil {
			return fmt.Errorf("block %s is invalid: %w", b.Hash().StringBE(), err)
		}
	}
	return bc.connectBlock(b)
}

// checkBlockTxes validates all block transactions into info at the block
// height. The first failure rejects the whole block.
func (bc *Blockchain) checkBlockTxes(b *block.Block, verifyOnly bool, info *sigmastate.TxInfo) error {
	for _, tx := range b.Transactions {
		var vs sigmastate.ValidationState
		if !bc.validator.CheckTransaction(tx, &vs, tx.Hash(), verifyOnly, b.Index, false, info) {
			return fmt.Errorf("%w %s: %w", ErrInvalidTransaction, tx.Hash().StringBE(), vs.Err)
		}
	}
	return nil
}

// connectBlock is an internal unlocked version of AddBlock.
func (bc *Blockchain) connectBlock(b *block.Block) error {
	var start = time.Now()

	if tip := bc.chain.Tip(); tip != nil {
		if b.Index != tip.Height+1 || b.PrevHash != tip.Hash {
			return fmt.Errorf("%w: block %d (%s) doesn't follow %s",
				chain.ErrNotNext, b.Index, b.Hash().StringBE(), tip.Pos())
		}
	}
	info := sigmastate.NewTxInfo()
	if err := bc.checkBlockTxes(b, false, info); err != nil {
		return err
	}
	info.Complete()

	idx := chain.NewBlockIndex(b.Index, b.Hash(), b.PrevHash, b.Timestamp)
	if err := bc.chain.Append(idx); err != nil {
		return err
	}
	claims := make(map[sigma.Serial]util.Uint256)
	for serial := range info.SpentSerials {
		if h, ok := bc.state.GetMempoolConflictingTxHash(serial); ok {
			claims[serial] = h
		}
	}
	bc.state.AddBlock(idx, info)

	if err := bc.storeBlock(b, idx); err != nil {
		bc.dao.Discard()
		bc.state.RemoveBlock(idx)
		bc.chain.DisconnectTip()
		for serial, h := range claims {
			bc.state.AddSpendToMempool([]sigma.Serial{serial}, h)
		}
		return fmt.Errorf("can't store block %s: %w", idx.Pos(), err)
	}
	bc.blockHeight.Store(idx.Height)

	for h := range info.Transactions {
		bc.memPool.Remove(h)
	}
	bc.removeStalePoolTxes()
	updateStateMetrics(bc.state, idx.Height)

	bc.log.Debug("block connected",
		zap.Uint32("height", idx.Height),
		zap.Stringer("hash", idx.Hash),
		zap.Int("sigmaTxs", len(info.Transactions)),
		zap.Int("mints", len(info.Mints)),
		zap.Int("spends", len(info.SpentSerials)),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (bc *Blockchain) storeBlock(b *block.Block, idx *chain.BlockIndex) error {
	if err := bc.dao.StoreAsBlock(b); err != nil {
		return err
	}
	if err := bc.dao.PutBlockIndex(idx); err != nil {
		return err
	}
	if err := bc.dao.StoreAsCurrentBlock(idx.Pos()); err != nil {
		return err
	}
	_, err := bc.dao.Persist()
	return err
}

// DisconnectTip reverts the last block and returns it. Serials it spent are
// neither used nor pending afterwards.
func (bc *Blockchain) DisconnectTip() (*block.Block, error) {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	tip := bc.chain.Tip()
	if tip.Height == 0 {
		return nil, ErrGenesisDisconnect
	}
	b, err := bc.dao.GetBlock(tip.Hash)
	if err != nil {
		return nil, fmt.Errorf("can't retrieve block %s: %w", tip.Pos(), err)
	}
	bc.dao.DeleteBlockIndex(tip.Height)
	bc.dao.DeleteBlock(tip.Hash)
	err = bc.dao.StoreAsCurrentBlock(tip.Prev.Pos())
	if err == nil {
		_, err = bc.dao.Persist()
	}
	if err != nil {
		bc.dao.Discard()
		return nil, fmt.Errorf("can't disconnect block %s: %w", tip.Pos(), err)
	}
	bc.state.RemoveBlock(tip)
	bc.chain.DisconnectTip()
	bc.blockHeight.Store(tip.Prev.Height)

	bc.removeStalePoolTxes()
	updateStateMetrics(bc.state, tip.Prev.Height)
	bc.log.Info("block disconnected",
		zap.Uint32("height", tip.Height),
		zap.Stringer("hash", tip.Hash))
	return b, nil
}

// VerifyBlock checks sigma transactions of the block without changing
// anything. A block following the tip is checked fully, a block already on
// the chain is checked in verify-only mode skipping the registry lookups it
// has changed itself.
func (bc *Blockchain) VerifyBlock(b *block.Block) error {
	bc.lock.RLock()
	defer bc.lock.RUnlock()

	if err := b.Verify(); err != nil {
		return err
	}
	tip := bc.chain.Tip()
	switch {
	case b.Index == tip.Height+1 && b.PrevHash == tip.Hash:
		return bc.checkBlockTxes(b, false, sigmastate.NewTxInfo())
	case b.Index <= tip.Height && bc.chain.At(b.Index).Hash == b.Hash():
		return bc.checkBlockTxes(b, true, sigmastate.NewTxInfo())
	default:
		return fmt.Errorf("%w: %d (%s)", ErrUnknownBlock, b.Index, b.Hash().StringBE())
	}
}

// BuildStateFromIndex resets the registry and replays every block of the
// active chain from genesis to the tip. The memory pool is dropped.
func (bc *Blockchain) BuildStateFromIndex() error {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	bc.memPool.RemoveStale(func(*transaction.Transaction) bool { return false })
	if err := bc.buildStateFromIndex(); err != nil {
		return err
	}
	updateStateMetrics(bc.state, bc.chain.Height())
	return nil
}

// buildStateFromIndex is an internal unlocked version of BuildStateFromIndex.
func (bc *Blockchain) buildStateFromIndex() error {
	var start = time.Now()

	bc.state.Reset()
	bc.validator.PurgeCache()
	for h := 0; h < bc.chain.Len(); h++ {
		idx := bc.chain.At(uint32(h))
		if bc.config.VerifyTransactions {
			b, err := bc.dao.GetBlock(idx.Hash)
			if err != nil {
				return fmt.Errorf("can't retrieve block %s: %w", idx.Pos(), err)
			}
			if err := bc.checkBlockTxes(b, true, nil); err != nil {
				return fmt.Errorf("block %s: %w", idx.Pos(), err)
			}
		}
		bc.state.ReplayBlock(idx)
	}
	stats := bc.state.Stats()
	bc.log.Info("sigma state rebuilt",
		zap.Int("blocks", bc.chain.Len()),
		zap.Int("groups", stats.Groups),
		zap.Int("coins", stats.MintedCoins),
		zap.Int("serials", stats.UsedSerials),
		zap.Duration("took", time.Since(start)))
	return nil
}

// spentSerials returns decoded serials of the transaction spends. The
// transaction must be valid.
func spentSerials(tx *transaction.Transaction) []sigma.Serial {
	serials := make([]sigma.Serial, 0, len(tx.Spends))
	for i := range tx.Spends {
		s, err := sigma.NewSerial(tx.Spends[i].Serial)
		if err != nil {
			continue
		}
		serials = append(serials, s)
	}
	return serials
}

// PoolTx validates the transaction for the next block and adds it to the
// memory pool claiming its serials. A *ConflictError is returned if another
// pooled transaction already claims one of them.
func (bc *Blockchain) PoolTx(tx *transaction.Transaction) error {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	hash := tx.Hash()
	if bc.memPool.ContainsKey(hash) {
		return mempool.ErrDup
	}
	var vs sigmastate.ValidationState
	if !bc.validator.CheckTransaction(tx, &vs, hash, false, bc.chain.Height()+1, false, nil) {
		if errors.Is(vs.Err, sigmastate.ErrDoubleSpend) && !vs.ConflictingTx.Equals(util.Uint256{}) {
			return &ConflictError{Hash: vs.ConflictingTx, Err: vs.Err}
		}
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, vs.Err)
	}
	serials := spentSerials(tx)
	if !bc.state.AddSpendToMempool(serials, hash) {
		for _, s := range serials {
			if other, ok := bc.state.GetMempoolConflictingTxHash(s); ok {
				return &ConflictError{Hash: other, Err: fmt.Errorf("%w: serial %s", sigmastate.ErrDoubleSpend, s)}
			}
		}
		return sigmastate.ErrDoubleSpend
	}
	if err := bc.memPool.Add(tx, bc); err != nil {
		bc.releaseSerials(tx)
		return err
	}
	updatePoolSupplyMetrics(bc.memPool)
	updatePendingMetrics(bc.state)
	return nil
}

// RemovePoolTx drops the transaction from the memory pool releasing its
// serials.
func (bc *Blockchain) RemovePoolTx(hash util.Uint256) bool {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	tx, ok := bc.memPool.Remove(hash)
	if !ok {
		return false
	}
	bc.releaseSerials(tx)
	updatePoolSupplyMetrics(bc.memPool)
	updatePendingMetrics(bc.state)
	return true
}

// releaseSerials removes serials claimed by tx from the pending set.
func (bc *Blockchain) releaseSerials(tx *transaction.Transaction) {
	var own []sigma.Serial
	for _, s := range spentSerials(tx) {
		if h, ok := bc.state.GetMempoolConflictingTxHash(s); ok && h == tx.Hash() {
			own = append(own, s)
		}
	}
	bc.state.RemoveSpendFromMempool(own)
}

// evictPoolTx releases serials of the transaction the pool has dropped to
// make room for another one. It's called under the Blockchain lock from
// PoolTx.
func (bc *Blockchain) evictPoolTx(tx *transaction.Transaction) {
	bc.releaseSerials(tx)
	bc.log.Debug("transaction evicted from the pool", zap.Stringer("hash", tx.Hash()))
}

// removeStalePoolTxes drops pooled transactions that are not valid for the
// next block anymore.
func (bc *Blockchain) removeStalePoolTxes() {
	next := bc.chain.Height() + 1
	stale := bc.memPool.RemoveStale(func(tx *transaction.Transaction) bool {
		var vs sigmastate.ValidationState
		return bc.validator.CheckTransaction(tx, &vs, tx.Hash(), false, next, false, nil)
	})
	for _, tx := range stale {
		bc.releaseSerials(tx)
	}
	if len(stale) != 0 {
		bc.log.Debug("stale transactions removed from the pool", zap.Int("count", len(stale)))
	}
	updatePoolSupplyMetrics(bc.memPool)
	updatePendingMetrics(bc.state)
}

// BlockHeight returns the height of the chain tip.
func (bc *Blockchain) BlockHeight() uint32 {
	return bc.blockHeight.Load()
}

// CurrentBlockHash returns the hash of the chain tip.
func (bc *Blockchain) CurrentBlockHash() util.Uint256 {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.chain.Tip().Hash
}

// GetHeaderHash returns the hash of the active chain block at the given
// height or an empty hash if there is no such block.
func (bc *Blockchain) GetHeaderHash(i uint32) util.Uint256 {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	if idx := bc.chain.At(i); idx != nil {
		return idx.Hash
	}
	return util.Uint256{}
}

// GetBlock returns the stored block with the given hash.
func (bc *Blockchain) GetBlock(hash util.Uint256) (*block.Block, error) {
	return bc.dao.GetBlock(hash)
}

// GetConfig returns the config stored in the blockchain.
func (bc *Blockchain) GetConfig() config.Blockchain {
	return bc.config
}

// GetMemPool returns the memory pool of the blockchain.
func (bc *Blockchain) GetMemPool() *mempool.Pool {
	return bc.memPool
}

// GetCoinGroupInfo returns the information about the coin group.
func (bc *Blockchain) GetCoinGroupInfo(d sigma.Denomination, id uint32) (sigmastate.CoinGroupInfo, bool) {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.state.GetCoinGroupInfo(d, id)
}

// GetCoinGroups returns all non-empty groups of the denomination by id.
func (bc *Blockchain) GetCoinGroups(d sigma.Denomination) map[uint32]sigmastate.CoinGroupInfo {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	res := make(map[uint32]sigmastate.CoinGroupInfo)
	for _, id := range bc.state.Groups(d) {
		res[id], _ = bc.state.GetCoinGroupInfo(d, id)
	}
	return res
}

// LatestGroupID returns the id of the group new coins of the denomination
// go to.
func (bc *Blockchain) LatestGroupID(d sigma.Denomination) uint32 {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.state.LatestGroupID(d)
}

// HasCoin tells whether the coin is minted on the active chain.
func (bc *Blockchain) HasCoin(c sigma.PublicCoin) bool {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.state.HasCoin(c)
}

// GetMintedCoinHeightAndID returns the height and the group id the coin of
// the given denomination was minted at, (-1, -1) is returned for unknown
// coins.
func (bc *Blockchain) GetMintedCoinHeightAndID(c sigma.PublicCoin, d sigma.Denomination) (int, int) {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.state.GetMintedCoinHeightAndID(c, d)
}

// IsUsedCoinSerial tells whether the serial is spent on the active chain.
func (bc *Blockchain) IsUsedCoinSerial(s sigma.Serial) bool {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.state.IsUsedCoinSerial(s)
}

// GetMempoolConflictingTxHash returns the hash of the pooled transaction
// claiming the serial.
func (bc *Blockchain) GetMempoolConflictingTxHash(s sigma.Serial) (util.Uint256, bool) {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.state.GetMempoolConflictingTxHash(s)
}

// GetCoinSetForSpend returns the anonymity set of the group limited by
// maxHeight along with the hash of the block it's anchored at.
func (bc *Blockchain) GetCoinSetForSpend(maxHeight uint32, d sigma.Denomination, id uint32) (util.Uint256, []sigma.PublicCoin) {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	_, anchor, coins := bc.state.GetCoinSetForSpend(bc.chain, maxHeight, d, id)
	return anchor, coins
}

// Stats returns the registry counters.
func (bc *Blockchain) Stats() sigmastate.Stats {
	bc.lock.RLock()
	defer bc.lock.RUnlock()
	return bc.state.Stats()
}

// Close flushes the registry snapshot and closes the underlying storage.
func (bc *Blockchain) Close() {
	bc.lock.Lock()
	defer bc.lock.Unlock()

	tip := bc.chain.Tip()
	if err := bc.dao.PutSigmaState(tip.Pos(), bc.state); err != nil {
		bc.log.Error("failed to store sigma state snapshot", zap.Error(err))
	}
	if _, err := bc.dao.Persist(); err != nil {
		bc.log.Error("failed to persist", zap.Error(err))
	}
	if err := bc.dao.Store.Close(); err != nil {
		bc.log.Error("failed to close db", zap.Error(err))
	}
	bc.log.Info("blockchain closed", zap.Uint32("height", tip.Height))
}
