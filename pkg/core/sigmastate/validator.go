package sigmastate

import (
	"slices"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/sigma-go/pkg/core/chain"
	"github.com/nspcc-dev/sigma-go/pkg/core/transaction"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
	"go.uber.org/zap"
)

// DefaultCoinSetCacheSize is the default number of anonymity sets cached by
// the Validator.
const DefaultCoinSetCacheSize = 64

// ProofVerifier checks membership proofs of spends. coins is the anonymity
// set of the spend's group anchored at the given block, every call gets its
// own copy.
type ProofVerifier interface {
	VerifySpend(spend *transaction.SpendInput, coins []sigma.PublicCoin, anchor util.Uint256) bool
}

// TrustedSource is a ProofVerifier accepting every proof. It's only suitable
// for blocks coming from a trusted source like the node's own database.
type TrustedSource struct{}

// VerifySpend implements the ProofVerifier interface.
func (TrustedSource) VerifySpend(*transaction.SpendInput, []sigma.PublicCoin, util.Uint256) bool {
	return true
}

// Validator checks sigma transactions against the registry.
type Validator struct {
	state    *State
	chain    *chain.Chain
	verifier ProofVerifier
	log      *zap.Logger
	sets     *lru.Cache
}

type coinSetKey struct {
	group     sigma.GroupKey
	maxHeight uint32
	last      chain.Position
	count     int
}

type coinSet struct {
	anchor util.Uint256
	coins  []sigma.PublicCoin
}

// NewValidator creates a validator over the registry and the chain it
// tracks. cacheSize is the number of anonymity sets kept in memory.
func NewValidator(s *State, c *chain.Chain, v ProofVerifier, cacheSize int, log *zap.Logger) (*Validator, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCoinSetCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Validator{
		state:    s,
		chain:    c,
		verifier: v,
		log:      log,
		sets:     cache,
	}, nil
}

// CheckTransaction validates sigma parts of the transaction to be included
// at the given height. verifyOnly skips checks depending on the current
// registry contents and is used for blocks already on the chain. walletCheck
// relaxes mempool checks. Accepted mints and spends are recorded into info
// if it's given, not complete and neither verifyOnly nor walletCheck is set.
// On failure false is returned, vs describes the reason and nothing is
// recorded.
func (v *Validator) CheckTransaction(tx *transaction.Transaction, vs *ValidationState, hash util.Uint256,
	verifyOnly bool, height uint32, walletCheck bool, info *TxInfo) bool {
	mints, ok := v.checkMints(tx, vs, verifyOnly, height, info)
	if !ok {
		v.logReject(hash, vs)
		return false
	}
	serials, ok := v.checkSpends(tx, vs, hash, verifyOnly, height, walletCheck, info)
	if !ok {
		v.logReject(hash, vs)
		return false
	}
	if info == nil || verifyOnly || walletCheck || info.IsComplete() {
		return true
	}
	for _, m := range mints {
		info.addMint(m)
	}
	for i, sp := range tx.Spends {
		info.SpentSerials[serials[i]] = sp.Denomination
		switch sp.Version {
		case transaction.SpendV1:
			info.HasSpendV1 = true
		case transaction.SpendV2:
			info.HasSpendV2 = true
		}
	}
	if tx.IsSigma() {
		info.Transactions[hash] = struct{}{}
	}
	return true
}

func (v *Validator) checkMints(tx *transaction.Transaction, vs *ValidationState,
	verifyOnly bool, height uint32, info *TxInfo) ([]sigma.Mint, bool) {
	var (
		mints = make([]sigma.Mint, 0, len(tx.Mints))
		seen  = make(map[sigma.PublicCoin]struct{}, len(tx.Mints))
	)
	for i, out := range tx.Mints {
		if !out.Denomination.IsValid() {
			return nil, vs.invalid(ErrProtocolViolation, "mint %d: unknown denomination %d", i, out.Denomination)
		}
		c, err := sigma.NewPublicCoin(out.Commitment)
		if err != nil {
			return nil, vs.invalid(ErrProtocolViolation, "mint %d: %v", i, err)
		}
		if _, ok := seen[c]; ok {
			return nil, vs.invalid(ErrProtocolViolation, "mint %d: coin is minted twice", i)
		}
		seen[c] = struct{}{}
		if !verifyOnly {
			if v.state.HasCoin(c) || (info != nil && info.HasMint(c)) {
				return nil, vs.invalid(ErrProtocolViolation, "mint %d: coin %s is already minted", i, c)
			}
			if _, ok := v.state.Policy().GroupAt(out.Denomination, height); !ok {
				return nil, vs.invalid(ErrActivation, "mint %d: no active %s group at %d", i, out.Denomination, height)
			}
		}
		mints = append(mints, sigma.Mint{Denomination: out.Denomination, Coin: c})
	}
	return mints, true
}

func (v *Validator) checkSpends(tx *transaction.Transaction, vs *ValidationState, hash util.Uint256,
	verifyOnly bool, height uint32, walletCheck bool, info *TxInfo) ([]sigma.Serial, bool) {
	var serials = make([]sigma.Serial, 0, len(tx.Spends))
	for i := range tx.Spends {
		sp := &tx.Spends[i]
		if sp.Version != transaction.SpendV1 && sp.Version != transaction.SpendV2 {
			return nil, vs.invalid(ErrProtocolViolation, "spend %d: unknown version %d", i, sp.Version)
		}
		if !sp.Denomination.IsValid() {
			return nil, vs.invalid(ErrProtocolViolation, "spend %d: unknown denomination %d", i, sp.Denomination)
		}
		serial, err := sigma.NewSerial(sp.Serial)
		if err != nil {
			return nil, vs.invalid(ErrProtocolViolation, "spend %d: %v", i, err)
		}
		for _, prev := range serials {
			if prev == serial {
				return nil, vs.invalid(ErrDoubleSpend, "spend %d: serial %s is spent twice in transaction", i, serial)
			}
		}
		if info != nil && info.HasSerial(serial) {
			return nil, vs.invalid(ErrDoubleSpend, "spend %d: serial %s is spent twice in block", i, serial)
		}
		if !verifyOnly {
			if v.state.IsUsedCoinSerial(serial) {
				return nil, vs.invalid(ErrDoubleSpend, "spend %d: serial %s is already spent", i, serial)
			}
			if info == nil && !walletCheck {
				if other, ok := v.state.GetMempoolConflictingTxHash(serial); ok && other != hash {
					vs.ConflictingTx = other
					return nil, vs.invalid(ErrDoubleSpend, "spend %d: serial %s is claimed by %s", i, serial, other.StringBE())
				}
			}
			if !v.state.Policy().IsActive(sp.Denomination, sp.GroupID, height) {
				return nil, vs.invalid(ErrActivation, "spend %d: group %d of %s is not active at %d",
					i, sp.GroupID, sp.Denomination, height)
			}
		}
		if ok := v.checkProof(i, sp, vs, height); !ok {
			return nil, false
		}
		serials = append(serials, serial)
	}
	return serials, true
}

func (v *Validator) checkProof(i int, sp *transaction.SpendInput, vs *ValidationState, height uint32) bool {
	if _, ok := v.state.GetCoinGroupInfo(sp.Denomination, sp.GroupID); !ok {
		return vs.invalid(ErrProtocolViolation, "spend %d: group %d of %s has no coins", i, sp.GroupID, sp.Denomination)
	}
	anchor := v.chain.GetByHash(sp.AnchorHash)
	if anchor == nil || anchor.Height >= height {
		return vs.invalid(ErrProtocolViolation, "spend %d: anchor %s is not on the chain below %d",
			i, sp.AnchorHash.StringBE(), height)
	}
	set := v.coinSet(sigma.GroupKey{Denomination: sp.Denomination, ID: sp.GroupID}, anchor.Height)
	if len(set.coins) == 0 {
		return vs.invalid(ErrProtocolViolation, "spend %d: empty anonymity set", i)
	}
	if set.anchor != sp.AnchorHash {
		return vs.invalid(ErrProtocolViolation, "spend %d: block %s doesn't end the anonymity set",
			i, sp.AnchorHash.StringBE())
	}
	if !v.verifier.VerifySpend(sp, slices.Clone(set.coins), set.anchor) {
		return vs.invalid(ErrProtocolViolation, "spend %d: invalid proof", i)
	}
	return true
}

func (v *Validator) coinSet(key sigma.GroupKey, maxHeight uint32) coinSet {
	g, _ := v.state.GetCoinGroupInfo(key.Denomination, key.ID)
	k := coinSetKey{group: key, maxHeight: maxHeight, last: g.LastBlock, count: g.CoinCount}
	if cached, ok := v.sets.Get(k); ok {
		return cached.(coinSet)
	}
	_, anchor, coins := v.state.GetCoinSetForSpend(v.chain, maxHeight, key.Denomination, key.ID)
	set := coinSet{anchor: anchor, coins: coins}
	v.sets.Add(k, set)
	return set
}

// PurgeCache drops all cached anonymity sets.
func (v *Validator) PurgeCache() {
	v.sets.Purge()
}

func (v *Validator) logReject(hash util.Uint256, vs *ValidationState) {
	v.log.Debug("sigma transaction rejected",
		zap.Stringer("hash", hash),
		zap.Error(vs.Err))
}
