package sigmastate

import (
	"fmt"

	"github.com/nspcc-dev/sigma-go/pkg/core/chain"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/sigma/activation"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// CoinGroupInfo describes a non-empty coin group: the first and the last
// blocks that minted into it and the number of coins it holds.
type CoinGroupInfo struct {
	FirstBlock chain.Position
	LastBlock  chain.Position
	CoinCount  int
}

// String implements the fmt.Stringer interface.
func (g CoinGroupInfo) String() string {
	return fmt.Sprintf("coins: %d, first: %s, last: %s", g.CoinCount, g.FirstBlock, g.LastBlock)
}

// MintRecord is the placement of a minted coin.
type MintRecord struct {
	Denomination sigma.Denomination
	GroupID      uint32
	Height       uint32
}

// Stats is a summary of the registry contents.
type Stats struct {
	Groups         int
	MintedCoins    int
	UsedSerials    int
	PendingSerials int
}

// State is the sigma coin registry.
type State struct {
	policy *activation.Policy

	groups  map[sigma.GroupKey]*CoinGroupInfo
	latest  map[sigma.Denomination]uint32
	mints   map[sigma.PublicCoin]MintRecord
	used    map[sigma.Serial]struct{}
	pending map[sigma.Serial]util.Uint256
}

// NewState creates an empty registry opening coin groups according to the
// given activation policy, activation.Always is used if it's nil.
func NewState(policy *activation.Policy) *State {
	if policy == nil {
		policy = activation.Always()
	}
	s := &State{policy: policy}
	s.Reset()
	return s
}

// Policy returns the activation policy of the registry.
func (s *State) Policy() *activation.Policy {
	return s.policy
}

// Reset clears the registry.
func (s *State) Reset() {
	s.groups = make(map[sigma.GroupKey]*CoinGroupInfo)
	s.latest = make(map[sigma.Denomination]uint32)
	s.mints = make(map[sigma.PublicCoin]MintRecord)
	s.used = make(map[sigma.Serial]struct{})
	s.pending = make(map[sigma.Serial]util.Uint256)
}

// AddMint records the coin minted by the given block and returns the id of
// the group it's placed into. Uniqueness of the coin is not checked, it's
// the caller's job.
func (s *State) AddMint(idx *chain.BlockIndex, m sigma.Mint) uint32 {
	key := sigma.GroupKey{Denomination: m.Denomination, ID: s.allocateGroup(m.Denomination, idx.Height)}
	s.addCoin(idx, key, m.Coin)
	if idx.MintedCoins == nil {
		idx.MintedCoins = make(map[sigma.GroupKey][]sigma.PublicCoin)
	}
	idx.MintedCoins[key] = append(idx.MintedCoins[key], m.Coin)
	return key.ID
}

func (s *State) addCoin(idx *chain.BlockIndex, key sigma.GroupKey, c sigma.PublicCoin) {
	g, ok := s.groups[key]
	if !ok {
		g = &CoinGroupInfo{FirstBlock: idx.Pos()}
		s.groups[key] = g
	}
	g.LastBlock = idx.Pos()
	g.CoinCount++
	s.mints[c] = MintRecord{Denomination: key.Denomination, GroupID: key.ID, Height: idx.Height}
	if key.ID > s.latest[key.Denomination] {
		s.latest[key.Denomination] = key.ID
	}
}

// AddSpend marks the serial as spent.
func (s *State) AddSpend(serial sigma.Serial) {
	if _, ok := s.used[serial]; ok {
		inconsistent("serial %s is already spent", serial)
	}
	s.used[serial] = struct{}{}
}

// AddBlock applies the aggregate of the block to the registry. Placement of
// the mints and spent serials are stored into the block index entry, so the
// block can be removed later with RemoveBlock. Serials confirmed by the block
// are removed from the pending set.
func (s *State) AddBlock(idx *chain.BlockIndex, info *TxInfo) {
	idx.MintedCoins = make(map[sigma.GroupKey][]sigma.PublicCoin)
	idx.SpentSerials = make(map[sigma.Serial]sigma.Denomination, len(info.SpentSerials))
	for _, m := range info.Mints {
		s.AddMint(idx, m)
	}
	for serial, d := range info.SpentSerials {
		s.AddSpend(serial)
		idx.SpentSerials[serial] = d
	}
	for serial := range info.SpentSerials {
		delete(s.pending, serial)
	}
}

// ReplayBlock applies the aggregate already stored in the block index entry.
// It's used to rebuild the registry from the block index.
func (s *State) ReplayBlock(idx *chain.BlockIndex) {
	for _, key := range idx.GroupKeys() {
		for _, c := range idx.MintedCoins[key] {
			s.addCoin(idx, key, c)
		}
	}
	for _, serial := range idx.Serials() {
		s.AddSpend(serial)
		delete(s.pending, serial)
	}
}

// RemoveBlock reverts the effect of the block. The block must be the last
// one applied.
func (s *State) RemoveBlock(idx *chain.BlockIndex) {
	var emptied = make(map[sigma.Denomination]bool)

	for _, key := range idx.GroupKeys() {
		coins := idx.MintedCoins[key]
		g, ok := s.groups[key]
		if !ok || g.CoinCount < len(coins) {
			inconsistent("group %s doesn't contain coins of block %s", key, idx.Pos())
		}
		for _, c := range coins {
			delete(s.mints, c)
		}
		g.CoinCount -= len(coins)
		if g.CoinCount == 0 {
			delete(s.groups, key)
			emptied[key.Denomination] = true
			continue
		}
		if g.LastBlock.Hash == idx.Hash {
			p := idx.Prev
			for p != nil && len(p.MintedCoins[key]) == 0 {
				p = p.Prev
			}
			if p == nil {
				inconsistent("no previous block minting into %s", key)
			}
			g.LastBlock = p.Pos()
		}
	}
	for d := range emptied {
		s.recomputeLatest(d)
	}
	for serial := range idx.SpentSerials {
		if _, ok := s.used[serial]; !ok {
			inconsistent("serial %s of block %s is not spent", serial, idx.Pos())
		}
		delete(s.used, serial)
	}
}

// GetCoinGroupInfo returns information about the group, false is returned
// for groups having no coins.
func (s *State) GetCoinGroupInfo(d sigma.Denomination, id uint32) (CoinGroupInfo, bool) {
	g, ok := s.groups[sigma.GroupKey{Denomination: d, ID: id}]
	if !ok {
		return CoinGroupInfo{}, false
	}
	return *g, true
}

// LatestGroupID returns the highest non-empty group of the denomination, 0
// if there are no coins of it.
func (s *State) LatestGroupID(d sigma.Denomination) uint32 {
	return s.latest[d]
}

// HasCoin tells whether the coin is minted.
func (s *State) HasCoin(c sigma.PublicCoin) bool {
	_, ok := s.mints[c]
	return ok
}

// GetMintedCoinHeightAndID returns the height and the group id of the coin.
// -1, -1 is returned for unknown coins or denomination mismatch.
func (s *State) GetMintedCoinHeightAndID(c sigma.PublicCoin, d sigma.Denomination) (int, int) {
	r, ok := s.mints[c]
	if !ok || r.Denomination != d {
		return -1, -1
	}
	return int(r.Height), int(r.GroupID)
}

// GetCoinSetForSpend returns coins of the group minted at heights up to
// maxHeight in the chain order. The hash of the last block contributing to
// the set is returned along with the number of coins.
func (s *State) GetCoinSetForSpend(c *chain.Chain, maxHeight uint32, d sigma.Denomination, id uint32) (int, util.Uint256, []sigma.PublicCoin) {
	var (
		key    = sigma.GroupKey{Denomination: d, ID: id}
		anchor util.Uint256
		coins  []sigma.PublicCoin
	)
	g, ok := s.groups[key]
	if !ok {
		return 0, anchor, nil
	}
	first := c.Resolve(g.FirstBlock)
	if first == nil {
		inconsistent("first block %s of %s is not on the chain", g.FirstBlock, key)
	}
	for b := first; b != nil && b.Height <= maxHeight; b = c.Next(b) {
		if mc := b.MintedCoins[key]; len(mc) != 0 {
			coins = append(coins, mc...)
			anchor = b.Hash
		}
		if b.Height >= g.LastBlock.Height {
			break
		}
	}
	return len(coins), anchor, coins
}

// Stats returns the summary of the registry.
func (s *State) Stats() Stats {
	return Stats{
		Groups:         len(s.groups),
		MintedCoins:    len(s.mints),
		UsedSerials:    len(s.used),
		PendingSerials: len(s.pending),
	}
}

// Groups returns all non-empty groups of the denomination in ascending id
// order.
func (s *State) Groups(d sigma.Denomination) []uint32 {
	var ids []uint32
	for k := range s.groups {
		if k.Denomination == d {
			ids = append(ids, k.ID)
		}
	}
	sortIDs(ids)
	return ids
}
