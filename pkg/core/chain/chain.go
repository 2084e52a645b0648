/*
Package chain contains the block index and the active chain view over it.
*/
package chain

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// ErrNotNext is returned when appending an entry that doesn't extend the
// current tip.
var ErrNotNext = errors.New("block index entry doesn't extend the chain")

// Chain is the ordered sequence of entries from genesis to the current tip.
// It's not safe for concurrent use, callers serialize access.
type Chain struct {
	entries []*BlockIndex
	byHash  map[util.Uint256]*BlockIndex
}

// New returns an empty chain.
func New() *Chain {
	return &Chain{byHash: make(map[util.Uint256]*BlockIndex)}
}

// Len returns the number of entries in the chain.
func (c *Chain) Len() int {
	return len(c.entries)
}

// Tip returns the last entry or nil for an empty chain.
func (c *Chain) Tip() *BlockIndex {
	if len(c.entries) == 0 {
		return nil
	}
	return c.entries[len(c.entries)-1]
}

// Height returns the height of the tip, 0 for an empty chain.
func (c *Chain) Height() uint32 {
	if len(c.entries) == 0 {
		return 0
	}
	return uint32(len(c.entries) - 1)
}

// At returns the entry at the given height or nil.
func (c *Chain) At(height uint32) *BlockIndex {
	if uint64(height) >= uint64(len(c.entries)) {
		return nil
	}
	return c.entries[height]
}

// Contains tells whether the entry is a part of the chain.
func (c *Chain) Contains(b *BlockIndex) bool {
	if b == nil {
		return false
	}
	e := c.At(b.Height)
	return e != nil && e.Hash == b.Hash
}

// Next returns the successor of b in the chain or nil if b is the tip or not
// in the chain.
func (c *Chain) Next(b *BlockIndex) *BlockIndex {
	if !c.Contains(b) {
		return nil
	}
	return c.At(b.Height + 1)
}

// GetByHash returns the chain entry with the given hash or nil.
func (c *Chain) GetByHash(h util.Uint256) *BlockIndex {
	return c.byHash[h]
}

// Resolve returns the chain entry for the given position, nil if the
// position is not on the chain.
func (c *Chain) Resolve(p Position) *BlockIndex {
	e := c.At(p.Height)
	if e == nil || e.Hash != p.Hash {
		return nil
	}
	return e
}

// Append adds a new tip. Its height must follow the current one and its
// PrevHash must match the current tip. The entry's Prev is set.
func (c *Chain) Append(b *BlockIndex) error {
	tip := c.Tip()
	if tip == nil {
		if b.Height != 0 {
			return fmt.Errorf("%w: genesis expected, got height %d", ErrNotNext, b.Height)
		}
		b.Prev = nil
		c.push(b)
		return nil
	}
	if b.Height != tip.Height+1 {
		return fmt.Errorf("%w: expected height %d, got %d", ErrNotNext, tip.Height+1, b.Height)
	}
	if b.PrevHash != tip.Hash {
		return fmt.Errorf("%w: previous hash mismatch at %d", ErrNotNext, b.Height)
	}
	b.Prev = tip
	c.push(b)
	return nil
}

func (c *Chain) push(b *BlockIndex) {
	c.entries = append(c.entries, b)
	c.byHash[b.Hash] = b
}

// DisconnectTip removes the tip from the chain and returns it.
func (c *Chain) DisconnectTip() *BlockIndex {
	tip := c.Tip()
	if tip == nil {
		return nil
	}
	delete(c.byHash, tip.Hash)
	c.entries[len(c.entries)-1] = nil
	c.entries = c.entries[:len(c.entries)-1]
	return tip
}
