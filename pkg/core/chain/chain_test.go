package chain

import (
	"testing"

	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func newTestChain(t *testing.T, n int) *Chain {
	c := New()
	var prev util.Uint256
	for i := 0; i < n; i++ {
		h := util.Uint256{byte(i + 1), 0xaa}
		require.NoError(t, c.Append(NewBlockIndex(uint32(i), h, prev, uint64(i))))
		prev = h
	}
	return c
}

func TestChainAppend(t *testing.T) {
	c := New()
	require.Nil(t, c.Tip())
	require.Equal(t, uint32(0), c.Height())

	require.ErrorIs(t, c.Append(NewBlockIndex(1, util.Uint256{1}, util.Uint256{}, 0)), ErrNotNext)

	c = newTestChain(t, 3)
	require.Equal(t, 3, c.Len())
	require.Equal(t, uint32(2), c.Height())
	require.Equal(t, c.At(1), c.Tip().Prev)
	require.Nil(t, c.At(0).Prev)

	bad := NewBlockIndex(3, util.Uint256{9}, util.Uint256{7}, 0)
	require.ErrorIs(t, c.Append(bad), ErrNotNext)
	bad = NewBlockIndex(5, util.Uint256{9}, c.Tip().Hash, 0)
	require.ErrorIs(t, c.Append(bad), ErrNotNext)
}

func TestChainNavigation(t *testing.T) {
	c := newTestChain(t, 4)

	require.Nil(t, c.At(4))
	require.True(t, c.Contains(c.At(2)))
	require.False(t, c.Contains(NewBlockIndex(2, util.Uint256{0xff}, util.Uint256{}, 0)))
	require.False(t, c.Contains(nil))

	require.Equal(t, c.At(3), c.Next(c.At(2)))
	require.Nil(t, c.Next(c.Tip()))

	require.Equal(t, c.At(3), c.GetByHash(c.At(3).Hash))
	require.Nil(t, c.GetByHash(util.Uint256{0xff}))

	require.Equal(t, c.At(1), c.Resolve(c.At(1).Pos()))
	require.Nil(t, c.Resolve(Position{Height: 1, Hash: util.Uint256{0xff}}))
	require.Nil(t, c.Resolve(Position{Height: 10, Hash: c.At(1).Hash}))
}

func TestChainDisconnectTip(t *testing.T) {
	c := newTestChain(t, 2)
	tip := c.Tip()
	require.Equal(t, tip, c.DisconnectTip())
	require.Equal(t, 1, c.Len())
	require.False(t, c.Contains(tip))
	require.Nil(t, c.GetByHash(tip.Hash))
	require.NoError(t, c.Append(tip))

	require.NotNil(t, c.DisconnectTip())
	require.NotNil(t, c.DisconnectTip())
	require.Nil(t, c.DisconnectTip())
}

func TestBlockIndexEncodeDecode(t *testing.T) {
	b := NewBlockIndex(7, util.Uint256{1, 2}, util.Uint256{3, 4}, 1234)
	k1 := sigma.GroupKey{Denomination: sigma.Goldwasser, ID: 1}
	k2 := sigma.GroupKey{Denomination: sigma.Lovelace, ID: 3}
	b.MintedCoins[k1] = []sigma.PublicCoin{{1}, {2}}
	b.MintedCoins[k2] = []sigma.PublicCoin{{3}}
	b.SpentSerials[sigma.Serial{5}] = sigma.Pedersen
	b.SpentSerials[sigma.Serial{4}] = sigma.Lovelace

	w := io.NewBufBinWriter()
	b.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)
	data := w.Bytes()

	actual := new(BlockIndex)
	r := io.NewBinReaderFromBuf(data)
	actual.DecodeBinary(r)
	require.NoError(t, r.Err)
	require.Equal(t, b, actual)

	require.Equal(t, []sigma.GroupKey{k2, k1}, actual.GroupKeys())
	require.Equal(t, []sigma.Serial{{4}, {5}}, actual.Serials())

	// Encoding is deterministic.
	w2 := io.NewBufBinWriter()
	actual.EncodeBinary(w2.BinWriter)
	require.Equal(t, data, w2.Bytes())
}

func TestPosition(t *testing.T) {
	var p Position
	require.False(t, p.IsSet())
	p = Position{Height: 5, Hash: util.Uint256{1}}
	require.True(t, p.IsSet())

	w := io.NewBufBinWriter()
	p.EncodeBinary(w.BinWriter)
	var actual Position
	r := io.NewBinReaderFromBuf(w.Bytes())
	actual.DecodeBinary(r)
	require.NoError(t, r.Err)
	require.Equal(t, p, actual)
}
