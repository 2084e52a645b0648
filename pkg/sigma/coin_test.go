package sigma_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/nspcc-dev/sigma-go/internal/testchain"
	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/stretchr/testify/require"
)

func TestNewPublicCoin(t *testing.T) {
	b := testchain.CoinBytes(5)
	c, err := sigma.NewPublicCoin(b)
	require.NoError(t, err)
	require.Equal(t, b, c[:])
	require.NotEqual(t, c, testchain.Coin(6))

	t.Run("bad length", func(t *testing.T) {
		_, err := sigma.NewPublicCoin(b[1:])
		require.ErrorIs(t, err, sigma.ErrInvalidCoin)
	})
	t.Run("identity", func(t *testing.T) {
		// Compressed infinity has only the flag bits set.
		inf := make([]byte, sigma.PublicCoinSize)
		inf[0] = 0x40
		_, err := sigma.NewPublicCoin(inf)
		require.ErrorIs(t, err, sigma.ErrInvalidCoin)
	})
	t.Run("garbage", func(t *testing.T) {
		bad := make([]byte, sigma.PublicCoinSize)
		for i := range bad {
			bad[i] = 0xff
		}
		_, err := sigma.NewPublicCoin(bad)
		require.ErrorIs(t, err, sigma.ErrInvalidCoin)
	})
}

func TestNewSerial(t *testing.T) {
	b := testchain.SerialBytes(1)
	s, err := sigma.NewSerial(b)
	require.NoError(t, err)
	require.Equal(t, b, s[:])

	_, err = sigma.NewSerial(make([]byte, sigma.SerialSize))
	require.ErrorIs(t, err, sigma.ErrInvalidSerial)

	_, err = sigma.NewSerial(b[:10])
	require.ErrorIs(t, err, sigma.ErrInvalidSerial)

	mod := make([]byte, sigma.SerialSize)
	fr.Modulus().FillBytes(mod)
	_, err = sigma.NewSerial(mod)
	require.ErrorIs(t, err, sigma.ErrInvalidSerial)

	below := make([]byte, sigma.SerialSize)
	new(big.Int).Sub(fr.Modulus(), big.NewInt(1)).FillBytes(below)
	_, err = sigma.NewSerial(below)
	require.NoError(t, err)
}

func TestCoinCompare(t *testing.T) {
	a, b := sigma.PublicCoin{1}, sigma.PublicCoin{2}
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))

	s1, s2 := sigma.Serial{1}, sigma.Serial{2}
	require.Equal(t, -1, s1.Compare(s2))
	require.Equal(t, "01"+strings.Repeat("00", sigma.SerialSize-1), s1.String())
}

func TestMintCompare(t *testing.T) {
	m1 := sigma.Mint{Denomination: sigma.Lovelace, Coin: sigma.PublicCoin{9}}
	m2 := sigma.Mint{Denomination: sigma.Goldwasser, Coin: sigma.PublicCoin{1}}
	m3 := sigma.Mint{Denomination: sigma.Goldwasser, Coin: sigma.PublicCoin{2}}
	require.Equal(t, -1, m1.Compare(m2))
	require.Equal(t, -1, m2.Compare(m3))
	require.Equal(t, 1, m3.Compare(m1))
	require.Equal(t, 0, m3.Compare(m3))
}

func TestGroupKey(t *testing.T) {
	k1 := sigma.GroupKey{Denomination: sigma.Lovelace, ID: 5}
	k2 := sigma.GroupKey{Denomination: sigma.Goldwasser, ID: 1}
	k3 := sigma.GroupKey{Denomination: sigma.Goldwasser, ID: 2}
	require.True(t, k1.Less(k2))
	require.True(t, k2.Less(k3))
	require.False(t, k3.Less(k2))
	require.Equal(t, "goldwasser/2", k3.String())

	w := io.NewBufBinWriter()
	k3.EncodeBinary(w.BinWriter)
	m := sigma.Mint{Denomination: sigma.Rackoff, Coin: testchain.Coin(1)}
	m.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	r := io.NewBinReaderFromBuf(w.Bytes())
	var (
		k  sigma.GroupKey
		am sigma.Mint
	)
	k.DecodeBinary(r)
	am.DecodeBinary(r)
	require.NoError(t, r.Err)
	require.Equal(t, k3, k)
	require.Equal(t, m, am)
}
