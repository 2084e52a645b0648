package netmode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMagicString(t *testing.T) {
	require.Equal(t, "mainnet", MainNet.String())
	require.Equal(t, "unit_testnet", UnitTestNet.String())
	require.Equal(t, "net 0x7", Magic(7).String())
}

func TestParse(t *testing.T) {
	for _, m := range []Magic{MainNet, TestNet, PrivNet, UnitTestNet} {
		actual, err := Parse(m.String())
		require.NoError(t, err)
		require.Equal(t, m, actual)
	}
	m, err := Parse("TestNet")
	require.NoError(t, err)
	require.Equal(t, TestNet, m)

	_, err = Parse("neo")
	require.Error(t, err)
}
