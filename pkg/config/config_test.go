package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/sigma-go/pkg/config/netmode"
	"github.com/nspcc-dev/sigma-go/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/sigma/activation"
	"github.com/stretchr/testify/require"
)

const testConfigPath = "../../config"

func TestLoadSamples(t *testing.T) {
	for _, net := range []netmode.Magic{netmode.MainNet, netmode.TestNet, netmode.PrivNet, netmode.UnitTestNet} {
		t.Run(net.String(), func(t *testing.T) {
			cfg, err := Load(testConfigPath, net)
			require.NoError(t, err)
			require.Equal(t, net, cfg.ProtocolConfiguration.Magic)
			_, err = cfg.ProtocolConfiguration.Policy()
			require.NoError(t, err)
		})
	}
}

func TestLoadUnitTestNet(t *testing.T) {
	cfg, err := Load(testConfigPath, netmode.UnitTestNet)
	require.NoError(t, err)

	pc := cfg.ProtocolConfiguration
	require.Equal(t, 100, pc.MemPoolSize)
	require.True(t, pc.VerifyBlocks)
	require.Equal(t, []activation.Point{{GroupID: 1, Height: 0}, {GroupID: 2, Height: 5}},
		pc.SigmaActivations[sigma.Goldwasser])

	p, err := pc.Policy()
	require.NoError(t, err)
	id, ok := p.GroupAt(sigma.Goldwasser, 7)
	require.True(t, ok)
	require.Equal(t, uint32(2), id)
	_, ok = p.GroupAt(sigma.Williamson, 7)
	require.False(t, ok)

	ac := cfg.ApplicationConfiguration
	require.Equal(t, dbconfig.InMemoryDB, ac.DBConfiguration.Type)
	require.Equal(t, 8, ac.CoinSetCacheSize)
	require.False(t, ac.Prometheus.Enabled)
	require.Equal(t, []string{":2112"}, ac.Prometheus.GetAddresses())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir(), netmode.PrivNet)
	require.Error(t, err)
}

func writeConfig(t *testing.T, data string) string {
	p := filepath.Join(t.TempDir(), "protocol.yml")
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func TestLoadFile(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, "ProtocolConfiguration:\n  Magic: 42\n"))
		require.NoError(t, err)
		require.Equal(t, DefaultMemPoolSize, cfg.ProtocolConfiguration.MemPoolSize)
		p, err := cfg.ProtocolConfiguration.Policy()
		require.NoError(t, err)
		require.True(t, p.IsActive(sigma.Williamson, 1, 0))
	})
	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ProtocolConfiguration:\n  Magic: 42\n  Unknown: 1\n"))
		require.Error(t, err)
	})
	t.Run("no magic", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ProtocolConfiguration:\n  MemPoolSize: 10\n"))
		require.ErrorIs(t, err, errNoNetwork)
	})
	t.Run("bad mempool size", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ProtocolConfiguration:\n  Magic: 42\n  MemPoolSize: -1\n"))
		require.Error(t, err)
	})
	t.Run("unknown denomination", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, `ProtocolConfiguration:
  Magic: 42
  SigmaActivations:
    turing:
      - GroupID: 1
        Height: 0
`))
		require.Error(t, err)
	})
	t.Run("bad schedule", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, `ProtocolConfiguration:
  Magic: 42
  SigmaActivations:
    lovelace:
      - GroupID: 2
        Height: 0
      - GroupID: 1
        Height: 10
`))
		require.ErrorIs(t, err, activation.ErrBadSchedule)
	})
}

func TestBlockchainConfig(t *testing.T) {
	cfg, err := Load(testConfigPath, netmode.UnitTestNet)
	require.NoError(t, err)
	bc := cfg.Blockchain()
	require.Equal(t, cfg.ProtocolConfiguration, bc.ProtocolConfiguration)
	require.Equal(t, 8, bc.CoinSetCacheSize)
}
