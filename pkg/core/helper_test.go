package core

import (
	"testing"

	"github.com/nspcc-dev/sigma-go/internal/testchain"
	"github.com/nspcc-dev/sigma-go/pkg/config"
	"github.com/nspcc-dev/sigma-go/pkg/config/netmode"
	"github.com/nspcc-dev/sigma-go/pkg/core/block"
	"github.com/nspcc-dev/sigma-go/pkg/core/storage"
	"github.com/nspcc-dev/sigma-go/pkg/core/transaction"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// multi-platform path to the unit test network configuration.
const testConfigPath = "../../config"

// noCloseStore keeps the data of the underlying store after the chain is
// closed, so the chain can be reopened.
type noCloseStore struct {
	storage.Store
}

func (noCloseStore) Close() error { return nil }

func unitTestNetConfig(t *testing.T) config.Blockchain {
	cfg, err := config.Load(testConfigPath, netmode.UnitTestNet)
	require.NoError(t, err)
	return cfg.Blockchain()
}

func newTestChain(t *testing.T) *Blockchain {
	return newTestChainWithCustomCfg(t, nil)
}

func newTestChainWithCustomCfg(t *testing.T, f func(*config.Blockchain)) *Blockchain {
	return newTestChainWithStore(t, f, storage.NewMemoryStore())
}

func newTestChainWithStore(t *testing.T, f func(*config.Blockchain), st storage.Store) *Blockchain {
	cfg := unitTestNetConfig(t)
	if f != nil {
		f(&cfg)
	}
	bc, err := NewBlockchain(st, cfg, testchain.Verifier{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return bc
}

// addBlock creates the next block with the given transactions and connects
// it.
func addBlock(t *testing.T, bc *Blockchain, txs ...*transaction.Transaction) *block.Block {
	b := testchain.NextBlock(bc, txs...)
	require.NoError(t, bc.AddBlock(b))
	return b
}

func addEmptyBlocks(t *testing.T, bc *Blockchain, n int) {
	for i := 0; i < n; i++ {
		addBlock(t, bc)
	}
}
