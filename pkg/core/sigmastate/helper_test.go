package sigmastate

import (
	"errors"
	"testing"

	"github.com/nspcc-dev/sigma-go/internal/testchain"
	"github.com/nspcc-dev/sigma-go/pkg/core/chain"
	"github.com/nspcc-dev/sigma-go/pkg/core/transaction"
	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/sigma/activation"
	"github.com/nspcc-dev/sigma-go/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testEnv struct {
	t         *testing.T
	chain     *chain.Chain
	state     *State
	validator *Validator
	verifier  *recordingVerifier
	blocks    uint32
}

// recordingVerifier remembers anonymity sets it was asked about.
type recordingVerifier struct {
	testchain.Verifier
	sets [][]sigma.PublicCoin
}

func (v *recordingVerifier) VerifySpend(sp *transaction.SpendInput, coins []sigma.PublicCoin, anchor util.Uint256) bool {
	v.sets = append(v.sets, coins)
	return v.Verifier.VerifySpend(sp, coins, anchor)
}

func newTestEnv(t *testing.T, policy *activation.Policy) *testEnv {
	e := &testEnv{
		t:        t,
		chain:    chain.New(),
		state:    NewState(policy),
		verifier: new(recordingVerifier),
	}
	var err error
	e.validator, err = NewValidator(e.state, e.chain, e.verifier, 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	e.connect()
	return e
}

// blockHash makes hashes unique for every connected block, so blocks
// replaced by reorgs differ from the originals.
func blockHash(height, n uint32) util.Uint256 {
	return util.Uint256{0xb1, byte(height), byte(height >> 8), byte(height >> 16), byte(n), byte(n >> 8)}
}

func (e *testEnv) nextIndex() *chain.BlockIndex {
	var (
		h    uint32
		prev util.Uint256
	)
	if tip := e.chain.Tip(); tip != nil {
		h = tip.Height + 1
		prev = tip.Hash
	}
	e.blocks++
	return chain.NewBlockIndex(h, blockHash(h, e.blocks), prev, uint64(h))
}

// connect validates transactions as a block on top of the chain and applies
// it.
func (e *testEnv) connect(txs ...*transaction.Transaction) *chain.BlockIndex {
	idx := e.nextIndex()
	info := NewTxInfo()
	for _, tx := range txs {
		var vs ValidationState
		require.True(e.t, e.validator.CheckTransaction(tx, &vs, tx.Hash(), false, idx.Height, false, info), vs.Err)
	}
	info.Complete()
	require.NoError(e.t, e.chain.Append(idx))
	e.state.AddBlock(idx, info)
	return idx
}

func (e *testEnv) connectEmpty(n int) {
	for i := 0; i < n; i++ {
		e.connect()
	}
}

func (e *testEnv) disconnect() *chain.BlockIndex {
	idx := e.chain.Tip()
	e.state.RemoveBlock(idx)
	e.chain.DisconnectTip()
	return idx
}

func (e *testEnv) check(tx *transaction.Transaction, info *TxInfo) (bool, ValidationState) {
	var vs ValidationState
	ok := e.validator.CheckTransaction(tx, &vs, tx.Hash(), false, e.chain.Height()+1, false, info)
	return ok, vs
}

func snapshot(t *testing.T, s *State) []byte {
	w := io.NewBufBinWriter()
	s.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)
	return w.Bytes()
}

func requireInconsistent(t *testing.T, f func()) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		require.True(t, errors.Is(err, ErrInconsistentState), err)
	}()
	f()
}

func twoGroupPolicy(t *testing.T) *activation.Policy {
	p, err := activation.New(map[sigma.Denomination][]activation.Point{
		sigma.Goldwasser: {{GroupID: 1, Height: 0}, {GroupID: 2, Height: 5}},
		sigma.Lovelace:   {{GroupID: 1, Height: 0}},
	})
	require.NoError(t, err)
	return p
}
