package block

import (
	"testing"

	"github.com/nspcc-dev/sigma-go/pkg/core/transaction"
	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/nspcc-dev/sigma-go/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDumbBlock() *Block {
	tx := transaction.New([]transaction.MintOutput{{Denomination: sigma.Goldwasser, Commitment: []byte{1}}}, nil)
	tx2 := transaction.New(nil, nil)
	tx2.Nonce = 1
	b := &Block{
		Header: Header{
			Version:   0,
			PrevHash:  util.Uint256{1, 2, 3},
			Timestamp: 1600000000000,
			Index:     1,
			Nonce:     1111,
		},
		Transactions: []*transaction.Transaction{tx, tx2},
	}
	b.RebuildMerkleRoot()
	return b
}

func TestBlockEncodeDecode(t *testing.T) {
	b := newDumbBlock()

	w := io.NewBufBinWriter()
	b.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	actual := New()
	r := io.NewBinReaderFromBuf(w.Bytes())
	actual.DecodeBinary(r)
	require.NoError(t, r.Err)

	assert.Equal(t, b.Hash(), actual.Hash())
	assert.Equal(t, b.Index, actual.Index)
	require.Equal(t, len(b.Transactions), len(actual.Transactions))
	for i := range b.Transactions {
		assert.Equal(t, b.Transactions[i].Hash(), actual.Transactions[i].Hash())
	}
	require.NoError(t, actual.Verify())
}

func TestBlockVerify(t *testing.T) {
	b := newDumbBlock()
	require.NoError(t, b.Verify())

	b.MerkleRoot = util.Uint256{}
	require.ErrorIs(t, b.Verify(), ErrMerkleMismatch)

	b = newDumbBlock()
	b.Transactions = append(b.Transactions, b.Transactions[0])
	b.RebuildMerkleRoot()
	require.ErrorIs(t, b.Verify(), ErrDuplicateTx)
}

func TestHashChangesWithHeader(t *testing.T) {
	b1 := newDumbBlock()
	b2 := newDumbBlock()
	require.Equal(t, b1.Hash(), b2.Hash())

	b3 := newDumbBlock()
	b3.Index = 2
	require.NotEqual(t, b1.Hash(), b3.Hash())
}

func TestCalcMerkleRoot(t *testing.T) {
	require.Equal(t, util.Uint256{}, CalcMerkleRoot(nil))

	h := util.Uint256{1}
	require.Equal(t, h, CalcMerkleRoot([]util.Uint256{h}))

	h2 := util.Uint256{2}
	root := CalcMerkleRoot([]util.Uint256{h, h2})
	require.Equal(t, hashPair(h, h2), root)

	h3 := util.Uint256{3}
	root3 := CalcMerkleRoot([]util.Uint256{h, h2, h3})
	require.Equal(t, hashPair(hashPair(h, h2), hashPair(h3, h3)), root3)
}
