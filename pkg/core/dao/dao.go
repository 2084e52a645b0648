package dao

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nspcc-dev/sigma-go/pkg/core/block"
	"github.com/nspcc-dev/sigma-go/pkg/core/chain"
	"github.com/nspcc-dev/sigma-go/pkg/core/storage"
	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/util"
)

// ErrBadIndex is returned when stored block index entries don't form a
// chain.
var ErrBadIndex = errors.New("broken block index")

// Simple is memCached wrapper around DB, simple DAO implementation.
type Simple struct {
	Store *storage.MemCachedStore
}

// NewSimple creates new simple dao using provided backend store.
func NewSimple(backend storage.Store) *Simple {
	return &Simple{Store: storage.NewMemCachedStore(backend)}
}

// GetAndDecode performs get operation and decoding with serializable structures.
func (dao *Simple) GetAndDecode(entity io.Serializable, key []byte) error {
	entityBytes, err := dao.Store.Get(key)
	if err != nil {
		return err
	}
	reader := io.NewBinReaderFromBuf(entityBytes)
	entity.DecodeBinary(reader)
	return reader.Err
}

// Put performs put operation with serializable structures.
func (dao *Simple) Put(entity io.Serializable, key []byte) error {
	buf := io.NewBufBinWriter()
	entity.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		return buf.Err
	}
	dao.Store.Put(key, buf.Bytes())
	return nil
}

// -- start blocks.

func makeBlockKey(hash util.Uint256) []byte {
	return append(storage.DataBlock.Bytes(), hash.BytesBE()...)
}

// StoreAsBlock stores the given block.
func (dao *Simple) StoreAsBlock(b *block.Block) error {
	return dao.Put(b, makeBlockKey(b.Hash()))
}

// GetBlock returns the block with the given hash.
func (dao *Simple) GetBlock(hash util.Uint256) (*block.Block, error) {
	b := block.New()
	if err := dao.GetAndDecode(b, makeBlockKey(hash)); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBlock removes the block with the given hash.
func (dao *Simple) DeleteBlock(hash util.Uint256) {
	dao.Store.Delete(makeBlockKey(hash))
}

// -- end blocks.

// -- start block index.

func makeIndexKey(height uint32) []byte {
	key := make([]byte, 5)
	key[0] = byte(storage.IXBlockIndex)
	binary.BigEndian.PutUint32(key[1:], height)
	return key
}

// PutBlockIndex stores the block index entry.
func (dao *Simple) PutBlockIndex(idx *chain.BlockIndex) error {
	return dao.Put(idx, makeIndexKey(idx.Height))
}

// DeleteBlockIndex removes the block index entry of the given height.
func (dao *Simple) DeleteBlockIndex(height uint32) {
	dao.Store.Delete(makeIndexKey(height))
}

// GetBlockIndexes returns all stored block index entries in height order.
// Entries must be contiguous starting from genesis.
func (dao *Simple) GetBlockIndexes() ([]*chain.BlockIndex, error) {
	var (
		res []*chain.BlockIndex
		err error
	)
	dao.Store.Seek(storage.SeekRange{Prefix: storage.IXBlockIndex.Bytes()}, func(k, v []byte) bool {
		idx := new(chain.BlockIndex)
		r := io.NewBinReaderFromBuf(v)
		idx.DecodeBinary(r)
		if r.Err != nil {
			err = fmt.Errorf("%w: entry %x: %v", ErrBadIndex, k, r.Err)
			return false
		}
		if idx.Height != uint32(len(res)) {
			err = fmt.Errorf("%w: expected height %d, got %d", ErrBadIndex, len(res), idx.Height)
			return false
		}
		res = append(res, idx)
		return true
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// -- end block index.

// StoreAsCurrentBlock stores the position of the chain tip.
func (dao *Simple) StoreAsCurrentBlock(pos chain.Position) error {
	return dao.Put(&pos, storage.SYSCurrentBlock.Bytes())
}

// GetCurrentBlock returns the stored position of the chain tip.
func (dao *Simple) GetCurrentBlock() (chain.Position, error) {
	var pos chain.Position
	err := dao.GetAndDecode(&pos, storage.SYSCurrentBlock.Bytes())
	return pos, err
}

// stateSnapshot is the stored coin registry snapshot bound to the chain tip
// it was taken at.
type stateSnapshot struct {
	tip   chain.Position
	state io.Serializable
}

func (s *stateSnapshot) EncodeBinary(w *io.BinWriter) {
	s.tip.EncodeBinary(w)
	s.state.EncodeBinary(w)
}

func (s *stateSnapshot) DecodeBinary(r *io.BinReader) {
	s.tip.DecodeBinary(r)
	s.state.DecodeBinary(r)
}

// PutSigmaState stores the coin registry snapshot taken at the given tip.
func (dao *Simple) PutSigmaState(tip chain.Position, state io.Serializable) error {
	return dao.Put(&stateSnapshot{tip: tip, state: state}, storage.SYSSigmaState.Bytes())
}

// GetSigmaState decodes the stored coin registry snapshot into state and
// returns the tip it was taken at.
func (dao *Simple) GetSigmaState(state io.Serializable) (chain.Position, error) {
	s := &stateSnapshot{state: state}
	err := dao.GetAndDecode(s, storage.SYSSigmaState.Bytes())
	return s.tip, err
}

// DeleteSigmaState removes the coin registry snapshot.
func (dao *Simple) DeleteSigmaState() {
	dao.Store.Delete(storage.SYSSigmaState.Bytes())
}

// GetVersion attempts to get the current version stored in the
// underlying store.
func (dao *Simple) GetVersion() (string, error) {
	version, err := dao.Store.Get(storage.SYSVersion.Bytes())
	return string(version), err
}

// PutVersion stores the given version in the underlying store.
func (dao *Simple) PutVersion(v string) {
	dao.Store.Put(storage.SYSVersion.Bytes(), []byte(v))
}

// Persist flushes all the changes made into the (supposedly) persistent
// underlying store.
func (dao *Simple) Persist() (int, error) {
	return dao.Store.Persist()
}

// Discard drops all the changes not yet persisted.
func (dao *Simple) Discard() {
	dao.Store.Discard()
}
