package sigmastate

import (
	"fmt"
	"sort"

	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
)

// EncodeBinary implements the io.Serializable interface. Confirmed registry
// contents are written in sorted order, pending serials are not a part of
// the snapshot.
func (s *State) EncodeBinary(w *io.BinWriter) {
	keys := make([]sigma.GroupKey, 0, len(s.groups))
	for k := range s.groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	w.WriteVarUint(uint64(len(keys)))
	for i := range keys {
		g := s.groups[keys[i]]
		keys[i].EncodeBinary(w)
		g.FirstBlock.EncodeBinary(w)
		g.LastBlock.EncodeBinary(w)
		w.WriteU32LE(uint32(g.CoinCount))
	}

	coins := make([]sigma.PublicCoin, 0, len(s.mints))
	for c := range s.mints {
		coins = append(coins, c)
	}
	sort.Slice(coins, func(i, j int) bool { return coins[i].Compare(coins[j]) < 0 })
	w.WriteVarUint(uint64(len(coins)))
	for i := range coins {
		r := s.mints[coins[i]]
		coins[i].EncodeBinary(w)
		w.WriteB(byte(r.Denomination))
		w.WriteU32LE(r.GroupID)
		w.WriteU32LE(r.Height)
	}

	serials := make([]sigma.Serial, 0, len(s.used))
	for serial := range s.used {
		serials = append(serials, serial)
	}
	sort.Slice(serials, func(i, j int) bool { return serials[i].Compare(serials[j]) < 0 })
	io.WriteArray(w, serials)

	ds := make([]sigma.Denomination, 0, len(s.latest))
	for d := range s.latest {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	w.WriteVarUint(uint64(len(ds)))
	for _, d := range ds {
		w.WriteB(byte(d))
		w.WriteU32LE(s.latest[d])
	}
}

// DecodeBinary implements the io.Serializable interface. Pending serials are
// dropped.
func (s *State) DecodeBinary(r *io.BinReader) {
	s.Reset()

	n := r.ReadVarUint()
	if r.Err == nil && n > io.MaxArraySize {
		r.Err = fmt.Errorf("too many groups: %d", n)
	}
	for i := uint64(0); i < n && r.Err == nil; i++ {
		var (
			k sigma.GroupKey
			g CoinGroupInfo
		)
		k.DecodeBinary(r)
		g.FirstBlock.DecodeBinary(r)
		g.LastBlock.DecodeBinary(r)
		g.CoinCount = int(r.ReadU32LE())
		if r.Err == nil && g.CoinCount == 0 {
			r.Err = fmt.Errorf("empty group %s", k)
		}
		s.groups[k] = &g
	}

	n = r.ReadVarUint()
	if r.Err == nil && n > io.MaxArraySize {
		r.Err = fmt.Errorf("too many coins: %d", n)
	}
	for i := uint64(0); i < n && r.Err == nil; i++ {
		var (
			c   sigma.PublicCoin
			rec MintRecord
		)
		c.DecodeBinary(r)
		rec.Denomination = sigma.Denomination(r.ReadB())
		rec.GroupID = r.ReadU32LE()
		rec.Height = r.ReadU32LE()
		s.mints[c] = rec
	}

	for _, serial := range io.ReadArray[sigma.Serial](r) {
		s.used[serial] = struct{}{}
	}

	n = r.ReadVarUint()
	if r.Err == nil && n > 256 {
		r.Err = fmt.Errorf("too many denominations: %d", n)
	}
	for i := uint64(0); i < n && r.Err == nil; i++ {
		d := sigma.Denomination(r.ReadB())
		s.latest[d] = r.ReadU32LE()
	}
}
