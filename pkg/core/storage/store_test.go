package storage

import (
	"bytes"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"testing"

	"github.com/nspcc-dev/sigma-go/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dbSetup struct {
	name   string
	create func(testing.TB) Store
}

type dbTestFunction func(*testing.T, Store)

func newLevelDBForTesting(t testing.TB) Store {
	newLevelStore, err := NewLevelDBStore(dbconfig.LevelDBOptions{DataDirectoryPath: t.TempDir()})
	require.Nil(t, err, "NewLevelDBStore error")
	return newLevelStore
}

func newBoltStoreForTesting(t testing.TB) Store {
	testFileName := filepath.Join(t.TempDir(), "test_bolt_db")
	boltDBStore, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: testFileName})
	require.NoError(t, err)
	return boltDBStore
}

func newMemoryStoreForTesting(t testing.TB) Store {
	return NewMemoryStore()
}

func newMemCachedStoreForTesting(t testing.TB) Store {
	return NewMemCachedStore(NewMemoryStore())
}

func testStoreGetNonExistent(t *testing.T, s Store) {
	_, err := s.Get([]byte("sparse"))
	assert.Equal(t, err, ErrKeyNotFound)
}

func testStorePutGetDelete(t *testing.T, s Store) {
	require.NoError(t, s.PutChangeSet(map[string][]byte{"sparse": []byte("rocks"), "other": []byte("thing")}))
	val, err := s.Get([]byte("sparse"))
	require.NoError(t, err)
	require.Equal(t, []byte("rocks"), val)

	require.NoError(t, s.PutChangeSet(map[string][]byte{"sparse": nil}))
	_, err = s.Get([]byte("sparse"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	val, err = s.Get([]byte("other"))
	require.NoError(t, err)
	require.Equal(t, []byte("thing"), val)
}

func pushSeekDataSet(t *testing.T, s Store) []KeyValue {
	// Use the same set of kvs to test Seek with different prefix/start values.
	kvs := []KeyValue{
		{[]byte("10"), []byte("bar")},
		{[]byte("11"), []byte("bara")},
		{[]byte("20"), []byte("barb")},
		{[]byte("21"), []byte("barc")},
		{[]byte("22"), []byte("bard")},
		{[]byte("30"), []byte("bare")},
		{[]byte("31"), []byte("barf")},
	}
	up := NewMemCachedStore(s)
	for _, v := range kvs {
		up.Put(v.Key, v.Value)
	}
	n, err := up.Persist()
	require.NoError(t, err)
	require.Equal(t, len(kvs), n)
	return kvs
}

func testStoreSeek(t *testing.T, s Store) {
	kvs := pushSeekDataSet(t, s)
	check := func(t *testing.T, prefix, start []byte, expected []KeyValue, backwards bool, cont func(k, v []byte) bool) {
		// Seek result expected to be sorted in an ascending (for forwards seeking) or descending (for backwards seeking) way.
		sort.Slice(expected, func(i, j int) bool {
			res := bytes.Compare(expected[i].Key, expected[j].Key)
			return backwards == (res > 0)
		})
		actual := make([]KeyValue, 0, len(expected))
		s.Seek(SeekRange{Prefix: prefix, Start: start, Backwards: backwards}, func(k, v []byte) bool {
			actual = append(actual, KeyValue{
				Key:   bytes.Clone(k),
				Value: bytes.Clone(v),
			})
			if cont == nil {
				return true
			}
			return cont(k, v)
		})
		assert.Equal(t, expected, actual)
	}

	t.Run("forwards", func(t *testing.T) {
		check(t, []byte("2"), nil, []KeyValue{kvs[2], kvs[3], kvs[4]}, false, nil)
		check(t, []byte("0"), nil, []KeyValue{}, false, nil)
		check(t, []byte("2"), []byte("1"), []KeyValue{kvs[3], kvs[4]}, false, nil)
		check(t, []byte("2"), []byte("3"), []KeyValue{}, false, nil)
		check(t, []byte("2"), nil, []KeyValue{kvs[2], kvs[3]}, false, func(k, v []byte) bool {
			return string(k) < "21"
		})
		check(t, nil, nil, kvs, false, nil)
	})
	t.Run("backwards", func(t *testing.T) {
		check(t, []byte("2"), nil, []KeyValue{kvs[4], kvs[3], kvs[2]}, true, nil)
		check(t, []byte("0"), nil, []KeyValue{}, true, nil)
		check(t, []byte("2"), []byte("1"), []KeyValue{kvs[3], kvs[2]}, true, nil)
		check(t, []byte("2"), []byte("."), []KeyValue{}, true, nil)
		check(t, []byte("2"), []byte("2"), []KeyValue{kvs[4], kvs[3]}, true, func(k, v []byte) bool {
			return string(k) > "21"
		})
		check(t, []byte("3"), nil, []KeyValue{kvs[6]}, true, func(k, v []byte) bool {
			return false
		})
	})
}

func TestAllDBs(t *testing.T) {
	var DBs = []dbSetup{
		{"BoltDB", newBoltStoreForTesting},
		{"LevelDB", newLevelDBForTesting},
		{"MemCached", newMemCachedStoreForTesting},
		{"Memory", newMemoryStoreForTesting},
	}
	var tests = []dbTestFunction{testStoreGetNonExistent, testStorePutGetDelete, testStoreSeek}
	for _, db := range DBs {
		for _, test := range tests {
			s := db.create(t)
			twrapper := func(t *testing.T) {
				test(t, s)
			}
			fname := runtime.FuncForPC(reflect.ValueOf(test).Pointer()).Name()
			t.Run(db.name+"/"+fname, twrapper)
			require.NoError(t, s.Close())
		}
	}
}

func TestMemCachedStore(t *testing.T) {
	ps := NewMemoryStore()
	require.NoError(t, ps.PutChangeSet(map[string][]byte{"a": {1}, "b": {2}}))

	s := NewMemCachedStore(ps)
	s.Put([]byte("c"), []byte{3})
	s.Delete([]byte("a"))
	require.Equal(t, 2, s.Len())

	_, err := s.Get([]byte("a"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	v, err := s.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte{2}, v)

	// Lower store is not touched before Persist.
	_, err = ps.Get([]byte("c"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	var keys []string
	s.Seek(SeekRange{}, func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	require.Equal(t, []string{"b", "c"}, keys)

	n, err := s.Persist()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 0, s.Len())
	_, err = ps.Get([]byte("a"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	v, err = ps.Get([]byte("c"))
	require.NoError(t, err)
	require.Equal(t, []byte{3}, v)

	n, err = s.Persist()
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(dbconfig.DBConfiguration{Type: dbconfig.InMemoryDB})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	s, err = NewStore(dbconfig.DBConfiguration{
		Type:          dbconfig.BoltDB,
		BoltDBOptions: dbconfig.BoltDBOptions{FilePath: filepath.Join(t.TempDir(), "bolt")},
	})
	require.NoError(t, err)
	require.IsType(t, &BoltDBStore{}, s)
	require.NoError(t, s.Close())

	s, err = NewStore(dbconfig.DBConfiguration{
		Type:           dbconfig.LevelDB,
		LevelDBOptions: dbconfig.LevelDBOptions{DataDirectoryPath: t.TempDir()},
	})
	require.NoError(t, err)
	require.IsType(t, &LevelDBStore{}, s)
	require.NoError(t, s.Close())

	_, err = NewStore(dbconfig.DBConfiguration{Type: "redis"})
	require.Error(t, err)
}
