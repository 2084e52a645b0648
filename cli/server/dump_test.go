package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetPath(t *testing.T) {
	d := t.TempDir()
	p, err := getPath(d, 1)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(d, "BlockStorage_100000", "dump-block-1000.json"), p)

	p, err = getPath(d, 100001)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(d, "BlockStorage_200000", "dump-block-101000.json"), p)

	require.NoError(t, os.WriteFile(filepath.Join(d, "BlockStorage_300000"), []byte{1}, os.ModePerm))
	_, err = getPath(d, 200001)
	require.Error(t, err)
}

func TestDumpAppend(t *testing.T) {
	d := t.TempDir()
	dmp := newDump()
	*dmp = append(*dmp, blockDump{Block: 1})
	require.NoError(t, dmp.tryPersist(d, 1))
	require.Len(t, *dmp, 0)

	*dmp = append(*dmp, blockDump{Block: 2, Size: 1, Coins: []coinOp{{State: "Spent", Denomination: "lovelace", Key: "AQ=="}}})
	require.NoError(t, dmp.tryPersist(d, 2))

	p, err := getPath(d, 2)
	require.NoError(t, err)
	stored, err := readFile(p)
	require.NoError(t, err)
	require.Len(t, *stored, 2)
	require.EqualValues(t, 2, (*stored)[1].Block)
	require.Equal(t, "Spent", (*stored)[1].Coins[0].State)

	// Nothing to write.
	require.NoError(t, dmp.tryPersist(d, 3))
}
