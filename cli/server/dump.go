package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nspcc-dev/sigma-go/pkg/core/block"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
)

type dump []blockDump

type blockDump struct {
	Block uint32   `json:"block"`
	Size  int      `json:"size"`
	Coins []coinOp `json:"coins"`
}

type coinOp struct {
	State        string `json:"state"`
	Denomination string `json:"denomination"`
	Key          string `json:"key"`
	Group        uint32 `json:"group,omitempty"`
}

// groupLocator returns the group a coin landed in.
type groupLocator interface {
	GetMintedCoinHeightAndID(c sigma.PublicCoin, d sigma.Denomination) (int, int)
}

// blockToDump lists coin state changes made by the block, it's expected to
// be called after the block is added.
func blockToDump(b *block.Block, l groupLocator) blockDump {
	var ops []coinOp
	for _, tx := range b.Transactions {
		for i := range tx.Mints {
			m := &tx.Mints[i]
			op := coinOp{
				State:        "Minted",
				Denomination: m.Denomination.String(),
				Key:          base64.StdEncoding.EncodeToString(m.Commitment),
			}
			if c, err := sigma.NewPublicCoin(m.Commitment); err == nil {
				if _, id := l.GetMintedCoinHeightAndID(c, m.Denomination); id > 0 {
					op.Group = uint32(id)
				}
			}
			ops = append(ops, op)
		}
		for i := range tx.Spends {
			s := &tx.Spends[i]
			ops = append(ops, coinOp{
				State:        "Spent",
				Denomination: s.Denomination.String(),
				Key:          base64.StdEncoding.EncodeToString(s.Serial),
				Group:        s.GroupID,
			})
		}
	}
	return blockDump{
		Block: b.Index,
		Size:  len(ops),
		Coins: ops,
	}
}

func newDump() *dump {
	return new(dump)
}

func (d *dump) add(b *block.Block, l groupLocator) {
	*d = append(*d, blockToDump(b, l))
}

func (d *dump) tryPersist(prefix string, index uint32) error {
	if len(*d) == 0 {
		return nil
	}
	path, err := getPath(prefix, index)
	if err != nil {
		return err
	}
	old, err := readFile(path)
	if err == nil {
		*old = append(*old, *d...)
	} else {
		old = d
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", " ")
	if err := enc.Encode(*old); err != nil {
		return err
	}

	*d = (*d)[:0]

	return nil
}

func readFile(path string) (*dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := newDump()
	if err := json.Unmarshal(data, d); err != nil {
		return nil, err
	}
	return d, err
}

// getPath returns filename for storing blocks up to index.
// Dir `BlockStorage_$DIRNO` contains blocks up to $DIRNO (from $DIRNO-100k),
// inside it there are files grouped by 1k blocks.
// File dump-block-$FILENO.json contains blocks from $FILENO-999 to $FILENO.
// Example: file `BlockStorage_100000/dump-block-6000.json` contains blocks from 5001 to 6000.
func getPath(prefix string, index uint32) (string, error) {
	dirN := ((index + 99999) / 100000) * 100000
	dir := fmt.Sprintf("BlockStorage_%d", dirN)

	path := filepath.Join(prefix, dir)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		err := os.MkdirAll(path, os.ModePerm)
		if err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	} else if !info.IsDir() {
		return "", fmt.Errorf("file `%s` is not a directory", path)
	}

	fileN := ((index + 999) / 1000) * 1000
	file := fmt.Sprintf("dump-block-%d.json", fileN)
	return filepath.Join(path, file), nil
}
