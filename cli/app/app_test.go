package app

import (
	"bytes"
	"testing"

	"github.com/nspcc-dev/sigma-go/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	config.Version = "0.1.0-test"
	ctl := New()
	var out bytes.Buffer
	ctl.Writer = &out
	require.NoError(t, ctl.Run([]string{"sigma-go", "--version"}))
	require.Contains(t, out.String(), "SigmaGo\nVersion: 0.1.0-test\n")
}

func TestCommands(t *testing.T) {
	ctl := New()
	for _, name := range []string{"node", "groups", "db"} {
		require.NotNil(t, ctl.Command(name), name)
	}
	db := ctl.Command("db")
	var subs []string
	for _, c := range db.Subcommands {
		subs = append(subs, c.Name)
	}
	require.Equal(t, []string{"dump", "restore", "rebuild"}, subs)
}
