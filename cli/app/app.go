package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/sigma-go/cli/server"
	"github.com/nspcc-dev/sigma-go/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "SigmaGo\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates a SigmaGo instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "sigma-go"
	ctl.Version = config.Version
	ctl.Usage = "Sigma coin state keeper"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, server.NewCommands()...)
	return ctl
}
