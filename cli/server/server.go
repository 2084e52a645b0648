package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/nspcc-dev/sigma-go/cli/options"
	"github.com/nspcc-dev/sigma-go/pkg/config"
	"github.com/nspcc-dev/sigma-go/pkg/core"
	"github.com/nspcc-dev/sigma-go/pkg/core/block"
	"github.com/nspcc-dev/sigma-go/pkg/core/chaindump"
	"github.com/nspcc-dev/sigma-go/pkg/core/sigmastate"
	"github.com/nspcc-dev/sigma-go/pkg/core/storage"
	"github.com/nspcc-dev/sigma-go/pkg/io"
	"github.com/nspcc-dev/sigma-go/pkg/services/metrics"
	"github.com/nspcc-dev/sigma-go/pkg/sigma"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// restoreProgressStep is the number of restored blocks between progress
// log messages.
const restoreProgressStep = 10000

// NewCommands returns 'node', 'db' and 'groups' commands.
func NewCommands() []cli.Command {
	var cfgFlags = []cli.Flag{options.Config, options.ConfigFile, options.Debug}
	cfgFlags = append(cfgFlags, options.Network...)
	var cfgWithCountFlags = make([]cli.Flag, len(cfgFlags))
	copy(cfgWithCountFlags, cfgFlags)
	cfgWithCountFlags = append(cfgWithCountFlags,
		cli.UintFlag{
			Name:  "count, c",
			Usage: "number of blocks to be processed (default or 0: all chain)",
		},
	)
	var cfgCountOutFlags = make([]cli.Flag, len(cfgWithCountFlags))
	copy(cfgCountOutFlags, cfgWithCountFlags)
	cfgCountOutFlags = append(cfgCountOutFlags,
		cli.UintFlag{
			Name:  "start, s",
			Usage: "block number to start from (default: 0)",
		},
		cli.StringFlag{
			Name:  "out, o",
			Usage: "Output file (stdout if not given)",
		},
	)
	var cfgCountInFlags = make([]cli.Flag, len(cfgWithCountFlags))
	copy(cfgCountInFlags, cfgWithCountFlags)
	cfgCountInFlags = append(cfgCountInFlags,
		cli.StringFlag{
			Name:  "in, i",
			Usage: "Input file (stdin if not given)",
		},
		cli.StringFlag{
			Name:  "dump",
			Usage: "directory for coin state changes dump",
		},
		cli.BoolFlag{
			Name:  "incremental, n",
			Usage: "use if dump is incremental",
		},
	)
	var groupsFlags = make([]cli.Flag, len(cfgFlags))
	copy(groupsFlags, cfgFlags)
	groupsFlags = append(groupsFlags,
		cli.StringFlag{
			Name:  "denomination",
			Usage: "show groups of the given denomination only",
		},
	)
	return []cli.Command{
		{
			Name:      "node",
			Usage:     "start a sigma-go node",
			UsageText: "sigma-go node [--config-path path] [-d] [-p/-m/-t] [--config-file file]",
			Action:    startServer,
			Flags:     cfgFlags,
		},
		{
			Name:      "groups",
			Usage:     "show coin groups",
			UsageText: "sigma-go groups [--config-path path] [-p/-m/-t] [--config-file file] [--denomination name]",
			Action:    showGroups,
			Flags:     groupsFlags,
		},
		{
			Name:  "db",
			Usage: "database manipulations",
			Subcommands: []cli.Command{
				{
					Name:      "dump",
					Usage:     "dump blocks (starting with block #1) to the file",
					UsageText: "sigma-go db dump -o file [-s start] [-c count] [--config-path path] [-p/-m/-t] [--config-file file]",
					Action:    dumpDB,
					Flags:     cfgCountOutFlags,
				},
				{
					Name:      "restore",
					Usage:     "restore blocks from the file",
					UsageText: "sigma-go db restore -i file [--dump] [-n] [-c count] [--config-path path] [-p/-m/-t] [--config-file file]",
					Action:    restoreDB,
					Flags:     cfgCountInFlags,
				},
				{
					Name:      "rebuild",
					Usage:     "rebuild coin state from the stored chain",
					UsageText: "sigma-go db rebuild [--config-path path] [-p/-m/-t] [--config-file file]",
					Action:    rebuildState,
					Flags:     cfgFlags,
				},
			},
		},
	}
}

// newGraceContext returns a context cancelled on SIGINT or SIGTERM.
func newGraceContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func getConfigAndLogger(ctx *cli.Context) (config.Config, *zap.Logger, *zap.AtomicLevel, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cfg, nil, nil, cli.NewExitError(err, 1)
	}
	log, lvl, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return cfg, nil, nil, cli.NewExitError(err, 1)
	}
	return cfg, log, lvl, nil
}

func dumpDB(ctx *cli.Context) error {
	cfg, log, _, err := getConfigAndLogger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	count := uint32(ctx.Uint("count"))
	start := uint32(ctx.Uint("start"))

	var outStream = os.Stdout
	if out := ctx.String("out"); out != "" {
		outStream, err = os.Create(out)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	defer outStream.Close()
	writer := io.NewBinWriterFromIO(outStream)

	chain, err := initBlockChain(cfg, log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer chain.Close()

	chainCount := chain.BlockHeight() + 1
	if start+count > chainCount {
		return cli.NewExitError(fmt.Errorf("chain is not that high (%d) to dump %d blocks starting from %d", chainCount-1, count, start), 1)
	}
	if count == 0 {
		count = chainCount - start
	}
	if start != 0 {
		writer.WriteU32LE(start)
	}
	writer.WriteU32LE(count)
	err = chaindump.Dump(chain, writer, start, count)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

func restoreDB(ctx *cli.Context) error {
	cfg, log, _, err := getConfigAndLogger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	count := uint32(ctx.Uint("count"))

	var inStream = os.Stdin
	if in := ctx.String("in"); in != "" {
		inStream, err = os.Open(in)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	defer inStream.Close()
	reader := io.NewBinReaderFromIO(inStream)

	dumpDir := ctx.String("dump")

	chain, err := initBlockChain(cfg, log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer chain.Close()

	var start uint32
	if ctx.Bool("incremental") {
		start = reader.ReadU32LE()
		if chain.BlockHeight()+1 < start {
			return cli.NewExitError(fmt.Errorf("expected height: %d, dump starts at %d",
				chain.BlockHeight()+1, start), 1)
		}
	}

	var skip uint32
	if chain.BlockHeight() != 0 {
		skip = chain.BlockHeight() + 1 - start
	}

	var allBlocks = reader.ReadU32LE()
	if reader.Err != nil {
		return cli.NewExitError(reader.Err, 1)
	}
	if skip+count > allBlocks {
		return cli.NewExitError(fmt.Errorf("input file has only %d blocks, can't read %d starting from %d", allBlocks, count, skip), 1)
	}
	if count == 0 {
		count = allBlocks - skip
	}

	var changes = newDump()
	var lastIndex uint32
	f := func(b *block.Block) error {
		lastIndex = b.Index
		if b.Index%restoreProgressStep == 0 {
			log.Info("restoring", zap.Uint32("height", b.Index))
		}
		if dumpDir == "" {
			return nil
		}
		changes.add(b, chain)
		if b.Index%1000 == 0 {
			if err := changes.tryPersist(dumpDir, b.Index); err != nil {
				return fmt.Errorf("can't dump coin changes for block %d: %w", b.Index, err)
			}
		}
		return nil
	}

	log.Info("initialize restore",
		zap.Uint32("start", start),
		zap.Uint32("height", chain.BlockHeight()),
		zap.Uint32("skip", skip),
		zap.Uint32("count", count))
	err = chaindump.Restore(chain, reader, skip, count, f)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if dumpDir != "" {
		if err := changes.tryPersist(dumpDir, lastIndex); err != nil {
			return cli.NewExitError(fmt.Errorf("can't dump coin changes: %w", err), 1)
		}
	}
	stats := chain.Stats()
	log.Info("restore finished",
		zap.Uint32("height", chain.BlockHeight()),
		zap.Int("groups", stats.Groups),
		zap.Int("minted", stats.MintedCoins),
		zap.Int("spent", stats.UsedSerials))
	return nil
}

func rebuildState(ctx *cli.Context) error {
	cfg, log, _, err := getConfigAndLogger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	chain, err := initBlockChain(cfg, log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer chain.Close()

	if err := chain.BuildStateFromIndex(); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to rebuild coin state: %w", err), 1)
	}
	stats := chain.Stats()
	fmt.Fprintf(ctx.App.Writer, "height: %d, groups: %d, minted: %d, spent: %d\n",
		chain.BlockHeight(), stats.Groups, stats.MintedCoins, stats.UsedSerials)
	return nil
}

func showGroups(ctx *cli.Context) error {
	cfg, log, _, err := getConfigAndLogger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	denoms := sigma.Denominations()
	if name := ctx.String("denomination"); name != "" {
		d, err := sigma.ParseDenomination(name)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		denoms = []sigma.Denomination{d}
	}

	chain, err := initBlockChain(cfg, log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer chain.Close()

	w := ctx.App.Writer
	fmt.Fprintf(w, "height: %d\n", chain.BlockHeight())
	for _, d := range denoms {
		groups := chain.GetCoinGroups(d)
		fmt.Fprintf(w, "%s: latest group %d\n", d, chain.LatestGroupID(d))
		for _, id := range sortedIDs(groups) {
			fmt.Fprintf(w, "\t%d: %s\n", id, groups[id])
		}
	}
	return nil
}

func sortedIDs(groups map[uint32]sigmastate.CoinGroupInfo) []uint32 {
	ids := make([]uint32, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// initBCWithMetrics initializes the blockchain with metric services started.
func initBCWithMetrics(cfg config.Config, log *zap.Logger) (*core.Blockchain, *metrics.Service, *metrics.Service, error) {
	chain, err := initBlockChain(cfg, log)
	if err != nil {
		return nil, nil, nil, cli.NewExitError(err, 1)
	}
	prometheus := metrics.NewPrometheusService(cfg.ApplicationConfiguration.Prometheus, log)
	pprof := metrics.NewPprofService(cfg.ApplicationConfiguration.Pprof, log)

	if err := prometheus.Start(); err != nil {
		chain.Close()
		return nil, nil, nil, cli.NewExitError(fmt.Errorf("failed to start Prometheus service: %w", err), 1)
	}
	if err := pprof.Start(); err != nil {
		prometheus.ShutDown()
		chain.Close()
		return nil, nil, nil, cli.NewExitError(fmt.Errorf("failed to start Pprof service: %w", err), 1)
	}
	return chain, prometheus, pprof, nil
}

func startServer(ctx *cli.Context) error {
	cfg, log, logLevel, err := getConfigAndLogger(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	grace, cancel := newGraceContext()
	defer cancel()

	chain, prometheus, pprof, err := initBCWithMetrics(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		pprof.ShutDown()
		prometheus.ShutDown()
		chain.Close()
	}()

	sighupCh := make(chan os.Signal, 1)
	signal.Notify(sighupCh, sighup)
	defer signal.Stop(sighupCh)

	log.Info("node started",
		zap.Stringer("network", cfg.ProtocolConfiguration.Magic),
		zap.Uint32("height", chain.BlockHeight()))

	for {
		select {
		case <-sighupCh:
			newCfg, err := options.GetConfigFromContext(ctx)
			if err != nil {
				log.Warn("can't reread the config file, signal ignored", zap.Error(err))
				continue
			}
			if !ctx.Bool("debug") {
				if err := reloadLogLevel(logLevel, newCfg.ApplicationConfiguration.LogLevel); err != nil {
					log.Warn("wrong LogLevel in ApplicationConfiguration, ignored", zap.Error(err))
				}
			}
			prometheus.ShutDown()
			prometheus = metrics.NewPrometheusService(newCfg.ApplicationConfiguration.Prometheus, log)
			if err := prometheus.Start(); err != nil {
				log.Error("failed to start Prometheus service", zap.Error(err))
			}
			pprof.ShutDown()
			pprof = metrics.NewPprofService(newCfg.ApplicationConfiguration.Pprof, log)
			if err := pprof.Start(); err != nil {
				log.Error("failed to start Pprof service", zap.Error(err))
			}
			log.Info("configuration reloaded")
		case <-grace.Done():
			log.Info("shutting down", zap.Uint32("height", chain.BlockHeight()))
			return nil
		}
	}
}

func reloadLogLevel(lvl *zap.AtomicLevel, s string) error {
	if s == "" {
		lvl.SetLevel(zapcore.InfoLevel)
		return nil
	}
	l, err := zapcore.ParseLevel(s)
	if err != nil {
		return err
	}
	lvl.SetLevel(l)
	return nil
}

// initBlockChain initializes the blockchain over the configured store.
// Membership proofs of restored blocks are not checked: the node operates on
// chains it has already accepted.
func initBlockChain(cfg config.Config, log *zap.Logger) (*core.Blockchain, error) {
	if log == nil {
		return nil, errors.New("empty logger")
	}
	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return nil, fmt.Errorf("could not initialize storage: %w", err)
	}

	chain, err := core.NewBlockchain(store, cfg.Blockchain(), sigmastate.TrustedSource{}, log)
	if err != nil {
		errText := "could not initialize blockchain: %w"
		errArgs := []any{err}
		closeErr := store.Close()
		if closeErr != nil {
			errText += "; failed to close the DB: %w"
			errArgs = append(errArgs, closeErr)
		}
		return nil, fmt.Errorf(errText, errArgs...)
	}
	return chain, nil
}
