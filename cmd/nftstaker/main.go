// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/nftstaker/nftstaker/admin"
	"github.com/nftstaker/nftstaker/api"
	"github.com/nftstaker/nftstaker/genesis"
	"github.com/nftstaker/nftstaker/health"
	"github.com/nftstaker/nftstaker/log"
	"github.com/nftstaker/nftstaker/logdb"
	"github.com/nftstaker/nftstaker/lvldb"
	"github.com/nftstaker/nftstaker/metrics"
	"github.com/nftstaker/nftstaker/runtime"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/xenv"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "nftstaker",
		Usage:     "NFT staking ledger with a development node API",
		Copyright: "2025 The VeChainThor developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			persistFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiLogsLimitFlag,
			apiSlowQueriesThresholdFlag,
			apiLog5xxErrorsFlag,
			enableAPILogsFlag,
			disableDebugFlag,
			verbosityFlag,
			jsonLogsFlag,
			skipLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			ntpCheckFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "scenario",
				Usage: "replay the reference staking scenario on an in-memory ledger",
				Flags: []cli.Flag{
					configFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: scenarioAction,
			},
			{
				Name:  "genesis",
				Usage: "print the effective genesis config and its id",
				Flags: []cli.Flag{
					configFlag,
				},
				Action: genesisAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel, err := initLogger(ctx)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}
	if ctx.Bool(ntpCheckFlag.Name) {
		go checkClockOffset()
	}

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	var instanceDir string
	if ctx.Bool(persistFlag.Name) {
		if instanceDir, err = makeInstanceDir(ctx.String(dataDirFlag.Name), gene); err != nil {
			return err
		}
	}

	mainDB, err := openMainDB(instanceDir, ctx.Int(cacheFlag.Name))
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	st := state.New(mainDB)
	if err := initGenesis(mainDB, st, gene); err != nil {
		return err
	}

	clock := xenv.NewOffsetClock()
	rt, err := runtime.New(st, mainDB, clock)
	if err != nil {
		return err
	}

	skipLogs := ctx.Bool(skipLogsFlag.Name)
	var opts = api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		SkipLogs:             skipLogs,
		EnableReqLogger:      &atomic.Bool{},
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EnableDebug:          !ctx.Bool(disableDebugFlag.Name),
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
	}
	opts.EnableReqLogger.Store(ctx.Bool(enableAPILogsFlag.Name))

	var logDB *logdb.LogDB
	if !skipLogs {
		if logDB, err = openLogDB(instanceDir); err != nil {
			return err
		}
		defer func() { logger.Info("closing log database..."); logDB.Close() }()
		rt.AddReceiptWriter(logDB)
	}

	apiHandler, apiCloser := api.New(rt, logDB, opts)
	defer func() { logger.Info("stopping API server..."); apiCloser() }()

	g, gctx := errgroup.WithContext(exitSignal)
	apiURL, err := startAPIServer(gctx, g, ctx.String(apiAddrFlag.Name), apiHandler,
		time.Duration(ctx.Uint64(apiTimeoutFlag.Name))*time.Millisecond, gene.ID())
	if err != nil {
		return err
	}

	var metricsURL string
	if opts.EnableMetrics {
		if metricsURL, err = startMetricsServer(gctx, g, ctx.String(metricsAddrFlag.Name)); err != nil {
			return err
		}
	}

	nodeHealth := health.New(func() error {
		_, err := genesisBucket.NewGetter(mainDB).Has(genesisIDKey)
		return err
	})
	rt.AddReceiptWriter(nodeHealth)

	var adminURL string
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeAdmin, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, opts.EnableReqLogger, nodeHealth)
		if err != nil {
			return errors.WithMessage(err, "start admin server")
		}
		defer func() { logger.Info("stopping admin server..."); closeAdmin() }()
		adminURL = url
	}

	printStartupMessage(gene, instanceDir, apiURL, metricsURL, adminURL)
	nodeHealth.Ready(true)
	defer nodeHealth.Ready(false)

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

func scenarioAction(ctx *cli.Context) error {
	if _, err := initLogger(ctx); err != nil {
		return err
	}

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	db, err := lvldb.NewMem()
	if err != nil {
		return err
	}
	defer db.Close()

	st := state.New(db)
	if err := initGenesis(db, st, gene); err != nil {
		return err
	}
	clock := xenv.NewManualClock(xenv.SystemClock{}.Now())
	rt, err := runtime.New(st, db, clock)
	if err != nil {
		return err
	}

	accs := genesis.DevAccounts()
	s := &scenario{
		rt:     rt,
		clock:  clock,
		admin:  gene.Config().Admin,
		holder: accs[len(accs)-1].Address,
		w:      os.Stdout,
	}
	_, err = s.run()
	return err
}

func genesisAction(ctx *cli.Context) error {
	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	data, err := gene.Config().Encode()
	if err != nil {
		return err
	}
	fmt.Printf("# %v %v\n%s", gene.Name(), gene.ID(), data)
	return nil
}
