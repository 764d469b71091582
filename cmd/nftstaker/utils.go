// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/nftstaker/nftstaker/genesis"
	"github.com/nftstaker/nftstaker/kv"
	"github.com/nftstaker/nftstaker/log"
	"github.com/nftstaker/nftstaker/logdb"
	"github.com/nftstaker/nftstaker/lvldb"
	"github.com/nftstaker/nftstaker/metrics"
	"github.com/nftstaker/nftstaker/state"
	"github.com/nftstaker/nftstaker/thor"
)

const (
	genesisIDHeader  = "X-Genesis-Id"
	maxRequestBody   = 200 * 1024
	maxClockOffset   = 2 * time.Second
	shutdownDeadline = 5 * time.Second
)

var (
	genesisBucket = kv.Bucket("g")
	genesisIDKey  = []byte("id")
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".nftstaker")
	}
	return ""
}

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > math.MaxInt {
		return 0, errors.Errorf("value %d is out of range", val)
	}
	return int(val), nil
}

// initLogger installs the root logger and returns its adjustable level.
func initLogger(ctx *cli.Context) (*slog.LevelVar, error) {
	verbosity, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return nil, errors.WithMessage(err, verbosityFlag.Name)
	}
	level := new(slog.LevelVar)
	level.Set(log.FromLegacyLevel(verbosity))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return level, nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return genesis.NewDevnet(), nil
	}
	cfg, err := genesis.Load(path)
	if err != nil {
		return nil, err
	}
	return genesis.New(filepath.Base(path), cfg)
}

func makeInstanceDir(dataDir string, gene *genesis.Genesis) (string, error) {
	if dataDir == "" {
		return "", errors.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0700); err != nil {
		return "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		logger.Warn("failed to get fd limit", "err", err)
		return 64
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120
	}
	return n
}

// openMainDB opens the ledger database of instanceDir, or an in-memory one when instanceDir is empty.
func openMainDB(instanceDir string, cacheMB int) (*lvldb.LevelDB, error) {
	if instanceDir == "" {
		return lvldb.NewMem()
	}
	cacheMB = normalizeCacheSize(cacheMB)
	fdCache := suggestFDCache()
	logger.Debug("open main database", "cache(MB)", cacheMB, "fd cache", fdCache)

	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", dir)
	}
	return db, nil
}

func openLogDB(instanceDir string) (*logdb.LogDB, error) {
	if instanceDir == "" {
		return logdb.NewMem()
	}
	path := filepath.Join(instanceDir, "logs.db")
	db, err := logdb.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open log database [%v]", path)
	}
	return db, nil
}

// initGenesis deploys the genesis into an empty db, or checks that db was built from the same genesis.
func initGenesis(db kv.Store, st *state.State, gene *genesis.Genesis) error {
	store := genesisBucket.NewStore(db)

	data, err := store.Get(genesisIDKey)
	if err != nil {
		if !store.IsNotFound(err) {
			return errors.Wrap(err, "load genesis id")
		}
		if err := gene.Build(st); err != nil {
			return errors.WithMessage(err, "build genesis")
		}
		return store.Put(genesisIDKey, gene.ID().Bytes())
	}

	if stored := thor.BytesToBytes32(data); stored != gene.ID() {
		return errors.Errorf("genesis mismatch: database has %v, config is %v", stored, gene.ID())
	}
	return nil
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > maxClockOffset || resp.ClockOffset < -maxClockOffset {
		logger.Warn("clock offset detected", "offset", resp.ClockOffset)
	}
}

func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func handleXGenesisID(h http.Handler, genesisID thor.Bytes32) http.Handler {
	expectedID := genesisID.String()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actualID := r.Header.Get(genesisIDHeader)
		if actualID == "" {
			actualID = r.URL.Query().Get("x-genesis-id")
		}
		w.Header().Set(genesisIDHeader, expectedID)
		if actualID != "" && actualID != expectedID {
			http.Error(w, "genesis id mismatch", http.StatusForbidden)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func requestBodyLimit(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		h.ServeHTTP(w, r)
	})
}

// serve runs srv on listener until ctx is done.
func serve(ctx context.Context, g *errgroup.Group, srv *http.Server, listener net.Listener) {
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func startAPIServer(ctx context.Context, g *errgroup.Group, addr string, handler http.Handler, timeout time.Duration, genesisID thor.Bytes32) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	if timeout > 0 {
		handler = handleAPITimeout(handler, timeout)
	}
	handler = handleXGenesisID(handler, genesisID)
	handler = requestBodyLimit(handler)

	serve(ctx, g, &http.Server{Handler: handler, ReadHeaderTimeout: time.Second}, listener)
	return "http://" + listener.Addr().String() + "/", nil
}

func startMetricsServer(ctx context.Context, g *errgroup.Group, addr string) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "listen metrics addr [%v]", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler())

	serve(ctx, g, &http.Server{Handler: mux, ReadHeaderTimeout: time.Second}, listener)
	return "http://" + listener.Addr().String() + "/metrics", nil
}

func printStartupMessage(gene *genesis.Genesis, instanceDir, apiURL, metricsURL, adminURL string) {
	if instanceDir == "" {
		instanceDir = "(in memory)"
	}
	info := fmt.Sprintf(`Starting %v
    Network      [ %v %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
`,
		fmt.Sprintf("NFT Staker %v", fullVersion()),
		gene.ID(), gene.Name(),
		instanceDir,
		apiURL)
	if metricsURL != "" {
		info += fmt.Sprintf("    Metrics      [ %v ]\n", metricsURL)
	}
	if adminURL != "" {
		info += fmt.Sprintf("    Admin        [ %v ]\n", adminURL)
	}

	if gene.ID() == genesis.NewDevnet().ID() {
		info += "    Dev accounts\n"
		for _, a := range genesis.DevAccounts() {
			info += fmt.Sprintf("      %v\n", a.Address)
		}
	}
	fmt.Print(info)
}
