package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/honeytrace/ledger/app/services/ledger/handlers"
	"github.com/honeytrace/ledger/foundation/events"
	"github.com/honeytrace/ledger/foundation/ledger/consensus"
	"github.com/honeytrace/ledger/foundation/ledger/database"
	"github.com/honeytrace/ledger/foundation/ledger/database/storage"
	"github.com/honeytrace/ledger/foundation/ledger/genesis"
	"github.com/honeytrace/ledger/foundation/ledger/state"
	"github.com/honeytrace/ledger/foundation/ledger/worker"
	"github.com/honeytrace/ledger/foundation/logger"
	"github.com/honeytrace/ledger/foundation/registry"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("LEDGER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
			CorsOrigin      string        `conf:"default:"`
		}
		State struct {
			NodeName    string `conf:"default:node1"`
			KeysFolder  string `conf:"default:zblock/keys/"`
			GenesisPath string `conf:"default:zblock/genesis.json"`
			DBPath      string `conf:"default:zblock/ledger.db"`
			Storage     string `conf:"default:bolt,help:bolt|disk|memory"`
		}
		Consensus struct {
			Threshold float64       `conf:"default:0.67"`
			Timeout   time.Duration `conf:"default:30s"`
			Policy    string        `conf:"default:fail-closed"`
		}
		Worker struct {
			CycleInterval     time.Duration `conf:"default:1m"`
			IntegrityInterval time.Duration `conf:"default:10m"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "LEDGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Node Registry Support

	// The registry package provides name resolution for node accounts. The
	// names come from the key file names in the keys folder.
	reg, err := registry.New(cfg.State.KeysFolder)
	if err != nil {
		return fmt.Errorf("unable to load node registry: %w", err)
	}

	for account, name := range reg.Copy() {
		log.Infow("startup", "status", "registry", "name", name, "account", account)
	}

	// =========================================================================
	// Ledger Support

	// The genesis file fixes the chain parameters for the life of the ledger.
	// Create one on first boot so restarts keep the same chain id.
	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to load genesis file: %w", err)
		}

		gen = genesis.Genesis{
			Date:            time.Now().UTC(),
			ChainID:         uuid.NewString(),
			TransPerBlock:   100,
			Difficulty:      2,
			MaxMineAttempts: 0,
		}
		if err := os.MkdirAll(filepath.Dir(cfg.State.GenesisPath), 0755); err != nil {
			return fmt.Errorf("unable to create genesis folder: %w", err)
		}
		if err := gen.Save(cfg.State.GenesisPath); err != nil {
			return fmt.Errorf("unable to create genesis file: %w", err)
		}
		log.Infow("startup", "status", "genesis created", "chain_id", gen.ChainID)
	}

	// Load the private key file for the configured node so evidence
	// transactions can be signed.
	path := fmt.Sprintf("%s%s.ecdsa", cfg.State.KeysFolder, cfg.State.NodeName)
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return fmt.Errorf("unable to load private key for node: %w", err)
	}

	// The ledger packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(events.KindLog, "%s", s)
	}

	// Select the persistence backend for mined blocks.
	var serializer database.Serializer
	switch cfg.State.Storage {
	case "bolt":
		serializer, err = storage.NewBolt(cfg.State.DBPath)
	case "disk":
		serializer, err = storage.NewDisk(cfg.State.DBPath)
	case "memory":
		serializer = storage.NewMemory()
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.State.Storage)
	}
	if err != nil {
		return fmt.Errorf("unable to open storage: %w", err)
	}

	// The gate fronts the chain: only records that clear the weighted quorum
	// are signed and queued for mining. This node runs the local rule
	// validator; remote validators plug in behind the same interface.
	gate, err := consensus.New(consensus.Config{
		Threshold: cfg.Consensus.Threshold,
		Timeout:   cfg.Consensus.Timeout,
		Policy:    consensus.Policy(cfg.Consensus.Policy),
		Validators: []consensus.Validator{
			consensus.NewRuleValidator(cfg.State.NodeName),
		},
		EvHandler: ev,
	})
	if err != nil {
		return fmt.Errorf("unable to construct consensus gate: %w", err)
	}

	// The state value represents the ledger node and manages the chain
	// database and provides an API for application support.
	st, err := state.New(state.Config{
		NodeID:     database.PublicKeyToAccountID(privateKey.PublicKey),
		PrivateKey: privateKey,
		Genesis:    gen,
		Storage:    serializer,
		Gate:       gate,
		EvHandler:  ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker package implements the mining scheduler and the chain
	// integrity monitor. The worker will register itself with the state.
	worker.Run(worker.Config{
		State:             st,
		Evts:              evts,
		EvHandler:         ev,
		CycleInterval:     cfg.Worker.CycleInterval,
		IntegrityInterval: cfg.Worker.IntegrityInterval,
	})

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(build, log, st)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Registry: reg,
		Evts:     evts,
	}, handlers.WithCORS(cfg.Web.CorsOrigin))

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	privateMux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
	})

	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      privateMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
