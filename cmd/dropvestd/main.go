package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dropvest/config"
	"dropvest/core/events"
	"dropvest/core/state"
	"dropvest/core/types"
	"dropvest/native/airdrop"
	"dropvest/native/token"
	"dropvest/observability/logging"
	"dropvest/rpc"
	"dropvest/storage"
)

const vaultModule = "airdrop"

// logEmitter forwards ledger events to the structured log.
type logEmitter struct {
	log *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	rendered, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		l.log.Info("event", "type", evt.EventType())
		return
	}
	payload := rendered.Event()
	args := make([]any, 0, 2*len(payload.Attributes)+2)
	args = append(args, "type", payload.Type)
	for key, value := range payload.Attributes {
		args = append(args, key, value)
	}
	l.log.Info("event", args...)
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./config.toml", "path to the configuration file")
	flag.Parse()

	logger := logging.Setup("dropvestd", os.Getenv("DROPVEST_ENV"))

	if err := run(configPath, logger); err != nil {
		logger.Error("dropvestd exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()

	manager := state.NewManager(db)
	ledger := token.NewLedger(manager)
	if err := applyGenesis(cfg, manager, ledger, logger); err != nil {
		return fmt.Errorf("apply genesis: %w", err)
	}

	engine := airdrop.NewEngine()
	engine.SetState(manager)
	engine.SetLedger(ledger)
	engine.SetEmitter(logEmitter{log: logger})
	engine.SetSchedule(airdrop.Schedule{
		StartTime:  cfg.VestingStart,
		EndTime:    cfg.VestingEnd,
		InstantBps: cfg.InstantReleaseBps,
	})
	engine.SetToken(cfg.TokenSymbol, token.ModuleVaultAddress(vaultModule))

	server := rpc.NewServer(engine, ledger, logger)

	opsRouter := chi.NewRouter()
	opsRouter.Use(middleware.Recoverer)
	opsRouter.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	opsRouter.Handle("/metrics", promhttp.Handler())
	opsServer := &http.Server{Addr: cfg.OpsAddress, Handler: opsRouter}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("starting ops server", "addr", cfg.OpsAddress)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ops server: %w", err)
		}
	}()
	go func() {
		if err := server.Start(cfg.RPCAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("rpc server: %w", err)
		}
	}()

	logger.Info("dropvestd ready",
		"network", cfg.NetworkName,
		"token", cfg.TokenSymbol,
		"vestingStart", cfg.VestingStart,
		"vestingEnd", cfg.VestingEnd)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ops server shutdown", "error", err)
	}
	return nil
}

// applyGenesis seeds owner, commitment root and vault funding exactly once.
// Restarts find the genesis marker set and leave state untouched, so rotated
// roots and rescued balances survive a process bounce.
func applyGenesis(cfg *config.Config, manager *state.Manager, ledger *token.Ledger, logger *slog.Logger) error {
	applied, err := manager.GenesisApplied()
	if err != nil {
		return err
	}
	if applied {
		logger.Info("genesis already applied, reusing persisted state")
		return nil
	}

	owner, err := cfg.OwnerAddress()
	if err != nil {
		return err
	}
	root, err := cfg.Root()
	if err != nil {
		return err
	}
	funding, err := cfg.FundingAmount()
	if err != nil {
		return err
	}

	if err := manager.SetOwner(owner.Array()); err != nil {
		return err
	}
	if err := manager.SetMerkleRoot(root); err != nil {
		return err
	}
	if funding.Sign() > 0 {
		vault := token.ModuleVaultAddress(vaultModule)
		if err := ledger.Mint(cfg.TokenSymbol, vault, funding); err != nil {
			return err
		}
	}
	if err := manager.MarkGenesisApplied(); err != nil {
		return err
	}
	logger.Info("genesis applied",
		"owner", cfg.Owner,
		"root", cfg.MerkleRoot,
		"funding", funding.String())
	return nil
}
