// Command matchfundd runs the donation-matching ledger as a service: an HTTP
// API over Gin, or an MCP server on stdio for agent integrations.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	matchfund "github.com/matchfund/matchfund/go"
	"github.com/matchfund/matchfund/go/amount"
	"github.com/matchfund/matchfund/go/mcp"
	ginservice "github.com/matchfund/matchfund/go/pkg/gin"
	"github.com/matchfund/matchfund/go/store"
	"github.com/matchfund/matchfund/go/store/sqlite"
	"github.com/matchfund/matchfund/go/transfer"
	"github.com/matchfund/matchfund/go/transfer/banktest"
	"github.com/matchfund/matchfund/go/transfer/evm"
	"github.com/matchfund/matchfund/go/transfer/svm"
)

const version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "matchfundd",
		Short: "Escrow-backed donation matching service",
		Long: `matchfundd keeps a ledger of capped matching pledges. Matchers offer
funds toward recipients, donations are matched pro rata from every pledge,
and rescinds return unused pledges, with escrow transfers confirmed or
rolled back asynchronously.`,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newServeCommand(&configPath))
	cmd.AddCommand(newMCPCommand(&configPath))
	return cmd
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, coordinator, cleanup, err := buildCoordinator(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			service, err := ginservice.NewService(coordinator)
			if err != nil {
				return err
			}
			router := gin.New()
			router.Use(gin.Recovery())
			service.Register(router)

			srv := &http.Server{Addr: cfg.Listen, Handler: router}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			slog.Info("listening", "addr", cfg.Listen, "store", cfg.Store.Driver, "bank", cfg.Bank.Backend)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			slog.Info("shutting down")
			return srv.Shutdown(context.Background())
		},
	}
}

func newMCPCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ledger as MCP tools on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, coordinator, cleanup, err := buildCoordinator(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			server := mcp.NewServer(coordinator, version)
			return server.Run(cmd.Context(), &mcpsdk.StdioTransport{})
		},
	}
}

// buildCoordinator assembles the store, bank and coordinator from config.
// The returned cleanup closes whatever the store opened.
func buildCoordinator(ctx context.Context, configPath string) (*Config, *matchfund.Coordinator, func(), error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		st      store.Store
		cleanup = func() {}
	)
	switch cfg.Store.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open store: %w", err)
		}
		st = db
		cleanup = func() {
			if err := db.Close(); err != nil {
				slog.Error("closing store", "error", err)
			}
		}
	default:
		st = store.NewMemory()
	}

	var bank transfer.Bank
	switch cfg.Bank.Backend {
	case "evm":
		opts := []evm.Option{}
		if cfg.Bank.PollInterval.Duration > 0 {
			opts = append(opts, evm.WithPollInterval(cfg.Bank.PollInterval.Duration))
		}
		if cfg.Bank.PollTimeout.Duration > 0 {
			opts = append(opts, evm.WithPollTimeout(cfg.Bank.PollTimeout.Duration))
		}
		bank, err = evm.NewBank(ctx, cfg.Bank.RPCURL, cfg.Bank.PrivateKey, opts...)
	case "svm":
		opts := []svm.Option{}
		if cfg.Bank.PollInterval.Duration > 0 {
			opts = append(opts, svm.WithPollInterval(cfg.Bank.PollInterval.Duration))
		}
		if cfg.Bank.PollTimeout.Duration > 0 {
			opts = append(opts, svm.WithPollTimeout(cfg.Bank.PollTimeout.Duration))
		}
		bank, err = svm.NewBank(cfg.Bank.RPCURL, cfg.Bank.PrivateKey, opts...)
	default:
		bank = banktest.New(banktest.Succeed)
	}
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("build bank: %w", err)
	}

	coordOpts := []matchfund.CoordinatorOption{
		matchfund.WithAfterResolveHook(func(rc matchfund.ResolveContext) error {
			slog.Info("transfer resolved",
				"id", rc.ID, "kind", rc.Kind, "outcome", rc.Outcome,
				"destination", rc.Destination, "compensated", rc.Compensated)
			return nil
		}),
	}
	if cfg.MinimumOffer != "" {
		min, err := amount.Parse(cfg.MinimumOffer)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("minimumOffer: %w", err)
		}
		coordOpts = append(coordOpts, matchfund.WithMinimumOffer(min))
	}

	coordinator := matchfund.NewCoordinator(matchfund.NewLedger(st), bank, coordOpts...)
	return cfg, coordinator, cleanup, nil
}
