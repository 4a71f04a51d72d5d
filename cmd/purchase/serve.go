package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mubeen425/beerbonk/internal/config"
	"github.com/mubeen425/beerbonk/internal/server"
	"github.com/mubeen425/beerbonk/internal/tracing"
	"github.com/mubeen425/beerbonk/internal/wallet"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the purchase widget over HTTP",
		Long: `Serves the widget page, its JSON API, /healthz and /metrics.
The wallet is the keypair at WALLET_KEYPAIR_PATH; without WALLET_AUTO_APPROVE=true
connect and sign requests are rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				slog.Error("failed to load config", "error", err)
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

// rejectAll stands in for a wallet owner who is never present.
var rejectAll = wallet.ApproverFunc(func(context.Context, wallet.ApprovalRequest) (bool, error) {
	return false, nil
})

func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := newLogger(os.Stdout, cfg.Log.Level)
	slog.SetDefault(logger)

	logger.Info("starting purchase widget",
		"solana_rpc", cfg.Solana.RPCURL,
		"solana_network", cfg.Solana.Network,
		"commitment", cfg.Solana.Commitment,
		"recipient", cfg.Solana.Recipient,
		"wallet_keypair", cfg.Wallet.KeypairPath != "",
		"auto_approve", cfg.Wallet.AutoApprove,
		"http_port", cfg.Server.Port,
	)

	shutdownTracing, err := tracing.Init(context.Background(), serviceName, cfg.Tracing.Endpoint, cfg.Tracing.Insecure, cfg.Tracing.SampleRatio)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	var approver wallet.Approver = rejectAll
	if cfg.Wallet.AutoApprove {
		approver = wallet.AutoApprove
	}
	provider, err := detectProvider(cfg.Wallet.KeypairPath, approver, logger)
	if err != nil {
		logger.Error("failed to load wallet", "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g, gCtx := errgroup.WithContext(ctx)

	alerter := newAlerter(cfg, logger)
	widget := newWidget(cfg, buildEndpoint(cfg, logger, alerter), provider, alerter, logger)
	widget.Initialize()
	defer widget.Close()

	limiter := server.NewRateLimitMiddleware(logger)
	defer limiter.Stop()

	srv := server.NewServer(widget, logger,
		server.WithBaseContext(gCtx),
		server.WithNetwork(cfg.Solana.Network),
		server.WithRateLimiter(limiter),
	)

	g.Go(func() error {
		return runHTTPServer(gCtx, cfg.Server.Port, srv.Handler(), logger)
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("widget server exited with error", "error", err)
		return err
	}

	logger.Info("widget server shut down gracefully")
	return nil
}

func runHTTPServer(ctx context.Context, port int, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("http server shutdown error", "error", err)
		}
	}()

	logger.Info("http server started", "port", port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
