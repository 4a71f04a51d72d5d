package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/mubeen425/beerbonk/internal/alert"
	"github.com/mubeen425/beerbonk/internal/chain/ratelimit"
	solanachain "github.com/mubeen425/beerbonk/internal/chain/solana"
	"github.com/mubeen425/beerbonk/internal/config"
	"github.com/mubeen425/beerbonk/internal/domain/model"
	"github.com/mubeen425/beerbonk/internal/purchase"
	"github.com/mubeen425/beerbonk/internal/wallet"
)

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}

func newAlerter(cfg *config.Config, logger *slog.Logger) alert.Alerter {
	return alert.New(cfg.Alert.SlackWebhookURL, cfg.Alert.WebhookURL, cfg.Alert.Cooldown, logger)
}

// buildEndpoint wires the RPC client with its rate limiter and circuit breaker.
func buildEndpoint(cfg *config.Config, logger *slog.Logger, alerter alert.Alerter) *solanachain.Endpoint {
	limiter := ratelimit.NewLimiter(cfg.RPC.RateLimitRPS, cfg.RPC.RateLimitBurst, model.ChainSolana.String())
	breaker := solanachain.NewBreaker(cfg.Solana.Network, cfg.RPC.BreakerFailures, cfg.RPC.BreakerOpenAfter, logger, alerter)
	return solanachain.NewEndpoint(cfg.Solana.RPCURL, cfg.Solana.Network, logger,
		solanachain.WithCommitment(cfg.Solana.Commitment),
		solanachain.WithPollInterval(cfg.Purchase.PollInterval),
		solanachain.WithRateLimiter(limiter),
		solanachain.WithBreaker(breaker),
	)
}

// detectProvider returns nil when no keypair is configured so the widget
// sees an absent provider rather than a typed nil.
func detectProvider(path string, approver wallet.Approver, logger *slog.Logger) (purchase.WalletProvider, error) {
	kp, err := wallet.Detect(path, approver, logger)
	if err != nil {
		return nil, err
	}
	if kp == nil {
		return nil, nil
	}
	return kp, nil
}

func newWidget(cfg *config.Config, endpoint purchase.NetworkEndpoint, provider purchase.WalletProvider, alerter alert.Alerter, logger *slog.Logger) *purchase.Widget {
	return purchase.New(endpoint, provider,
		purchase.WithRecipient(cfg.RecipientKey()),
		purchase.WithNetwork(cfg.Solana.Network),
		purchase.WithAlerter(alerter),
		purchase.WithLogger(logger),
		purchase.WithConfirmTimeout(cfg.Purchase.ConfirmTimeout),
		purchase.WithStatusDisplay(cfg.Purchase.StatusDisplay),
		purchase.WithNoticeDisplay(cfg.Purchase.NoticeDisplay),
	)
}
