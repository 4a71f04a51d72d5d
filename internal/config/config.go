package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mubeen425/beerbonk/internal/domain/model"
)

const defaultRecipient = "Dm9t8GdsJ17GdAs8mRR3V1BtFA1QnbX3jimNaU4QB5cn"

type Config struct {
	Solana   SolanaConfig
	Wallet   WalletConfig
	Purchase PurchaseConfig
	RPC      RPCConfig
	Server   ServerConfig
	Tracing  TracingConfig
	Alert    AlertConfig
	Log      LogConfig
}

type SolanaConfig struct {
	RPCURL     string
	Network    model.Network
	Commitment model.Commitment
	Recipient  string
}

type WalletConfig struct {
	KeypairPath string
	AutoApprove bool
}

type PurchaseConfig struct {
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	StatusDisplay  time.Duration
	NoticeDisplay  time.Duration
}

type RPCConfig struct {
	RateLimitRPS     float64
	RateLimitBurst   int
	BreakerFailures  int
	BreakerOpenAfter time.Duration
}

type ServerConfig struct {
	Port int
}

type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

type AlertConfig struct {
	SlackWebhookURL string
	WebhookURL      string
	Cooldown        time.Duration
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Solana: SolanaConfig{
			RPCURL:     getEnv("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
			Network:    model.Network(getEnv("SOLANA_NETWORK", "devnet")),
			Commitment: model.Commitment(getEnv("SOLANA_COMMITMENT", "confirmed")),
			Recipient:  getEnv("RECIPIENT_ADDRESS", defaultRecipient),
		},
		Wallet: WalletConfig{
			KeypairPath: expandHome(getEnv("WALLET_KEYPAIR_PATH", "")),
			AutoApprove: getEnvBool("WALLET_AUTO_APPROVE", false),
		},
		Purchase: PurchaseConfig{
			ConfirmTimeout: time.Duration(getEnvInt("CONFIRM_TIMEOUT_SEC", 60)) * time.Second,
			PollInterval:   time.Duration(getEnvInt("CONFIRM_POLL_INTERVAL_MS", 500)) * time.Millisecond,
			StatusDisplay:  time.Duration(getEnvInt("STATUS_DISPLAY_MS", 5000)) * time.Millisecond,
			NoticeDisplay:  time.Duration(getEnvInt("NOTICE_DISPLAY_MS", 3000)) * time.Millisecond,
		},
		RPC: RPCConfig{
			RateLimitRPS:     getEnvFloat("RPC_RATE_LIMIT_RPS", 10),
			RateLimitBurst:   getEnvInt("RPC_RATE_LIMIT_BURST", 20),
			BreakerFailures:  getEnvInt("RPC_BREAKER_FAILURES", 5),
			BreakerOpenAfter: time.Duration(getEnvInt("RPC_BREAKER_OPEN_SEC", 30)) * time.Second,
		},
		Server: ServerConfig{
			Port: getEnvInt("HTTP_PORT", 8080),
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvBool("OTEL_INSECURE", false),
			SampleRatio: getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		},
		Alert: AlertConfig{
			SlackWebhookURL: getEnv("ALERT_SLACK_WEBHOOK_URL", ""),
			WebhookURL:      getEnv("ALERT_WEBHOOK_URL", ""),
			Cooldown:        time.Duration(getEnvInt("ALERT_COOLDOWN_SEC", 1800)) * time.Second,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Solana.RPCURL == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}
	if !strings.HasPrefix(c.Solana.RPCURL, "http://") && !strings.HasPrefix(c.Solana.RPCURL, "https://") {
		return fmt.Errorf("SOLANA_RPC_URL must be an http(s) URL, got %q", c.Solana.RPCURL)
	}
	if !c.Solana.Network.Valid() {
		return fmt.Errorf("SOLANA_NETWORK %q is not one of mainnet-beta, devnet, testnet", c.Solana.Network)
	}
	if c.Solana.Commitment.Rank() == 0 {
		return fmt.Errorf("SOLANA_COMMITMENT %q is not one of processed, confirmed, finalized", c.Solana.Commitment)
	}
	if _, err := solana.PublicKeyFromBase58(c.Solana.Recipient); err != nil {
		return fmt.Errorf("RECIPIENT_ADDRESS %q: %w", c.Solana.Recipient, err)
	}
	if c.Purchase.ConfirmTimeout <= 0 {
		return fmt.Errorf("CONFIRM_TIMEOUT_SEC must be positive")
	}
	if c.Purchase.PollInterval <= 0 {
		return fmt.Errorf("CONFIRM_POLL_INTERVAL_MS must be positive")
	}
	if c.RPC.RateLimitRPS <= 0 || c.RPC.RateLimitBurst <= 0 {
		return fmt.Errorf("RPC_RATE_LIMIT_RPS and RPC_RATE_LIMIT_BURST must be positive")
	}
	if c.Alert.Cooldown < 0 {
		return fmt.Errorf("ALERT_COOLDOWN_SEC must not be negative")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT %d out of range", c.Server.Port)
	}
	return nil
}

// RecipientKey returns the parsed recipient. Load has already validated it.
func (c *Config) RecipientKey() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.Solana.Recipient)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}
