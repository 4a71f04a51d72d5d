package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/mubeen425/beerbonk/internal/config"
	"github.com/mubeen425/beerbonk/internal/domain/model"
	"github.com/mubeen425/beerbonk/internal/purchase"
	"github.com/mubeen425/beerbonk/internal/tracing"
	"github.com/mubeen425/beerbonk/internal/wallet"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var errPurchaseFailed = errors.New("purchase failed")

type buyOptions struct {
	quantity string
	keypair  string
	yes      bool
}

func newBuyCmd() *cobra.Command {
	opts := &buyOptions{}
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Run one purchase from the terminal",
		Long: `Connects the keypair wallet, transfers quantity x 10^9 lamports to the recipient
and waits for confirmation. Connect and sign requests are confirmed on the terminal
unless --yes or WALLET_AUTO_APPROVE=true is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBuy(ctx, cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&opts.quantity, "quantity", "q", "1", "amount of SOL to send")
	cmd.Flags().StringVar(&opts.keypair, "keypair", "", "solana-keygen keypair file (overrides WALLET_KEYPAIR_PATH)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "approve connect and sign requests without prompting")
	return cmd
}

func runBuy(ctx context.Context, cfg *config.Config, opts *buyOptions, in io.Reader, out, errOut io.Writer) error {
	quantity, err := purchase.ParseQuantity(opts.quantity)
	if err != nil {
		return err
	}

	logger := newLogger(errOut, cfg.Log.Level)

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.Tracing.Endpoint, cfg.Tracing.Insecure, cfg.Tracing.SampleRatio)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	var approver wallet.Approver = wallet.NewPromptApprover(in, errOut)
	if opts.yes || cfg.Wallet.AutoApprove {
		approver = wallet.AutoApprove
	}
	path := cfg.Wallet.KeypairPath
	if opts.keypair != "" {
		path = opts.keypair
	}
	provider, err := detectProvider(path, approver, logger)
	if err != nil {
		return err
	}

	alerter := newAlerter(cfg, logger)
	endpoint := buildEndpoint(cfg, logger, alerter)
	widget := newWidget(cfg, endpoint, provider, alerter, logger)
	widget.Initialize()
	defer widget.Close()

	fmt.Fprintf(out, "Sending %s SOL to %s on %s...\n", quantity.String(), widget.Recipient(), cfg.Solana.Network)
	snap, err := widget.Submit(ctx, quantity)
	if err != nil {
		return err
	}
	printOutcome(out, snap)

	if snap.Wallet.Connected {
		if addr, err := solana.PublicKeyFromBase58(snap.Wallet.PublicAddress); err == nil {
			if lamports, err := endpoint.Balance(ctx, addr); err == nil {
				fmt.Fprintf(out, "Wallet %s balance: %s SOL\n", addr, formatSOL(lamports))
			} else {
				logger.Warn("balance lookup failed", "error", err)
			}
		}
	}

	if snap.Submission.Phase != model.PhaseSucceeded {
		return fmt.Errorf("%w: %s", errPurchaseFailed, snap.Submission.Kind)
	}
	return nil
}

func printOutcome(out io.Writer, snap model.Snapshot) {
	if snap.ConnectedNotice {
		fmt.Fprintln(out, purchase.MessageConnected)
	}
	fmt.Fprintln(out, snap.Submission.Message)
	if snap.Submission.Signature != "" {
		fmt.Fprintf(out, "Signature: %s\n", snap.Submission.Signature)
	}
}

func formatSOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).String()
}
