package solana

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mubeen425/beerbonk/internal/alert"
	"github.com/mubeen425/beerbonk/internal/chain"
	"github.com/mubeen425/beerbonk/internal/chain/ratelimit"
	"github.com/mubeen425/beerbonk/internal/chain/solana/rpc"
	"github.com/mubeen425/beerbonk/internal/circuitbreaker"
	"github.com/mubeen425/beerbonk/internal/domain/model"
	"github.com/mubeen425/beerbonk/internal/metrics"
	"github.com/mubeen425/beerbonk/internal/retry"
	"github.com/mubeen425/beerbonk/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultCommitment   = model.CommitmentConfirmed
)

type Endpoint struct {
	client       rpc.RPCClient
	breaker      *circuitbreaker.Breaker
	network      model.Network
	commitment   model.Commitment
	pollInterval time.Duration
	logger       *slog.Logger
}

var _ chain.Endpoint = (*Endpoint)(nil)

// EndpointOption configures optional Endpoint behaviour.
type EndpointOption func(*Endpoint)

// WithCommitment sets the commitment used for blockhash, preflight and confirmation.
func WithCommitment(c model.Commitment) EndpointOption {
	return func(e *Endpoint) {
		if c.Rank() > 0 {
			e.commitment = c
		}
	}
}

// WithPollInterval sets how often signature status is polled while confirming.
func WithPollInterval(d time.Duration) EndpointOption {
	return func(e *Endpoint) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithRateLimiter throttles every RPC call made by the endpoint.
func WithRateLimiter(l *ratelimit.Limiter) EndpointOption {
	return func(e *Endpoint) {
		if c, ok := e.client.(*rpc.Client); ok {
			c.SetRateLimiter(l)
		}
	}
}

// WithBreaker guards the endpoint with a circuit breaker.
func WithBreaker(b *circuitbreaker.Breaker) EndpointOption {
	return func(e *Endpoint) { e.breaker = b }
}

func NewEndpoint(rpcURL string, network model.Network, logger *slog.Logger, opts ...EndpointOption) *Endpoint {
	return newEndpoint(rpc.NewClient(rpcURL, logger), network, logger, opts...)
}

func newEndpoint(client rpc.RPCClient, network model.Network, logger *slog.Logger, opts ...EndpointOption) *Endpoint {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Endpoint{
		client:       client,
		network:      network,
		commitment:   defaultCommitment,
		pollInterval: defaultPollInterval,
		logger:       logger.With("chain", "solana", "network", network.String()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewBreaker builds a breaker that only trips on endpoint-side failures and
// reports state transitions to metrics and, when set, the alerter.
func NewBreaker(network model.Network, failures int, openTimeout time.Duration, logger *slog.Logger, alerter alert.Alerter) *circuitbreaker.Breaker {
	gauge := metrics.RPCCircuitBreakerState.WithLabelValues(model.ChainSolana.String(), network.String())
	gauge.Set(float64(circuitbreaker.StateClosed))
	return circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: failures,
		OpenTimeout:      openTimeout,
		Counts:           func(err error) bool { return retry.Classify(err).IsTransient() },
		OnStateChange: func(from, to circuitbreaker.State) {
			gauge.Set(float64(to))
			if logger != nil {
				logger.Warn("rpc circuit breaker state change", "from", from.String(), "to", to.String())
			}
			if alerter != nil {
				go sendBreakerAlert(alerter, network, from, to, openTimeout, logger)
			}
		},
	})
}

// sendBreakerAlert runs outside the breaker lock; a slow webhook must not
// stall RPC calls.
func sendBreakerAlert(alerter alert.Alerter, network model.Network, from, to circuitbreaker.State, openTimeout time.Duration, logger *slog.Logger) {
	a := alert.Alert{
		Chain:   model.ChainSolana.String(),
		Network: network.String(),
		Fields:  map[string]string{"from": from.String(), "to": to.String()},
	}
	switch to {
	case circuitbreaker.StateOpen:
		a.Type = alert.AlertTypeUnhealthy
		a.Title = "RPC circuit breaker open"
		a.Message = fmt.Sprintf("RPC endpoint failing; calls rejected for %s", openTimeout)
	case circuitbreaker.StateClosed:
		a.Type = alert.AlertTypeRecovery
		a.Title = "RPC endpoint recovered"
		a.Message = "RPC circuit breaker closed"
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := alerter.Send(ctx, a); err != nil && logger != nil {
		logger.Warn("breaker alert failed", "type", a.Type, "error", err)
	}
}

func (e *Endpoint) Chain() string {
	return model.ChainSolana.String()
}

func (e *Endpoint) guard(fn func() error) error {
	if e.breaker == nil {
		return fn()
	}
	return e.breaker.Do(fn)
}

// RecentBlockhash fetches the latest blockhash at the endpoint commitment.
func (e *Endpoint) RecentBlockhash(ctx context.Context) (solanago.Hash, error) {
	var latest *rpc.LatestBlockhash
	err := e.guard(func() error {
		var err error
		latest, err = e.client.GetLatestBlockhash(ctx, e.commitment.String())
		return err
	})
	if err != nil {
		return solanago.Hash{}, fmt.Errorf("%w: %w", ErrBlockhashUnavailable, err)
	}

	hash, err := solanago.HashFromBase58(latest.Blockhash)
	if err != nil {
		return solanago.Hash{}, fmt.Errorf("%w: decode %q: %w", ErrBlockhashUnavailable, latest.Blockhash, err)
	}
	return hash, nil
}

// Submit broadcasts a signed transaction with preflight simulation enabled.
func (e *Endpoint) Submit(ctx context.Context, tx *solanago.Transaction) (solanago.Signature, error) {
	if tx == nil {
		return solanago.Signature{}, errors.New("submit: nil transaction")
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("submit: encode transaction: %w", err)
	}

	var sigStr string
	err = e.guard(func() error {
		var err error
		sigStr, err = e.client.SendTransaction(ctx, base64.StdEncoding.EncodeToString(raw), &rpc.SendTransactionOpts{
			PreflightCommitment: e.commitment.String(),
		})
		return err
	})
	if err != nil {
		var rpcErr *rpc.RPCError
		if errors.As(err, &rpcErr) && rpcErr.IsSimulationFailure() {
			e.logger.Warn("transaction simulation failed", "message", rpcErr.Message, "logs", rpcErr.SimulationLogs())
		}
		return solanago.Signature{}, fmt.Errorf("submit: %w", err)
	}

	sig, err := solanago.SignatureFromBase58(sigStr)
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("submit: decode signature %q: %w", sigStr, err)
	}
	e.logger.Info("transaction sent", "signature", sig.String())
	return sig, nil
}

// Balance returns the lamport balance of an account at the endpoint commitment.
func (e *Endpoint) Balance(ctx context.Context, account solanago.PublicKey) (uint64, error) {
	var lamports uint64
	err := e.guard(func() error {
		var err error
		lamports, err = e.client.GetBalance(ctx, account.String(), e.commitment.String())
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get balance %s: %w", account, err)
	}
	return lamports, nil
}

// AwaitConfirmation polls signature status until it reaches the endpoint
// commitment. A non-positive timeout waits only on ctx.
func (e *Endpoint) AwaitConfirmation(ctx context.Context, sig solanago.Signature, timeout time.Duration) error {
	ctx, span := tracing.Tracer("solana").Start(ctx, "solana.awaitConfirmation",
		otelTrace.WithAttributes(
			attribute.String("signature", sig.String()),
			attribute.String("commitment", e.commitment.String()),
		),
	)
	defer span.End()

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	labels := []string{model.ChainSolana.String(), e.network.String()}
	start := time.Now()
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		done, err := e.pollOnce(waitCtx, sig)
		metrics.ConfirmationPollsTotal.WithLabelValues(labels...).Inc()
		if err != nil {
			if ctxErr := e.waitError(ctx, waitCtx); ctxErr != nil {
				err = ctxErr
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		if done {
			metrics.ConfirmationLatency.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			e.logger.Info("transaction confirmed", "signature", sig.String(), "elapsed", time.Since(start))
			return nil
		}

		select {
		case <-waitCtx.Done():
			err := e.waitError(ctx, waitCtx)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		case <-ticker.C:
		}
	}
}

// pollOnce reports done=true once the signature is confirmed. Transient
// poll failures are swallowed so the next tick can try again.
func (e *Endpoint) pollOnce(ctx context.Context, sig solanago.Signature) (bool, error) {
	var statuses []*rpc.SignatureStatus
	err := e.guard(func() error {
		var err error
		statuses, err = e.client.GetSignatureStatuses(ctx, []string{sig.String()})
		return err
	})
	if err != nil {
		if ctx.Err() == nil && retry.Classify(err).IsTransient() {
			e.logger.Warn("signature status poll failed", "signature", sig.String(), "error", err)
			return false, nil
		}
		return false, fmt.Errorf("await confirmation: %w", err)
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return false, nil
	}

	status := statuses[0]
	if status.Err != nil {
		return false, &TransactionFailedError{Signature: sig.String(), Err: status.Err}
	}
	return model.Commitment(status.ConfirmationStatus).Reached(e.commitment), nil
}

// waitError maps an expired wait context to the confirmation timeout while
// keeping caller cancellation intact.
func (e *Endpoint) waitError(parent, wait context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(wait.Err(), context.DeadlineExceeded) {
		return ErrConfirmationTimeout
	}
	return nil
}
