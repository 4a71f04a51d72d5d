package purchase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/mubeen425/beerbonk/internal/alert"
	"github.com/mubeen425/beerbonk/internal/chain"
	solanachain "github.com/mubeen425/beerbonk/internal/chain/solana"
	"github.com/mubeen425/beerbonk/internal/domain/model"
	"github.com/mubeen425/beerbonk/internal/metrics"
	"github.com/mubeen425/beerbonk/internal/tracing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

// DefaultRecipient receives every purchase unless overridden.
const DefaultRecipient = "Dm9t8GdsJ17GdAs8mRR3V1BtFA1QnbX3jimNaU4QB5cn"

const (
	defaultConfirmTimeout = 60 * time.Second
	defaultStatusDisplay  = 5 * time.Second
	defaultNoticeDisplay  = 3 * time.Second
	alertSendTimeout      = 10 * time.Second
)

// WalletProvider is the wallet capability the widget drives. A nil provider
// means no wallet was detected.
type WalletProvider interface {
	IsConnected() bool
	PublicKey() solana.PublicKey
	Connect(ctx context.Context) (solana.PublicKey, error)
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

// NetworkEndpoint is the network side of a purchase.
type NetworkEndpoint = chain.Endpoint

// Widget owns the purchase form, the wallet session and the single
// submission slot. All methods are safe for concurrent use; at most one
// submission pipeline runs at a time.
type Widget struct {
	endpoint  NetworkEndpoint
	provider  WalletProvider
	recipient solana.PublicKey
	network   model.Network
	alerter   alert.Alerter
	logger    *slog.Logger

	confirmTimeout time.Duration
	statusDisplay  time.Duration
	noticeDisplay  time.Duration

	nowFunc   func() time.Time
	afterFunc func(time.Duration, func()) func() bool

	mu         sync.Mutex
	form       model.PurchaseForm
	wallet     model.WalletSession
	submission model.SubmissionState
	notice     bool
	noticeGen  uint64
	stopStatus func() bool
	stopNotice func() bool
	closed     bool

	running sync.WaitGroup
}

// Option configures optional Widget behaviour.
type Option func(*Widget)

func WithRecipient(pk solana.PublicKey) Option {
	return func(w *Widget) { w.recipient = pk }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Widget) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithNetwork labels alerts with the cluster the endpoint talks to.
func WithNetwork(n model.Network) Option {
	return func(w *Widget) { w.network = n }
}

// WithAlerter notifies operators about transfers that were broadcast but
// not confirmed, and about failures that could not be classified.
func WithAlerter(a alert.Alerter) Option {
	return func(w *Widget) {
		if a != nil {
			w.alerter = a
		}
	}
}

// WithConfirmTimeout bounds the wait for confirmation after broadcast.
func WithConfirmTimeout(d time.Duration) Option {
	return func(w *Widget) {
		if d > 0 {
			w.confirmTimeout = d
		}
	}
}

// WithStatusDisplay sets how long a terminal status stays visible.
func WithStatusDisplay(d time.Duration) Option {
	return func(w *Widget) {
		if d > 0 {
			w.statusDisplay = d
		}
	}
}

// WithNoticeDisplay sets how long the connected notice stays visible.
func WithNoticeDisplay(d time.Duration) Option {
	return func(w *Widget) {
		if d > 0 {
			w.noticeDisplay = d
		}
	}
}

func New(endpoint NetworkEndpoint, provider WalletProvider, opts ...Option) *Widget {
	w := &Widget{
		endpoint:       endpoint,
		provider:       provider,
		recipient:      solana.MustPublicKeyFromBase58(DefaultRecipient),
		alerter:        &alert.NoopAlerter{},
		logger:         slog.Default(),
		confirmTimeout: defaultConfirmTimeout,
		statusDisplay:  defaultStatusDisplay,
		noticeDisplay:  defaultNoticeDisplay,
		nowFunc:        time.Now,
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
		form:       model.PurchaseForm{Quantity: model.DefaultQuantity},
		submission: model.SubmissionState{Phase: model.PhaseIdle},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "purchase_widget")
	w.submission.UpdatedAt = w.nowFunc()
	return w
}

// Initialize reads the provider's connection state into the wallet session.
// Without a provider nothing happens; detection is reported on submit.
func (w *Widget) Initialize() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.provider == nil {
		w.logger.Info("no wallet provider detected")
		return
	}
	w.wallet.Connected = w.provider.IsConnected()
	if w.wallet.Connected {
		w.wallet.PublicAddress = w.provider.PublicKey().String()
	}
	w.logger.Info("widget initialized", "wallet_connected", w.wallet.Connected)
}

func (w *Widget) Recipient() solana.PublicKey {
	return w.recipient
}

// Snapshot returns a copy of the current widget state.
func (w *Widget) Snapshot() model.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Widget) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		Form:            w.form,
		Wallet:          w.wallet,
		Submission:      w.submission,
		ConnectedNotice: w.notice,
	}
}

// Submit runs one purchase to completion and returns the resulting state.
// Pipeline failures are reported in the snapshot, not as an error; only a
// refused submission returns one.
func (w *Widget) Submit(ctx context.Context, quantity decimal.Decimal) (model.Snapshot, error) {
	id, lamports, err := w.begin(quantity)
	if err != nil {
		return w.Snapshot(), err
	}
	defer w.running.Done()
	w.execute(ctx, id, lamports)
	return w.Snapshot(), nil
}

// SubmitAsync claims the submission slot and runs the pipeline in the
// background. The returned snapshot shows the submitting state.
func (w *Widget) SubmitAsync(ctx context.Context, quantity decimal.Decimal) (model.Snapshot, error) {
	id, lamports, err := w.begin(quantity)
	if err != nil {
		return w.Snapshot(), err
	}
	snap := w.Snapshot()
	go func() {
		defer w.running.Done()
		w.execute(ctx, id, lamports)
	}()
	return snap, nil
}

// Close stops pending display timers and waits for a running pipeline.
func (w *Widget) Close() {
	w.mu.Lock()
	w.closed = true
	w.stopTimersLocked()
	w.mu.Unlock()
	w.running.Wait()
}

// begin validates the quantity and claims the submission slot.
func (w *Widget) begin(quantity decimal.Decimal) (string, uint64, error) {
	lamports, err := ToLamports(quantity)
	if err != nil {
		metrics.PurchaseSubmissionsRejected.WithLabelValues("invalid_quantity").Inc()
		return "", 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return "", 0, ErrClosed
	}
	if w.submission.Phase == model.PhaseSubmitting {
		metrics.PurchaseSubmissionsRejected.WithLabelValues("in_progress").Inc()
		return "", 0, ErrSubmissionInProgress
	}
	if w.stopStatus != nil {
		w.stopStatus()
		w.stopStatus = nil
	}

	id := uuid.NewString()
	w.form.Quantity = quantity
	w.submission = model.SubmissionState{
		ID:        id,
		Phase:     model.PhaseSubmitting,
		Lamports:  lamports,
		UpdatedAt: w.nowFunc(),
	}
	w.running.Add(1)
	return id, lamports, nil
}

func (w *Widget) execute(ctx context.Context, id string, lamports uint64) {
	metrics.PurchaseInFlight.Inc()
	defer metrics.PurchaseInFlight.Dec()

	ctx, span := tracing.Tracer("purchase").Start(ctx, "purchase.submit",
		otelTrace.WithAttributes(
			attribute.String("submission_id", id),
			attribute.Int64("lamports", int64(lamports)),
			attribute.String("recipient", w.recipient.String()),
		),
	)
	defer span.End()

	start := w.nowFunc()
	log := w.logger.With("submission_id", id)
	log.Info("submission started", "lamports", lamports)

	err := w.pipeline(ctx, id, lamports)
	elapsed := w.nowFunc().Sub(start)

	if err != nil {
		kind, msg := Classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		metrics.PurchaseSubmissionsTotal.WithLabelValues(string(kind)).Inc()
		metrics.PurchaseSubmissionLatency.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
		log.Warn("submission failed", "kind", kind, "error", err, "elapsed", elapsed)
		w.finish(id, model.PhaseFailed, kind, msg)
		w.notifyOperators(ctx, id, lamports, kind, err)
		return
	}

	metrics.PurchaseSubmissionsTotal.WithLabelValues(string(model.PhaseSucceeded)).Inc()
	metrics.PurchaseSubmissionLatency.WithLabelValues(string(model.PhaseSucceeded)).Observe(elapsed.Seconds())
	metrics.PurchaseLamportsSubmitted.Add(float64(lamports))
	log.Info("submission confirmed", "elapsed", elapsed)
	w.finish(id, model.PhaseSucceeded, model.FailureNone, MessageSuccess)
}

// pipeline is the strict sequence connect, blockhash, build, sign, send, confirm.
func (w *Widget) pipeline(ctx context.Context, id string, lamports uint64) error {
	if w.provider == nil {
		return ErrProviderNotFound
	}

	from, err := w.ensureConnected(ctx)
	if err != nil {
		return err
	}

	blockhash, err := w.endpoint.RecentBlockhash(ctx)
	if err != nil {
		return err
	}

	tx, err := solanachain.BuildTransfer(from, w.recipient, lamports, blockhash)
	if err != nil {
		return err
	}

	signed, err := w.provider.SignTransaction(ctx, tx)
	if err != nil {
		metrics.WalletSignaturesTotal.WithLabelValues(approvalResult(err)).Inc()
		return fmt.Errorf("sign transaction: %w", err)
	}
	metrics.WalletSignaturesTotal.WithLabelValues("approved").Inc()

	sig, err := w.endpoint.Submit(ctx, signed)
	if err != nil {
		return err
	}
	w.recordSignature(id, sig)

	return w.endpoint.AwaitConfirmation(ctx, sig, w.confirmTimeout)
}

// ensureConnected returns the wallet address, connecting first if the
// session is not connected yet.
func (w *Widget) ensureConnected(ctx context.Context) (solana.PublicKey, error) {
	w.mu.Lock()
	connected := w.wallet.Connected
	w.mu.Unlock()
	if connected {
		return w.provider.PublicKey(), nil
	}

	address, err := w.provider.Connect(ctx)
	if err != nil {
		metrics.WalletConnectsTotal.WithLabelValues(approvalResult(err)).Inc()
		return solana.PublicKey{}, fmt.Errorf("connect wallet: %w", err)
	}
	metrics.WalletConnectsTotal.WithLabelValues("approved").Inc()

	w.mu.Lock()
	w.wallet = model.WalletSession{Connected: true, PublicAddress: address.String()}
	w.showNoticeLocked()
	w.mu.Unlock()
	w.logger.Info("wallet connected", "address", address.String())
	return address, nil
}

func (w *Widget) showNoticeLocked() {
	if w.stopNotice != nil {
		w.stopNotice()
		w.stopNotice = nil
	}
	w.notice = true
	w.noticeGen++
	if w.closed {
		return
	}
	gen := w.noticeGen
	w.stopNotice = w.afterFunc(w.noticeDisplay, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.noticeGen == gen {
			w.notice = false
			w.stopNotice = nil
		}
	})
}

func (w *Widget) recordSignature(id string, sig solana.Signature) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submission.ID == id {
		w.submission.Signature = sig.String()
		w.submission.UpdatedAt = w.nowFunc()
	}
}

// finish moves the submission to a terminal phase and schedules its return
// to idle.
func (w *Widget) finish(id string, phase model.Phase, kind model.FailureKind, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submission.ID != id {
		return
	}
	w.submission.Phase = phase
	w.submission.Kind = kind
	w.submission.Message = msg
	w.submission.UpdatedAt = w.nowFunc()
	if phase == model.PhaseSucceeded {
		w.form.Quantity = model.DefaultQuantity
	}
	if w.closed {
		return
	}
	w.stopStatus = w.afterFunc(w.statusDisplay, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.submission.ID != id || w.submission.Phase == model.PhaseSubmitting {
			return
		}
		w.submission = model.SubmissionState{Phase: model.PhaseIdle, UpdatedAt: w.nowFunc()}
		w.stopStatus = nil
	})
}

// notifyOperators raises an alert for outcomes a user cannot resolve alone.
func (w *Widget) notifyOperators(ctx context.Context, id string, lamports uint64, kind model.FailureKind, cause error) {
	var a alert.Alert
	switch kind {
	case model.FailureConfirmationTimeout:
		a = alert.Alert{
			Type:    alert.AlertTypeUnconfirmed,
			Title:   "Transfer not confirmed",
			Message: fmt.Sprintf("no confirmation within %s", w.confirmTimeout),
		}
	case model.FailureUnclassified:
		a = alert.Alert{
			Type:    alert.AlertTypePurchaseFailed,
			Title:   "Purchase failed",
			Message: cause.Error(),
		}
	default:
		return
	}
	a.Chain = w.endpoint.Chain()
	a.Network = w.network.String()
	a.Fields = map[string]string{
		"submission_id": id,
		"lamports":      fmt.Sprintf("%d", lamports),
		"recipient":     w.recipient.String(),
	}
	if sig := w.Snapshot().Submission.Signature; sig != "" {
		a.Fields["signature"] = sig
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertSendTimeout)
	defer cancel()
	if err := w.alerter.Send(sendCtx, a); err != nil {
		w.logger.Warn("operator alert failed", "submission_id", id, "type", a.Type, "error", err)
	}
}

func (w *Widget) stopTimersLocked() {
	if w.stopStatus != nil {
		w.stopStatus()
		w.stopStatus = nil
	}
	if w.stopNotice != nil {
		w.stopNotice()
		w.stopNotice = nil
	}
}

func approvalResult(err error) string {
	if kind, _ := Classify(err); kind == model.FailureUserRejected {
		return "rejected"
	}
	return "error"
}
