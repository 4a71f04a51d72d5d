package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mubeen425/beerbonk/internal/domain/model"
	"github.com/mubeen425/beerbonk/internal/purchase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// --- Mock widget ---

type mockWidget struct {
	mu         sync.Mutex
	snapshot   model.Snapshot
	submitFunc func(ctx context.Context, q decimal.Decimal) (model.Snapshot, error)
	submitted  []decimal.Decimal
}

func (m *mockWidget) Snapshot() model.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func (m *mockWidget) SubmitAsync(ctx context.Context, q decimal.Decimal) (model.Snapshot, error) {
	m.mu.Lock()
	m.submitted = append(m.submitted, q)
	m.mu.Unlock()
	return m.submitFunc(ctx, q)
}

func (m *mockWidget) Recipient() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(purchase.DefaultRecipient)
}

func idleSnapshot() model.Snapshot {
	return model.Snapshot{
		Form:       model.PurchaseForm{Quantity: model.DefaultQuantity},
		Submission: model.SubmissionState{Phase: model.PhaseIdle},
	}
}

func newTestServer(w Widget, opts ...ServerOption) *Server {
	return NewServer(w, slog.Default(), opts...)
}

func decodeWidget(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleGetWidget(t *testing.T) {
	snap := idleSnapshot()
	snap.Wallet = model.WalletSession{Connected: true, PublicAddress: "wallet"}
	snap.ConnectedNotice = true
	srv := newTestServer(&mockWidget{snapshot: snap}, WithNetwork(model.NetworkMainnet))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/widget", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeWidget(t, rec)
	assert.Equal(t, "Buy Now", body["buttonLabel"])
	assert.Equal(t, false, body["busy"])
	assert.Equal(t, "Wallet connected!", body["notice"])
	assert.Equal(t, purchase.DefaultRecipient, body["recipient"])
	assert.Equal(t, "mainnet-beta", body["network"])
	assert.Equal(t, "1", body["form"].(map[string]any)["quantity"])
	assert.Equal(t, "idle", body["submission"].(map[string]any)["phase"])
}

func TestHandlePurchase_Accepted(t *testing.T) {
	type ctxKey struct{}
	base := context.WithValue(context.Background(), ctxKey{}, "server")

	var gotCtx context.Context
	w := &mockWidget{snapshot: idleSnapshot()}
	w.submitFunc = func(ctx context.Context, q decimal.Decimal) (model.Snapshot, error) {
		gotCtx = ctx
		snap := idleSnapshot()
		snap.Wallet.Connected = true
		snap.Form.Quantity = q
		snap.Submission.Phase = model.PhaseSubmitting
		return snap, nil
	}
	srv := newTestServer(w, WithBaseContext(base))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/purchase", strings.NewReader(`{"quantity":"2.5"}`))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	body := decodeWidget(t, rec)
	assert.Equal(t, "Sending...", body["buttonLabel"])
	assert.Equal(t, true, body["busy"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	require.Len(t, w.submitted, 1)
	assert.True(t, w.submitted[0].Equal(decimal.RequireFromString("2.5")))
	require.NotNil(t, gotCtx)
	assert.Equal(t, "server", gotCtx.Value(ctxKey{}), "pipeline runs under the server context")
}

func TestHandlePurchase_NumericQuantity(t *testing.T) {
	w := &mockWidget{snapshot: idleSnapshot()}
	w.submitFunc = func(ctx context.Context, q decimal.Decimal) (model.Snapshot, error) {
		return idleSnapshot(), nil
	}
	srv := newTestServer(w)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/purchase", strings.NewReader(`{"quantity":3}`)))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, w.submitted, 1)
	assert.True(t, w.submitted[0].Equal(decimal.NewFromInt(3)))
}

func TestHandlePurchase_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		submitErr  error
		wantStatus int
		wantCalls  int
	}{
		{name: "invalid json", body: `{"quantity":`, wantStatus: http.StatusBadRequest},
		{name: "not a number", body: `{"quantity":"abc"}`, wantStatus: http.StatusBadRequest},
		{name: "invalid quantity", body: `{"quantity":"0"}`, submitErr: purchase.ErrInvalidQuantity, wantStatus: http.StatusBadRequest, wantCalls: 1},
		{name: "in progress", body: `{"quantity":"1"}`, submitErr: purchase.ErrSubmissionInProgress, wantStatus: http.StatusConflict, wantCalls: 1},
		{name: "closed", body: `{"quantity":"1"}`, submitErr: purchase.ErrClosed, wantStatus: http.StatusServiceUnavailable, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &mockWidget{snapshot: idleSnapshot()}
			w.submitFunc = func(ctx context.Context, q decimal.Decimal) (model.Snapshot, error) {
				return idleSnapshot(), tt.submitErr
			}
			srv := newTestServer(w)

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/purchase", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Len(t, w.submitted, tt.wantCalls)
			assert.NotEmpty(t, decodeWidget(t, rec)["error"])
		})
	}
}

func TestHandlePurchase_BodyTooLarge(t *testing.T) {
	w := &mockWidget{snapshot: idleSnapshot()}
	srv := newTestServer(w)

	big := `{"quantity":"1","pad":"` + strings.Repeat("x", maxRequestBodyBytes) + `"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/purchase", strings.NewReader(big)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, w.submitted)
}

func TestHandleIndex(t *testing.T) {
	snap := idleSnapshot()
	snap.Wallet.Connected = true
	snap.Submission = model.SubmissionState{Phase: model.PhaseSucceeded, Message: "Transfer successful"}
	srv := newTestServer(&mockWidget{snapshot: snap})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	html := rec.Body.String()
	assert.Contains(t, html, ">Buy Now</button>")
	assert.Contains(t, html, `class="status success"`)
	assert.Contains(t, html, "Transfer successful")
	assert.Contains(t, html, purchase.DefaultRecipient)
}

func TestHandleIndex_FailureStyle(t *testing.T) {
	snap := idleSnapshot()
	snap.Submission = model.SubmissionState{Phase: model.PhaseFailed, Message: purchase.MessageProviderMissing}
	srv := newTestServer(&mockWidget{snapshot: snap})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	html := rec.Body.String()
	assert.Contains(t, html, ">Connect Wallet</button>")
	assert.Contains(t, html, `class="status error"`)
	assert.Contains(t, html, "https://phantom.app/")
}

func TestUnknownPathIsNotFound(t *testing.T) {
	srv := newTestServer(&mockWidget{snapshot: idleSnapshot()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealthAndMetrics(t *testing.T) {
	srv := newTestServer(&mockWidget{snapshot: idleSnapshot()})
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServer_RateLimitsPurchases(t *testing.T) {
	rl := NewRateLimitMiddleware(nil, Rule{Method: http.MethodPost, Prefix: "/api/purchase", RPS: rate.Limit(1.0 / 60), Burst: 1})
	defer rl.Stop()

	w := &mockWidget{snapshot: idleSnapshot()}
	w.submitFunc = func(ctx context.Context, q decimal.Decimal) (model.Snapshot, error) {
		return idleSnapshot(), nil
	}
	h := newTestServer(w, WithRateLimiter(rl)).Handler()

	post := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/purchase", bytes.NewBufferString(`{"quantity":"1"}`)))
		return rec
	}

	assert.Equal(t, http.StatusAccepted, post().Code)
	limited := post()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Len(t, w.submitted, 1)

	// Reads are not covered by the purchase rule.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/widget", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_WithRealWidgetReportsMissingProvider(t *testing.T) {
	widget := purchase.New(nil, nil)
	defer widget.Close()
	widget.Initialize()

	h := newTestServer(widget).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/purchase", strings.NewReader(`{"quantity":"1"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return widget.Snapshot().Submission.Phase == model.PhaseFailed
	}, 2*time.Second, 10*time.Millisecond)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/widget", nil))
	body := decodeWidget(t, rec)
	sub := body["submission"].(map[string]any)
	assert.Equal(t, purchase.MessageProviderMissing, sub["message"])
	assert.Equal(t, "provider_missing", sub["kind"])
	assert.Equal(t, false, body["statusSuccessful"])
}
