package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/mubeen425/beerbonk/internal/domain/model"
	"github.com/mubeen425/beerbonk/internal/purchase"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const maxRequestBodyBytes = 4 << 10 // 4 KB

// Widget is the purchase surface the server renders and drives.
// In production this is satisfied by *purchase.Widget.
type Widget interface {
	Snapshot() model.Snapshot
	SubmitAsync(ctx context.Context, quantity decimal.Decimal) (model.Snapshot, error)
	Recipient() solana.PublicKey
}

// Server exposes the purchase widget as an HTML page and a small JSON API.
type Server struct {
	widget  Widget
	network model.Network
	baseCtx context.Context
	limiter *RateLimitMiddleware
	logger  *slog.Logger
}

// ServerOption configures optional dependencies for the server.
type ServerOption func(*Server)

// WithBaseContext sets the context submissions run under. Request contexts
// end with the response, so pipelines must not inherit them.
func WithBaseContext(ctx context.Context) ServerOption {
	return func(s *Server) { s.baseCtx = ctx }
}

func WithNetwork(n model.Network) ServerOption {
	return func(s *Server) { s.network = n }
}

// WithRateLimiter applies per-client rate limiting to the API.
func WithRateLimiter(rl *RateLimitMiddleware) ServerOption {
	return func(s *Server) { s.limiter = rl }
}

func NewServer(widget Widget, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		widget:  widget,
		network: model.NetworkDevnet,
		baseCtx: context.Background(),
		logger:  logger.With("component", "http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler for the widget page and API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/widget", s.handleGetWidget)
	mux.HandleFunc("POST /api/purchase", s.handlePurchase)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.limiter.Wrap(h)
	}
	return AuditMiddleware(s.logger, h)
}

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSONBody reads and decodes a JSON request body into v.
// Returns false (and writes an error response) if decoding fails.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

// widgetResponse is the snapshot plus the values the page derives from it.
type widgetResponse struct {
	model.Snapshot
	ButtonLabel      string `json:"buttonLabel"`
	Busy             bool   `json:"busy"`
	StatusSuccessful bool   `json:"statusSuccessful"`
	Notice           string `json:"notice,omitempty"`
	Recipient        string `json:"recipient"`
	Network          string `json:"network"`
}

func (s *Server) toResponse(snap model.Snapshot) widgetResponse {
	resp := widgetResponse{
		Snapshot:         snap,
		ButtonLabel:      snap.ButtonLabel(),
		Busy:             snap.Busy(),
		StatusSuccessful: snap.StatusSuccessful(),
		Recipient:        s.widget.Recipient().String(),
		Network:          s.network.String(),
	}
	if snap.ConnectedNotice {
		resp.Notice = purchase.MessageConnected
	}
	return resp
}

func (s *Server) handleGetWidget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.toResponse(s.widget.Snapshot()))
}

type purchaseRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	snap, err := s.widget.SubmitAsync(s.baseCtx, req.Quantity)
	switch {
	case errors.Is(err, purchase.ErrInvalidQuantity):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, purchase.ErrSubmissionInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	case err != nil:
		s.logger.Warn("purchase not accepted", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, s.toResponse(snap))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		s.logger.Warn("failed to write health response", "error", err)
	}
}
