package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mubeen425/beerbonk/internal/alert"
	"github.com/mubeen425/beerbonk/internal/config"
	"github.com/mubeen425/beerbonk/internal/domain/model"
	"github.com/mubeen425/beerbonk/internal/purchase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"trace": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equalf(t, want, parseLogLevel(in), "level %q", in)
	}
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "buy"}, names)

	buy, _, err := root.Find([]string{"buy"})
	require.NoError(t, err)
	q := buy.Flags().Lookup("quantity")
	require.NotNil(t, q)
	assert.Equal(t, "1", q.DefValue)
	assert.Equal(t, "q", q.Shorthand)
}

func TestFormatSOL(t *testing.T) {
	assert.Equal(t, "0", formatSOL(0))
	assert.Equal(t, "1", formatSOL(1_000_000_000))
	assert.Equal(t, "2.5", formatSOL(2_500_000_000))
	assert.Equal(t, "0.000000001", formatSOL(1))
}

func TestDetectProvider_AbsentIsUntypedNil(t *testing.T) {
	provider, err := detectProvider(filepath.Join(t.TempDir(), "missing.json"), nil, nil)
	require.NoError(t, err)
	assert.True(t, provider == nil, "absent wallet must be a nil interface")
}

// --- fake JSON-RPC node ---

type fakeNode struct {
	mu          sync.Mutex
	calls       []string
	blockhash   string
	signature   string
	balance     uint64
	sendFailure json.RawMessage
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server) {
	t.Helper()
	n := &fakeNode{
		blockhash: solana.HashFromBytes(bytes.Repeat([]byte{0x42}, 32)).String(),
		signature: solana.SignatureFromBytes(bytes.Repeat([]byte{0x24}, 64)).String(),
		balance:   1_500_000_000,
	}
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)
	return n, srv
}

func (n *fakeNode) methods() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n.mu.Lock()
	n.calls = append(n.calls, req.Method)
	n.mu.Unlock()

	var result any
	ctx := map[string]any{"slot": 100}
	switch req.Method {
	case "getLatestBlockhash":
		result = map[string]any{"context": ctx, "value": map[string]any{"blockhash": n.blockhash, "lastValidBlockHeight": 200}}
	case "sendTransaction":
		if n.sendFailure != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":` + string(n.sendFailure) + `}`))
			return
		}
		result = n.signature
	case "getSignatureStatuses":
		result = map[string]any{"context": ctx, "value": []any{map[string]any{
			"slot": 100, "confirmations": nil, "err": nil, "confirmationStatus": "confirmed",
		}}}
	case "getBalance":
		result = map[string]any{"context": ctx, "value": n.balance}
	default:
		http.Error(w, "unknown method", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func writeKeypair(t *testing.T) (string, solana.PrivateKey) {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path, key
}

func testConfig(rpcURL string) *config.Config {
	return &config.Config{
		Solana: config.SolanaConfig{
			RPCURL:     rpcURL,
			Network:    model.NetworkDevnet,
			Commitment: model.CommitmentConfirmed,
			Recipient:  purchase.DefaultRecipient,
		},
		Purchase: config.PurchaseConfig{
			ConfirmTimeout: 5 * time.Second,
			PollInterval:   10 * time.Millisecond,
			StatusDisplay:  5 * time.Second,
			NoticeDisplay:  3 * time.Second,
		},
		RPC: config.RPCConfig{
			RateLimitRPS:     1000,
			RateLimitBurst:   1000,
			BreakerFailures:  5,
			BreakerOpenAfter: time.Second,
		},
		Log: config.LogConfig{Level: "error"},
	}
}

func TestRunBuy_InvalidQuantity(t *testing.T) {
	var out, errOut bytes.Buffer
	err := runBuy(context.Background(), testConfig("http://127.0.0.1:1"), &buyOptions{quantity: "0"}, strings.NewReader(""), &out, &errOut)
	assert.ErrorIs(t, err, purchase.ErrInvalidQuantity)
	assert.Empty(t, out.String())
}

func TestRunBuy_ProviderMissing(t *testing.T) {
	node, srv := newFakeNode(t)

	var out, errOut bytes.Buffer
	opts := &buyOptions{quantity: "1", keypair: filepath.Join(t.TempDir(), "absent.json")}
	err := runBuy(context.Background(), testConfig(srv.URL), opts, strings.NewReader(""), &out, &errOut)

	assert.ErrorIs(t, err, errPurchaseFailed)
	assert.Contains(t, out.String(), purchase.MessageProviderMissing)
	assert.Empty(t, node.methods(), "no network calls without a wallet")
}

func TestRunBuy_Success(t *testing.T) {
	node, srv := newFakeNode(t)
	path, key := writeKeypair(t)

	var out, errOut bytes.Buffer
	opts := &buyOptions{quantity: "1", keypair: path, yes: true}
	err := runBuy(context.Background(), testConfig(srv.URL), opts, strings.NewReader(""), &out, &errOut)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Wallet connected!")
	assert.Contains(t, text, "Transfer successful")
	assert.Contains(t, text, "Signature: "+node.signature)
	assert.Contains(t, text, "Wallet "+key.PublicKey().String()+" balance: 1.5 SOL")
	assert.Equal(t, []string{"getLatestBlockhash", "sendTransaction", "getSignatureStatuses", "getBalance"}, node.methods())
}

func TestRunBuy_PromptRejectsSignature(t *testing.T) {
	node, srv := newFakeNode(t)
	path, _ := writeKeypair(t)

	var out, errOut bytes.Buffer
	opts := &buyOptions{quantity: "2", keypair: path}
	err := runBuy(context.Background(), testConfig(srv.URL), opts, strings.NewReader("y\nn\n"), &out, &errOut)

	assert.ErrorIs(t, err, errPurchaseFailed)
	assert.Contains(t, out.String(), "Transaction rejected by user.")
	assert.Contains(t, errOut.String(), "Approve connect")
	assert.Contains(t, errOut.String(), "Approve sign")
	assert.Equal(t, []string{"getLatestBlockhash", "getBalance"}, node.methods())
}

func TestRunBuy_InsufficientFunds(t *testing.T) {
	node, srv := newFakeNode(t)
	node.sendFailure = json.RawMessage(`{"code":-32002,"message":"Transaction simulation failed: Attempt to debit an account but found no record of a prior credit.","data":{"err":"AccountNotFound","logs":[]}}`)
	path, _ := writeKeypair(t)

	var out, errOut bytes.Buffer
	opts := &buyOptions{quantity: "1", keypair: path, yes: true}
	err := runBuy(context.Background(), testConfig(srv.URL), opts, strings.NewReader(""), &out, &errOut)

	assert.ErrorIs(t, err, errPurchaseFailed)
	assert.Contains(t, out.String(), "Insufficient funds in wallet.")
}

func TestNewAlerter_NoChannelsIsNoop(t *testing.T) {
	a := newAlerter(testConfig("http://127.0.0.1:1"), nil)
	assert.IsType(t, &alert.NoopAlerter{}, a)
}
