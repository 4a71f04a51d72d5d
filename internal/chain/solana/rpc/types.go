package rpc

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC request/response types

type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Solana returns -32002 when preflight simulation of sendTransaction fails.
const CodeSendTransactionPreflightFailure = -32002

type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// IsSimulationFailure reports whether the node rejected the transaction during preflight.
func (e *RPCError) IsSimulationFailure() bool {
	return e.Code == CodeSendTransactionPreflightFailure
}

// SimulationLogs returns the program logs attached to a preflight failure.
// Nil when the error carries no simulation data.
func (e *RPCError) SimulationLogs() []string {
	if len(e.Data) == 0 {
		return nil
	}
	var data simulationErrorData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil
	}
	return data.Logs
}

type simulationErrorData struct {
	Err  interface{} `json:"err"`
	Logs []string    `json:"logs"`
}

// HTTPStatusError is returned when the endpoint answers with a non-200 status.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

type ResponseContext struct {
	Slot uint64 `json:"slot"`
}

// getLatestBlockhash response
type LatestBlockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

type latestBlockhashResult struct {
	Context ResponseContext `json:"context"`
	Value   LatestBlockhash `json:"value"`
}

type SendTransactionOpts struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *uint
}

// getSignatureStatuses response; a nil entry means the signature is unknown to the node.
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

type signatureStatusesResult struct {
	Context ResponseContext    `json:"context"`
	Value   []*SignatureStatus `json:"value"`
}

type balanceResult struct {
	Context ResponseContext `json:"context"`
	Value   uint64          `json:"value"`
}
