package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetLatestBlockhash returns a recent blockhash usable as a transaction anchor.
func (c *Client) GetLatestBlockhash(ctx context.Context, commitment string) (*LatestBlockhash, error) {
	params := []interface{}{
		map[string]string{"commitment": commitment},
	}
	result, err := c.call(ctx, "getLatestBlockhash", params)
	if err != nil {
		return nil, fmt.Errorf("getLatestBlockhash: %w", err)
	}

	var res latestBlockhashResult
	if err := json.Unmarshal(result, &res); err != nil {
		return nil, fmt.Errorf("unmarshal blockhash: %w", err)
	}
	if res.Value.Blockhash == "" {
		return nil, fmt.Errorf("getLatestBlockhash: empty blockhash")
	}
	return &res.Value, nil
}

// SendTransaction broadcasts a base64-encoded signed transaction and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, encodedTx string, opts *SendTransactionOpts) (string, error) {
	config := map[string]interface{}{
		"encoding": "base64",
	}
	if opts != nil {
		config["skipPreflight"] = opts.SkipPreflight
		if opts.PreflightCommitment != "" {
			config["preflightCommitment"] = opts.PreflightCommitment
		}
		if opts.MaxRetries != nil {
			config["maxRetries"] = *opts.MaxRetries
		}
	}

	result, err := c.call(ctx, "sendTransaction", []interface{}{encodedTx, config})
	if err != nil {
		return "", fmt.Errorf("sendTransaction: %w", err)
	}

	var signature string
	if err := json.Unmarshal(result, &signature); err != nil {
		return "", fmt.Errorf("unmarshal signature: %w", err)
	}
	return signature, nil
}

// GetSignatureStatuses returns the processing status of each signature, in request order.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	if len(signatures) == 0 {
		return []*SignatureStatus{}, nil
	}

	params := []interface{}{
		signatures,
		map[string]interface{}{"searchTransactionHistory": false},
	}
	result, err := c.call(ctx, "getSignatureStatuses", params)
	if err != nil {
		return nil, fmt.Errorf("getSignatureStatuses: %w", err)
	}

	var res signatureStatusesResult
	if err := json.Unmarshal(result, &res); err != nil {
		return nil, fmt.Errorf("unmarshal signature statuses: %w", err)
	}
	if len(res.Value) != len(signatures) {
		return nil, fmt.Errorf("getSignatureStatuses: length mismatch: requested %d got %d", len(signatures), len(res.Value))
	}
	return res.Value, nil
}

// GetBalance returns the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, address string, commitment string) (uint64, error) {
	params := []interface{}{
		address,
		map[string]string{"commitment": commitment},
	}
	result, err := c.call(ctx, "getBalance", params)
	if err != nil {
		return 0, fmt.Errorf("getBalance(%s): %w", address, err)
	}

	var res balanceResult
	if err := json.Unmarshal(result, &res); err != nil {
		return 0, fmt.Errorf("unmarshal balance: %w", err)
	}
	return res.Value, nil
}
