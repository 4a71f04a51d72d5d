package chain

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Endpoint abstracts the network side of a purchase so the widget core never
// talks JSON-RPC directly.
type Endpoint interface {
	// Chain returns the chain identifier (e.g., "solana").
	Chain() string

	// RecentBlockhash returns a fresh anchor for a new transaction.
	RecentBlockhash(ctx context.Context) (solana.Hash, error)

	// Submit broadcasts a signed transaction and returns its signature.
	Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)

	// AwaitConfirmation blocks until the signature reaches the endpoint's
	// commitment, the timeout elapses, or ctx is done.
	AwaitConfirmation(ctx context.Context, sig solana.Signature, timeout time.Duration) error
}
