package solana

import (
	"errors"
	"fmt"
)

var (
	// ErrBlockhashUnavailable wraps any failure to obtain a recent blockhash.
	ErrBlockhashUnavailable = errors.New("fetch recent blockhash")

	// ErrConfirmationTimeout is returned when a signature does not reach the
	// target commitment before the confirmation deadline.
	ErrConfirmationTimeout = errors.New("confirmation timed out")
)

// TransactionFailedError reports a transaction that landed but failed on chain.
type TransactionFailedError struct {
	Signature string
	Err       interface{}
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed on chain: %v", e.Signature, e.Err)
}
