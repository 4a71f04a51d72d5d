package purchase

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	solanachain "github.com/mubeen425/beerbonk/internal/chain/solana"
	"github.com/mubeen425/beerbonk/internal/chain/solana/rpc"
	"github.com/mubeen425/beerbonk/internal/domain/model"
	"github.com/mubeen425/beerbonk/internal/wallet"
)

const (
	MessageSuccess             = "Transfer successful"
	MessageProviderMissing     = "Phantom wallet not found. Please install it from https://phantom.app/"
	MessageInsufficientFunds   = "Insufficient funds in wallet."
	MessageSimulationPrefix    = "Transaction failed: "
	MessageAccessForbidden     = "Access forbidden. Please contact your app developer or support@rpcpool.com."
	MessageStaleReference      = "Failed to fetch recent blockhash. Please try again."
	MessageConnectivity        = "Network connection issue. Please check your internet connection and try again."
	MessageUserRejected        = "Transaction rejected by user."
	MessageConfirmationTimeout = "Transaction confirmation timed out. Check the explorer before retrying."
	MessageUnclassified        = "Transaction failed"

	// MessageConnected is the transient notice shown after a wallet connects.
	MessageConnected = "Wallet connected!"
)

// noPriorCredit is the runtime log line for a fee payer without lamports.
const noPriorCredit = "Attempt to debit an account but found no record of a prior credit"

// Classify maps a submission failure to exactly one failure kind and its
// display message. Typed errors are checked first, in priority order; only
// errors with no typed discriminator fall through to classifyOpaque.
func Classify(err error) (model.FailureKind, string) {
	if err == nil {
		return model.FailureNone, ""
	}

	if errors.Is(err, ErrProviderNotFound) {
		return model.FailureProviderMissing, MessageProviderMissing
	}

	var rpcErr *rpc.RPCError
	if errors.As(err, &rpcErr) && rpcErr.IsSimulationFailure() {
		logs := rpcErr.SimulationLogs()
		if strings.Contains(rpcErr.Message, noPriorCredit) || containsAny(logs, noPriorCredit) {
			return model.FailureInsufficientFunds, MessageInsufficientFunds
		}
		if len(logs) > 0 {
			return model.FailureSimulation, MessageSimulationPrefix + strings.Join(logs, ", ")
		}
	}

	var statusErr *rpc.HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusForbidden {
		return model.FailureAccessForbidden, MessageAccessForbidden
	}

	if errors.Is(err, solanachain.ErrBlockhashUnavailable) {
		return model.FailureStaleReference, MessageStaleReference
	}

	if errors.Is(err, solanachain.ErrConfirmationTimeout) {
		return model.FailureConfirmationTimeout, MessageConfirmationTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return model.FailureConnectivity, MessageConnectivity
	}

	if errors.Is(err, wallet.ErrUserRejected) {
		return model.FailureUserRejected, MessageUserRejected
	}

	var failed *solanachain.TransactionFailedError
	if errors.As(err, &failed) || errors.Is(err, context.Canceled) || rpcErr != nil || statusErr != nil {
		return model.FailureUnclassified, MessageUnclassified
	}

	return classifyOpaque(err.Error())
}

// classifyOpaque inspects the text of errors that carry no type information,
// such as failures surfaced by third-party wallet software.
func classifyOpaque(msg string) (model.FailureKind, string) {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, strings.ToLower(noPriorCredit)):
		return model.FailureInsufficientFunds, MessageInsufficientFunds
	case strings.Contains(lower, "403"):
		return model.FailureAccessForbidden, MessageAccessForbidden
	case strings.Contains(lower, "blockhash"):
		return model.FailureStaleReference, MessageStaleReference
	case strings.Contains(lower, "connection"):
		return model.FailureConnectivity, MessageConnectivity
	case strings.Contains(lower, "user rejected"):
		return model.FailureUserRejected, MessageUserRejected
	}
	return model.FailureUnclassified, MessageUnclassified
}

func containsAny(lines []string, needle string) bool {
	for _, l := range lines {
		if strings.Contains(l, needle) {
			return true
		}
	}
	return false
}
