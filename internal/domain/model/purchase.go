package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Phase is the lifecycle position of the widget's single submission slot.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// FailureKind discriminates the user-facing failure messages.
type FailureKind string

const (
	FailureNone                FailureKind = ""
	FailureProviderMissing     FailureKind = "provider_missing"
	FailureInsufficientFunds   FailureKind = "insufficient_funds"
	FailureSimulation          FailureKind = "simulation_failure"
	FailureAccessForbidden     FailureKind = "access_forbidden"
	FailureStaleReference      FailureKind = "stale_reference"
	FailureConnectivity        FailureKind = "connectivity_failure"
	FailureUserRejected        FailureKind = "user_rejected"
	FailureConfirmationTimeout FailureKind = "confirmation_timeout"
	FailureUnclassified        FailureKind = "unclassified"
)

// DefaultQuantity is the form value shown on load and after a successful purchase.
var DefaultQuantity = decimal.NewFromInt(1)

type PurchaseForm struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type WalletSession struct {
	Connected     bool   `json:"connected"`
	PublicAddress string `json:"publicAddress,omitempty"`
}

type SubmissionState struct {
	ID        string      `json:"id,omitempty"`
	Phase     Phase       `json:"phase"`
	Message   string      `json:"message,omitempty"`
	Kind      FailureKind `json:"kind,omitempty"`
	Signature string      `json:"signature,omitempty"`
	Lamports  uint64      `json:"lamports,omitempty"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Snapshot is a point-in-time copy of everything the widget renders.
type Snapshot struct {
	Form            PurchaseForm    `json:"form"`
	Wallet          WalletSession   `json:"wallet"`
	Submission      SubmissionState `json:"submission"`
	ConnectedNotice bool            `json:"connectedNotice"`
}

// ButtonLabel mirrors the submit button text for the current state.
func (s Snapshot) ButtonLabel() string {
	if !s.Wallet.Connected {
		return "Connect Wallet"
	}
	if s.Submission.Phase == PhaseSubmitting {
		return "Sending..."
	}
	return "Buy Now"
}

// Busy reports whether the submit control must be disabled.
func (s Snapshot) Busy() bool {
	return s.Submission.Phase == PhaseSubmitting
}

// StatusSuccessful reports whether the banner should use the success style.
func (s Snapshot) StatusSuccessful() bool {
	return strings.Contains(s.Submission.Message, "successful")
}
