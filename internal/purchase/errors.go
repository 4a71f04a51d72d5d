package purchase

import "errors"

var (
	// ErrProviderNotFound means no wallet capability was detected.
	ErrProviderNotFound = errors.New("wallet provider not found")

	// ErrInvalidQuantity rejects quantities that are not positive or do not
	// convert to a whole, representable number of lamports.
	ErrInvalidQuantity = errors.New("quantity must be a positive amount of SOL")

	// ErrSubmissionInProgress is returned while a previous submission is still running.
	ErrSubmissionInProgress = errors.New("a submission is already in progress")

	ErrClosed = errors.New("widget closed")
)
