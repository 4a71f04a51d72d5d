package solana

import (
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// BuildTransfer assembles an unsigned native transfer paid for by from.
func BuildTransfer(from, to solanago.PublicKey, lamports uint64, recentBlockhash solanago.Hash) (*solanago.Transaction, error) {
	if lamports == 0 {
		return nil, errors.New("build transfer: amount must be positive")
	}
	if from.Equals(solanago.PublicKey{}) {
		return nil, errors.New("build transfer: missing source account")
	}
	if to.Equals(solanago.PublicKey{}) {
		return nil, errors.New("build transfer: missing recipient account")
	}

	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{
			system.NewTransferInstruction(lamports, from, to).Build(),
		},
		recentBlockhash,
		solanago.TransactionPayer(from),
	)
	if err != nil {
		return nil, fmt.Errorf("build transfer: %w", err)
	}
	return tx, nil
}
