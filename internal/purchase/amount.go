package purchase

import (
	"fmt"

	"github.com/mubeen425/beerbonk/internal/domain/model"
	"github.com/shopspring/decimal"
)

var lamportsPerSOL = decimal.NewFromInt(model.LamportsPerSOL)

// ToLamports converts a display quantity in SOL to lamports, flooring any
// fraction of a lamport.
func ToLamports(quantity decimal.Decimal) (uint64, error) {
	if !quantity.IsPositive() {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidQuantity, quantity.String())
	}

	lamports := quantity.Mul(lamportsPerSOL).Floor()
	if !lamports.IsPositive() {
		return 0, fmt.Errorf("%w: %s SOL is less than one lamport", ErrInvalidQuantity, quantity.String())
	}

	n := lamports.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: %s SOL overflows the lamport range", ErrInvalidQuantity, quantity.String())
	}
	return n.Uint64(), nil
}

// ParseQuantity parses a user-entered quantity and validates it converts.
func ParseQuantity(raw string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidQuantity, raw)
	}
	if _, err := ToLamports(q); err != nil {
		return decimal.Zero, err
	}
	return q, nil
}
