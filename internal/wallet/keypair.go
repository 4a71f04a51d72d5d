package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrUserRejected is returned when the owner declines a connect or sign request.
	ErrUserRejected = errors.New("user rejected the request")

	ErrNotConnected = errors.New("wallet not connected")
)

// Keypair is a wallet provider backed by a solana-keygen JSON file.
// Keys never leave the provider; callers only see the public key and
// signed transactions.
type Keypair struct {
	mu        sync.Mutex
	key       solana.PrivateKey
	connected bool
	approver  Approver
	logger    *slog.Logger
}

func NewKeypair(key solana.PrivateKey, approver Approver, logger *slog.Logger) *Keypair {
	if approver == nil {
		approver = AutoApprove
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Keypair{
		key:      key,
		approver: approver,
		logger:   logger.With("component", "wallet"),
	}
}

// LoadKeypair reads a solana-keygen JSON keypair file.
func LoadKeypair(path string, approver Approver, logger *slog.Logger) (*Keypair, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", path, err)
	}
	return NewKeypair(key, approver, logger), nil
}

// Detect returns the keypair provider at path, or nil when none is configured
// or the file does not exist. Only a present but unreadable file is an error.
func Detect(path string, approver Approver, logger *slog.Logger) (*Keypair, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat keypair %s: %w", path, err)
	}
	return LoadKeypair(path, approver, logger)
}

func (k *Keypair) IsConnected() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.connected
}

// PublicKey returns the wallet address, or the zero key while disconnected.
func (k *Keypair) PublicKey() solana.PublicKey {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.connected {
		return solana.PublicKey{}
	}
	return k.key.PublicKey()
}

// Connect asks the approver for permission to expose the address.
func (k *Keypair) Connect(ctx context.Context) (solana.PublicKey, error) {
	address := k.key.PublicKey()
	ok, err := k.approver.Approve(ctx, ApprovalRequest{
		Action:  ActionConnect,
		Address: address.String(),
		Summary: "A site wants to connect to your wallet.",
	})
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("connect: %w", err)
	}
	if !ok {
		k.logger.Info("connect rejected", "address", address.String())
		return solana.PublicKey{}, fmt.Errorf("connect: %w", ErrUserRejected)
	}

	k.mu.Lock()
	k.connected = true
	k.mu.Unlock()
	k.logger.Info("wallet connected", "address", address.String())
	return address, nil
}

// SignTransaction signs tx in place after approval and returns it.
func (k *Keypair) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if !k.IsConnected() {
		return nil, ErrNotConnected
	}
	if tx == nil {
		return nil, errors.New("sign transaction: nil transaction")
	}

	address := k.key.PublicKey()
	if len(tx.Message.AccountKeys) == 0 || !tx.Message.AccountKeys[0].Equals(address) {
		return nil, fmt.Errorf("sign transaction: fee payer is not %s", address)
	}

	ok, err := k.approver.Approve(ctx, ApprovalRequest{
		Action:  ActionSign,
		Address: address.String(),
		Summary: fmt.Sprintf("Sign a transaction with %d instruction(s), fee paid by %s.", len(tx.Message.Instructions), address),
	})
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if !ok {
		k.logger.Info("signature rejected", "address", address.String())
		return nil, fmt.Errorf("sign transaction: %w", ErrUserRejected)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(address) {
			return &k.key
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}
