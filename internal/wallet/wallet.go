// internal/wallet/wallet.go
package wallet

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrUserRejected is returned by an adapter when the user declines a request.
	ErrUserRejected = errors.New("user rejected the request")
	// ErrNotConnected is returned when an operation needs a connected wallet.
	ErrNotConnected = errors.New("wallet not connected")
	// ErrUnknownWallet is returned by Connect for an unregistered adapter name.
	ErrUnknownWallet = errors.New("unknown wallet")
	// ErrCannotSign is returned for a wallet that neither signs nor signs-and-sends.
	ErrCannotSign = errors.New("wallet cannot sign transactions")
)

// Wallet is a connected account.
type Wallet interface {
	Name() string
	PublicKey() solana.PublicKey
}

// Signer signs a transaction in place; the caller submits it.
type Signer interface {
	Wallet
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// SignAndSender signs and submits in one step, returning the signature.
type SignAndSender interface {
	Wallet
	SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// MessageSigner signs arbitrary bytes.
type MessageSigner interface {
	SignMessage(ctx context.Context, message []byte) (solana.Signature, error)
}

// Adapter is a wallet that can be connected by name.
type Adapter interface {
	Wallet
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}
