// internal/wallet/keypair.go
package wallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Keypair is a local wallet backed by a private key. It implements Adapter,
// Signer and MessageSigner.
type Keypair struct {
	name       string
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey

	mu       sync.Mutex
	ataCache map[solana.PublicKey]solana.PublicKey // Кеш для ассоциированных адресов токен-аккаунтов (ATA)
}

// NewKeypair создаёт кошелёк из base58-encoded приватного ключа.
func NewKeypair(name, privateKeyBase58 string) (*Keypair, error) {
	privateKeyBytes, err := base58.Decode(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	return FromPrivateKey(name, solana.PrivateKey(privateKeyBytes)), nil
}

// FromPrivateKey wraps an already decoded key.
func FromPrivateKey(name string, key solana.PrivateKey) *Keypair {
	return &Keypair{
		name:       name,
		privateKey: key,
		publicKey:  key.PublicKey(),
		ataCache:   make(map[solana.PublicKey]solana.PublicKey),
	}
}

func (k *Keypair) Name() string { return k.name }
func (k *Keypair) PublicKey() solana.PublicKey { return k.publicKey }
func (k *Keypair) Connect(context.Context) error { return nil }
func (k *Keypair) Disconnect(context.Context) error { return nil }

// SignTransaction подписывает транзакцию с помощью приватного ключа кошелька.
func (k *Keypair) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(k.publicKey) {
			return &k.privateKey
		}
		return nil
	})
	return err
}

// SignMessage signs raw bytes with the wallet key.
func (k *Keypair) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	return k.privateKey.Sign(message)
}

// ATA возвращает адрес ассоциированного токен-аккаунта (ATA) для mint.
// Если адрес уже был вычислен ранее, возвращается значение из кеша.
func (k *Keypair) ATA(mint solana.PublicKey) (solana.PublicKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if ata, ok := k.ataCache[mint]; ok {
		return ata, nil
	}
	ata, _, err := solana.FindAssociatedTokenAddress(k.publicKey, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	k.ataCache[mint] = ata
	return ata, nil
}

// String возвращает публичный ключ кошелька.
func (k *Keypair) String() string {
	return k.publicKey.String()
}

var (
	_ Adapter       = (*Keypair)(nil)
	_ Signer        = (*Keypair)(nil)
	_ MessageSigner = (*Keypair)(nil)
)
