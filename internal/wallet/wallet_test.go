package wallet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/events"
)

func newTestKeypair(t *testing.T, name string) *Keypair {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	kp, err := NewKeypair(name, key.String())
	require.NoError(t, err)
	return kp
}

type rejectingAdapter struct {
	*Keypair
}

func (rejectingAdapter) Connect(context.Context) error { return ErrUserRejected }

func TestNewKeypairRejectsBadKeys(t *testing.T) {
	_, err := NewKeypair("bad", "not-base58-0OIl")
	assert.Error(t, err)

	_, err = NewKeypair("short", solana.SystemProgramID.String())
	assert.ErrorContains(t, err, "expected 64 bytes")
}

func TestKeypairSigns(t *testing.T) {
	kp := newTestKeypair(t, "local")

	sig, err := kp.SignMessage(context.Background(), []byte("vibes"))
	require.NoError(t, err)
	assert.True(t, sig.Verify(kp.PublicKey(), []byte("vibes")))

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, kp.PublicKey(), solana.SystemProgramID).Build()},
		solana.Hash{1},
		solana.TransactionPayer(kp.PublicKey()),
	)
	require.NoError(t, err)
	require.NoError(t, kp.SignTransaction(context.Background(), tx))
	require.Len(t, tx.Signatures, 1)
	assert.NoError(t, tx.VerifySignatures())
}

func TestKeypairATACache(t *testing.T) {
	kp := newTestKeypair(t, "local")
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	first, err := kp.ATA(mint)
	require.NoError(t, err)
	second, err := kp.ATA(mint)
	require.NoError(t, err)
	want, _, err := solana.FindAssociatedTokenAddress(kp.PublicKey(), mint)
	require.NoError(t, err)

	assert.Equal(t, want, first)
	assert.Equal(t, first, second)
}

func TestStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.yaml")

	store, err := NewStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.ConnectedWallet())
	require.NoError(t, store.SetConnectedWallet("Phantom"))

	reopened, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, "Phantom", reopened.ConnectedWallet())

	require.NoError(t, reopened.Clear())
	again, err := NewStore(path)
	require.NoError(t, err)
	assert.Empty(t, again.ConnectedWallet())
}

func TestSessionLifecycle(t *testing.T) {
	bus := events.NewBus(zap.NewNop(), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	got := make(chan events.WalletEvent, 4)
	bus.Subscribe(func(_ context.Context, e events.Event) error {
		got <- e.(events.WalletEvent)
		return nil
	}, events.WalletConnected, events.WalletDisconnected, events.AccountChanged)
	next := func() events.WalletEvent {
		select {
		case e := <-got:
			return e
		case <-time.After(2 * time.Second):
			t.Fatal("no wallet event")
			return events.WalletEvent{}
		}
	}

	store, err := NewStore(filepath.Join(t.TempDir(), "session.yaml"))
	require.NoError(t, err)
	phantom := newTestKeypair(t, "Phantom")
	solflare := newTestKeypair(t, "Solflare")
	s := NewSession(store, bus, zap.NewNop(), phantom, solflare)

	assert.Equal(t, []string{"Phantom", "Solflare"}, s.Available())
	_, err = s.Current()
	assert.ErrorIs(t, err, ErrNotConnected)

	w, err := s.Connect(context.Background(), "Phantom")
	require.NoError(t, err)
	assert.Equal(t, phantom.PublicKey(), w.PublicKey())
	assert.Equal(t, "Phantom", store.ConnectedWallet())
	e := next()
	assert.Equal(t, events.WalletConnected, e.Type())
	assert.Equal(t, "Phantom", e.WalletName)

	_, err = s.SwitchAccount(context.Background(), "Solflare")
	require.NoError(t, err)
	e = next()
	assert.Equal(t, events.AccountChanged, e.Type())
	assert.Equal(t, phantom.PublicKey().String(), e.Previous)

	require.NoError(t, s.Disconnect(context.Background()))
	e = next()
	assert.Equal(t, events.WalletDisconnected, e.Type())
	assert.False(t, s.Connected())
	assert.Empty(t, store.ConnectedWallet())
}

func TestSessionConnectErrors(t *testing.T) {
	rejecting := rejectingAdapter{newTestKeypair(t, "Backpack")}
	s := NewSession(nil, nil, zap.NewNop(), rejecting)

	_, err := s.Connect(context.Background(), "Nope")
	assert.ErrorIs(t, err, ErrUnknownWallet)

	_, err = s.Connect(context.Background(), "Backpack")
	assert.ErrorIs(t, err, ErrUserRejected)
	assert.False(t, s.Connected())
}

func TestAutoConnect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	store, err := NewStore(path)
	require.NoError(t, err)
	phantom := newTestKeypair(t, "Phantom")
	s := NewSession(store, nil, zap.NewNop(), phantom)

	_, ok, err := s.AutoConnect(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetConnectedWallet("Phantom"))
	w, ok, err := s.AutoConnect(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Phantom", w.Name())

	require.NoError(t, store.SetConnectedWallet("Ledger"))
	fresh := NewSession(store, nil, zap.NewNop(), phantom)
	_, ok, err = fresh.AutoConnect(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
