package dapp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/vibes-presale/internal/blockchain"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/blockchaintest"
	"github.com/rovshanmuradov/vibes-presale/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/vibes-presale/internal/codec"
	"github.com/rovshanmuradov/vibes-presale/internal/config"
	"github.com/rovshanmuradov/vibes-presale/internal/events"
	"github.com/rovshanmuradov/vibes-presale/internal/notify"
	"github.com/rovshanmuradov/vibes-presale/internal/oracle"
	"github.com/rovshanmuradov/vibes-presale/internal/program"
	"github.com/rovshanmuradov/vibes-presale/internal/wallet"
)

var saleNow = time.Unix(1_705_000_000, 0)

type fixedPrice float64

func (p fixedPrice) SOLPrice(context.Context) (oracle.Price, error) {
	return oracle.Price{SOLUSD: float64(p), Source: "test", FetchedAt: saleNow}, nil
}

type rejectingWallet struct{ *wallet.Keypair }

func (rejectingWallet) SignTransaction(context.Context, *solana.Transaction) error {
	return wallet.ErrUserRejected
}

type fixture struct {
	chain    *blockchaintest.Client
	client   *Client
	key      *wallet.Keypair
	programs program.Programs
}

func newFixture(t *testing.T, opts Options, adapters ...wallet.Adapter) *fixture {
	t.Helper()
	programs := program.DefaultPrograms()
	chain := blockchaintest.New()

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	kp := wallet.FromPrivateKey("Phantom", key)
	if len(adapters) == 0 {
		adapters = []wallet.Adapter{kp}
	}

	bus := events.NewBus(zap.NewNop(), 64)
	t.Cleanup(func() { _ = bus.Shutdown(context.Background()) })
	feed, err := notify.NewFeed(50, "", zap.NewNop())
	require.NoError(t, err)

	opts.Programs = programs
	if opts.Tx == (transaction.Config{}) {
		opts.Tx = transaction.Config{ConfirmationTimeout: time.Second, PollInterval: 5 * time.Millisecond}
	}
	c, err := New(opts, Deps{
		Chain:   chain,
		Session: wallet.NewSession(nil, bus, zap.NewNop(), adapters...),
		Prices:  fixedPrice(150),
		Feed:    feed,
		Bus:     bus,
		Metrics: prometheus.NewRegistry(),
	}, zap.NewNop())
	require.NoError(t, err)
	c.now = func() time.Time { return saleNow }
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	f := &fixture{chain: chain, client: c, key: kp, programs: programs}
	f.putPresale(t, activePresale())
	chain.SetBalance(kp.PublicKey(), 2_000_000_000)
	return f
}

func allOptions() Options {
	return Options{Features: AllFeatures(), Limits: DefaultLimits()}
}

func activePresale() *program.PresaleState {
	return &program.PresaleState{
		TokenMint:        program.DefaultVibesMint,
		UsdcMint:         program.DefaultUsdcMint,
		UseMintAuthority: true,
		StartTs:          1_700_000_000,
		EndTs:            1_710_000_000,
		HardCapTotal:     100_000_000_000_000,
		FeeCollectorSol:  solana.NewWallet().PublicKey(),
		TreasurySol:      solana.NewWallet().PublicKey(),
		SecondarySol:     solana.NewWallet().PublicKey(),
		OptionalStaking:  true,
		PriceSchedule:    []program.PriceTier{{StartTs: 1_700_000_000, PriceUSD: 0.0015}},
	}
}

func (f *fixture) putPresale(t *testing.T, st *program.PresaleState) {
	t.Helper()
	data, err := st.Encode()
	require.NoError(t, err)
	f.chain.SetAccount(f.programs.PresaleState, f.programs.Presale, data)
}

func (f *fixture) putBuyer(t *testing.T, b *program.BuyerState) {
	t.Helper()
	b.Buyer = f.key.PublicKey()
	data, err := b.Encode()
	require.NoError(t, err)
	addr, err := f.client.Deriver().Buyer(b.Buyer)
	require.NoError(t, err)
	f.chain.SetAccount(addr.Key, f.programs.Presale, data)
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()
	_, err := f.client.Connect(context.Background(), "Phantom")
	require.NoError(t, err)
}

func (f *fixture) entry(t *testing.T, title string) notify.Entry {
	t.Helper()
	for _, e := range f.client.Feed().Recent(0) {
		if e.Title == title {
			return e
		}
	}
	t.Fatalf("no feed entry titled %q", title)
	return notify.Entry{}
}

func TestBuyWithSOLEndToEnd(t *testing.T) {
	f := newFixture(t, allOptions())
	f.connect(t)

	before := &program.BuyerState{TotalPurchasedVibes: 100_000_000_000, UnstakedAmount: 100_000_000_000, PurchaseCount: 1}
	f.putBuyer(t, before)
	// The program credits 0.5 SOL at $150 / $0.0015 = 50,000 VIBES to the staked bucket.
	f.chain.OnSend = func(*solana.Transaction) {
		after := *before
		after.TotalPurchasedVibes += 50_000_000_000
		after.StakedAmount += 50_000_000_000
		after.IsStaking = true
		after.PurchaseCount++
		f.putBuyer(t, &after)
	}

	out, err := f.client.BuyWithSOL(context.Background(), 0.5, true)
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, KindNone, out.Kind)
	assert.Equal(t, transaction.StageConfirmed, out.Result.Stage)

	require.Len(t, f.chain.Sent, 1)
	tx := f.chain.Sent[0]
	require.Len(t, tx.Message.Instructions, 1)
	ci := tx.Message.Instructions[0]
	assert.Len(t, ci.Accounts, 7)
	require.Len(t, ci.Data, 8+16)
	assert.Equal(t, []byte{27, 155, 169, 245, 37, 74, 15, 75}, []byte(ci.Data[:8]))
	assert.Equal(t, uint64(500_000_000), binary.LittleEndian.Uint64(ci.Data[8:16]))
	assert.Equal(t, byte(1), ci.Data[16])

	e := f.entry(t, "Buy with SOL")
	assert.Equal(t, notify.Success, e.Category)
	assert.Equal(t, out.Signature().String(), e.Signature)

	snap, err := f.client.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Buyer)
	assert.Greater(t, snap.Buyer.StakedAmount, before.StakedAmount)
	assert.Equal(t, before.UnstakedAmount, snap.Buyer.UnstakedAmount)
	assert.True(t, snap.Buyer.StakingConsistent())
}

func TestBuyWithSOLValidation(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		stake  bool
		setup  func(t *testing.T, f *fixture)
	}{
		{name: "zero", amount: 0},
		{name: "not a number", amount: math.NaN()},
		{name: "below minimum", amount: 0.05},
		{name: "insufficient balance", amount: 5},
		{
			name:   "per-wallet cap",
			amount: 0.5,
			setup: func(t *testing.T, f *fixture) {
				// 240k held plus 50k quoted crosses 250k.
				f.putBuyer(t, &program.BuyerState{TotalPurchasedVibes: 240_000_000_000, UnstakedAmount: 240_000_000_000})
			},
		},
		{
			name:   "presale ended",
			amount: 0.5,
			setup: func(t *testing.T, f *fixture) {
				st := activePresale()
				st.EndTs = saleNow.Unix() - 1
				f.putPresale(t, st)
			},
		},
		{
			name:   "staking disabled on chain",
			amount: 0.5,
			stake:  true,
			setup: func(t *testing.T, f *fixture) {
				st := activePresale()
				st.OptionalStaking = false
				f.putPresale(t, st)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, allOptions())
			f.connect(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			out, err := f.client.BuyWithSOL(context.Background(), tt.amount, tt.stake)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
			assert.Equal(t, KindValidationFailed, out.Kind)
			assert.Empty(t, f.chain.Simulated)
			assert.Empty(t, f.chain.Sent)
			assert.Equal(t, notify.Warning, f.entry(t, "Buy with SOL").Category)
		})
	}
}

func TestOperationsRequireWallet(t *testing.T) {
	f := newFixture(t, allOptions())

	out, err := f.client.BuyWithSOL(context.Background(), 1, false)
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
	assert.Equal(t, KindPreconditionFailed, out.Kind)
}

func TestFeatureDisabled(t *testing.T) {
	f := newFixture(t, Options{Features: Features{Staking: true}})
	f.connect(t)

	out, err := f.client.BuyWithUSDC(context.Background(), 10, false)
	assert.ErrorIs(t, err, ErrFeatureDisabled)
	assert.Equal(t, KindUnsupported, out.Kind)

	_, err = f.client.ClaimVesting(context.Background())
	assert.ErrorIs(t, err, ErrFeatureDisabled)
	assert.Empty(t, f.chain.Simulated)
}

func TestUserCancelledIsInfo(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w := rejectingWallet{wallet.FromPrivateKey("Phantom", key)}

	f := newFixture(t, allOptions(), w)
	f.chain.SetBalance(w.PublicKey(), 2_000_000_000)
	f.connect(t)

	out, err := f.client.BuyWithSOL(context.Background(), 0.5, false)
	assert.ErrorIs(t, err, transaction.ErrUserCancelled)
	assert.Equal(t, KindUserCancelled, out.Kind)
	assert.Empty(t, f.chain.Sent)

	e := f.entry(t, "Buy with SOL")
	assert.Equal(t, notify.Info, e.Category)
	assert.Equal(t, "Transaction cancelled by user", e.Message)
}

func TestSimulationFailureIsReported(t *testing.T) {
	f := newFixture(t, allOptions())
	f.connect(t)
	f.chain.SimResult = &blockchain.SimulationResult{
		Err: map[string]interface{}{"InstructionError": []interface{}{0.0, map[string]interface{}{"Custom": 6019.0}}},
	}

	out, err := f.client.BuyWithSOL(context.Background(), 0.5, false)
	assert.ErrorIs(t, err, transaction.ErrSimulationFailed)
	assert.Equal(t, KindSimulationFailed, out.Kind)
	assert.Empty(t, f.chain.Sent)
	assert.Equal(t, notify.Error, f.entry(t, "Buy with SOL").Category)
}

func TestBuyWithUSDC(t *testing.T) {
	f := newFixture(t, allOptions())
	f.connect(t)
	ata, err := f.client.Deriver().ATA(f.key.PublicKey(), program.DefaultUsdcMint)
	require.NoError(t, err)

	_, err = f.client.BuyWithUSDC(context.Background(), 15, false)
	assert.ErrorIs(t, err, ErrValidation, "no USDC account means zero balance")

	f.chain.SetTokenBalance(ata, 20_000_000, 6)
	_, err = f.client.BuyWithUSDC(context.Background(), 15, false)
	require.NoError(t, err)
	require.Len(t, f.chain.Sent, 1)
	data := f.chain.Sent[0].Message.Instructions[0].Data
	assert.Equal(t, uint64(15_000_000), binary.LittleEndian.Uint64(data[8:16]))
}

func TestStakingValidation(t *testing.T) {
	f := newFixture(t, allOptions())
	f.connect(t)

	// Without a ledger the builder reports the missing account.
	out, err := f.client.OptOutOfStaking(context.Background(), 1)
	assert.ErrorIs(t, err, program.ErrPreconditionFailed)
	assert.Equal(t, KindPreconditionFailed, out.Kind)

	f.putBuyer(t, &program.BuyerState{TotalPurchasedVibes: 10_000_000, UnstakedAmount: 10_000_000})
	_, err = f.client.OptIntoStaking(context.Background(), 11)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.client.OptOutOfStaking(context.Background(), 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.client.OptIntoStaking(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, f.chain.Sent, 1)
	assert.Equal(t, "Stake", f.entry(t, "Stake").Title)
}

func TestFinalizationGates(t *testing.T) {
	f := newFixture(t, allOptions())
	f.connect(t)
	f.putBuyer(t, &program.BuyerState{TotalPurchasedVibes: 10_000_000, UnstakedAmount: 10_000_000})

	_, err := f.client.TransferToVesting(context.Background())
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.client.ClaimTokens(context.Background())
	assert.ErrorIs(t, err, ErrValidation)

	st := activePresale()
	st.IsFinalized = true
	f.putPresale(t, st)
	f.putBuyer(t, &program.BuyerState{TotalPurchasedVibes: 10_000_000, TransferredToVesting: true})
	_, err = f.client.TransferToVesting(context.Background())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.chain.Sent)
}

func TestClaimTokensFromVaultsUsesConfiguredAuthorities(t *testing.T) {
	presaleAuth := solana.NewWallet().PublicKey()
	rewardsAuth := solana.NewWallet().PublicKey()
	t.Setenv("VIBES_PRESALE_VAULT_AUTHORITY", presaleAuth.String())
	t.Setenv("VIBES_REWARDS_VAULT_AUTHORITY", rewardsAuth.String())

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, program.VaultAuthorities{Presale: presaleAuth, Rewards: rewardsAuth}, opts.Vaults)

	opts.Tx = transaction.Config{}
	f := newFixture(t, opts)
	f.connect(t)
	st := activePresale()
	st.IsFinalized = true
	st.UseMintAuthority = false
	st.PresaleTokenVault = solana.NewWallet().PublicKey()
	st.RewardsTokenVault = solana.NewWallet().PublicKey()
	f.putPresale(t, st)
	f.putBuyer(t, &program.BuyerState{TotalPurchasedVibes: 10_000_000, UnstakedAmount: 10_000_000})

	_, err = f.client.ClaimTokens(context.Background())
	require.NoError(t, err)

	require.Len(t, f.chain.Sent, 1)
	msg := f.chain.Sent[0].Message
	ci := msg.Instructions[0]
	require.Len(t, ci.Accounts, 10)
	assert.Equal(t, st.PresaleTokenVault, msg.AccountKeys[ci.Accounts[5]])
	assert.Equal(t, presaleAuth, msg.AccountKeys[ci.Accounts[7]])
	assert.Equal(t, rewardsAuth, msg.AccountKeys[ci.Accounts[8]])
}

func TestClaimVestingNothingClaimable(t *testing.T) {
	f := newFixture(t, allOptions())
	f.connect(t)
	schedule := &program.VestingSchedule{
		Beneficiary: f.key.PublicKey(),
		TokenMint:   program.DefaultVibesMint,
		Total:       1_000_000,
		ListingTs:   saleNow.Unix() + 3600,
		Cliff1:      saleNow.Unix() + 7200,
		Cliff2:      saleNow.Unix() + 10800,
		Cliff3:      saleNow.Unix() + 14400,
	}
	data, err := schedule.Encode()
	require.NoError(t, err)
	addr, err := f.client.Deriver().Vesting(schedule.Beneficiary)
	require.NoError(t, err)
	f.chain.SetAccount(addr.Key, f.programs.Vesting, data)

	_, err = f.client.ClaimVesting(context.Background())
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "vesting", valErr.Field)
}

func TestQuote(t *testing.T) {
	f := newFixture(t, allOptions())

	q, err := f.client.Quote(context.Background(), SOL, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "50000", q.Vibes.String())
	assert.Equal(t, 150.0, q.SOLUSD)
	assert.Equal(t, "test", q.PriceSource)

	q, err = f.client.Quote(context.Background(), USDC, 15)
	require.NoError(t, err)
	assert.Equal(t, "10000", q.Vibes.String())

	_, err = f.client.Quote(context.Background(), USDC, -1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuoteRejectsNonFinitePrices(t *testing.T) {
	now := time.Unix(1_000, 0)
	presale := &program.PresaleState{PriceSchedule: []program.PriceTier{{StartTs: 0, PriceUSD: 0.0015}}}

	_, err := quoteAt(presale, now, SOL, 1, oracle.Price{SOLUSD: math.Inf(1), Source: "bad"}, 6)
	assert.ErrorIs(t, err, ErrValidation)

	presale.PriceSchedule[0].PriceUSD = math.Inf(1)
	_, err = quoteAt(presale, now, USDC, 1, oracle.Price{}, 6)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{fmt.Errorf("wrap: %w", wallet.ErrUserRejected), KindUserCancelled},
		{&transaction.SimulationError{}, KindSimulationFailed},
		{fmt.Errorf("%w: %w", transaction.ErrSubmitFailed, transaction.ErrSimulationFailed), KindSimulationFailed},
		{transaction.ErrConfirmationTimeout, KindConfirmationTimeout},
		{&transaction.ConfirmError{}, KindTransactionFailed},
		{&program.PreconditionError{Account: "buyer ledger", Reason: program.NotYetCreated}, KindPreconditionFailed},
		{wallet.ErrNotConnected, KindPreconditionFailed},
		{invalid("amount", "too small"), KindValidationFailed},
		{program.ErrInvalidAmount, KindValidationFailed},
		{transaction.ErrInFlight, KindValidationFailed},
		{codec.ErrBufferUnderrun, KindDecodeFailed},
		{ErrFeatureDisabled, KindUnsupported},
		{transaction.ErrNetwork, KindNetworkFailed},
		{context.DeadlineExceeded, KindNetworkFailed},
		{errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), "%v", tt.err)
	}
}
