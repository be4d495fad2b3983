// internal/engine/liquidate_test.go
package engine_test

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/porgdao/porg/internal/engine"
	"github.com/porgdao/porg/internal/engine/memory"
	"github.com/porgdao/porg/internal/oracle"
)

// liquidationFixture sets up an initialized engine with a caller holding a
// target token account, on top of the plain fixture.
type liquidationFixture struct {
	*fixture
	caller     solana.PublicKey
	targetMint solana.PublicKey
	target     solana.PublicKey
}

func newLiquidationFixture(t *testing.T, targetBalance uint64) *liquidationFixture {
	t.Helper()
	f := &liquidationFixture{
		fixture:    newFixture(t),
		caller:     newKey(t),
		targetMint: newKey(t),
		target:     newKey(t),
	}
	f.initialize(t)
	f.ledger.SetAccount(engine.TokenAccount{
		Address: f.target,
		Owner:   f.caller,
		Mint:    f.targetMint,
		Amount:  targetBalance,
	})
	f.ledger.SetAccount(engine.TokenAccount{
		Address: f.feeAccount,
		Owner:   f.authority,
		Mint:    f.targetMint,
	})
	return f
}

// addHolding installs a token account owned by the caller with the given
// balance and mint, and returns its address.
func (f *liquidationFixture) addHolding(t *testing.T, mint solana.PublicKey, amount uint64) solana.PublicKey {
	t.Helper()
	addr := newKey(t)
	f.ledger.SetAccount(engine.TokenAccount{
		Address: addr,
		Owner:   f.caller,
		Mint:    mint,
		Amount:  amount,
	})
	return addr
}

func (f *liquidationFixture) request() engine.LiquidateRequest {
	return engine.LiquidateRequest{TargetMint: f.targetMint}
}

func TestBatchLiquidate_NotInitialized(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.BatchLiquidate(context.Background(), newKey(t), newKey(t), engine.LiquidateRequest{})
	assert.ErrorIs(t, err, engine.ErrNotInitialized)
}

func TestBatchLiquidate_TargetValidation(t *testing.T) {
	f := newLiquidationFixture(t, 1_000)
	ctx := context.Background()

	t.Run("unknown target account", func(t *testing.T) {
		_, err := f.engine.BatchLiquidate(ctx, f.caller, newKey(t), f.request())
		assert.ErrorIs(t, err, engine.ErrAccountNotFound)
	})

	t.Run("target owned by someone else", func(t *testing.T) {
		_, err := f.engine.BatchLiquidate(ctx, newKey(t), f.target, f.request())
		assert.ErrorIs(t, err, engine.ErrInvalidTargetAccount)
	})

	t.Run("target mint mismatch", func(t *testing.T) {
		req := f.request()
		req.TargetMint = newKey(t)
		_, err := f.engine.BatchLiquidate(ctx, f.caller, f.target, req)
		assert.ErrorIs(t, err, engine.ErrInvalidTargetMint)
	})
}

func TestBatchLiquidate_NoCandidates(t *testing.T) {
	// With nothing to swap the operation degenerates to collecting the fee
	// on the current balance and checking the floor against what remains.
	f := newLiquidationFixture(t, 10_000)
	ctx := context.Background()

	req := f.request()
	req.MinOutputAmount = 9_900 // exactly balance minus the 1% fee

	res, err := f.engine.BatchLiquidate(ctx, f.caller, f.target, req)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SwapsExecuted)
	assert.Equal(t, uint64(100), res.FeeAmount)
	assert.Equal(t, uint64(9_900), res.FinalBalance)

	fee, err := f.ledger.Account(ctx, f.feeAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), fee.Amount)
}

func TestBatchLiquidate_InsufficientOutput(t *testing.T) {
	f := newLiquidationFixture(t, 10_000)

	req := f.request()
	req.MinOutputAmount = 9_901 // one above balance minus fee

	_, err := f.engine.BatchLiquidate(context.Background(), f.caller, f.target, req)
	assert.ErrorIs(t, err, engine.ErrInsufficientOutput)
}

func TestBatchLiquidate_SwapFlow(t *testing.T) {
	f := newLiquidationFixture(t, 0)
	ctx := context.Background()

	first := f.addHolding(t, newKey(t), 500)
	second := f.addHolding(t, newKey(t), 700)
	poolAccount := newKey(t)

	// Each swap leg pays out into the target account.
	f.router.OnInvoke = func(call memory.InvokeCall) error {
		return f.ledger.Credit(f.target, 1_000)
	}

	req := f.request()
	req.ExtraAccounts = []solana.PublicKey{first, second, poolAccount}
	req.Routes = []engine.Route{
		{Data: []byte{0x01}, Accounts: []solana.PublicKey{first, poolAccount}},
		{Data: []byte{0x02}, Accounts: []solana.PublicKey{second, poolAccount}},
	}
	req.MinOutputAmount = 1_900

	res, err := f.engine.BatchLiquidate(ctx, f.caller, f.target, req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SwapsExecuted)
	assert.Equal(t, uint64(20), res.FeeAmount) // 1% of 2000
	assert.Equal(t, uint64(1_980), res.FinalBalance)

	calls := f.router.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, f.routerProgram, calls[0].Program)
	assert.Equal(t, []byte{0x01}, calls[0].Payload)
	assert.Equal(t, []solana.PublicKey{first, poolAccount}, calls[0].Accounts)
	assert.Equal(t, []byte{0x02}, calls[1].Payload)
	assert.Equal(t, []solana.PublicKey{second, poolAccount}, calls[1].Accounts)
}

func TestBatchLiquidate_MissingRoute(t *testing.T) {
	f := newLiquidationFixture(t, 0)

	first := f.addHolding(t, newKey(t), 500)
	second := f.addHolding(t, newKey(t), 700)

	req := f.request()
	req.ExtraAccounts = []solana.PublicKey{first, second}
	req.Routes = []engine.Route{{Data: []byte{0x01}, Accounts: []solana.PublicKey{first}}}

	_, err := f.engine.BatchLiquidate(context.Background(), f.caller, f.target, req)
	assert.ErrorIs(t, err, engine.ErrInvalidJupiterRoute)
	// The first leg runs before the gap is hit.
	assert.Len(t, f.router.Calls(), 1)
}

func TestBatchLiquidate_RouteAccountOutsideContext(t *testing.T) {
	f := newLiquidationFixture(t, 0)

	holding := f.addHolding(t, newKey(t), 500)

	req := f.request()
	req.ExtraAccounts = []solana.PublicKey{holding}
	req.Routes = []engine.Route{
		{Data: []byte{0x01}, Accounts: []solana.PublicKey{holding, newKey(t)}},
	}

	_, err := f.engine.BatchLiquidate(context.Background(), f.caller, f.target, req)
	assert.ErrorIs(t, err, engine.ErrAccountNotFound)
	assert.Empty(t, f.router.Calls())
}

func TestBatchLiquidate_CandidateFiltering(t *testing.T) {
	f := newLiquidationFixture(t, 10_000)
	ctx := context.Background()

	// The target itself, an account owned by someone else and an address
	// the ledger does not know are all passed in the context; none may
	// become a candidate, so no routes are required.
	stranger := newKey(t)
	f.ledger.SetAccount(engine.TokenAccount{
		Address: stranger,
		Owner:   newKey(t),
		Mint:    newKey(t),
		Amount:  999,
	})

	req := f.request()
	req.ExtraAccounts = []solana.PublicKey{f.target, stranger, newKey(t)}

	res, err := f.engine.BatchLiquidate(ctx, f.caller, f.target, req)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SwapsExecuted)
	assert.Empty(t, f.router.Calls())
}

func TestBatchLiquidate_DustRule(t *testing.T) {
	f := newLiquidationFixture(t, 0)
	ctx := context.Background()

	richMint, dustMint := newKey(t), newKey(t)
	table := oracle.NewTable(map[solana.PublicKey]oracle.Quote{
		richMint: {CentsPerToken: 100, Decimals: 0}, // $1 per token
		dustMint: {CentsPerToken: 1, Decimals: 0},   // 1 cent per token
	})
	f.engine = engine.New(engine.Options{
		Ledger:        f.ledger,
		Router:        f.router,
		Bridge:        f.bridge,
		Valuer:        table,
		RouterProgram: f.routerProgram,
		BridgeProgram: f.bridgeProgram,
		Logger:        zaptest.NewLogger(t),
	})
	require.NoError(t, f.engine.Initialize(f.authority, f.feeAccount))

	rich := f.addHolding(t, richMint, 10)  // $10.00
	dust := f.addHolding(t, dustMint, 50)  // $0.50

	req := f.request()
	req.MinTokenValueUSD = 100 // $1.00 floor
	req.ExtraAccounts = []solana.PublicKey{rich, dust}
	req.Routes = []engine.Route{{Data: []byte{0x01}, Accounts: []solana.PublicKey{rich}}}

	res, err := f.engine.BatchLiquidate(ctx, f.caller, f.target, req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SwapsExecuted)
	assert.Equal(t, 1, res.SkippedDust)

	// Asking for dust too makes both accounts candidates.
	req.IncludeDust = true
	req.Routes = append(req.Routes, engine.Route{Data: []byte{0x02}, Accounts: []solana.PublicKey{dust}})

	res, err = f.engine.BatchLiquidate(ctx, f.caller, f.target, req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SwapsExecuted)
	assert.Equal(t, 0, res.SkippedDust)
}
