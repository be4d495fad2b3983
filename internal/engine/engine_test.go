// internal/engine/engine_test.go
package engine_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/porgdao/porg/internal/engine"
	"github.com/porgdao/porg/internal/engine/memory"
	"github.com/porgdao/porg/internal/oracle"
)

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k.PublicKey()
}

type fixture struct {
	engine *engine.Engine
	ledger *memory.Ledger
	router *memory.Invoker
	bridge *memory.Invoker

	routerProgram solana.PublicKey
	bridgeProgram solana.PublicKey

	authority  solana.PublicKey
	feeAccount solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ledger:        memory.NewLedger(),
		router:        memory.NewInvoker(),
		bridge:        memory.NewInvoker(),
		routerProgram: newKey(t),
		bridgeProgram: newKey(t),
		authority:     newKey(t),
		feeAccount:    newKey(t),
	}
	f.engine = engine.New(engine.Options{
		Ledger:        f.ledger,
		Router:        f.router,
		Bridge:        f.bridge,
		Valuer:        oracle.NewStatic(oracle.DefaultValueCents),
		RouterProgram: f.routerProgram,
		BridgeProgram: f.bridgeProgram,
		Logger:        zaptest.NewLogger(t),
	})
	return f
}

func (f *fixture) initialize(t *testing.T) {
	t.Helper()
	require.NoError(t, f.engine.Initialize(f.authority, f.feeAccount))
}

func TestInitialize(t *testing.T) {
	f := newFixture(t)

	require.Nil(t, f.engine.State())
	f.initialize(t)

	state := f.engine.State()
	require.NotNil(t, state)
	assert.Equal(t, f.authority, state.Authority)
	assert.Equal(t, f.feeAccount, state.FeeAccount)
	assert.Equal(t, uint16(engine.InitialFeeBasisPoints), state.FeeBasisPoints)
}

func TestInitialize_Twice(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	err := f.engine.Initialize(newKey(t), newKey(t))
	assert.ErrorIs(t, err, engine.ErrAlreadyInitialized)

	// First initialization is untouched.
	assert.Equal(t, f.authority, f.engine.State().Authority)
}

func TestUpdateFee(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	// Over the cap fails with FeeTooHigh even for the authority.
	err := f.engine.UpdateFee(f.authority, 600)
	assert.ErrorIs(t, err, engine.ErrFeeTooHigh)
	assert.Equal(t, uint16(100), f.engine.State().FeeBasisPoints)

	require.NoError(t, f.engine.UpdateFee(f.authority, 250))
	assert.Equal(t, uint16(250), f.engine.State().FeeBasisPoints)

	// A non-authority caller cannot change the rate.
	err = f.engine.UpdateFee(newKey(t), 100)
	assert.ErrorIs(t, err, engine.ErrUnauthorized)
	assert.Equal(t, uint16(250), f.engine.State().FeeBasisPoints)
}

func TestUpdateFee_RangeCheckedBeforeCaller(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	// An out-of-range rate from a stranger reports FeeTooHigh, not
	// Unauthorized.
	err := f.engine.UpdateFee(newKey(t), 501)
	assert.ErrorIs(t, err, engine.ErrFeeTooHigh)
}

func TestUpdateFee_NotInitialized(t *testing.T) {
	f := newFixture(t)
	err := f.engine.UpdateFee(f.authority, 100)
	assert.ErrorIs(t, err, engine.ErrNotInitialized)
}

func TestState_ReturnsCopy(t *testing.T) {
	f := newFixture(t)
	f.initialize(t)

	state := f.engine.State()
	state.FeeBasisPoints = 9999
	assert.Equal(t, uint16(100), f.engine.State().FeeBasisPoints)
}
