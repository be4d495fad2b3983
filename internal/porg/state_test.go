// internal/porg/state_test.go
package porg

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateAccount_Roundtrip(t *testing.T) {
	authKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	feeKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	state := StateAccount{
		Authority:      authKey.PublicKey(),
		FeeBasisPoints: 250,
		FeeAccount:     feeKey.PublicKey(),
	}

	data := state.Marshal()
	require.Len(t, data, StateAccountSize)
	assert.Equal(t, StateAccountDiscriminator, data[:8])

	var decoded StateAccount
	require.NoError(t, decoded.Unmarshal(data))
	assert.Equal(t, state, decoded)
}

func TestStateAccount_UnmarshalRejections(t *testing.T) {
	var state StateAccount

	t.Run("short data", func(t *testing.T) {
		err := state.Unmarshal(make([]byte, StateAccountSize-1))
		assert.ErrorIs(t, err, ErrInvalidAccountData)
	})

	t.Run("wrong discriminator", func(t *testing.T) {
		data := make([]byte, StateAccountSize)
		data[0] = 0xff
		err := state.Unmarshal(data)
		assert.ErrorIs(t, err, ErrInvalidAccountData)
	})

	t.Run("trailing bytes allowed", func(t *testing.T) {
		data := (&StateAccount{FeeBasisPoints: 1}).Marshal()
		data = append(data, 0x00, 0x00)
		assert.NoError(t, state.Unmarshal(data))
		assert.Equal(t, uint16(1), state.FeeBasisPoints)
	})
}
