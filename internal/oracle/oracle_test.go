// internal/oracle/oracle_test.go
package oracle

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porgdao/porg/internal/engine"
)

func TestStatic(t *testing.T) {
	s := NewStatic(250)
	v, err := s.TokenValueUSD(context.Background(), engine.TokenAccount{Amount: 123456})
	require.NoError(t, err)
	assert.Equal(t, uint64(250), v)
}

func TestTable(t *testing.T) {
	ctx := context.Background()
	usdc := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	wsol := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	table := NewTable(map[solana.PublicKey]Quote{
		usdc: {CentsPerToken: 100, Decimals: 6},
		wsol: {CentsPerToken: 15_000, Decimals: 9},
	})

	tests := []struct {
		name    string
		account engine.TokenAccount
		want    uint64
	}{
		{"one usdc", engine.TokenAccount{Mint: usdc, Amount: 1_000_000}, 100},
		{"half usdc", engine.TokenAccount{Mint: usdc, Amount: 500_000}, 50},
		{"rounds down", engine.TokenAccount{Mint: usdc, Amount: 19_999}, 1},
		{"two sol at $150", engine.TokenAccount{Mint: wsol, Amount: 2_000_000_000}, 30_000},
		{"unquoted mint is dust", engine.TokenAccount{Mint: solana.PublicKey{}, Amount: 1 << 50}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.TokenValueUSD(ctx, tt.account)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_Set(t *testing.T) {
	table := NewTable(nil)
	mint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	v, err := table.TokenValueUSD(context.Background(), engine.TokenAccount{Mint: mint, Amount: 10})
	require.NoError(t, err)
	assert.Zero(t, v)

	table.Set(mint, Quote{CentsPerToken: 100, Decimals: 0})
	v, err = table.TokenValueUSD(context.Background(), engine.TokenAccount{Mint: mint, Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), v)
}
