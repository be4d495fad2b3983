// internal/oracle/oracle.go
package oracle

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"

	"github.com/porgdao/porg/internal/engine"
)

// DefaultValueCents is the flat valuation used when no price source is
// configured: every holding is treated as worth $1.00.
const DefaultValueCents = 100

// Static values every holding at a fixed number of USD cents.
type Static struct {
	Cents uint64
}

func NewStatic(cents uint64) Static {
	return Static{Cents: cents}
}

func (s Static) TokenValueUSD(_ context.Context, _ engine.TokenAccount) (uint64, error) {
	return s.Cents, nil
}

// Quote is a per-mint price entry: cents per whole token at the mint's
// decimal scale.
type Quote struct {
	CentsPerToken uint64
	Decimals      uint8
}

// Table values holdings from a fixed per-mint price table. Mints without an
// entry are valued at zero, which makes them dust under any positive
// threshold.
type Table struct {
	quotes map[solana.PublicKey]Quote
}

func NewTable(quotes map[solana.PublicKey]Quote) *Table {
	if quotes == nil {
		quotes = make(map[solana.PublicKey]Quote)
	}
	return &Table{quotes: quotes}
}

// Set installs or replaces the quote for a mint.
func (t *Table) Set(mint solana.PublicKey, q Quote) {
	t.quotes[mint] = q
}

func (t *Table) TokenValueUSD(_ context.Context, acc engine.TokenAccount) (uint64, error) {
	q, ok := t.quotes[acc.Mint]
	if !ok {
		return 0, nil
	}

	// value = amount * centsPerToken / 10^decimals, in arbitrary precision.
	value := math.NewIntFromUint64(acc.Amount).
		Mul(math.NewIntFromUint64(q.CentsPerToken)).
		Quo(pow10(q.Decimals))
	if !value.IsUint64() {
		return 0, fmt.Errorf("valuation overflows uint64 for mint %s", acc.Mint)
	}
	return value.Uint64(), nil
}

func pow10(decimals uint8) math.Int {
	p := math.NewInt(1)
	ten := math.NewInt(10)
	for i := uint8(0); i < decimals; i++ {
		p = p.Mul(ten)
	}
	return p
}
