// internal/liquidator/scanner.go
package liquidator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/porgdao/porg/internal/engine"
)

// Candidate is one of the wallet's token holdings with its valuation.
type Candidate struct {
	Account  engine.TokenAccount
	ValueUSD uint64 // cents
	Dust     bool
}

// valuationWorkers bounds the concurrent valuation fan-out.
const valuationWorkers = 8

// Scan loads every token account the wallet owns and values it. The dust
// flag is relative to the given threshold; the accounts keep the order the
// RPC node returned them in.
func (s *Service) Scan(ctx context.Context, minTokenValueUSD uint64) ([]Candidate, error) {
	accounts, err := s.client.GetTokenAccountsByOwner(ctx, s.wallet.PublicKey)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(valuationWorkers)

	for i, acc := range accounts {
		g.Go(func() error {
			value, err := s.valuer.TokenValueUSD(gctx, acc)
			if err != nil {
				return err
			}
			candidates[i] = Candidate{
				Account:  acc,
				ValueUSD: value,
				Dust:     value < minTokenValueUSD,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// selectCandidates applies the target exclusion and dust rule to a scan
// result, preserving order.
func selectCandidates(scanned []Candidate, target engine.TokenAccount, includeDust bool) []Candidate {
	var out []Candidate
	for _, c := range scanned {
		if c.Account.Address.Equals(target.Address) {
			continue
		}
		if c.Dust && !includeDust {
			continue
		}
		out = append(out, c)
	}
	return out
}
