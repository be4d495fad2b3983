// internal/liquidator/service.go
package liquidator

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	bcsolana "github.com/porgdao/porg/internal/blockchain/solana"
	"github.com/porgdao/porg/internal/engine"
	"github.com/porgdao/porg/internal/engine/memory"
	"github.com/porgdao/porg/internal/porg"
	"github.com/porgdao/porg/internal/storage"
	"github.com/porgdao/porg/internal/storage/models"
	"github.com/porgdao/porg/internal/wallet"
)

// Route is one caller-supplied swap leg, keyed to the source token account
// it liquidates.
type Route struct {
	Data     []byte
	Accounts []solana.PublicKey
}

// Request describes one batch liquidation.
type Request struct {
	TargetMint       solana.PublicKey
	IncludeDust      bool
	MinTokenValueUSD uint64 // cents
	MinOutputAmount  uint64

	// Routes maps each candidate token account to its swap leg. The service
	// orders them to match the filtered candidate list.
	Routes map[solana.PublicKey]Route
}

// Result reports a confirmed batch liquidation.
type Result struct {
	Signature     solana.Signature
	SwapsExecuted int
	SkippedDust   int
}

// Service assembles and submits batch_liquidate transactions.
type Service struct {
	client *bcsolana.Client
	wallet *wallet.Wallet
	valuer engine.Valuer
	store  storage.Storage // optional

	stateAccount solana.PublicKey
	feeAccount   solana.PublicKey

	logger *zap.Logger
}

type Options struct {
	Client *bcsolana.Client
	Wallet *wallet.Wallet
	Valuer engine.Valuer
	Store  storage.Storage

	StateAccount solana.PublicKey
	FeeAccount   solana.PublicKey

	Logger *zap.Logger
}

func NewService(opts Options) *Service {
	return &Service{
		client:       opts.Client,
		wallet:       opts.Wallet,
		valuer:       opts.Valuer,
		store:        opts.Store,
		stateAccount: opts.StateAccount,
		feeAccount:   opts.FeeAccount,
		logger:       opts.Logger.Named("liquidator"),
	}
}

// Liquidate scans the wallet, filters candidates, validates the request
// shape against a local dry-run, then builds, submits and confirms the
// transaction.
func (s *Service) Liquidate(ctx context.Context, req Request) (*Result, error) {
	targetAddress, err := s.wallet.GetATA(req.TargetMint)
	if err != nil {
		return nil, fmt.Errorf("derive target account: %w", err)
	}
	target, err := s.client.GetTokenAccount(ctx, targetAddress)
	if err != nil {
		return nil, fmt.Errorf("load target account: %w", err)
	}

	scanned, err := s.Scan(ctx, req.MinTokenValueUSD)
	if err != nil {
		return nil, err
	}
	candidates := selectCandidates(scanned, target, req.IncludeDust)

	routeData, routeAccounts, extras, err := orderRoutes(candidates, req.Routes)
	if err != nil {
		return nil, err
	}

	if err := s.dryRun(ctx, target, scanned, req, routeData, routeAccounts, extras); err != nil {
		return nil, fmt.Errorf("dry run rejected request: %w", err)
	}

	ix := porg.NewBatchLiquidateInstruction(
		porg.BatchLiquidateAccounts{
			State:              s.stateAccount,
			User:               s.wallet.PublicKey,
			TargetTokenAccount: target.Address,
			FeeAccount:         s.feeAccount,
			Extra:              extras,
		},
		porg.BatchLiquidateArgs{
			TargetTokenMint:  req.TargetMint,
			IncludeDust:      req.IncludeDust,
			MinTokenValueUSD: req.MinTokenValueUSD,
			MinOutputAmount:  req.MinOutputAmount,
			RouteData:        routeData,
			RouteAccounts:    routeAccounts,
		},
	)

	sig, err := bcsolana.SubmitWithRetry(ctx, s.client, s.wallet, []solana.Instruction{ix})
	s.record(ctx, sig, target, req, len(candidates), len(scanned)-len(candidates), err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("batch liquidation confirmed",
		zap.String("signature", sig.String()),
		zap.String("target_mint", req.TargetMint.String()),
		zap.Int("swaps", len(candidates)))
	return &Result{
		Signature:     sig,
		SwapsExecuted: len(candidates),
		SkippedDust:   len(scanned) - len(candidates),
	}, nil
}

// orderRoutes lines the swap legs up with the filtered candidates and
// collects the full account context the instruction has to carry.
func orderRoutes(
	candidates []Candidate,
	routes map[solana.PublicKey]Route,
) (routeData [][]byte, routeAccounts [][]solana.PublicKey, extras []solana.PublicKey, err error) {
	seen := make(map[solana.PublicKey]struct{})
	appendExtra := func(key solana.PublicKey) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		extras = append(extras, key)
	}

	for _, c := range candidates {
		route, ok := routes[c.Account.Address]
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: no route for %s", engine.ErrInvalidJupiterRoute, c.Account.Address)
		}
		routeData = append(routeData, route.Data)
		routeAccounts = append(routeAccounts, route.Accounts)

		appendExtra(c.Account.Address)
		for _, a := range route.Accounts {
			appendExtra(a)
		}
	}
	return routeData, routeAccounts, extras, nil
}

// dryRun replays the request against the engine on an in-memory copy of the
// fetched accounts. Swaps are recorded, not executed, so the output floor is
// not checked here; the pass catches bad target accounts, missing routes and
// unresolvable route accounts before any fee is spent on a doomed
// transaction.
func (s *Service) dryRun(
	ctx context.Context,
	target engine.TokenAccount,
	scanned []Candidate,
	req Request,
	routeData [][]byte,
	routeAccounts [][]solana.PublicKey,
	extras []solana.PublicKey,
) error {
	ledger := memory.NewLedger()
	ledger.SetAccount(target)
	for _, c := range scanned {
		ledger.SetAccount(c.Account)
	}
	ledger.SetAccount(engine.TokenAccount{
		Address: s.feeAccount,
		Owner:   s.stateAccount,
		Mint:    target.Mint,
	})

	eng := engine.New(engine.Options{
		Ledger:        ledger,
		Router:        memory.NewInvoker(),
		Bridge:        memory.NewInvoker(),
		Valuer:        s.valuer,
		RouterProgram: porg.JupiterProgramID,
		BridgeProgram: porg.WormholeProgramID,
		Logger:        zap.NewNop(),
	})
	if err := eng.Initialize(s.wallet.PublicKey, s.feeAccount); err != nil {
		return err
	}

	routes := make([]engine.Route, len(routeData))
	for i := range routeData {
		routes[i] = engine.Route{Data: routeData[i], Accounts: routeAccounts[i]}
	}

	_, err := eng.BatchLiquidate(ctx, s.wallet.PublicKey, target.Address, engine.LiquidateRequest{
		TargetMint:       req.TargetMint,
		IncludeDust:      req.IncludeDust,
		MinTokenValueUSD: req.MinTokenValueUSD,
		MinOutputAmount:  0, // swaps are not simulated; the floor is checked on chain
		Routes:           routes,
		ExtraAccounts:    extras,
	})
	return err
}

func (s *Service) record(
	ctx context.Context,
	sig solana.Signature,
	target engine.TokenAccount,
	req Request,
	swaps, skipped int,
	submitErr error,
) {
	if s.store == nil || sig.IsZero() {
		return
	}

	status := models.StatusConfirmed
	errorMsg := ""
	if submitErr != nil {
		status = models.StatusFailed
		errorMsg = submitErr.Error()
	}

	liq := &models.Liquidation{
		Signature:       sig.String(),
		WalletAddress:   s.wallet.PublicKey.String(),
		TargetMint:      req.TargetMint.String(),
		SwapCount:       swaps,
		SkippedDust:     skipped,
		IncludeDust:     req.IncludeDust,
		MinOutputAmount: req.MinOutputAmount,
		Status:          status,
		ErrorMessage:    errorMsg,
	}
	if err := s.store.SaveLiquidation(ctx, liq); err != nil {
		s.logger.Warn("failed to persist liquidation record",
			zap.String("signature", sig.String()),
			zap.Error(err))
	}
}
