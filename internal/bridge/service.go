// internal/bridge/service.go
package bridge

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	bcsolana "github.com/porgdao/porg/internal/blockchain/solana"
	"github.com/porgdao/porg/internal/porg"
	"github.com/porgdao/porg/internal/storage"
	"github.com/porgdao/porg/internal/storage/models"
	"github.com/porgdao/porg/internal/wallet"
)

// Accounts is the messaging program's account set a deployment is configured
// with: the custody token account funds move into and the Wormhole
// config/message/emitter/sequence/fee-collector accounts the bridge call
// touches.
type Accounts struct {
	Custody      solana.PublicKey
	Config       solana.PublicKey
	Message      solana.PublicKey
	Emitter      solana.PublicKey
	Sequence     solana.PublicKey
	FeeCollector solana.PublicKey
}

// Request describes one cross-chain transfer. The recipient is an opaque
// 32-byte address on the target chain; nothing beyond its width is checked
// here.
type Request struct {
	SourceMint  solana.PublicKey
	Amount      uint64
	TargetChain uint16
	Recipient   [32]byte
	Nonce       uint64
}

// Service assembles and submits bridge_tokens transactions.
type Service struct {
	client   *bcsolana.Client
	wallet   *wallet.Wallet
	store    storage.Storage // optional
	accounts Accounts
	logger   *zap.Logger
}

func NewService(client *bcsolana.Client, w *wallet.Wallet, store storage.Storage, accounts Accounts, logger *zap.Logger) *Service {
	return &Service{
		client:   client,
		wallet:   w,
		store:    store,
		accounts: accounts,
		logger:   logger.Named("bridge"),
	}
}

// Bridge moves the amount into bridge custody and submits the transfer
// message, as one transaction. A failure of either leg rejects the whole
// request.
func (s *Service) Bridge(ctx context.Context, req Request) (solana.Signature, error) {
	source, err := s.wallet.GetATA(req.SourceMint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("derive source account: %w", err)
	}

	// Balance guard saves a doomed submission; the program enforces it again.
	sourceAccount, err := s.client.GetTokenAccount(ctx, source)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("load source account: %w", err)
	}
	if sourceAccount.Amount < req.Amount {
		return solana.Signature{}, fmt.Errorf("insufficient balance: have %d, need %d", sourceAccount.Amount, req.Amount)
	}

	ix := porg.NewBridgeTokensInstruction(
		porg.BridgeTokensAccounts{
			User:                 s.wallet.PublicKey,
			SourceTokenAccount:   source,
			BridgeTokenAccount:   s.accounts.Custody,
			WormholeConfig:       s.accounts.Config,
			WormholeMessage:      s.accounts.Message,
			WormholeEmitter:      s.accounts.Emitter,
			WormholeSequence:     s.accounts.Sequence,
			WormholeFeeCollector: s.accounts.FeeCollector,
		},
		porg.BridgeTokensArgs{
			Amount:           req.Amount,
			TargetChain:      req.TargetChain,
			RecipientAddress: req.Recipient,
			Nonce:            req.Nonce,
		},
	)

	sig, err := bcsolana.SubmitWithRetry(ctx, s.client, s.wallet, []solana.Instruction{ix})
	s.record(ctx, sig, req, err)
	if err != nil {
		return solana.Signature{}, err
	}

	s.logger.Info("bridge transfer confirmed",
		zap.String("signature", sig.String()),
		zap.Uint64("amount", req.Amount),
		zap.Uint16("target_chain", req.TargetChain),
		zap.Uint64("nonce", req.Nonce))
	return sig, nil
}

func (s *Service) record(ctx context.Context, sig solana.Signature, req Request, submitErr error) {
	if s.store == nil || sig.IsZero() {
		return
	}

	status := models.StatusConfirmed
	errorMsg := ""
	if submitErr != nil {
		status = models.StatusFailed
		errorMsg = submitErr.Error()
	}

	transfer := &models.BridgeTransfer{
		Signature:     sig.String(),
		WalletAddress: s.wallet.PublicKey.String(),
		Amount:        req.Amount,
		TargetChain:   req.TargetChain,
		Recipient:     hex.EncodeToString(req.Recipient[:]),
		Nonce:         req.Nonce,
		Status:        status,
		ErrorMessage:  errorMsg,
	}
	if err := s.store.SaveBridgeTransfer(ctx, transfer); err != nil {
		s.logger.Warn("failed to persist bridge record",
			zap.String("signature", sig.String()),
			zap.Error(err))
	}
}
