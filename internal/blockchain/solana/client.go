// internal/blockchain/solana/client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/porgdao/porg/internal/engine"
)

var ErrAccountNotFound = errors.New("account not found")

// IsAccountNotFoundError reports whether an RPC error means "not found".
func IsAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAccountNotFound) ||
		strings.Contains(strings.ToLower(err.Error()), "not found")
}

// Client is a thin adapter over the Solana JSON-RPC API, backed by a
// rate-limited endpoint pool.
type Client struct {
	pool   *Pool
	logger *zap.Logger
}

func NewClient(endpoints []string, reqPerSecond int, logger *zap.Logger) (*Client, error) {
	pool, err := NewPool(endpoints, reqPerSecond, logger)
	if err != nil {
		return nil, err
	}
	return &Client{
		pool:   pool,
		logger: logger.Named("solana-client"),
	}, nil
}

func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	var blockhash solana.Hash
	err := c.pool.execute(ctx, func(cl *rpc.Client) error {
		result, err := cl.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			return err
		}
		blockhash = result.Value.Blockhash
		return nil
	})
	if err != nil {
		c.logger.Error("GetRecentBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	return blockhash, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	var sig solana.Signature
	err := c.pool.execute(ctx, func(cl *rpc.Client) error {
		s, err := cl.SendTransaction(ctx, tx)
		if err != nil {
			return err
		}
		sig = s
		return nil
	})
	if err != nil {
		c.logger.Error("SendTransaction error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// GetAccountData returns the raw data of an account, or ErrAccountNotFound.
func (c *Client) GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	var data []byte
	err := c.pool.execute(ctx, func(cl *rpc.Client) error {
		result, err := cl.GetAccountInfo(ctx, pubkey)
		if err != nil {
			return err
		}
		if result == nil || result.Value == nil {
			return ErrAccountNotFound
		}
		data = result.Value.Data.GetBinary()
		return nil
	})
	if err != nil {
		c.logger.Debug("GetAccountData error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	return data, nil
}

// GetTokenAccount loads and decodes one SPL token account.
func (c *Client) GetTokenAccount(ctx context.Context, address solana.PublicKey) (engine.TokenAccount, error) {
	data, err := c.GetAccountData(ctx, address)
	if err != nil {
		return engine.TokenAccount{}, err
	}
	return decodeTokenAccount(address, data)
}

// GetTokenAccountsByOwner returns all of the owner's SPL token accounts.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) ([]engine.TokenAccount, error) {
	var out *rpc.GetTokenAccountsResult
	err := c.pool.execute(ctx, func(cl *rpc.Client) error {
		result, err := cl.GetTokenAccountsByOwner(
			ctx,
			owner,
			&rpc.GetTokenAccountsConfig{ProgramId: solana.TokenProgramID.ToPointer()},
			&rpc.GetTokenAccountsOpts{
				Commitment: rpc.CommitmentConfirmed,
				Encoding:   solana.EncodingBase64,
			},
		)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	if err != nil {
		c.logger.Error("GetTokenAccountsByOwner error",
			zap.String("owner", owner.String()),
			zap.Error(err))
		return nil, err
	}

	accounts := make([]engine.TokenAccount, 0, len(out.Value))
	for _, keyed := range out.Value {
		acc, err := decodeTokenAccount(keyed.Pubkey, keyed.Account.Data.GetBinary())
		if err != nil {
			c.logger.Debug("skipping undecodable token account",
				zap.String("pubkey", keyed.Pubkey.String()),
				zap.Error(err))
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// WaitForTransactionConfirmation polls signature status until the requested
// commitment is reached or the context expires.
func (c *Client) WaitForTransactionConfirmation(
	ctx context.Context,
	sig solana.Signature,
	commitment rpc.CommitmentType,
) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		var status *rpc.SignatureStatusesResult
		err := c.pool.execute(ctx, func(cl *rpc.Client) error {
			result, err := cl.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				return err
			}
			if len(result.Value) > 0 {
				status = result.Value[0]
			}
			return nil
		})
		if err != nil {
			return err
		}
		if status == nil {
			continue
		}
		if status.Err != nil {
			return fmt.Errorf("transaction %s failed: %v", sig, status.Err)
		}

		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusFinalized:
			return nil
		case rpc.ConfirmationStatusConfirmed:
			if commitment != rpc.CommitmentFinalized {
				return nil
			}
		}
	}
}

func decodeTokenAccount(address solana.PublicKey, data []byte) (engine.TokenAccount, error) {
	var acc token.Account
	if err := bin.NewBinDecoder(data).Decode(&acc); err != nil {
		return engine.TokenAccount{}, fmt.Errorf("decode token account %s: %w", address, err)
	}
	return engine.TokenAccount{
		Address: address,
		Owner:   acc.Owner,
		Mint:    acc.Mint,
		Amount:  acc.Amount,
	}, nil
}
