// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/porgdao/porg/internal/storage/models"
)

// Storage persists submitted liquidations and bridge transfers.
type Storage interface {
	SaveLiquidation(ctx context.Context, liq *models.Liquidation) error
	GetLiquidation(ctx context.Context, signature string) (*models.Liquidation, error)
	ListLiquidations(ctx context.Context, walletAddress string, limit, offset int) ([]*models.Liquidation, error)
	UpdateLiquidationStatus(ctx context.Context, signature, status, errorMsg string) error

	SaveBridgeTransfer(ctx context.Context, transfer *models.BridgeTransfer) error
	ListBridgeTransfers(ctx context.Context, walletAddress string, limit, offset int) ([]*models.BridgeTransfer, error)
	UpdateBridgeTransferStatus(ctx context.Context, signature, status, errorMsg string) error

	RunMigrations() error
}
