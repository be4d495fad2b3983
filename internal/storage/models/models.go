// internal/storage/models/models.go
package models

import "time"

// BaseModel replaces gorm.Model for tighter control over columns.
type BaseModel struct {
	ID        uint       `gorm:"primarykey"`
	CreatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	DeletedAt *time.Time `gorm:"index"`
}

// Operation statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Liquidation records one submitted batch liquidation.
type Liquidation struct {
	BaseModel
	Signature       string `gorm:"unique;not null;type:varchar(88)"`
	WalletAddress   string `gorm:"index;not null;type:varchar(44)"`
	TargetMint      string `gorm:"not null;type:varchar(44)"`
	SwapCount       int    `gorm:"not null"`
	SkippedDust     int
	IncludeDust     bool
	MinOutputAmount uint64 `gorm:"not null"`
	FeeAmount       uint64
	FinalBalance    uint64
	Status          string `gorm:"not null;type:varchar(20)"`
	ErrorMessage    string `gorm:"type:text"`
}

// BridgeTransfer records one submitted cross-chain transfer.
type BridgeTransfer struct {
	BaseModel
	Signature     string `gorm:"unique;not null;type:varchar(88)"`
	WalletAddress string `gorm:"index;not null;type:varchar(44)"`
	Amount        uint64 `gorm:"not null"`
	TargetChain   uint16 `gorm:"not null"`
	Recipient     string `gorm:"not null;type:varchar(64)"` // hex, 32 bytes
	Nonce         uint64 `gorm:"not null"`
	Status        string `gorm:"not null;type:varchar(20)"`
	ErrorMessage  string `gorm:"type:text"`
}
