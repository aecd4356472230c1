package salesimport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Channel identifies the POS export source of an import file.
type Channel string

const (
	ChannelTabSense Channel = "TABSENSE"
	ChannelTalabat  Channel = "TALABAT"
)

// PostingMode selects which ledger legs a posting run writes.
type PostingMode string

const (
	// ModePostAll writes revenue and COGS legs for NEW receipts.
	ModePostAll PostingMode = "POST_ALL"
	// ModePostRevenueOnly writes revenue legs for NEW receipts, leaving them
	// PARTIAL for a later COGS run.
	ModePostRevenueOnly PostingMode = "POST_REVENUE_ONLY"
	// ModePostMissingCOGS writes COGS legs for PARTIAL receipts only; revenue
	// is never re-created.
	ModePostMissingCOGS PostingMode = "POST_MISSING_COGS"
)

// Valid reports whether the mode is one of the three posting modes.
func (m PostingMode) Valid() bool {
	switch m {
	case ModePostAll, ModePostRevenueOnly, ModePostMissingCOGS:
		return true
	}
	return false
}

// BatchStatus classifies a whole batch against previously posted entries.
type BatchStatus string

const (
	BatchStatusNew       BatchStatus = "NEW"
	BatchStatusPartial   BatchStatus = "PARTIAL"
	BatchStatusDuplicate BatchStatus = "DUPLICATE"
	BatchStatusMixed     BatchStatus = "MIXED"
)

// ReceiptStatus classifies one receipt reference.
type ReceiptStatus string

const (
	ReceiptStatusNew       ReceiptStatus = "NEW"
	ReceiptStatusPartial   ReceiptStatus = "PARTIAL"
	ReceiptStatusDuplicate ReceiptStatus = "DUPLICATE"
	ReceiptStatusUnknown   ReceiptStatus = "UNKNOWN"
)

// ReportStatus is the lifecycle of a SalesReport header.
type ReportStatus string

const (
	ReportStatusPending          ReportStatus = "PENDING"
	ReportStatusSuccess          ReportStatus = "SUCCESS"
	ReportStatusDuplicateSkipped ReportStatus = "DUPLICATE_SKIPPED"
)

// SalesReport is the write-once audit header for one upload+action.
type SalesReport struct {
	ID              uuid.UUID
	FileName        string
	BranchID        int64
	Channel         Channel
	TotalCollected  decimal.Decimal
	TotalNetRevenue decimal.Decimal
	TotalTax        decimal.Decimal
	TotalTips       decimal.Decimal
	TotalFees       decimal.Decimal
	TotalCOGS       decimal.Decimal
	ReceiptCount    int
	PostedCount     int
	Status          ReportStatus
	CreatedAt       time.Time
}

// SalesItemLog is one quantity-expanded sold item or modifier instance,
// kept for revenue/quantity audit independent of the ledger.
type SalesItemLog struct {
	ID         int64
	ReportID   uuid.UUID
	Reference  string
	Name       string
	Quantity   int
	IsModifier bool
	Channel    Channel
	SoldAt     time.Time
}
