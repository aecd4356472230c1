package journals

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus enumerates journal lifecycle values.
type JournalStatus string

const (
	JournalStatusPosted JournalStatus = "POSTED"
)

// Leg names the side of a receipt a journal entry records. A fully posted
// receipt owns one entry per leg.
type Leg string

const (
	LegRevenue Leg = "REVENUE"
	LegCOGS    Leg = "COGS"
)

// JournalEntry captures posting metadata. Entries are write-once; corrections
// are new reversing entries created by external tooling.
type JournalEntry struct {
	ID          int64
	Date        time.Time
	Description string
	Reference   string
	BranchID    *int64
	Status      JournalStatus
	CreatedAt   time.Time
	Lines       []JournalLine
}

// JournalLine stores a debit or credit amount for an account.
type JournalLine struct {
	ID        int64
	EntryID   int64
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	CreatedAt time.Time
}

// PostedReferenceLine is one existing ledger line matched during the audit
// pass, carrying just enough account detail to classify the receipt.
type PostedReferenceLine struct {
	Reference   string
	EntryID     int64
	AccountID   int64
	AccountType string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}
