package salesimport

import (
	"github.com/flashledger/flashledger/internal/accounting/journals"
)

// AuditResult is the outcome of cross-referencing a batch's receipt
// references against previously posted journal entries.
type AuditResult struct {
	Status   BatchStatus
	Receipts map[string]ReceiptStatus
}

// StatusOf returns the classification for a reference, NEW when no prior
// entry was found.
func (a AuditResult) StatusOf(reference string) ReceiptStatus {
	if s, ok := a.Receipts[reference]; ok {
		return s
	}
	return ReceiptStatusNew
}

// ClassifyReferences folds the existing ledger lines for a batch's references
// into per-receipt and batch-level statuses. cogsAccountID is the designated
// COGS account; a receipt counts as DUPLICATE only when both a revenue line
// and an expense line on that account already exist.
func ClassifyReferences(refs []string, lines []journals.PostedReferenceLine, cogsAccountID int64) AuditResult {
	type seen struct {
		revenue bool
		cogs    bool
		any     bool
	}
	byRef := make(map[string]*seen)
	for _, line := range lines {
		s := byRef[line.Reference]
		if s == nil {
			s = &seen{}
			byRef[line.Reference] = s
		}
		s.any = true
		if line.AccountType == "REVENUE" {
			s.revenue = true
		}
		if line.AccountType == "EXPENSE" && line.AccountID == cogsAccountID {
			s.cogs = true
		}
	}

	result := AuditResult{Receipts: make(map[string]ReceiptStatus, len(refs))}
	var news, partials, duplicates, unknowns int
	for _, ref := range refs {
		s := byRef[ref]
		switch {
		case s == nil || !s.any:
			result.Receipts[ref] = ReceiptStatusNew
			news++
		case s.revenue && s.cogs:
			result.Receipts[ref] = ReceiptStatusDuplicate
			duplicates++
		case s.revenue:
			result.Receipts[ref] = ReceiptStatusPartial
			partials++
		default:
			result.Receipts[ref] = ReceiptStatusUnknown
			unknowns++
		}
	}

	total := len(refs)
	switch {
	case total > 0 && duplicates == total:
		result.Status = BatchStatusDuplicate
	case total > 0 && partials == total:
		result.Status = BatchStatusPartial
	case news == total:
		result.Status = BatchStatusNew
	default:
		result.Status = BatchStatusMixed
	}
	return result
}
