package salesimport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flashledger/flashledger/internal/accounting/accounts"
	"github.com/flashledger/flashledger/internal/accounting/journals"
	"github.com/flashledger/flashledger/internal/masterdata/branches"
	"github.com/flashledger/flashledger/internal/platform/cache"
	"github.com/flashledger/flashledger/internal/salesimport/costing"
	"github.com/flashledger/flashledger/internal/salesimport/waterfall"
	"github.com/flashledger/flashledger/internal/shared"
)

// Service orchestrates the analyze and posting actions for one uploaded
// sales export.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	journals journals.Repository
	accounts accounts.Repository
	branches branches.Repository
	costs    *costing.Resolver
	settings SettingsRepository
	cache    *cache.Cache
	now      func() time.Time
}

func NewService(logger *slog.Logger, repo Repository, journalRepo journals.Repository, accountRepo accounts.Repository, branchRepo branches.Repository, costs *costing.Resolver, settings SettingsRepository, c *cache.Cache) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		journals: journalRepo,
		accounts: accountRepo,
		branches: branchRepo,
		costs:    costs,
		settings: settings,
		cache:    c,
		now:      time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// AnalyzeInput carries one uploaded file as a raw cell grid.
type AnalyzeInput struct {
	FileName string
	Channel  Channel
	BranchID int64
	Records  [][]string
}

// DebugInfo helps operators diagnose header or mapping problems.
type DebugInfo struct {
	SampleHeaders    []string          `json:"sampleHeaders"`
	SampleFirstRow   map[string]string `json:"sampleFirstRow"`
	ZeroCostCulprits []string          `json:"zeroCostCulprits"`
}

// AnalyzeResult is the flash P&L preview plus audit classification. Nothing
// is written.
type AnalyzeResult struct {
	Status        BatchStatus
	FlashReport   []waterfall.WaterfallRow
	ZeroCostCount int
	UnmappedCount int
	ReceiptCount  int
	Debug         DebugInfo
}

// PostInput is AnalyzeInput plus the posting decision.
type PostInput struct {
	AnalyzeInput
	Mode  PostingMode
	Actor shared.Actor
}

// PostResult reports the outcome of one posting run.
type PostResult struct {
	PostedCount int
	Status      ReportStatus
	Message     string
}

// batch is the shared single-pass outcome of parsing, costing and the
// waterfall for one file.
type batch struct {
	headers []string
	result  waterfall.Result
	refs    []string
}

func (s *Service) analyzeBatch(ctx context.Context, in AnalyzeInput) (batch, error) {
	rows, headers, err := MapRows(in.Records, in.Channel, s.now())
	if err != nil {
		return batch{}, err
	}
	if len(rows) == 0 {
		return batch{}, fmt.Errorf("%w: no rows with required columns, headers %v", ErrParse, headers)
	}

	var names []string
	seenNames := make(map[string]bool)
	collect := func(name string) {
		if name != "" && !seenNames[name] {
			seenNames[name] = true
			names = append(names, name)
		}
	}
	var refs []string
	seenRefs := make(map[string]bool)
	for _, row := range rows {
		// One row per receipt. A repeated reference means the export is
		// corrupt; posting it would double-claim the receipt mid-batch.
		if seenRefs[row.Reference] {
			return batch{}, fmt.Errorf("%w: receipt reference %q appears on more than one row", ErrParse, row.Reference)
		}
		seenRefs[row.Reference] = true
		refs = append(refs, row.Reference)
		for _, item := range row.Items {
			collect(item.Name)
			for _, mod := range item.Modifiers {
				collect(mod.Name)
			}
		}
	}

	index, err := s.costs.ResolveBatch(ctx, names)
	if err != nil {
		return batch{}, fmt.Errorf("salesimport: resolve costs: %w", err)
	}
	fees := ResolveFeeSchedule(ctx, s.settings, s.logger)
	result := waterfall.Calculate(rows, index, fees)

	return batch{headers: headers, result: result, refs: refs}, nil
}

func (s *Service) postingChart(ctx context.Context) (accounts.PostingChart, error) {
	all, err := s.accounts.List(ctx)
	if err != nil {
		return accounts.PostingChart{}, fmt.Errorf("salesimport: load chart: %w", err)
	}
	return accounts.ResolvePostingChart(all)
}

// Analyze runs the full waterfall and ledger audit without any writes. Safe
// to repeat with arbitrary concurrency.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (AnalyzeResult, error) {
	b, err := s.analyzeBatch(ctx, in)
	if err != nil {
		return AnalyzeResult{}, err
	}
	chart, err := s.postingChart(ctx)
	if err != nil {
		return AnalyzeResult{}, err
	}
	lines, err := s.journals.FindPostedByReferences(ctx, b.refs)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("salesimport: ledger audit: %w", err)
	}
	audit := ClassifyReferences(b.refs, lines, chart.COGS.ID)

	var sampleFirstRow map[string]string
	if len(in.Records) > 1 {
		sampleFirstRow = make(map[string]string, len(b.headers))
		for i, header := range b.headers {
			if header != "" && i < len(in.Records[1]) {
				sampleFirstRow[header] = in.Records[1][i]
			}
		}
	}

	return AnalyzeResult{
		Status:        audit.Status,
		FlashReport:   b.result.FlashReport(),
		ZeroCostCount: b.result.ZeroCostCount,
		UnmappedCount: b.result.UnmappedCount,
		ReceiptCount:  len(b.refs),
		Debug: DebugInfo{
			SampleHeaders:    b.headers,
			SampleFirstRow:   sampleFirstRow,
			ZeroCostCulprits: b.result.ZeroCostCulprits,
		},
	}, nil
}

// candidate holds the pre-validated journal inputs for one receipt. Built
// and balance-checked before the transaction opens.
type candidate struct {
	row     waterfall.RowResult
	empty   bool
	revenue journals.PostingInput
	cogs    *journals.PostingInput
	logs    []SalesItemLog
}

// Post runs the ledger audit and writes journal entries, the sales report
// header and item logs in one atomic transaction.
func (s *Service) Post(ctx context.Context, in PostInput) (PostResult, error) {
	if !in.Mode.Valid() {
		return PostResult{}, fmt.Errorf("salesimport: unknown posting mode %q", in.Mode)
	}
	if in.BranchID == 0 {
		return PostResult{}, shared.ErrBranchRequired
	}
	if in.Actor.BranchRestricted() && (in.Actor.BranchID == nil || *in.Actor.BranchID != in.BranchID) {
		return PostResult{}, shared.ErrBranchForbidden
	}
	if _, err := s.branches.Get(ctx, in.BranchID); err != nil {
		return PostResult{}, fmt.Errorf("salesimport: branch %d: %w", in.BranchID, err)
	}

	b, err := s.analyzeBatch(ctx, in.AnalyzeInput)
	if err != nil {
		return PostResult{}, err
	}

	// Configuration failures abort before any transaction begins.
	chart, err := s.postingChart(ctx)
	if err != nil {
		return PostResult{}, err
	}

	reportID := uuid.New()
	candidates := make([]candidate, 0, len(b.result.Rows))
	for _, row := range b.result.Rows {
		cand, err := s.buildCandidate(chart, in, reportID, row)
		if err != nil {
			return PostResult{}, err
		}
		candidates = append(candidates, cand)
	}

	var posted int
	var reportStatus ReportStatus
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lines, err := tx.FindPostedByReferences(ctx, b.refs)
		if err != nil {
			return err
		}
		audit := ClassifyReferences(b.refs, lines, chart.COGS.ID)

		report := SalesReport{
			ID:              reportID,
			FileName:        in.FileName,
			BranchID:        in.BranchID,
			Channel:         in.Channel,
			TotalCollected:  b.result.TotalCollected,
			TotalNetRevenue: b.result.TotalNetRevenue,
			TotalTax:        b.result.TotalTaxLiability,
			TotalTips:       b.result.TotalTips,
			TotalFees:       b.result.TotalFees,
			TotalCOGS:       b.result.TotalCOGS,
			ReceiptCount:    len(b.refs),
			Status:          ReportStatusPending,
		}
		if err := tx.InsertSalesReport(ctx, report); err != nil {
			return err
		}

		posted = 0
		for _, cand := range candidates {
			receiptStatus := audit.StatusOf(cand.row.Reference)
			didPost, err := s.postCandidate(ctx, tx, in.Mode, receiptStatus, cand)
			if err != nil {
				return err
			}
			if didPost {
				posted++
			}
		}

		reportStatus = ReportStatusSuccess
		if posted == 0 {
			reportStatus = ReportStatusDuplicateSkipped
		}
		return tx.FinalizeSalesReport(ctx, reportID, reportStatus, posted)
	})
	if err != nil {
		return PostResult{}, err
	}

	if posted > 0 {
		// new ledger entries invalidate cached report reads
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}

	s.logger.Info("sales batch posted",
		slog.String("file", in.FileName),
		slog.String("mode", string(in.Mode)),
		slog.Int("posted", posted),
		slog.String("status", string(reportStatus)))

	message := fmt.Sprintf("posted %d of %d receipts", posted, len(b.refs))
	if posted == 0 {
		message = "nothing to post; all receipts already recorded"
	}
	return PostResult{PostedCount: posted, Status: reportStatus, Message: message}, nil
}

// postCandidate applies the mode's eligibility rules to one receipt and
// stages its writes. DUPLICATE receipts are always skipped.
func (s *Service) postCandidate(ctx context.Context, tx TxRepository, mode PostingMode, status ReceiptStatus, cand candidate) (bool, error) {
	if cand.empty {
		return false, nil
	}
	switch mode {
	case ModePostAll:
		if status != ReceiptStatusNew {
			return false, nil
		}
		if len(cand.revenue.Lines) > 0 {
			if err := s.writeEntry(ctx, tx, cand.revenue, journals.LegRevenue); err != nil {
				return false, err
			}
		}
		if cand.cogs != nil {
			if err := s.writeEntry(ctx, tx, *cand.cogs, journals.LegCOGS); err != nil {
				return false, err
			}
		}
		return true, tx.InsertSalesItemLogs(ctx, cand.logs)

	case ModePostRevenueOnly:
		if status != ReceiptStatusNew || len(cand.revenue.Lines) == 0 {
			return false, nil
		}
		if err := s.writeEntry(ctx, tx, cand.revenue, journals.LegRevenue); err != nil {
			return false, err
		}
		return true, tx.InsertSalesItemLogs(ctx, cand.logs)

	case ModePostMissingCOGS:
		if status != ReceiptStatusPartial || cand.cogs == nil {
			return false, nil
		}
		return true, s.writeEntry(ctx, tx, *cand.cogs, journals.LegCOGS)
	}
	return false, nil
}

func (s *Service) writeEntry(ctx context.Context, tx TxRepository, input journals.PostingInput, leg journals.Leg) error {
	entry, err := tx.InsertJournalEntry(ctx, input)
	if err != nil {
		return err
	}
	if err := tx.InsertJournalLines(ctx, entry.ID, input.Lines); err != nil {
		return err
	}
	return tx.ClaimReceipt(ctx, input.Reference, leg, entry.ID)
}

// buildCandidate constructs and balance-validates both legs for one receipt.
func (s *Service) buildCandidate(chart accounts.PostingChart, in PostInput, reportID uuid.UUID, row waterfall.RowResult) (candidate, error) {
	branchID := in.BranchID
	cand := candidate{row: row}

	net := row.NetRevenue.Round(2)
	tax := row.Tax.Round(2)
	tips := row.Tips.Round(2)
	fees := row.Fees.Round(2)
	clearing := net.Add(tax).Add(tips).Sub(fees)

	var lines []journals.PostingLineInput
	addCredit := func(accountID int64, amount decimal.Decimal) {
		if amount.IsPositive() {
			lines = append(lines, journals.PostingLineInput{AccountID: accountID, Credit: amount})
		}
	}
	addDebit := func(accountID int64, amount decimal.Decimal) {
		if amount.IsPositive() {
			lines = append(lines, journals.PostingLineInput{AccountID: accountID, Debit: amount})
		}
	}
	addCredit(chart.Revenue.ID, net)
	addCredit(chart.VATPayable.ID, tax)
	addCredit(chart.TipsPayable.ID, tips)
	addDebit(chart.MerchantFees.ID, fees)
	if clearing.IsNegative() {
		// fees exceeded the settlement; the clearing account carries the shortfall
		addCredit(chart.CashClearing.ID, clearing.Neg())
	} else {
		addDebit(chart.CashClearing.ID, clearing)
	}

	// a receipt with zero amounts everywhere has nothing to post
	if len(lines) == 0 && !row.COGS.Round(2).IsPositive() {
		cand.empty = true
		return cand, nil
	}

	if len(lines) > 0 {
		cand.revenue = journals.PostingInput{
			Date:        entryDate(row.SoldAt, s.now()),
			Description: fmt.Sprintf("POS sales %s via %s", row.Reference, in.Channel),
			Reference:   row.Reference,
			BranchID:    &branchID,
			Lines:       lines,
		}
		if err := cand.revenue.Validate(); err != nil {
			return candidate{}, fmt.Errorf("salesimport: receipt %s: %w", row.Reference, err)
		}
	}

	if row.COGS.Round(2).IsPositive() {
		cogs := row.COGS.Round(2)
		input := journals.PostingInput{
			Date:        entryDate(row.SoldAt, s.now()),
			Description: fmt.Sprintf("COGS %s via %s", row.Reference, in.Channel),
			Reference:   row.Reference,
			BranchID:    &branchID,
			Lines: []journals.PostingLineInput{
				{AccountID: chart.COGS.ID, Debit: cogs},
				{AccountID: chart.Inventory.ID, Credit: cogs},
			},
		}
		if err := input.Validate(); err != nil {
			return candidate{}, fmt.Errorf("salesimport: receipt %s: %w", row.Reference, err)
		}
		cand.cogs = &input
	}

	for _, item := range row.Items {
		cand.logs = append(cand.logs, SalesItemLog{
			ReportID:  reportID,
			Reference: row.Reference,
			Name:      item.Name,
			Quantity:  item.Qty,
			Channel:   in.Channel,
			SoldAt:    entryDate(row.SoldAt, s.now()),
		})
		for _, mod := range item.Modifiers {
			cand.logs = append(cand.logs, SalesItemLog{
				ReportID:   reportID,
				Reference:  row.Reference,
				Name:       mod.Name,
				Quantity:   item.Qty * mod.Qty,
				IsModifier: true,
				Channel:    in.Channel,
				SoldAt:     entryDate(row.SoldAt, s.now()),
			})
		}
	}
	return cand, nil
}

func entryDate(soldAt, fallback time.Time) time.Time {
	if soldAt.IsZero() {
		return fallback
	}
	return soldAt
}
