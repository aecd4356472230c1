package salesimport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashledger/flashledger/internal/accounting/accounts"
	"github.com/flashledger/flashledger/internal/accounting/journals"
	acctshared "github.com/flashledger/flashledger/internal/accounting/shared"
	"github.com/flashledger/flashledger/internal/masterdata/branches"
	"github.com/flashledger/flashledger/internal/salesimport/costing"
	"github.com/flashledger/flashledger/internal/shared"
)

// memLedger is an in-memory stand-in for the posting repository. Writes are
// applied directly; the tests never exercise mid-transaction failure paths
// that would need rollback.
type memLedger struct {
	accountTypes map[int64]string

	nextEntryID int64
	entries     map[int64]journals.JournalEntry
	lines       map[int64][]journals.PostingLineInput
	claims      map[string]bool
	reports     map[uuid.UUID]*SalesReport
	logs        []SalesItemLog
}

func newMemLedger(chart []accounts.Account) *memLedger {
	types := make(map[int64]string, len(chart))
	for _, acc := range chart {
		types[acc.ID] = string(acc.Type)
	}
	return &memLedger{
		accountTypes: types,
		entries:      map[int64]journals.JournalEntry{},
		lines:        map[int64][]journals.PostingLineInput{},
		claims:       map[string]bool{},
		reports:      map[uuid.UUID]*SalesReport{},
	}
}

func (m *memLedger) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memTx{ledger: m})
}

func (m *memLedger) findPosted(refs []string) []journals.PostedReferenceLine {
	want := make(map[string]bool, len(refs))
	for _, ref := range refs {
		want[ref] = true
	}
	var out []journals.PostedReferenceLine
	for id, entry := range m.entries {
		if !want[entry.Reference] {
			continue
		}
		for _, line := range m.lines[id] {
			out = append(out, journals.PostedReferenceLine{
				Reference:   entry.Reference,
				EntryID:     id,
				AccountID:   line.AccountID,
				AccountType: m.accountTypes[line.AccountID],
				Debit:       line.Debit,
				Credit:      line.Credit,
			})
		}
	}
	return out
}

type memTx struct {
	ledger *memLedger
}

func (t *memTx) FindPostedByReferences(_ context.Context, refs []string) ([]journals.PostedReferenceLine, error) {
	return t.ledger.findPosted(refs), nil
}

func (t *memTx) InsertJournalEntry(_ context.Context, in journals.PostingInput) (journals.JournalEntry, error) {
	t.ledger.nextEntryID++
	entry := journals.JournalEntry{
		ID:          t.ledger.nextEntryID,
		Date:        in.Date,
		Description: in.Description,
		Reference:   in.Reference,
		BranchID:    in.BranchID,
		Status:      journals.JournalStatusPosted,
		CreatedAt:   time.Now(),
	}
	t.ledger.entries[entry.ID] = entry
	return entry, nil
}

func (t *memTx) InsertJournalLines(_ context.Context, entryID int64, lines []journals.PostingLineInput) error {
	t.ledger.lines[entryID] = append(t.ledger.lines[entryID], lines...)
	return nil
}

func (t *memTx) ClaimReceipt(_ context.Context, reference string, leg journals.Leg, _ int64) error {
	key := fmt.Sprintf("%s|%s", reference, leg)
	if t.ledger.claims[key] {
		return acctshared.ErrReceiptAlreadyClaimed
	}
	t.ledger.claims[key] = true
	return nil
}

func (t *memTx) InsertSalesReport(_ context.Context, report SalesReport) error {
	copied := report
	t.ledger.reports[report.ID] = &copied
	return nil
}

func (t *memTx) FinalizeSalesReport(_ context.Context, id uuid.UUID, status ReportStatus, postedCount int) error {
	report, ok := t.ledger.reports[id]
	if !ok {
		return fmt.Errorf("report %s not found", id)
	}
	report.Status = status
	report.PostedCount = postedCount
	return nil
}

func (t *memTx) InsertSalesItemLogs(_ context.Context, logs []SalesItemLog) error {
	t.ledger.logs = append(t.ledger.logs, logs...)
	return nil
}

// journalReader adapts memLedger to the journals pool-level repository used
// by Analyze.
type journalReader struct {
	ledger *memLedger
}

func (r journalReader) FindPostedByReferences(_ context.Context, refs []string) ([]journals.PostedReferenceLine, error) {
	return r.ledger.findPosted(refs), nil
}

// branchDirectory serves the branch lookup posting validates against.
type branchDirectory struct {
	known map[int64]branches.Branch
}

func (d branchDirectory) List(context.Context) ([]branches.Branch, error) {
	var out []branches.Branch
	for _, b := range d.known {
		out = append(out, b)
	}
	return out, nil
}

func (d branchDirectory) Get(_ context.Context, id int64) (branches.Branch, error) {
	b, ok := d.known[id]
	if !ok {
		return branches.Branch{}, shared.ErrNotFound
	}
	return b, nil
}

func (d branchDirectory) HQBranchIDs(context.Context) ([]int64, error) {
	return nil, nil
}

type accountLister struct {
	accounts []accounts.Account
}

func (a accountLister) List(context.Context) ([]accounts.Account, error) {
	return a.accounts, nil
}

type stubCostRepo struct {
	mappings []costing.Mapping
}

func (s stubCostRepo) MappingsByNames(context.Context, []string) ([]costing.Mapping, error) {
	return s.mappings, nil
}

func (s stubCostRepo) IngredientsByRecipes(context.Context, []int64) ([]costing.Ingredient, error) {
	return nil, nil
}

type stubSettings struct{}

func (stubSettings) ByPrefix(context.Context, string) (map[string]string, error) {
	return map[string]string{}, nil
}

func testChart() []accounts.Account {
	mk := func(id int64, code, name string, typ accounts.AccountType) accounts.Account {
		return accounts.Account{ID: id, Code: code, Name: name, Type: typ, IsActive: true}
	}
	return []accounts.Account{
		mk(1, accounts.CodeCashClearing, "Cash Clearing", accounts.AccountTypeAsset),
		mk(2, accounts.CodeInventory, "Inventory", accounts.AccountTypeAsset),
		mk(3, accounts.CodeVATPayable, "VAT Payable", accounts.AccountTypeLiability),
		mk(4, accounts.CodeTipsPayable, "Tips Payable", accounts.AccountTypeLiability),
		mk(5, accounts.CodeFoodSales, "Food Sales", accounts.AccountTypeRevenue),
		mk(6, accounts.CodeCOGS, "Cost of Goods Sold", accounts.AccountTypeExpense),
		mk(7, accounts.CodeMerchantFees, "Merchant Fees", accounts.AccountTypeExpense),
	}
}

func productID(id int64) *int64 { return &id }

func testMappings() []costing.Mapping {
	return []costing.Mapping{
		{POSString: "Burger", ProductID: productID(10), Quantity: decimal.NewFromInt(1), ProductCost: decimal.RequireFromString("3.00")},
		{POSString: "Fries", ProductID: productID(11), Quantity: decimal.NewFromInt(1), ProductCost: decimal.RequireFromString("1.25")},
	}
}

func testRecords() [][]string {
	return [][]string{
		{"Receipt", "Created At", "Total", "Taxes", "Tips", "Cash", "Visa", "Items Breakdown"},
		{"R-1", "2026-08-01 12:00:00", "105.00", "5.00", "2.00", "5.00", "100.00", "2 x Burger"},
		{"R-2", "2026-08-01 13:00:00", "52.50", "2.50", "", "52.50", "", "1 x Fries"},
	}
}

func newTestService(t *testing.T, ledger *memLedger, chart []accounts.Account) *Service {
	t.Helper()
	svc := NewService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		ledger,
		journalReader{ledger: ledger},
		accountLister{accounts: chart},
		branchDirectory{known: map[int64]branches.Branch{
			7: {ID: 7, Code: "BR-07", Name: "Marina", Type: branches.BranchTypeOperating},
		}},
		costing.NewResolver(stubCostRepo{mappings: testMappings()}),
		stubSettings{},
		nil, // cache degrades to no-op without redis
	)
	svc.WithNow(func() time.Time { return time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC) })
	return svc
}

func analyzeInput() AnalyzeInput {
	return AnalyzeInput{
		FileName: "sales.csv",
		Channel:  ChannelTabSense,
		Records:  testRecords(),
	}
}

func postInput(mode PostingMode) PostInput {
	return PostInput{
		AnalyzeInput: analyzeInput(),
		Mode:         mode,
		Actor:        shared.Actor{ID: 1, Role: shared.RoleUnrestricted},
	}
}

func withBranch(in PostInput, branchID int64) PostInput {
	in.BranchID = branchID
	return in
}

func assertEntriesBalance(t *testing.T, ledger *memLedger) {
	t.Helper()
	for id := range ledger.entries {
		var debits, credits decimal.Decimal
		for _, line := range ledger.lines[id] {
			debits = debits.Add(line.Debit)
			credits = credits.Add(line.Credit)
		}
		assert.True(t, debits.Equal(credits), "entry %d unbalanced: %s vs %s", id, debits, credits)
	}
}

func TestAnalyzeFreshBatch(t *testing.T) {
	ledger := newMemLedger(testChart())
	svc := newTestService(t, ledger, testChart())

	result, err := svc.Analyze(context.Background(), analyzeInput())
	require.NoError(t, err)

	assert.Equal(t, BatchStatusNew, result.Status)
	assert.Equal(t, 2, result.ReceiptCount)
	assert.Zero(t, result.UnmappedCount)
	assert.Zero(t, result.ZeroCostCount)
	require.Len(t, result.FlashReport, 7)
	assert.True(t, result.FlashReport[0].Amount.Equal(decimal.RequireFromString("157.50")), "total collected %s", result.FlashReport[0].Amount)
	// nothing written by analyze
	assert.Empty(t, ledger.entries)
	assert.Empty(t, ledger.reports)
}

func TestPostAllThenRepost(t *testing.T) {
	ledger := newMemLedger(testChart())
	svc := newTestService(t, ledger, testChart())

	result, err := svc.Post(context.Background(), withBranch(postInput(ModePostAll), 7))
	require.NoError(t, err)
	assert.Equal(t, 2, result.PostedCount)
	assert.Equal(t, ReportStatusSuccess, result.Status)

	// revenue + COGS legs per receipt
	assert.Len(t, ledger.entries, 4)
	assertEntriesBalance(t, ledger)
	assert.Len(t, ledger.logs, 2)
	require.Len(t, ledger.reports, 1)
	for _, report := range ledger.reports {
		assert.Equal(t, ReportStatusSuccess, report.Status)
		assert.Equal(t, 2, report.PostedCount)
		assert.True(t, report.TotalCollected.Equal(decimal.RequireFromString("157.50")))
	}

	// analyze now classifies the batch as fully posted
	analysis, err := svc.Analyze(context.Background(), analyzeInput())
	require.NoError(t, err)
	assert.Equal(t, BatchStatusDuplicate, analysis.Status)

	// a second identical run writes no ledger entries
	again, err := svc.Post(context.Background(), withBranch(postInput(ModePostAll), 7))
	require.NoError(t, err)
	assert.Zero(t, again.PostedCount)
	assert.Equal(t, ReportStatusDuplicateSkipped, again.Status)
	assert.Len(t, ledger.entries, 4)
	assert.Len(t, ledger.logs, 2)
}

func TestRevenueOnlyThenMissingCOGS(t *testing.T) {
	ledger := newMemLedger(testChart())
	svc := newTestService(t, ledger, testChart())

	first, err := svc.Post(context.Background(), withBranch(postInput(ModePostRevenueOnly), 7))
	require.NoError(t, err)
	assert.Equal(t, 2, first.PostedCount)
	assert.Len(t, ledger.entries, 2)
	assert.Len(t, ledger.logs, 2)

	analysis, err := svc.Analyze(context.Background(), analyzeInput())
	require.NoError(t, err)
	assert.Equal(t, BatchStatusPartial, analysis.Status)

	second, err := svc.Post(context.Background(), withBranch(postInput(ModePostMissingCOGS), 7))
	require.NoError(t, err)
	assert.Equal(t, 2, second.PostedCount)
	assert.Len(t, ledger.entries, 4)
	assertEntriesBalance(t, ledger)
	// the COGS catch-up run must not duplicate item logs
	assert.Len(t, ledger.logs, 2)

	// catch-up COGS matches what POST_ALL would have written up front
	fresh := newMemLedger(testChart())
	freshSvc := newTestService(t, fresh, testChart())
	_, err = freshSvc.Post(context.Background(), withBranch(postInput(ModePostAll), 7))
	require.NoError(t, err)
	assert.True(t, totalDebit(ledger, 6).Equal(totalDebit(fresh, 6)), "COGS differs between split and single-run posting")

	done, err := svc.Analyze(context.Background(), analyzeInput())
	require.NoError(t, err)
	assert.Equal(t, BatchStatusDuplicate, done.Status)
}

func totalDebit(ledger *memLedger, accountID int64) decimal.Decimal {
	var sum decimal.Decimal
	for _, lines := range ledger.lines {
		for _, line := range lines {
			if line.AccountID == accountID {
				sum = sum.Add(line.Debit)
			}
		}
	}
	return sum
}

func TestPostRevenueLineShape(t *testing.T) {
	ledger := newMemLedger(testChart())
	svc := newTestService(t, ledger, testChart())

	_, err := svc.Post(context.Background(), withBranch(postInput(ModePostRevenueOnly), 7))
	require.NoError(t, err)

	var r1Lines []journals.PostingLineInput
	for id, entry := range ledger.entries {
		if entry.Reference == "R-1" {
			r1Lines = ledger.lines[id]
		}
	}
	require.NotEmpty(t, r1Lines)

	byAccount := map[int64]journals.PostingLineInput{}
	for _, line := range r1Lines {
		byAccount[line.AccountID] = line
	}
	assert.True(t, byAccount[5].Credit.Equal(decimal.RequireFromString("100.00")), "net revenue credit")
	assert.True(t, byAccount[3].Credit.Equal(decimal.RequireFromString("5.00")), "tax credit")
	assert.True(t, byAccount[4].Credit.Equal(decimal.RequireFromString("2.00")), "tips credit")
	assert.True(t, byAccount[7].Debit.Equal(decimal.RequireFromString("2.50")), "visa fee debit")
	assert.True(t, byAccount[1].Debit.Equal(decimal.RequireFromString("104.50")), "clearing debit")
}

func TestPostBranchScope(t *testing.T) {
	ledger := newMemLedger(testChart())
	svc := newTestService(t, ledger, testChart())

	_, err := svc.Post(context.Background(), postInput(ModePostAll))
	assert.ErrorIs(t, err, shared.ErrBranchRequired)

	other := int64(9)
	in := withBranch(postInput(ModePostAll), 7)
	in.Actor = shared.Actor{ID: 2, Role: shared.RoleBranchRestricted, BranchID: &other}
	_, err = svc.Post(context.Background(), in)
	assert.ErrorIs(t, err, shared.ErrBranchForbidden)

	assert.Empty(t, ledger.entries)
	assert.Empty(t, ledger.reports)
}

func TestPostUnknownBranch(t *testing.T) {
	ledger := newMemLedger(testChart())
	svc := newTestService(t, ledger, testChart())

	_, err := svc.Post(context.Background(), withBranch(postInput(ModePostAll), 42))
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, ledger.entries)
	assert.Empty(t, ledger.reports)
}

func TestRepeatedReferenceRejectedAsParseError(t *testing.T) {
	ledger := newMemLedger(testChart())
	svc := newTestService(t, ledger, testChart())

	records := testRecords()
	records = append(records, []string{"R-1", "2026-08-01 14:00:00", "10.50", "0.50", "", "10.50", "", "1 x Fries"})
	in := postInput(ModePostAll)
	in.Records = records

	_, err := svc.Post(context.Background(), withBranch(in, 7))
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorContains(t, err, "R-1")
	assert.Empty(t, ledger.entries)
	assert.Empty(t, ledger.reports)

	_, err = svc.Analyze(context.Background(), AnalyzeInput{
		FileName: "sales.csv",
		Channel:  ChannelTabSense,
		Records:  records,
	})
	assert.ErrorIs(t, err, ErrParse)
}

func TestPostChartIncompleteAbortsBeforeWrites(t *testing.T) {
	chart := testChart()[:5] // COGS and fee accounts missing
	ledger := newMemLedger(chart)
	svc := newTestService(t, ledger, chart)

	_, err := svc.Post(context.Background(), withBranch(postInput(ModePostAll), 7))
	assert.ErrorIs(t, err, accounts.ErrChartIncomplete)
	assert.Empty(t, ledger.entries)
	assert.Empty(t, ledger.reports)
}

func TestPostRejectsUnknownMode(t *testing.T) {
	ledger := newMemLedger(testChart())
	svc := newTestService(t, ledger, testChart())

	_, err := svc.Post(context.Background(), withBranch(postInput(PostingMode("POST_EVERYTHING")), 7))
	assert.Error(t, err)
	assert.Empty(t, ledger.entries)
}
