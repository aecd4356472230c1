// Package waterfall computes the pre-commit "flash P&L": per-row revenue,
// tax, fee and COGS figures plus the aggregate waterfall shown to the
// operator before anything is posted. Everything here is pure; the ANALYZE
// action runs it with zero database writes.
package waterfall

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flashledger/flashledger/internal/salesimport/costing"
	"github.com/flashledger/flashledger/internal/salesimport/parser"
)

// Payment methods recognised on import rows.
const (
	MethodCash    = "cash"
	MethodVisa    = "visa"
	MethodTalabat = "talabat"
	MethodCareem  = "careem"
)

// FeeSchedule holds per-method transaction fee rates, resolved once per batch
// and passed in as a value. The calculator never reads mutable shared state.
type FeeSchedule struct {
	rates map[string]decimal.Decimal
}

// DefaultFeeRates are the hard-coded fallbacks used when the settings table
// carries no rate for a method.
func DefaultFeeRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		MethodCash:    decimal.Zero,
		MethodVisa:    decimal.RequireFromString("0.025"),
		MethodTalabat: decimal.RequireFromString("0.20"),
		MethodCareem:  decimal.RequireFromString("0.25"),
	}
}

// NewFeeSchedule builds a schedule from explicit rates, filling gaps from the
// defaults.
func NewFeeSchedule(rates map[string]decimal.Decimal) FeeSchedule {
	merged := DefaultFeeRates()
	for method, rate := range rates {
		merged[method] = rate
	}
	return FeeSchedule{rates: merged}
}

// Rate returns the fee rate for a method, zero when unknown.
func (f FeeSchedule) Rate(method string) decimal.Decimal {
	if f.rates == nil {
		return decimal.Zero
	}
	return f.rates[method]
}

// Row is one canonical sales row after header normalization and item parsing.
type Row struct {
	Reference string
	SoldAt    time.Time
	Items     []parser.Item
	Total     decimal.Decimal
	HasTotal  bool
	Gross     decimal.Decimal
	Tax       decimal.Decimal
	Tips      decimal.Decimal
	Payments  map[string]decimal.Decimal
}

// RowResult carries the resolved money figures for one receipt.
type RowResult struct {
	Reference  string
	SoldAt     time.Time
	Items      []parser.Item
	Total      decimal.Decimal
	NetRevenue decimal.Decimal
	Tax        decimal.Decimal
	Tips       decimal.Decimal
	Fees       decimal.Decimal
	COGS       decimal.Decimal
}

// WaterfallRow is one labeled line of the flash report, display-ready.
type WaterfallRow struct {
	Metric   string          `json:"metric"`
	Amount   decimal.Decimal `json:"amount"`
	Logic    string          `json:"logic"`
	Negative bool            `json:"isNegative"`
	Subtotal bool            `json:"isSubtotal"`
}

// Result aggregates a whole batch.
type Result struct {
	Rows []RowResult

	TotalCollected     decimal.Decimal
	TotalNetRevenue    decimal.Decimal
	TotalTaxLiability  decimal.Decimal
	TotalTips          decimal.Decimal
	TotalFees          decimal.Decimal
	TotalCOGS          decimal.Decimal
	NetOperatingProfit decimal.Decimal

	UnmappedCount    int
	ZeroCostCount    int
	ZeroCostCulprits []string
}

const culpritSampleLimit = 10

// Calculate runs the waterfall over canonical rows using the batch cost index
// and fee schedule. Data-quality counters accumulate in the same pass.
func Calculate(rows []Row, costs costing.Index, fees FeeSchedule) Result {
	var res Result
	sampled := make(map[string]bool)

	for _, row := range rows {
		total := row.Total
		if !row.HasTotal {
			total = row.Gross.Add(row.Tax)
		}
		out := RowResult{
			Reference:  row.Reference,
			SoldAt:     row.SoldAt,
			Items:      row.Items,
			Total:      total,
			NetRevenue: total.Sub(row.Tax),
			Tax:        row.Tax,
			Tips:       row.Tips,
		}

		for method, amount := range row.Payments {
			out.Fees = out.Fees.Add(amount.Mul(fees.Rate(method)))
		}

		for _, item := range row.Items {
			out.COGS = out.COGS.Add(res.itemCost(item.Name, item.Qty, costs, sampled))
			for _, mod := range item.Modifiers {
				out.COGS = out.COGS.Add(res.itemCost(mod.Name, item.Qty*mod.Qty, costs, sampled))
			}
		}
		out.Fees = out.Fees.Round(2)
		out.COGS = out.COGS.Round(2)

		res.Rows = append(res.Rows, out)
		res.TotalCollected = res.TotalCollected.Add(out.Total)
		res.TotalNetRevenue = res.TotalNetRevenue.Add(out.NetRevenue)
		res.TotalTaxLiability = res.TotalTaxLiability.Add(out.Tax)
		res.TotalTips = res.TotalTips.Add(out.Tips)
		res.TotalFees = res.TotalFees.Add(out.Fees)
		res.TotalCOGS = res.TotalCOGS.Add(out.COGS)
	}

	res.NetOperatingProfit = res.TotalNetRevenue.Sub(res.TotalFees).Sub(res.TotalCOGS)
	return res
}

// itemCost resolves one parsed instance, accumulating diagnostics. qty is the
// quantity-expanded sale count for the instance.
func (r *Result) itemCost(name string, qty int, costs costing.Index, sampled map[string]bool) decimal.Decimal {
	unit, status := costs.UnitCost(name)
	switch status {
	case costing.StatusUnmapped:
		r.UnmappedCount += qty
	case costing.StatusZeroCost:
		r.ZeroCostCount += qty
	default:
		return unit.Mul(decimal.NewFromInt(int64(qty)))
	}
	if !sampled[name] && len(r.ZeroCostCulprits) < culpritSampleLimit {
		sampled[name] = true
		r.ZeroCostCulprits = append(r.ZeroCostCulprits, name)
	}
	return decimal.Zero
}

// FlashReport renders the aggregate waterfall as ordered display rows.
func (r Result) FlashReport() []WaterfallRow {
	return []WaterfallRow{
		{Metric: "Total Collected", Amount: r.TotalCollected.Round(2), Logic: "sum of receipt totals (gross + tax reconstructed when absent)"},
		{Metric: "Tax Liability", Amount: r.TotalTaxLiability.Round(2), Logic: "sum of per-receipt tax, owed to the tax authority", Negative: true},
		{Metric: "Net Revenue", Amount: r.TotalNetRevenue.Round(2), Logic: "total collected minus tax", Subtotal: true},
		{Metric: "Tips", Amount: r.TotalTips.Round(2), Logic: "pass-through to tips payable, excluded from operating profit"},
		{Metric: "Transaction Fees", Amount: r.TotalFees.Round(2), Logic: fmt.Sprintf("per-method fee rates over %d receipts", len(r.Rows)), Negative: true},
		{Metric: "Cost of Goods Sold", Amount: r.TotalCOGS.Round(2), Logic: "recipe/product unit costs times quantities sold", Negative: true},
		{Metric: "Net Operating Profit", Amount: r.NetOperatingProfit.Round(2), Logic: "net revenue minus fees minus COGS", Subtotal: true},
	}
}
