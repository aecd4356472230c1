// Package reports builds read-only financial summaries over posted journal
// entries. Nothing here writes to the ledger.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flashledger/flashledger/internal/accounting/accounts"
)

// AccountBalance is one account's summed movement over a period.
type AccountBalance struct {
	Code   string
	Name   string
	Type   accounts.AccountType
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Period is the inclusive date range of a report.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AccountTotal is one display row of the P&L.
type AccountTotal struct {
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// Summary carries the headline figures, consolidated and with HQ entries
// carved out.
type Summary struct {
	Revenue           decimal.Decimal `json:"revenue"`
	Expenses          decimal.Decimal `json:"expenses"`
	NetProfit         decimal.Decimal `json:"netProfit"`
	Margin            decimal.Decimal `json:"margin"`
	OperatingRevenue  decimal.Decimal `json:"operatingRevenue"`
	OperatingExpenses decimal.Decimal `json:"operatingExpenses"`
	OperatingProfit   decimal.Decimal `json:"operatingProfit"`
	OperatingMargin   decimal.Decimal `json:"operatingMargin"`
}

// ProfitAndLoss is the full report payload.
type ProfitAndLoss struct {
	Period          Period         `json:"period"`
	Summary         Summary        `json:"summary"`
	RevenueAccounts []AccountTotal `json:"revenueAccounts"`
	ExpenseAccounts []AccountTotal `json:"expenseAccounts"`
}

// BuildProfitAndLoss folds account balances into the report. operating holds
// the same sums with HQ-branch entries excluded; per-account rows come from
// the consolidated set.
func BuildProfitAndLoss(period Period, consolidated, operating []AccountBalance) ProfitAndLoss {
	pl := ProfitAndLoss{Period: period}

	for _, bal := range consolidated {
		switch bal.Type {
		case accounts.AccountTypeRevenue:
			total := bal.Credit.Sub(bal.Debit)
			pl.RevenueAccounts = append(pl.RevenueAccounts, AccountTotal{Code: bal.Code, Name: bal.Name, Total: total})
			pl.Summary.Revenue = pl.Summary.Revenue.Add(total)
		case accounts.AccountTypeExpense:
			total := bal.Debit.Sub(bal.Credit)
			pl.ExpenseAccounts = append(pl.ExpenseAccounts, AccountTotal{Code: bal.Code, Name: bal.Name, Total: total})
			pl.Summary.Expenses = pl.Summary.Expenses.Add(total)
		}
	}
	for _, bal := range operating {
		switch bal.Type {
		case accounts.AccountTypeRevenue:
			pl.Summary.OperatingRevenue = pl.Summary.OperatingRevenue.Add(bal.Credit.Sub(bal.Debit))
		case accounts.AccountTypeExpense:
			pl.Summary.OperatingExpenses = pl.Summary.OperatingExpenses.Add(bal.Debit.Sub(bal.Credit))
		}
	}

	sort.Slice(pl.RevenueAccounts, func(i, j int) bool { return pl.RevenueAccounts[i].Code < pl.RevenueAccounts[j].Code })
	sort.Slice(pl.ExpenseAccounts, func(i, j int) bool { return pl.ExpenseAccounts[i].Code < pl.ExpenseAccounts[j].Code })

	pl.Summary.NetProfit = pl.Summary.Revenue.Sub(pl.Summary.Expenses)
	pl.Summary.Margin = margin(pl.Summary.NetProfit, pl.Summary.Revenue)
	pl.Summary.OperatingProfit = pl.Summary.OperatingRevenue.Sub(pl.Summary.OperatingExpenses)
	pl.Summary.OperatingMargin = margin(pl.Summary.OperatingProfit, pl.Summary.OperatingRevenue)
	return pl
}

// margin is profit over revenue, zero when revenue is zero.
func margin(profit, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return profit.Div(revenue).Round(4)
}
