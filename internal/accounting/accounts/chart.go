package accounts

import (
	"errors"
	"fmt"
)

// Codes of the accounts the posting engine writes against.
const (
	CodeFoodSales    = "4000"
	CodeVATPayable   = "2100"
	CodeTipsPayable  = "2150"
	CodeMerchantFees = "6100"
	CodeCOGS         = "5000"
	CodeInventory    = "1200"
	CodeCashClearing = "1050"
)

// ErrChartIncomplete indicates at least one required posting account is
// missing from the chart. Posting aborts before any transaction begins.
var ErrChartIncomplete = errors.New("accounting: required posting accounts missing")

// PostingChart holds the resolved accounts every sales posting needs.
type PostingChart struct {
	Revenue      Account
	VATPayable   Account
	TipsPayable  Account
	MerchantFees Account
	COGS         Account
	Inventory    Account
	CashClearing Account
}

// ResolvePostingChart picks the required posting accounts out of the chart,
// failing fast when any is absent or inactive.
func ResolvePostingChart(all []Account) (PostingChart, error) {
	byCode := make(map[string]Account, len(all))
	for _, acc := range all {
		if acc.IsActive {
			byCode[acc.Code] = acc
		}
	}

	var chart PostingChart
	var missing []string
	pick := func(code string, dst *Account) {
		acc, ok := byCode[code]
		if !ok {
			missing = append(missing, code)
			return
		}
		*dst = acc
	}
	pick(CodeFoodSales, &chart.Revenue)
	pick(CodeVATPayable, &chart.VATPayable)
	pick(CodeTipsPayable, &chart.TipsPayable)
	pick(CodeMerchantFees, &chart.MerchantFees)
	pick(CodeCOGS, &chart.COGS)
	pick(CodeInventory, &chart.Inventory)
	pick(CodeCashClearing, &chart.CashClearing)

	if len(missing) > 0 {
		return PostingChart{}, fmt.Errorf("%w: %v", ErrChartIncomplete, missing)
	}
	return chart, nil
}
