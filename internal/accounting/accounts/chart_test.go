package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullChart() []Account {
	codes := []struct {
		code string
		typ  AccountType
	}{
		{CodeFoodSales, AccountTypeRevenue},
		{CodeVATPayable, AccountTypeLiability},
		{CodeTipsPayable, AccountTypeLiability},
		{CodeMerchantFees, AccountTypeExpense},
		{CodeCOGS, AccountTypeExpense},
		{CodeInventory, AccountTypeAsset},
		{CodeCashClearing, AccountTypeAsset},
	}
	out := make([]Account, 0, len(codes))
	for i, c := range codes {
		out = append(out, Account{ID: int64(i + 1), Code: c.code, Name: c.code, Type: c.typ, IsActive: true})
	}
	return out
}

func TestResolvePostingChart(t *testing.T) {
	chart, err := ResolvePostingChart(fullChart())
	require.NoError(t, err)
	assert.Equal(t, CodeFoodSales, chart.Revenue.Code)
	assert.Equal(t, CodeCOGS, chart.COGS.Code)
	assert.Equal(t, CodeCashClearing, chart.CashClearing.Code)
}

func TestResolvePostingChartMissingAccounts(t *testing.T) {
	all := fullChart()[:4]
	_, err := ResolvePostingChart(all)
	require.ErrorIs(t, err, ErrChartIncomplete)
	assert.Contains(t, err.Error(), CodeCOGS)
	assert.Contains(t, err.Error(), CodeCashClearing)
}

func TestResolvePostingChartIgnoresInactive(t *testing.T) {
	all := fullChart()
	all[0].IsActive = false
	_, err := ResolvePostingChart(all)
	assert.ErrorIs(t, err, ErrChartIncomplete)
}
