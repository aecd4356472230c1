package waterfall

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashledger/flashledger/internal/salesimport/costing"
	"github.com/flashledger/flashledger/internal/salesimport/parser"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type costRepo struct {
	mappings []costing.Mapping
}

func (s costRepo) MappingsByNames(context.Context, []string) ([]costing.Mapping, error) {
	return s.mappings, nil
}

func (s costRepo) IngredientsByRecipes(context.Context, []int64) ([]costing.Ingredient, error) {
	return nil, nil
}

// buildIndex assembles a costing.Index through the real resolver so the test
// exercises the same path production uses.
func buildIndex(t *testing.T, costs map[string]string) costing.Index {
	t.Helper()
	var mappings []costing.Mapping
	id := int64(0)
	for name, cost := range costs {
		id++
		pid := id
		mappings = append(mappings, costing.Mapping{
			POSString:   name,
			ProductID:   &pid,
			Quantity:    dec("1"),
			ProductCost: dec(cost),
		})
	}
	index, err := costing.NewResolver(costRepo{mappings: mappings}).ResolveBatch(context.Background(), keys(costs))
	require.NoError(t, err)
	return index
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCalculateRowTotalReconstruction(t *testing.T) {
	rows := []Row{
		{Reference: "R-1", Gross: dec("100.00"), Tax: dec("5.00")}, // no total column
		{Reference: "R-2", Total: dec("52.50"), HasTotal: true, Tax: dec("2.50")},
	}
	res := Calculate(rows, buildIndex(t, nil), NewFeeSchedule(nil))

	require.Len(t, res.Rows, 2)
	for _, row := range res.Rows {
		assert.True(t, row.Total.Equal(row.NetRevenue.Add(row.Tax)),
			"rowTotal must equal netRevenue + tax for %s", row.Reference)
	}
	assert.True(t, res.TotalCollected.Equal(dec("157.50")))
	assert.True(t, res.TotalNetRevenue.Equal(dec("150.00")))
}

func TestCalculateFeesAndOperatingProfit(t *testing.T) {
	index := buildIndex(t, map[string]string{"Burger": "4.00"})
	rows := []Row{{
		Reference: "R-9",
		Total:     dec("105.00"),
		HasTotal:  true,
		Tax:       dec("5.00"),
		Tips:      dec("3.00"),
		Items:     []parser.Item{{Qty: 2, Name: "Burger"}},
		Payments: map[string]decimal.Decimal{
			MethodCash: dec("55.00"),
			MethodVisa: dec("50.00"), // 2.5% default
		},
	}}

	res := Calculate(rows, index, NewFeeSchedule(nil))

	assert.True(t, res.TotalFees.Equal(dec("1.25")), "fees got %s", res.TotalFees)
	assert.True(t, res.TotalCOGS.Equal(dec("8.00")))
	expected := res.TotalNetRevenue.Sub(res.TotalFees).Sub(res.TotalCOGS)
	assert.True(t, res.NetOperatingProfit.Equal(expected))
	assert.True(t, res.NetOperatingProfit.Equal(dec("90.75")))
}

func TestCalculateUnmappedReceipt(t *testing.T) {
	rows := []Row{{
		Reference: "R-2",
		Total:     dec("30.00"),
		HasTotal:  true,
		Items: []parser.Item{
			{Qty: 2, Name: "Mystery Meal", Modifiers: []parser.Modifier{{Qty: 1, Name: "Mystery Sauce"}}},
			{Qty: 1, Name: "Mystery Drink"},
		},
	}}

	res := Calculate(rows, buildIndex(t, nil), NewFeeSchedule(nil))

	assert.True(t, res.Rows[0].COGS.IsZero())
	// 2 meals + 2 quantity-expanded sauces + 1 drink
	assert.Equal(t, 5, res.UnmappedCount)
	assert.Zero(t, res.ZeroCostCount)
	assert.ElementsMatch(t, []string{"Mystery Meal", "Mystery Sauce", "Mystery Drink"}, res.ZeroCostCulprits)
}

func TestFeeScheduleOverrides(t *testing.T) {
	sched := NewFeeSchedule(map[string]decimal.Decimal{MethodTalabat: dec("0.15")})
	assert.True(t, sched.Rate(MethodTalabat).Equal(dec("0.15")))
	assert.True(t, sched.Rate(MethodVisa).Equal(dec("0.025")), "unset methods keep defaults")
	assert.True(t, sched.Rate("unknown").IsZero())
}

func TestFlashReportShape(t *testing.T) {
	res := Calculate(nil, buildIndex(t, nil), NewFeeSchedule(nil))
	flash := res.FlashReport()
	require.Len(t, flash, 7)
	assert.Equal(t, "Total Collected", flash[0].Metric)
	assert.Equal(t, "Net Operating Profit", flash[6].Metric)
	assert.True(t, flash[6].Subtotal)
}
