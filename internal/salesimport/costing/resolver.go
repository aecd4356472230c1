// Package costing resolves parsed item and modifier names to unit costs via
// the product-or-recipe mapping table. Lookups happen once per batch.
package costing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Status tags the data-quality outcome of a single name lookup. Unmapped and
// mapped-but-zero-cost are distinct diagnostics; neither blocks posting.
type Status int

const (
	StatusMapped Status = iota
	StatusUnmapped
	StatusZeroCost
)

// Mapping is one resolved row of the mapping table. Exactly one of ProductID
// or RecipeID is set; Quantity multiplies the unit cost per unit sold.
type Mapping struct {
	POSString   string
	ProductID   *int64
	RecipeID    *int64
	Quantity    decimal.Decimal
	ProductCost decimal.Decimal
}

// Ingredient is one recipe component with its product cost.
type Ingredient struct {
	RecipeID int64
	Quantity decimal.Decimal
	Cost     decimal.Decimal
}

// Repository performs the batch lookups backing cost resolution.
type Repository interface {
	MappingsByNames(ctx context.Context, names []string) ([]Mapping, error)
	IngredientsByRecipes(ctx context.Context, recipeIDs []int64) ([]Ingredient, error)
}

// Index answers unit-cost queries for every distinct name in a batch.
type Index struct {
	costs map[string]decimal.Decimal
}

// UnitCost returns the resolved unit cost for a name together with its
// data-quality status. Unknown names cost zero.
func (i Index) UnitCost(name string) (decimal.Decimal, Status) {
	cost, ok := i.costs[name]
	if !ok {
		return decimal.Zero, StatusUnmapped
	}
	if cost.IsZero() {
		return decimal.Zero, StatusZeroCost
	}
	return cost, StatusMapped
}

// Resolver builds cost indexes from the mapping table.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveBatch performs one mapping lookup for all distinct names and one
// ingredient lookup for all referenced recipes.
func (r *Resolver) ResolveBatch(ctx context.Context, names []string) (Index, error) {
	index := Index{costs: make(map[string]decimal.Decimal, len(names))}
	if len(names) == 0 {
		return index, nil
	}

	mappings, err := r.repo.MappingsByNames(ctx, names)
	if err != nil {
		return Index{}, err
	}

	var recipeIDs []int64
	seenRecipes := make(map[int64]bool)
	for _, m := range mappings {
		if m.RecipeID != nil && !seenRecipes[*m.RecipeID] {
			seenRecipes[*m.RecipeID] = true
			recipeIDs = append(recipeIDs, *m.RecipeID)
		}
	}

	recipeCosts := make(map[int64]decimal.Decimal, len(recipeIDs))
	if len(recipeIDs) > 0 {
		ingredients, err := r.repo.IngredientsByRecipes(ctx, recipeIDs)
		if err != nil {
			return Index{}, err
		}
		for _, ing := range ingredients {
			recipeCosts[ing.RecipeID] = recipeCosts[ing.RecipeID].Add(ing.Quantity.Mul(ing.Cost))
		}
	}

	for _, m := range mappings {
		unit := decimal.Zero
		switch {
		case m.RecipeID != nil:
			unit = recipeCosts[*m.RecipeID]
		case m.ProductID != nil:
			unit = m.ProductCost
		}
		index.costs[m.POSString] = unit.Mul(m.Quantity)
	}
	return index, nil
}
