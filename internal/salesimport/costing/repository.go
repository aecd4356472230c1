package costing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) MappingsByNames(ctx context.Context, names []string) ([]Mapping, error) {
	rows, err := r.db.Query(ctx, `SELECT pm.pos_string, pm.product_id, pm.recipe_id, pm.quantity::text, COALESCE(p.cost, 0)::text
FROM product_mappings pm
LEFT JOIN products p ON p.id = pm.product_id
WHERE pm.pos_string = ANY($1)`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Mapping
	for rows.Next() {
		var m Mapping
		var qty, cost string
		if err := rows.Scan(&m.POSString, &m.ProductID, &m.RecipeID, &qty, &cost); err != nil {
			return nil, err
		}
		if m.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		if m.ProductCost, err = decimal.NewFromString(cost); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) IngredientsByRecipes(ctx context.Context, recipeIDs []int64) ([]Ingredient, error) {
	rows, err := r.db.Query(ctx, `SELECT ri.recipe_id, ri.quantity::text, COALESCE(p.cost, 0)::text
FROM recipe_ingredients ri
JOIN products p ON p.id = ri.product_id
WHERE ri.recipe_id = ANY($1)`, recipeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Ingredient
	for rows.Next() {
		var ing Ingredient
		var qty, cost string
		if err := rows.Scan(&ing.RecipeID, &qty, &cost); err != nil {
			return nil, err
		}
		if ing.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		if ing.Cost, err = decimal.NewFromString(cost); err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}
