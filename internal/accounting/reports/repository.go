package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository reads summed account movements for a reporting window.
type Repository interface {
	// AccountBalances sums P&L account movement over [start, endExclusive).
	// branchIDs narrows the scope when non-nil; excludeBranchIDs removes
	// branches (HQ carve-out). Entries without a branch are head-office
	// bookings and drop out whenever an exclusion is in effect.
	AccountBalances(ctx context.Context, start, endExclusive time.Time, branchIDs, excludeBranchIDs []int64) ([]AccountBalance, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const balancesQuery = `SELECT a.code, a.name, a.type, COALESCE(SUM(jl.debit),0)::text, COALESCE(SUM(jl.credit),0)::text
FROM journal_lines jl
JOIN journal_entries je ON je.id = jl.entry_id
JOIN accounts a ON a.id = jl.account_id
WHERE je.status = 'POSTED'
  AND je.date >= $1 AND je.date < $2
  AND a.type IN ('REVENUE','EXPENSE')
  AND ($3::bigint[] IS NULL OR je.branch_id = ANY($3))
  AND ($4::bigint[] IS NULL OR (je.branch_id IS NOT NULL AND NOT (je.branch_id = ANY($4))))
GROUP BY a.code, a.name, a.type
ORDER BY a.code`

func (r *repository) AccountBalances(ctx context.Context, start, endExclusive time.Time, branchIDs, excludeBranchIDs []int64) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, balancesQuery, start, endExclusive, branchIDs, excludeBranchIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var bal AccountBalance
		var debit, credit string
		if err := rows.Scan(&bal.Code, &bal.Name, &bal.Type, &debit, &credit); err != nil {
			return nil, err
		}
		if bal.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, err
		}
		if bal.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, err
		}
		out = append(out, bal)
	}
	return out, rows.Err()
}
