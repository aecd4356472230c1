package branches

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flashledger/flashledger/internal/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Branch, error)
	Get(ctx context.Context, id int64) (Branch, error)
	// HQBranchIDs returns the ids of head-office branches, used to carve the
	// operating subset out of consolidated P&L figures.
	HQBranchIDs(ctx context.Context) ([]int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Branch, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, type, created_at, updated_at FROM branches ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.Type, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Branch, error) {
	var b Branch
	err := r.db.QueryRow(ctx, `SELECT id, code, name, type, created_at, updated_at FROM branches WHERE id=$1`, id).
		Scan(&b.ID, &b.Code, &b.Name, &b.Type, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Branch{}, shared.ErrNotFound
		}
		return Branch{}, err
	}
	return b, nil
}

func (r *repository) HQBranchIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM branches WHERE type='HQ'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
