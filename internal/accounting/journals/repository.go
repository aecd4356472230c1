package journals

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/flashledger/flashledger/internal/accounting/shared"
)

// Repository reads posted ledger state outside a transaction.
type Repository interface {
	FindPostedByReferences(ctx context.Context, refs []string) ([]PostedReferenceLine, error)
}

// TxRepository exposes the ledger writes bound to one open transaction. The
// transaction owner obtains one via NewTxRepository so every write in a batch
// shares the same handle.
type TxRepository interface {
	InsertJournalEntry(ctx context.Context, in PostingInput) (JournalEntry, error)
	InsertJournalLines(ctx context.Context, entryID int64, lines []PostingLineInput) error
	// ClaimReceipt records that a receipt leg has been posted. The unique
	// constraint on (reference, leg) closes the race where two concurrent
	// imports both observe a receipt as NEW.
	ClaimReceipt(ctx context.Context, reference string, leg Leg, entryID int64) error
	FindPostedByReferences(ctx context.Context, refs []string) ([]PostedReferenceLine, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const findPostedQuery = `SELECT je.reference, je.id, jl.account_id, a.type, jl.debit::text, jl.credit::text
FROM journal_entries je
JOIN journal_lines jl ON jl.entry_id = je.id
JOIN accounts a ON a.id = jl.account_id
WHERE je.reference = ANY($1) AND je.status = 'POSTED'
ORDER BY je.reference, je.id, jl.id`

func (r *repository) FindPostedByReferences(ctx context.Context, refs []string) ([]PostedReferenceLine, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, findPostedQuery, refs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPostedLines(rows)
}

// NewTxRepository binds the ledger write operations to an open transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertJournalEntry(ctx context.Context, in PostingInput) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (date, description, reference, branch_id, status)
VALUES ($1,$2,$3,$4,'POSTED') RETURNING id, created_at`, in.Date, in.Description, in.Reference, in.BranchID)
	entry := JournalEntry{
		Date:        in.Date,
		Description: in.Description,
		Reference:   in.Reference,
		BranchID:    in.BranchID,
		Status:      JournalStatusPosted,
	}
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertJournalLines(ctx context.Context, entryID int64, lines []PostingLineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit)
VALUES ($1,$2,$3,$4)`, entryID, line.AccountID, line.Debit.StringFixed(2), line.Credit.StringFixed(2)); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) ClaimReceipt(ctx context.Context, reference string, leg Leg, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO posted_receipts (reference, leg, entry_id) VALUES ($1,$2,$3)`, reference, leg, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrReceiptAlreadyClaimed
		}
		return err
	}
	return nil
}

func (r *txRepository) FindPostedByReferences(ctx context.Context, refs []string) ([]PostedReferenceLine, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	rows, err := r.tx.Query(ctx, findPostedQuery, refs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPostedLines(rows)
}

func scanPostedLines(rows pgx.Rows) ([]PostedReferenceLine, error) {
	var out []PostedReferenceLine
	for rows.Next() {
		var line PostedReferenceLine
		var debit, credit string
		if err := rows.Scan(&line.Reference, &line.EntryID, &line.AccountID, &line.AccountType, &debit, &credit); err != nil {
			return nil, err
		}
		var err error
		if line.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, err
		}
		if line.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}
