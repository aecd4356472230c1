package salesimport

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flashledger/flashledger/internal/accounting/journals"
	"github.com/flashledger/flashledger/internal/platform/db"
)

// Repository opens the posting transaction. The audit read and every write
// for one batch happen on the same transaction handle.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository is the posting transaction surface: the ledger writes come
// from the journals package bound to this transaction, plus the import audit
// trail (sales report and item logs).
type TxRepository interface {
	journals.TxRepository
	InsertSalesReport(ctx context.Context, report SalesReport) error
	FinalizeSalesReport(ctx context.Context, id uuid.UUID, status ReportStatus, postedCount int) error
	InsertSalesItemLogs(ctx context.Context, logs []SalesItemLog) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{TxRepository: journals.NewTxRepository(tx), tx: tx})
	})
}

type txRepository struct {
	journals.TxRepository
	tx pgx.Tx
}

func (r *txRepository) InsertSalesReport(ctx context.Context, report SalesReport) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO sales_reports
(id, file_name, branch_id, channel, total_collected, total_net_revenue, total_tax, total_tips, total_fees, total_cogs, receipt_count, posted_count, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		report.ID, report.FileName, report.BranchID, report.Channel,
		report.TotalCollected.StringFixed(2), report.TotalNetRevenue.StringFixed(2),
		report.TotalTax.StringFixed(2), report.TotalTips.StringFixed(2),
		report.TotalFees.StringFixed(2), report.TotalCOGS.StringFixed(2),
		report.ReceiptCount, report.PostedCount, report.Status)
	return err
}

func (r *txRepository) FinalizeSalesReport(ctx context.Context, id uuid.UUID, status ReportStatus, postedCount int) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE sales_reports SET status=$2, posted_count=$3 WHERE id=$1`, id, status, postedCount)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("salesimport: sales report vanished mid-transaction")
	}
	return nil
}

func (r *txRepository) InsertSalesItemLogs(ctx context.Context, logs []SalesItemLog) error {
	for _, log := range logs {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sales_item_logs
(report_id, reference, name, quantity, is_modifier, channel, sold_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			log.ReportID, log.Reference, log.Name, log.Quantity, log.IsModifier, log.Channel, log.SoldAt); err != nil {
			return err
		}
	}
	return nil
}

// settingsRepository reads the key/value settings table.
type settingsRepository struct {
	db *pgxpool.Pool
}

func NewSettingsRepository(db *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) ByPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM settings WHERE key LIKE $1`, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		if strings.HasPrefix(key, prefix) {
			out[key] = value
		}
	}
	return out, rows.Err()
}
