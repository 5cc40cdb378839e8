package receipts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stocklane/stocklane/internal/platform/httpx"
)

// Repository persists receipts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	LockWarehouse(ctx context.Context, warehouseID int64) error
	ProductBalances(ctx context.Context, warehouseID int64, productIDs []int64) (map[int64]int64, error)
	InsertReceipt(ctx context.Context, receipt Receipt) (int64, error)
	InsertLines(ctx context.Context, receiptID int64, lines []Line) error
	GetStatusForUpdate(ctx context.Context, receiptID int64) (Status, error)
	UpdateStatus(ctx context.Context, receiptID int64, status Status) error
}

type txRepository struct {
	tx pgx.Tx
}

// HistoryFilter narrows receipt history listings.
type HistoryFilter struct {
	Direction   Direction
	WarehouseID int64
	Page        int
	Limit       int
}

// HistoryEntry is a receipt header row for history listings.
type HistoryEntry struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	WarehouseID int64           `json:"warehouse_id"`
	Warehouse   string          `json:"warehouse"`
	Direction   Direction       `json:"direction"`
	Date        time.Time       `json:"date"`
	CreatedBy   string          `json:"created_by"`
	Status      Status          `json:"status"`
	ItemCount   int             `json:"item_count"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("receipts repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Get loads a receipt with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (Receipt, error) {
	var rec Receipt
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, warehouse_id, direction, receipt_date, created_by, status, created_at
FROM receipts WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Code, &rec.Name, &rec.WarehouseID, &rec.Direction, &rec.Date, &rec.CreatedBy, &rec.Status, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, fmt.Errorf("%w: receipt %d", httpx.ErrNotFound, id)
		}
		return Receipt{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT product_id, quantity, unit_price FROM receipt_lines WHERE receipt_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return Receipt{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.UnitPrice); err != nil {
			return Receipt{}, err
		}
		rec.Lines = append(rec.Lines, line)
	}
	return rec, rows.Err()
}

// History lists receipt headers, newest first.
func (r *Repository) History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.Direction != "" {
		argCount++
		where += ` AND r.direction = $` + strconv.Itoa(argCount)
		args = append(args, string(filter.Direction))
	}
	if filter.WarehouseID != 0 {
		argCount++
		where += ` AND r.warehouse_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.WarehouseID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM receipts r`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	argCount++
	limitArg := strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	offsetArg := strconv.Itoa(argCount)
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, `SELECT r.id, r.code, r.name, r.warehouse_id, COALESCE(w.name, ''), r.direction, r.receipt_date, r.created_by, r.status,
COUNT(l.receipt_id), COALESCE(SUM(l.quantity * l.unit_price), 0)
FROM receipts r
LEFT JOIN warehouses w ON w.id = r.warehouse_id
LEFT JOIN receipt_lines l ON l.receipt_id = r.id`+where+`
GROUP BY r.id, w.name
ORDER BY r.receipt_date DESC, r.id DESC
LIMIT $`+limitArg+` OFFSET $`+offsetArg, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.WarehouseID, &e.Warehouse, &e.Direction, &e.Date, &e.CreatedBy, &e.Status, &e.ItemCount, &e.GrandTotal); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// LockWarehouse serializes receipt submissions per warehouse for the
// duration of the transaction.
func (r *txRepository) LockWarehouse(ctx context.Context, warehouseID int64) error {
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, warehouseID)
	return err
}

// ProductBalances aggregates on-hand quantities for the given products from
// completed receipt history.
func (r *txRepository) ProductBalances(ctx context.Context, warehouseID int64, productIDs []int64) (map[int64]int64, error) {
	rows, err := r.tx.Query(ctx, `SELECT l.product_id,
COALESCE(SUM(CASE WHEN r.direction = 'IN' THEN l.quantity ELSE -l.quantity END), 0)
FROM receipt_lines l
JOIN receipts r ON r.id = l.receipt_id
WHERE r.warehouse_id = $1 AND r.status = 'COMPLETED' AND l.product_id = ANY($2)
GROUP BY l.product_id`, warehouseID, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[int64]int64, len(productIDs))
	for rows.Next() {
		var productID, qty int64
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		balances[productID] = qty
	}
	return balances, rows.Err()
}

func (r *txRepository) InsertReceipt(ctx context.Context, receipt Receipt) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO receipts (code, name, warehouse_id, direction, receipt_date, created_by, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW()) RETURNING id`,
		receipt.Code, receipt.Name, receipt.WarehouseID, string(receipt.Direction), receipt.Date, receipt.CreatedBy, string(receipt.Status)).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: receipt code %q already exists", httpx.ErrDuplicate, receipt.Code)
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) InsertLines(ctx context.Context, receiptID int64, lines []Line) error {
	for i, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO receipt_lines (receipt_id, position, product_id, quantity, unit_price)
VALUES ($1,$2,$3,$4,$5)`, receiptID, i, line.ProductID, line.Quantity, line.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetStatusForUpdate(ctx context.Context, receiptID int64) (Status, error) {
	var status string
	err := r.tx.QueryRow(ctx, `SELECT status FROM receipts WHERE id = $1 FOR UPDATE`, receiptID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: receipt %d", httpx.ErrNotFound, receiptID)
		}
		return "", err
	}
	return Status(status), nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, receiptID int64, status Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE receipts SET status = $1 WHERE id = $2`, string(status), receiptID)
	return err
}
