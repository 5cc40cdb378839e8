package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads derived balances from receipt history.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Balance returns the signed receipt sum for one (product, warehouse) pair.
// Missing history scans to zero.
func (r *Repository) Balance(ctx context.Context, productID, warehouseID int64) (int64, error) {
	if r == nil {
		return 0, errors.New("inventory repository not initialised")
	}
	var qty int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN r.direction = 'IN' THEN l.quantity ELSE -l.quantity END), 0)
FROM receipt_lines l
JOIN receipts r ON r.id = l.receipt_id
WHERE r.warehouse_id = $1 AND r.status = 'COMPLETED' AND l.product_id = $2`, warehouseID, productID).Scan(&qty)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// Balances aggregates every product's balance in a warehouse, joined with
// catalog fields for display.
func (r *Repository) Balances(ctx context.Context, warehouseID int64) ([]Balance, error) {
	if r == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT l.product_id, COALESCE(p.code, ''), COALESCE(p.name, ''),
COALESCE(SUM(CASE WHEN r.direction = 'IN' THEN l.quantity ELSE -l.quantity END), 0) AS qty
FROM receipt_lines l
JOIN receipts r ON r.id = l.receipt_id
LEFT JOIN products p ON p.id = l.product_id
WHERE r.warehouse_id = $1 AND r.status = 'COMPLETED'
GROUP BY l.product_id, p.code, p.name
ORDER BY p.name ASC`, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.ProductID, &b.ProductCode, &b.ProductName, &b.Quantity); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// WarehouseIDs lists all warehouse ids, used by the snapshot job.
func (r *Repository) WarehouseIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM warehouses ORDER BY id ASC`)
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

// SaveSnapshot replaces the stored snapshot rows for a warehouse. The delete
// and inserts commit together so readers never observe a partial snapshot.
func (r *Repository) SaveSnapshot(ctx context.Context, warehouseID int64, balances []Balance, takenAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM inventory_snapshots WHERE warehouse_id = $1`, warehouseID); err != nil {
		return err
	}
	for _, b := range balances {
		if _, err := tx.Exec(ctx, `INSERT INTO inventory_snapshots (warehouse_id, product_id, quantity, taken_at)
VALUES ($1,$2,$3,$4)`, warehouseID, b.ProductID, b.Quantity, takenAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
