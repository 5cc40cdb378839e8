package warehouses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocklane/stocklane/internal/platform/httpx"
)

type Repository interface {
	List(ctx context.Context) ([]Warehouse, error)
	Get(ctx context.Context, id int64) (Warehouse, error)
	Create(ctx context.Context, warehouse Warehouse) (Warehouse, error)
	Update(ctx context.Context, id int64, warehouse Warehouse) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Warehouse, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, address, created_at, updated_at FROM warehouses ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Warehouse
	for rows.Next() {
		var wh Warehouse
		if err := rows.Scan(&wh.ID, &wh.Code, &wh.Name, &wh.Address, &wh.CreatedAt, &wh.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, wh)
	}
	return result, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Warehouse, error) {
	var wh Warehouse
	err := r.db.QueryRow(ctx, `SELECT id, code, name, address, created_at, updated_at FROM warehouses WHERE id = $1`, id).
		Scan(&wh.ID, &wh.Code, &wh.Name, &wh.Address, &wh.CreatedAt, &wh.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Warehouse{}, fmt.Errorf("%w: warehouse %d", httpx.ErrNotFound, id)
		}
		return Warehouse{}, err
	}
	return wh, nil
}

func (r *repository) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO warehouses (code, name, address, created_at, updated_at) VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		warehouse.Code, warehouse.Name, warehouse.Address, now, now).Scan(&warehouse.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Warehouse{}, fmt.Errorf("%w: warehouse code %q already exists", httpx.ErrDuplicate, warehouse.Code)
		}
		return Warehouse{}, err
	}
	warehouse.CreatedAt = now
	warehouse.UpdatedAt = now
	return warehouse, nil
}

func (r *repository) Update(ctx context.Context, id int64, warehouse Warehouse) error {
	tag, err := r.db.Exec(ctx, `UPDATE warehouses SET code=$1, name=$2, address=$3, updated_at=$4 WHERE id=$5`,
		warehouse.Code, warehouse.Name, warehouse.Address, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: warehouse %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: warehouse %d", httpx.ErrNotFound, id)
	}
	return nil
}
