package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocklane/stocklane/internal/platform/httpx"
	"github.com/stocklane/stocklane/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	SetStatus(ctx context.Context, id int64, status Status) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, code, name, category_id, unit, cost_price, attributes, price_levels, status, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.CategoryID != nil {
		argCount++
		where += ` AND category_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.CategoryID)
	}
	if filters.Search != "" {
		argCount++
		where += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		where += ` AND status = $` + strconv.Itoa(argCount)
		if *filters.IsActive {
			args = append(args, string(StatusActive))
		} else {
			args = append(args, string(StatusInactive))
		}
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	attrs, levels, err := marshalJSONFields(product)
	if err != nil {
		return Product{}, err
	}
	now := time.Now()
	err = r.db.QueryRow(ctx, `INSERT INTO products (code, name, category_id, unit, cost_price, attributes, price_levels, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		product.Code, product.Name, nullID(product.CategoryID), product.Unit, product.CostPrice, attrs, levels, string(product.Status), now, now).Scan(&product.ID)
	if err != nil {
		return Product{}, mapUniqueViolation(err, product.Code)
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	attrs, levels, err := marshalJSONFields(product)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE products SET code=$1, name=$2, category_id=$3, unit=$4, cost_price=$5, attributes=$6, price_levels=$7, status=$8, updated_at=$9 WHERE id=$10`,
		product.Code, product.Name, nullID(product.CategoryID), product.Unit, product.CostPrice, attrs, levels, string(product.Status), time.Now(), id)
	if err != nil {
		return mapUniqueViolation(err, product.Code)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET status=$1, updated_at=$2 WHERE id=$3`, string(status), time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p          Product
		categoryID *int64
		attrs      []byte
		levels     []byte
		status     string
	)
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &categoryID, &p.Unit, &p.CostPrice, &attrs, &levels, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	if categoryID != nil {
		p.CategoryID = *categoryID
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
			return Product{}, err
		}
	}
	if len(levels) > 0 {
		if err := json.Unmarshal(levels, &p.PriceLevels); err != nil {
			return Product{}, err
		}
	}
	p.Status = Status(status)
	return p, nil
}

func marshalJSONFields(product Product) ([]byte, []byte, error) {
	attrs, err := json.Marshal(product.Attributes)
	if err != nil {
		return nil, nil, err
	}
	levels, err := json.Marshal(product.PriceLevels)
	if err != nil {
		return nil, nil, err
	}
	return attrs, levels, nil
}

func mapUniqueViolation(err error, code string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: product code %q already exists", httpx.ErrDuplicate, code)
	}
	return err
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + dir
	case "name":
		return "name " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
