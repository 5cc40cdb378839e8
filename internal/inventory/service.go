package inventory

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Balance(ctx context.Context, productID, warehouseID int64) (int64, error)
	Balances(ctx context.Context, warehouseID int64) ([]Balance, error)
	WarehouseIDs(ctx context.Context) ([]int64, error)
	SaveSnapshot(ctx context.Context, warehouseID int64, balances []Balance, takenAt time.Time) error
}

// Service projects inventory balances from receipt history. It is a read
// projection recomputed on demand: no caching across requests, no locking
// against concurrent receipt writers. The write-side check lives in the
// receipt submission transaction.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetBalance answers how many units of a product sit in a warehouse right
// now. Products with no receipt history yield 0.
func (s *Service) GetBalance(ctx context.Context, productID, warehouseID int64) (int64, error) {
	if productID <= 0 || warehouseID <= 0 {
		return 0, errors.New("inventory: product and warehouse required")
	}
	return s.repo.Balance(ctx, productID, warehouseID)
}

// ListBalances returns per-product balances for a warehouse, filtered to
// entries with quantity > 0. Zero and negative balances count as out of
// stock and are hidden from pickers.
func (s *Service) ListBalances(ctx context.Context, warehouseID int64) ([]Balance, error) {
	if warehouseID <= 0 {
		return nil, errors.New("inventory: warehouse required")
	}
	all, err := s.repo.Balances(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	inStock := make([]Balance, 0, len(all))
	for _, b := range all {
		if b.Quantity > 0 {
			inStock = append(inStock, b)
		}
	}
	return inStock, nil
}

// BalanceMap returns ListBalances keyed by product id.
func (s *Service) BalanceMap(ctx context.Context, warehouseID int64) (map[int64]int64, error) {
	balances, err := s.ListBalances(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	result := make(map[int64]int64, len(balances))
	for _, b := range balances {
		result[b.ProductID] = b.Quantity
	}
	return result, nil
}

// SnapshotAll recomputes and persists balances for every warehouse. Used by
// the nightly reporting job.
func (s *Service) SnapshotAll(ctx context.Context) error {
	ids, err := s.repo.WarehouseIDs(ctx)
	if err != nil {
		return err
	}
	takenAt := time.Now().UTC()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, warehouseID := range ids {
		g.Go(func() error {
			balances, err := s.repo.Balances(ctx, warehouseID)
			if err != nil {
				return err
			}
			return s.repo.SaveSnapshot(ctx, warehouseID, balances, takenAt)
		})
	}
	return g.Wait()
}
