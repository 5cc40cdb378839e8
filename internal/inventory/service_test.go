package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu         sync.Mutex
	balances   map[int64][]Balance
	warehouses []int64
	snapshots  map[int64][]Snapshot
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		balances:  make(map[int64][]Balance),
		snapshots: make(map[int64][]Snapshot),
	}
}

func (r *memoryRepo) Balance(ctx context.Context, productID, warehouseID int64) (int64, error) {
	for _, b := range r.balances[warehouseID] {
		if b.ProductID == productID {
			return b.Quantity, nil
		}
	}
	return 0, nil
}

func (r *memoryRepo) Balances(ctx context.Context, warehouseID int64) ([]Balance, error) {
	result := make([]Balance, len(r.balances[warehouseID]))
	copy(result, r.balances[warehouseID])
	return result, nil
}

func (r *memoryRepo) WarehouseIDs(ctx context.Context) ([]int64, error) {
	return r.warehouses, nil
}

func (r *memoryRepo) SaveSnapshot(ctx context.Context, warehouseID int64, balances []Balance, takenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Snapshot, 0, len(balances))
	for _, b := range balances {
		entries = append(entries, Snapshot{
			WarehouseID: warehouseID,
			ProductID:   b.ProductID,
			Quantity:    b.Quantity,
			TakenAt:     takenAt,
		})
	}
	r.snapshots[warehouseID] = entries
	return nil
}

func TestGetBalanceDefaultsToZero(t *testing.T) {
	svc := NewService(newMemoryRepo())

	qty, err := svc.GetBalance(context.Background(), 42, 1)
	require.NoError(t, err)
	require.Zero(t, qty)

	_, err = svc.GetBalance(context.Background(), 0, 1)
	require.Error(t, err)
	_, err = svc.GetBalance(context.Background(), 42, 0)
	require.Error(t, err)
}

func TestListBalancesHidesOutOfStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.balances[1] = []Balance{
		{ProductID: 1, ProductCode: "SP-1", Quantity: 6},
		{ProductID: 2, ProductCode: "SP-2", Quantity: 0},
		{ProductID: 3, ProductCode: "SP-3", Quantity: -2},
	}
	svc := NewService(repo)

	balances, err := svc.ListBalances(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	require.Equal(t, int64(1), balances[0].ProductID)
	require.Equal(t, int64(6), balances[0].Quantity)
}

func TestBalanceMap(t *testing.T) {
	repo := newMemoryRepo()
	repo.balances[1] = []Balance{
		{ProductID: 1, Quantity: 6},
		{ProductID: 2, Quantity: 3},
	}
	svc := NewService(repo)

	m, err := svc.BalanceMap(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, map[int64]int64{1: 6, 2: 3}, m)
}

func TestSnapshotAll(t *testing.T) {
	repo := newMemoryRepo()
	repo.warehouses = []int64{1, 2, 3}
	repo.balances[1] = []Balance{{ProductID: 1, Quantity: 5}}
	repo.balances[2] = []Balance{{ProductID: 1, Quantity: 8}, {ProductID: 2, Quantity: 1}}
	svc := NewService(repo)

	require.NoError(t, svc.SnapshotAll(context.Background()))
	require.Len(t, repo.snapshots[1], 1)
	require.Len(t, repo.snapshots[2], 2)
	require.Empty(t, repo.snapshots[3])
}
