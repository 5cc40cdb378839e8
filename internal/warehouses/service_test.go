package warehouses

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stocklane/stocklane/internal/platform/httpx"
)

type memoryRepo struct {
	warehouses map[int64]Warehouse
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{warehouses: make(map[int64]Warehouse)}
}

func (r *memoryRepo) List(ctx context.Context) ([]Warehouse, error) {
	var result []Warehouse
	for _, w := range r.warehouses {
		result = append(result, w)
	}
	return result, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return Warehouse{}, httpx.ErrNotFound
	}
	return w, nil
}

func (r *memoryRepo) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	for _, existing := range r.warehouses {
		if existing.Code == warehouse.Code {
			return Warehouse{}, httpx.ErrDuplicate
		}
	}
	r.nextID++
	warehouse.ID = r.nextID
	r.warehouses[warehouse.ID] = warehouse
	return warehouse, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, warehouse Warehouse) error {
	if _, ok := r.warehouses[id]; !ok {
		return httpx.ErrNotFound
	}
	warehouse.ID = id
	r.warehouses[id] = warehouse
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.warehouses[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.warehouses, id)
	return nil
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Warehouse{Code: "WH-C"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	created, err := svc.Create(ctx, Warehouse{Code: "WH-C", Name: "Central", Address: "12 Dock Rd"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Warehouse{Code: "WH-C", Name: "Central"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Warehouse{Code: "WH-C", Name: "Other"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, Warehouse{Code: "WH-C", Name: "Central"})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, created.ID, Warehouse{Code: "WH-C", Name: "Central East"}))
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Central East", got.Name)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
