package receipts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stocklane/stocklane/internal/platform/httpx"
	"github.com/stocklane/stocklane/internal/shared"
)

type memoryRepo struct {
	receipts map[int64]*Receipt
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{receipts: make(map[int64]*Receipt)}
}

type memoryTx struct {
	repo *memoryRepo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Receipt, error) {
	if rec, ok := r.receipts[id]; ok {
		return *rec, nil
	}
	return Receipt{}, httpx.ErrNotFound
}

func (r *memoryRepo) History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, int, error) {
	var entries []HistoryEntry
	for _, rec := range r.receipts {
		if filter.Direction != "" && rec.Direction != filter.Direction {
			continue
		}
		entries = append(entries, HistoryEntry{
			ID:        rec.ID,
			Code:      rec.Code,
			Direction: rec.Direction,
			Status:    rec.Status,
			ItemCount: len(rec.Lines),
		})
	}
	return entries, len(entries), nil
}

func (tx *memoryTx) LockWarehouse(ctx context.Context, warehouseID int64) error {
	return nil
}

func (tx *memoryTx) ProductBalances(ctx context.Context, warehouseID int64, productIDs []int64) (map[int64]int64, error) {
	balances := make(map[int64]int64)
	for _, rec := range tx.repo.receipts {
		if rec.WarehouseID != warehouseID || rec.Status != StatusCompleted {
			continue
		}
		for _, line := range rec.Lines {
			if rec.Direction == DirectionIn {
				balances[line.ProductID] += line.Quantity
			} else {
				balances[line.ProductID] -= line.Quantity
			}
		}
	}
	return balances, nil
}

func (tx *memoryTx) InsertReceipt(ctx context.Context, receipt Receipt) (int64, error) {
	tx.repo.nextID++
	receipt.ID = tx.repo.nextID
	tx.repo.receipts[receipt.ID] = &receipt
	return receipt.ID, nil
}

func (tx *memoryTx) InsertLines(ctx context.Context, receiptID int64, lines []Line) error {
	rec := tx.repo.receipts[receiptID]
	rec.Lines = make([]Line, len(lines))
	copy(rec.Lines, lines)
	return nil
}

func (tx *memoryTx) GetStatusForUpdate(ctx context.Context, receiptID int64) (Status, error) {
	rec, ok := tx.repo.receipts[receiptID]
	if !ok {
		return "", httpx.ErrNotFound
	}
	return rec.Status, nil
}

func (tx *memoryTx) UpdateStatus(ctx context.Context, receiptID int64, status Status) error {
	tx.repo.receipts[receiptID].Status = status
	return nil
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func submitDraft(t *testing.T, svc *Service, direction Direction, productID, qty int64, unitPrice string) (Receipt, error) {
	t.Helper()
	d := NewDraft(direction)
	d.Name = "test receipt"
	d.WarehouseID = 1
	d.AddItems([]ProductRef{{ProductID: productID, ListPrice: price(unitPrice)}})
	require.NoError(t, d.SetQuantity(0, qty))
	return svc.Submit(context.Background(), d)
}

func TestServiceSubmitInThenOut(t *testing.T) {
	repo := newMemoryRepo()
	audit := &memoryAudit{}
	svc := NewService(repo, audit)

	in, err := submitDraft(t, svc, DirectionIn, 42, 10, "9500000")
	require.NoError(t, err)
	require.NotZero(t, in.ID)
	require.Equal(t, StatusCompleted, in.Status)
	require.True(t, in.GrandTotal().Equal(price("95000000")))

	out, err := submitDraft(t, svc, DirectionOut, 42, 4, "9500000")
	require.NoError(t, err)
	require.NotZero(t, out.ID)

	tx := &memoryTx{repo: repo}
	balances, err := tx.ProductBalances(context.Background(), 1, []int64{42})
	require.NoError(t, err)
	require.Equal(t, int64(6), balances[42])

	require.Len(t, audit.logs, 2)
	require.Equal(t, "receipts:IN", audit.logs[0].Action)
}

func TestServiceSubmitOutExceedsStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	_, err := submitDraft(t, svc, DirectionIn, 42, 10, "9500000")
	require.NoError(t, err)

	d := NewDraft(DirectionOut)
	d.Name = "overdraw"
	d.WarehouseID = 1
	d.AddItems([]ProductRef{{ProductID: 42, ListPrice: price("9500000")}})
	require.NoError(t, d.SetQuantity(0, 11))

	_, err = svc.Submit(context.Background(), d)
	require.ErrorIs(t, err, ErrStockExceeded)
	require.Equal(t, DraftInvalid, d.State())
	require.Len(t, d.Lines, 1)

	// Nothing was persisted for the rejected submission.
	require.Len(t, repo.receipts, 1)

	// Fix the quantity and resubmit the same draft.
	require.NoError(t, d.SetQuantity(0, 10))
	rec, err := svc.Submit(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, DraftSubmitted, d.State())
	require.NotZero(t, rec.ID)
}

func TestServiceSubmitOutSplitLinesExceedStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	_, err := submitDraft(t, svc, DirectionIn, 42, 10, "9500000")
	require.NoError(t, err)

	// Two lines for the same product pass individually but overdraw jointly.
	d := NewDraft(DirectionOut)
	d.Name = "split overdraw"
	d.WarehouseID = 1
	d.Lines = []Line{
		{ProductID: 42, Quantity: 6, UnitPrice: price("9500000")},
		{ProductID: 42, Quantity: 6, UnitPrice: price("9500000")},
	}

	_, err = svc.Submit(context.Background(), d)
	require.ErrorIs(t, err, ErrStockExceeded)
	require.Len(t, repo.receipts, 1)

	tx := &memoryTx{repo: repo}
	balances, err := tx.ProductBalances(context.Background(), 1, []int64{42})
	require.NoError(t, err)
	require.Equal(t, int64(10), balances[42])
}

func TestServiceSubmitGeneratesCode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	rec, err := submitDraft(t, svc, DirectionIn, 1, 1, "100")
	require.NoError(t, err)
	require.NotEmpty(t, rec.Code)
	require.Contains(t, rec.Code, "IN-")
}

func TestServiceSubmitRejectsUnknownDirection(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	d := NewDraft(Direction("SIDEWAYS"))
	_, err := svc.Submit(context.Background(), d)
	require.Error(t, err)
}

func TestServiceCancel(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	rec, err := submitDraft(t, svc, DirectionIn, 42, 10, "100")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), rec.ID))
	require.Equal(t, StatusCancelled, repo.receipts[rec.ID].Status)

	err = svc.Cancel(context.Background(), rec.ID)
	require.ErrorIs(t, err, ErrAlreadyCancelled)

	// Cancelled receipts stop counting toward balances.
	tx := &memoryTx{repo: repo}
	balances, err := tx.ProductBalances(context.Background(), 1, []int64{42})
	require.NoError(t, err)
	require.Zero(t, balances[42])
}
