package receipts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stocklane/stocklane/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Receipt, error)
	History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, int, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates receipt submission and lifecycle.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Submit validates and persists a draft as a COMPLETED receipt. For OUT
// drafts the balance check runs inside the transaction, after taking a
// per-warehouse advisory lock, so concurrent submissions against the same
// warehouse are serialized. Submission is a single attempt: on failure the
// draft is kept intact for the caller to fix and resubmit.
func (s *Service) Submit(ctx context.Context, draft *Draft) (Receipt, error) {
	if draft == nil {
		return Receipt{}, errors.New("receipts: nil draft")
	}
	if draft.Direction != DirectionIn && draft.Direction != DirectionOut {
		return Receipt{}, fmt.Errorf("receipts: unknown direction %q", draft.Direction)
	}
	if draft.Code == "" {
		draft.Code = fmt.Sprintf("%s-%d", draft.Direction, time.Now().UnixNano())
	}

	var receipt Receipt
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if draft.WarehouseID != 0 {
			if err := tx.LockWarehouse(ctx, draft.WarehouseID); err != nil {
				return err
			}
		}
		var balances map[int64]int64
		if draft.Direction == DirectionOut {
			ids := make([]int64, 0, len(draft.Lines))
			for _, line := range draft.Lines {
				ids = append(ids, line.ProductID)
			}
			var err error
			balances, err = tx.ProductBalances(ctx, draft.WarehouseID, ids)
			if err != nil {
				return err
			}
		}
		if err := draft.Validate(balances); err != nil {
			return err
		}
		if err := draft.BeginSubmit(); err != nil {
			return err
		}
		receipt = draft.ToReceipt()
		id, err := tx.InsertReceipt(ctx, receipt)
		if err != nil {
			return err
		}
		receipt.ID = id
		return tx.InsertLines(ctx, id, receipt.Lines)
	})
	draft.FinishSubmit(err == nil)
	if err != nil {
		return Receipt{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   fmt.Sprintf("receipts:%s", receipt.Direction),
			Entity:   "receipt",
			EntityID: fmt.Sprintf("%d", receipt.ID),
			Meta: map[string]any{
				"code":         receipt.Code,
				"warehouse_id": receipt.WarehouseID,
				"items":        len(receipt.Lines),
				"grand_total":  receipt.GrandTotal().String(),
			},
		})
	}
	return receipt, nil
}

// Get loads a receipt with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Receipt, error) {
	if id <= 0 {
		return Receipt{}, errors.New("receipts: invalid receipt id")
	}
	return s.repo.Get(ctx, id)
}

// History lists receipt headers for a direction.
func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, int, error) {
	return s.repo.History(ctx, filter)
}

// Cancel marks a completed receipt as cancelled. Cancelled receipts stop
// counting toward inventory balances.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("receipts: invalid receipt id")
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		status, err := tx.GetStatusForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if status == StatusCancelled {
			return ErrAlreadyCancelled
		}
		return tx.UpdateStatus(ctx, id, StatusCancelled)
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "receipts:cancel",
			Entity:   "receipt",
			EntityID: fmt.Sprintf("%d", id),
		})
	}
	return nil
}
