package receipts

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Direction enumerates receipt kinds.
type Direction string

const (
	// DirectionIn is a goods-in (stock-in) receipt.
	DirectionIn Direction = "IN"
	// DirectionOut is a goods-out (stock-out) receipt.
	DirectionOut Direction = "OUT"
)

// Status enumerates receipt lifecycle states.
type Status string

const (
	// StatusCompleted marks a persisted, finalized receipt. Lines are
	// immutable from this point on.
	StatusCompleted Status = "COMPLETED"
	// StatusCancelled marks a reversed receipt. Cancelled receipts do not
	// count toward inventory balances.
	StatusCancelled Status = "CANCELLED"
)

// Line is one product movement inside a receipt.
type Line struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Total returns quantity * unit price for the line.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Receipt is a finalized stock-in or stock-out document.
type Receipt struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	WarehouseID int64     `json:"warehouse_id"`
	Direction   Direction `json:"direction"`
	Date        time.Time `json:"date"`
	CreatedBy   string    `json:"created_by"`
	Lines       []Line    `json:"lines"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// GrandTotal sums the line totals.
func (r Receipt) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range r.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// ErrStockExceeded is returned when an OUT line requests more than the
// warehouse balance for that product.
var ErrStockExceeded = errors.New("receipts: requested quantity exceeds available stock")

// ErrReceiptFinalized is returned on attempts to modify a completed receipt.
var ErrReceiptFinalized = errors.New("receipts: receipt already finalized")

// ErrAlreadyCancelled is returned when cancelling a cancelled receipt.
var ErrAlreadyCancelled = errors.New("receipts: receipt already cancelled")
