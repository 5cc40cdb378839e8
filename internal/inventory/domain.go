package inventory

import "time"

// Balance is the derived on-hand quantity for a product in a warehouse. It
// is recomputed from completed receipt history, never stored as primary
// data.
type Balance struct {
	ProductID   int64  `json:"product_id"`
	ProductCode string `json:"product_code"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
}

// Snapshot is a persisted point-in-time copy of a warehouse's balances,
// written by the nightly reporting job.
type Snapshot struct {
	WarehouseID int64     `json:"warehouse_id"`
	ProductID   int64     `json:"product_id"`
	Quantity    int64     `json:"quantity"`
	TakenAt     time.Time `json:"taken_at"`
}
