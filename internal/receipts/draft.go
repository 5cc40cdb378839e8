package receipts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DraftState tracks where a draft sits in its submission lifecycle.
type DraftState string

const (
	DraftEmpty      DraftState = "EMPTY"
	DraftEditing    DraftState = "EDITING"
	DraftValid      DraftState = "VALID"
	DraftInvalid    DraftState = "INVALID"
	DraftSubmitting DraftState = "SUBMITTING"
	DraftSubmitted  DraftState = "SUBMITTED"
	DraftFailed     DraftState = "FAILED"
)

// ProductRef identifies a product picked for a draft, with its listed price.
type ProductRef struct {
	ProductID int64
	ListPrice decimal.Decimal
}

// ValidationError describes a failed draft validation, tied to the field the
// user has to fix.
type ValidationError struct {
	Field   string
	Message string
	err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("receipts: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// Draft accumulates picked products into a receipt before submission. A
// failed submission keeps the draft intact so the user can retry.
type Draft struct {
	Code        string
	Name        string
	WarehouseID int64
	Direction   Direction
	Date        time.Time
	CreatedBy   string
	Lines       []Line

	state DraftState
}

// NewDraft starts an empty draft for the given direction.
func NewDraft(direction Direction) *Draft {
	return &Draft{Direction: direction, state: DraftEmpty}
}

// State returns the draft lifecycle state.
func (d *Draft) State() DraftState {
	return d.state
}

// AddItems appends one line per selected product not already in the draft,
// with quantity 1 and the product's listed price. Products already present
// are left unchanged.
func (d *Draft) AddItems(selection []ProductRef) {
	for _, ref := range selection {
		if d.hasProduct(ref.ProductID) {
			continue
		}
		d.Lines = append(d.Lines, Line{
			ProductID: ref.ProductID,
			Quantity:  1,
			UnitPrice: ref.ListPrice,
		})
	}
	d.markEditing()
}

// SetQuantity overwrites the quantity of a line. No clamping happens here;
// bounds against warehouse balances are checked by Validate.
func (d *Draft) SetQuantity(lineIndex int, value int64) error {
	if lineIndex < 0 || lineIndex >= len(d.Lines) {
		return fmt.Errorf("receipts: line index %d out of range", lineIndex)
	}
	d.Lines[lineIndex].Quantity = value
	d.markEditing()
	return nil
}

// RemoveItem deletes a line from the draft.
func (d *Draft) RemoveItem(lineIndex int) error {
	if lineIndex < 0 || lineIndex >= len(d.Lines) {
		return fmt.Errorf("receipts: line index %d out of range", lineIndex)
	}
	d.Lines = append(d.Lines[:lineIndex], d.Lines[lineIndex+1:]...)
	d.markEditing()
	return nil
}

// LineTotal returns quantity * unit price for a line.
func (d *Draft) LineTotal(lineIndex int) decimal.Decimal {
	if lineIndex < 0 || lineIndex >= len(d.Lines) {
		return decimal.Zero
	}
	return d.Lines[lineIndex].Total()
}

// GrandTotal sums all line totals.
func (d *Draft) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range d.Lines {
		total = total.Add(line.Total())
	}
	return total
}

// Validate checks the draft against required fields and, for OUT drafts,
// against the supplied warehouse balances. It moves the draft to VALID or
// INVALID and returns the first violation found.
func (d *Draft) Validate(balances map[int64]int64) error {
	err := d.check(balances)
	if err != nil {
		d.state = DraftInvalid
		return err
	}
	d.state = DraftValid
	return nil
}

func (d *Draft) check(balances map[int64]int64) error {
	if d.Code == "" {
		return &ValidationError{Field: "code", Message: "receipt code is required"}
	}
	if d.Name == "" {
		return &ValidationError{Field: "name", Message: "receipt name is required"}
	}
	if d.WarehouseID == 0 {
		return &ValidationError{Field: "warehouse_id", Message: "warehouse is required"}
	}
	if len(d.Lines) == 0 {
		return &ValidationError{Field: "items", Message: "receipt has no items"}
	}
	// The stock bound holds per product, so quantities are summed across
	// lines: duplicate lines for one product must not jointly overdraw.
	var requested map[int64]int64
	if d.Direction == DirectionOut {
		requested = make(map[int64]int64, len(d.Lines))
	}
	for i, line := range d.Lines {
		if line.Quantity < 1 {
			return &ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "quantity must be >= 1"}
		}
		if line.UnitPrice.IsNegative() {
			return &ValidationError{Field: fmt.Sprintf("items[%d].unit_price", i), Message: "unit price must be >= 0"}
		}
		if d.Direction == DirectionOut {
			requested[line.ProductID] += line.Quantity
			if requested[line.ProductID] > balances[line.ProductID] {
				return &ValidationError{
					Field:   fmt.Sprintf("items[%d].quantity", i),
					Message: fmt.Sprintf("quantity %d exceeds available stock %d", requested[line.ProductID], balances[line.ProductID]),
					err:     ErrStockExceeded,
				}
			}
		}
	}
	return nil
}

// BeginSubmit moves a validated draft into SUBMITTING.
func (d *Draft) BeginSubmit() error {
	if d.state != DraftValid {
		return fmt.Errorf("receipts: cannot submit draft in state %s", d.state)
	}
	d.state = DraftSubmitting
	return nil
}

// FinishSubmit records the submission outcome of a SUBMITTING draft. Failed
// drafts keep their lines so the user can edit and resubmit. Drafts rejected
// before BeginSubmit stay INVALID and are untouched here.
func (d *Draft) FinishSubmit(succeeded bool) {
	if d.state != DraftSubmitting {
		return
	}
	if succeeded {
		d.state = DraftSubmitted
		return
	}
	d.state = DraftFailed
}

// Edit returns a failed draft to EDITING.
func (d *Draft) Edit() {
	if d.state == DraftFailed {
		d.state = DraftEditing
	}
}

// ToReceipt converts the draft into a receipt document ready to persist.
func (d *Draft) ToReceipt() Receipt {
	lines := make([]Line, len(d.Lines))
	copy(lines, d.Lines)
	date := d.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return Receipt{
		Code:        d.Code,
		Name:        d.Name,
		WarehouseID: d.WarehouseID,
		Direction:   d.Direction,
		Date:        date,
		CreatedBy:   d.CreatedBy,
		Lines:       lines,
		Status:      StatusCompleted,
	}
}

func (d *Draft) hasProduct(productID int64) bool {
	for _, line := range d.Lines {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}

func (d *Draft) markEditing() {
	switch d.state {
	case DraftSubmitting, DraftSubmitted:
		// Submission states are left alone; the service owns those moves.
	default:
		if len(d.Lines) == 0 && d.state == DraftEmpty {
			return
		}
		d.state = DraftEditing
	}
}
