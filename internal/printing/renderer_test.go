package printing

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRenderReceipt(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = renderer.Render(&buf, Document{
		Code:          "IN-1700000000",
		Name:          "Restock November",
		Direction:     "IN",
		Date:          time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC),
		WarehouseName: "Central",
		PreparedBy:    "Alex",
		Lines: []DocumentLine{
			{
				ProductCode: "SP-001",
				ProductName: "iPhone 13 Pro Max",
				Quantity:    10,
				UnitPrice:   decimal.RequireFromString("9500000"),
				Total:       decimal.RequireFromString("95000000"),
			},
		},
		GrandTotal: decimal.RequireFromString("95000000"),
	})
	require.NoError(t, err)

	html := buf.String()
	require.Contains(t, html, "IN-1700000000")
	require.Contains(t, html, "Restock November")
	require.Contains(t, html, "iPhone 13 Pro Max")
	require.Contains(t, html, "2024-11-05")
	require.Contains(t, html, "9,500,000")
	require.Contains(t, html, "95,000,000")
	require.Contains(t, html, "window.print()")
}

func TestRenderEscapesProductNames(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = renderer.Render(&buf, Document{
		Code: "OUT-1",
		Name: "Ship",
		Date: time.Now(),
		Lines: []DocumentLine{
			{ProductName: "<script>alert(1)</script>", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.NotContains(t, buf.String(), "<script>alert(1)</script>")
}
