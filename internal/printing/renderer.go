// Package printing renders finalized receipts as printable HTML documents.
// It is pure formatting: the only arithmetic is the same line/grand total
// math the receipt itself carries.
package printing

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templates embed.FS

// DocumentLine is one item row on the printed receipt.
type DocumentLine struct {
	ProductCode string
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Document holds everything the printable receipt shows.
type Document struct {
	Code             string
	Name             string
	Direction        string
	Date             time.Time
	WarehouseName    string
	WarehouseAddress string
	PreparedBy       string
	Lines            []DocumentLine
	GrandTotal       decimal.Decimal
}

// Renderer formats receipt documents.
type Renderer struct {
	tmpl    *template.Template
	printer *message.Printer
}

// NewRenderer parses the embedded receipt template.
func NewRenderer() (*Renderer, error) {
	printer := message.NewPrinter(language.English)
	tmpl := template.New("receipt.html").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return printer.Sprint(number.Decimal(d.InexactFloat64()))
		},
		"date": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"addOne": func(i int) int {
			return i + 1
		},
	})
	tmpl, err := tmpl.ParseFS(templates, "templates/receipt.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, printer: printer}, nil
}

// Render writes the printable document.
func (r *Renderer) Render(w io.Writer, doc Document) error {
	return r.tmpl.ExecuteTemplate(w, "receipt.html", doc)
}
