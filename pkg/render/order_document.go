package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

// CompanyProfile is the letterhead block printed on every document.
type CompanyProfile struct {
	Name    string
	Address string
	Phone   string
	URL     string
}

// DocumentLine is one printed order row. ReplyDueDate is the
// supplier's confirmed delivery date for the line, when transcribed.
type DocumentLine struct {
	Description  string
	Unit         string
	Quantity     decimal.Decimal
	UnitPrice    *decimal.Decimal
	ReplyDueDate *time.Time
}

// OrderDocument carries everything the template needs. Rendering is
// deterministic for a given input so regenerated documents only differ
// when the order itself changed.
type OrderDocument struct {
	OrderID      string
	SupplierName string
	OrderDate    time.Time
	ReplyDueDate *time.Time
	Company      CompanyProfile
	Lines        []DocumentLine
	Note         string
}

// Renderer produces the purchase order document body.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the built-in template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("order").Funcs(template.FuncMap{
		"date":  formatDate,
		"money": formatMoney,
	}).Parse(orderTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing order template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render produces the HTML document for the given order.
func (r *Renderer) Render(doc OrderDocument) ([]byte, error) {
	if doc.OrderID == "" {
		return nil, fmt.Errorf("order id is required")
	}
	if len(doc.Lines) == 0 {
		return nil, fmt.Errorf("order has no lines to render")
	}

	view := struct {
		OrderDocument
		Total decimal.Decimal
	}{OrderDocument: doc, Total: total(doc.Lines)}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("executing order template: %w", err)
	}
	return buf.Bytes(), nil
}

func total(lines []DocumentLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		if line.UnitPrice == nil {
			continue
		}
		sum = sum.Add(line.UnitPrice.Mul(line.Quantity))
	}
	return sum
}

func formatDate(value any) string {
	switch v := value.(type) {
	case time.Time:
		return v.Format("2006-01-02")
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format("2006-01-02")
	default:
		return ""
	}
}

func formatMoney(price *decimal.Decimal) string {
	if price == nil {
		return "TBD"
	}
	return price.StringFixed(2)
}

const orderTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Purchase Order {{.OrderID}}</title></head>
<body>
<h1>Purchase Order</h1>
<p class="order-meta">
Order: {{.OrderID}}<br>
Date: {{date .OrderDate}}<br>
{{- if .ReplyDueDate}}
Reply due: {{date .ReplyDueDate}}<br>
{{- end}}
Supplier: {{.SupplierName}}
</p>
<p class="company">
{{.Company.Name}}<br>
{{- if .Company.Address}}{{.Company.Address}}<br>{{end}}
{{- if .Company.Phone}}{{.Company.Phone}}<br>{{end}}
{{- if .Company.URL}}{{.Company.URL}}{{end}}
</p>
<table border="1">
<tr><th>Description</th><th>Unit</th><th>Qty</th><th>Unit price</th><th>Reply due</th></tr>
{{- range .Lines}}
<tr><td>{{.Description}}</td><td>{{.Unit}}</td><td>{{.Quantity}}</td><td>{{money .UnitPrice}}</td><td>{{date .ReplyDueDate}}</td></tr>
{{- end}}
</table>
<p>Total (priced lines): {{.Total.StringFixed 2}}</p>
{{- if .Note}}
<p>{{.Note}}</p>
{{- end}}
</body>
</html>
`
