package render

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testDoc() OrderDocument {
	price := decimal.RequireFromString("12.50")
	due := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	return OrderDocument{
		OrderID:      "7f6a1f2c",
		SupplierName: "Acme Supply",
		OrderDate:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		ReplyDueDate: &due,
		Company:      CompanyProfile{Name: "ProcureFlow GmbH"},
		Lines: []DocumentLine{
			{Description: "Widget", Unit: "ea", Quantity: decimal.NewFromInt(4), UnitPrice: &price},
			{Description: "Off-catalog gasket", Unit: "box", Quantity: decimal.NewFromInt(2)},
		},
	}
}

func TestRenderIncludesLinesAndTotal(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(testDoc())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{"Acme Supply", "Widget", "Off-catalog gasket", "12.50", "TBD", "50.00", "Reply due: 2026-07-10"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered document missing %q:\n%s", want, html)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	first, err := r.Render(testDoc())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := r.Render(testDoc())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestRenderRejectsEmptyOrders(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	doc := testDoc()
	doc.Lines = nil
	if _, err := r.Render(doc); err == nil {
		t.Fatal("expected error for order without lines")
	}
}
