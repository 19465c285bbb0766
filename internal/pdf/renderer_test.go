package pdf

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/domain"
)

func sampleDocument() Document {
	issued := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return Document{
		Number:    "INV-2026-0007",
		IssueDate: issued,
		DueDate:   issued.AddDate(0, 0, 30),
		From:      Party{Name: "Acme Studio", Email: "billing@acme.test", Address: "1 Main St\nSpringfield"},
		To:        Party{Name: "Globex", Email: "ap@globex.test"},
		Items: []Item{
			{Description: "Design", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(150), Total: decimal.NewFromInt(300)},
		},
		Subtotal:  decimal.NewFromInt(300),
		TaxRate:   decimal.NewFromInt(10),
		TaxAmount: decimal.NewFromInt(30),
		Total:     decimal.NewFromInt(330),
		Notes:     "Net 30",
	}
}

func render(t *testing.T, doc Document) string {
	t.Helper()
	r := &Renderer{uncompressed: true}
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, doc))
	return buf.String()
}

func TestRender_Layout(t *testing.T) {
	out := render(t, sampleDocument())

	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	for _, want := range []string{
		"(INVOICE)", "(INV-2026-0007)", "(From:)", "(Bill To:)", "(Acme Studio)", "(Springfield)",
		"(Issue Date: 3/1/2026)", "(Due Date: 3/31/2026)",
		"(Description)", "(Qty)", "(Unit Price)", "(Total)",
		"(Design)", "($150.00)", "($300.00)",
		"(Subtotal:)", `(Tax \(10%\):)`, "($30.00)", "(Total:)", "($330.00)",
		"(Notes:)", "(Net 30)", "(" + FooterText + ")",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRender_NoTaxLineWithoutTax(t *testing.T) {
	doc := sampleDocument()
	doc.TaxRate = decimal.Zero
	doc.TaxAmount = decimal.Zero
	doc.Total = doc.Subtotal
	doc.Notes = ""

	out := render(t, doc)
	assert.NotContains(t, out, "(Tax")
	assert.NotContains(t, out, "(Notes:)")
	assert.Contains(t, out, "(Subtotal:)")
}

func TestRender_ManyItemsPaginates(t *testing.T) {
	doc := sampleDocument()
	doc.Items = nil
	for i := 0; i < 60; i++ {
		doc.Items = append(doc.Items, Item{Description: "Line", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1), Total: decimal.NewFromInt(1)})
	}
	out := render(t, doc)
	assert.GreaterOrEqual(t, strings.Count(out, "/Type /Page\n"), 2)
}

func TestRender_Deterministic(t *testing.T) {
	r := New()
	a, err := r.Bytes(sampleDocument())
	require.NoError(t, err)
	b, err := r.Bytes(sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFromInvoice(t *testing.T) {
	inv := &domain.Invoice{
		InvoiceNumber: "INV-2026-0001",
		User:          &domain.User{Name: "Jane", CompanyName: "Jane Co", Email: "jane@test"},
		Client:        &domain.Client{Name: "Bob", Email: "bob@test", Phone: "555"},
		Items: []domain.InvoiceItem{
			{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5), Total: decimal.NewFromInt(5)},
		},
		Total: decimal.NewFromInt(5),
	}
	doc := FromInvoice(inv)
	assert.Equal(t, "Jane Co", doc.From.Name)
	assert.Equal(t, "Bob", doc.To.Name)
	assert.Equal(t, "555", doc.To.Phone)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Work", doc.Items[0].Description)
}

func TestQuantityAndMoney(t *testing.T) {
	assert.Equal(t, "2", Quantity(decimal.RequireFromString("2.0000")))
	assert.Equal(t, "1.5", Quantity(decimal.RequireFromString("1.5000")))
	assert.Equal(t, "$300.00", Money(decimal.RequireFromString("300.0000")))
}
