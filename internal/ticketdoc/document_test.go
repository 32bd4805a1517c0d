package ticketdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inesloren/ticket/internal/domain"
	"github.com/inesloren/ticket/internal/services"
)

const groceryYAML = `
lines:
  - product:
      name: Legumbres
      unitPrice: 1
      taxCategory: reduced
    quantity: 4
  - product:
      name: "  Carne  "
      unitPrice: "35.50"
      taxCategory: general
    quantity: 2
`

func TestDecodeYAMLDocument(t *testing.T) {
	var doc Document
	require.NoError(t, Decode(strings.NewReader(groceryYAML), FormatYAML, &doc))

	lines, err := doc.TicketLines(strings.TrimSpace)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "Legumbres", lines[0].Product.Name)
	assert.True(t, lines[0].Product.UnitPrice.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, domain.TaxCategoryReduced, lines[0].Product.TaxCategory)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(4)))

	assert.Equal(t, "Carne", lines[1].Product.Name)
	assert.True(t, lines[1].Product.UnitPrice.Equal(decimal.RequireFromString("35.5")))
	assert.Equal(t, domain.TaxCategoryGeneral, lines[1].Product.TaxCategory)
}

func TestDocumentFractionalQuantity(t *testing.T) {
	var doc Document
	body := `{"lines":[{"product":{"name":"Queso","unitPrice":10,"taxCategory":"reduced"},"quantity":1.5}]}`
	require.NoError(t, Decode(strings.NewReader(body), FormatJSON, &doc))

	lines, err := doc.TicketLines(nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Quantity.Equal(decimal.RequireFromString("1.5")))

	ticket, err := services.ComputeFinalTicket(lines)
	require.NoError(t, err)
	view := NewTicketView(ticket)
	assert.Equal(t, 1.5, view.Lines[0].Quantity)
	assert.Equal(t, 16.5, view.Lines[0].PriceWithTax)
	assert.Equal(t, domain.TaxCategoryReduced, view.Lines[0].TaxCategory)

	var yamlDoc Document
	require.NoError(t, Decode(strings.NewReader("lines:\n  - product: {name: Queso, unitPrice: 10, taxCategory: reduced}\n    quantity: 0.75\n"), FormatYAML, &yamlDoc))
	yamlLines, err := yamlDoc.TicketLines(nil)
	require.NoError(t, err)
	assert.True(t, yamlLines[0].Quantity.Equal(decimal.RequireFromString("0.75")))
}

func TestDocumentDistinguishesMissingFromEmpty(t *testing.T) {
	var missing Document
	require.NoError(t, Decode(strings.NewReader(`{}`), FormatJSON, &missing))
	lines, err := missing.TicketLines(nil)
	require.NoError(t, err)
	assert.Nil(t, lines)

	var null Document
	require.NoError(t, Decode(strings.NewReader(`{"lines": null}`), FormatJSON, &null))
	assert.Nil(t, null.Lines)

	var empty Document
	require.NoError(t, Decode(strings.NewReader(`{"lines": []}`), FormatJSON, &empty))
	lines, err = empty.TicketLines(nil)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestDocumentIncompleteLines(t *testing.T) {
	cases := []struct {
		name string
		body string
		kind services.ErrorKind
	}{
		{name: "missing quantity", body: `{"lines":[{"product":{"name":"Pan","unitPrice":1,"taxCategory":"general"}}]}`, kind: services.ErrorKindInvalidLineOrTicket},
		{name: "missing price", body: `{"lines":[{"product":{"name":"Pan","taxCategory":"general"},"quantity":1}]}`, kind: services.ErrorKindInvalidPriceOrCategory},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var doc Document
			require.NoError(t, Decode(strings.NewReader(tc.body), FormatJSON, &doc))
			_, err := doc.TicketLines(nil)
			require.Error(t, err)
			assert.Equal(t, tc.kind, services.KindOf(err))

			var te *services.TicketError
			require.True(t, errors.As(err, &te))
			assert.True(t, strings.HasPrefix(te.Detail, "line 0: "))
		})
	}
}

func TestDocumentMissingProductIsLeftForCalculator(t *testing.T) {
	var doc Document
	require.NoError(t, Decode(strings.NewReader(`{"lines":[{"quantity":3}]}`), FormatJSON, &doc))

	lines, err := doc.TicketLines(nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Nil(t, lines[0].Product)

	_, err = services.ComputeFinalTicket(lines)
	assert.ErrorIs(t, err, services.ErrInvalidLineOrTicket)
}

func TestUnknownCategoryBecomesUnspecified(t *testing.T) {
	doc := PriceDocument{Price: decimalPtr("100"), TaxCategory: "luxury"}
	cmd, err := doc.Command()
	require.NoError(t, err)
	assert.Equal(t, domain.TaxCategoryUnspecified, cmd.TaxCategory)

	_, err = services.PriceWithTax(cmd.Price, cmd.TaxCategory)
	assert.ErrorIs(t, err, services.ErrInvalidPriceOrCategory)

	_, err = PriceDocument{TaxCategory: "general"}.Command()
	assert.ErrorIs(t, err, services.ErrInvalidPriceOrCategory)
}

func TestReceiptViewEncodesNumbers(t *testing.T) {
	price := decimal.RequireFromString("100")
	ticket, err := services.ComputeFinalTicket([]domain.TicketLine{
		{Product: &domain.Product{Name: "Carne", UnitPrice: price, TaxCategory: domain.TaxCategoryGeneral}, Quantity: decimal.NewFromInt(1)},
	})
	require.NoError(t, err)

	view := NewReceiptView(services.Receipt{
		ID:       "tkt_01",
		IssuedAt: time.Date(2024, 3, 9, 17, 30, 0, 0, time.UTC),
		Ticket:   ticket,
	})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatJSON, view))

	var body map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	assert.Equal(t, "tkt_01", body["id"])
	assert.Equal(t, "2024-03-09T17:30:00Z", body["issuedAt"])

	total := body["total"].(map[string]any)
	assert.Equal(t, 100.0, total["totalWithoutTax"])
	assert.Equal(t, 121.0, total["totalWithTax"])
	assert.Equal(t, 21.0, total["totalTax"])

	breakdown := body["taxBreakdown"].([]any)
	require.Len(t, breakdown, domain.NumTaxCategories)
	assert.Equal(t, "general", breakdown[0].(map[string]any)["taxCategory"])
	assert.Equal(t, 21.0, breakdown[0].(map[string]any)["amount"])
}

func TestBreakdownViewEncodesCategoryNames(t *testing.T) {
	views := NewBreakdownViews([]domain.TaxBreakdownEntry{
		{TaxCategory: domain.TaxCategorySuperReducedA, Amount: decimal.RequireFromString("0.25")},
	})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatYAML, views))
	assert.Equal(t, "- taxCategory: superReducedA\n  amount: 0.25\n", buf.String())

	_, err := json.Marshal(BreakdownView{TaxCategory: domain.TaxCategoryUnspecified})
	assert.Error(t, err)
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatYAML, NewTotalView(domain.TicketTotal{
		TotalWithoutTax: decimal.RequireFromString("75"),
		TotalWithTax:    decimal.RequireFromString("88.69"),
		TotalTax:        decimal.RequireFromString("13.69"),
	})))
	assert.Equal(t, "totalWithoutTax: 75\ntotalWithTax: 88.69\ntotalTax: 13.69\n", buf.String())
}

func TestFormats(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("ticket.YML"))
	assert.Equal(t, FormatYAML, FormatForPath("ticket.yaml"))
	assert.Equal(t, FormatJSON, FormatForPath("-"))
	assert.Equal(t, FormatJSON, FormatForPath("ticket.json"))

	f, err := ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)

	assert.ErrorIs(t, Decode(strings.NewReader("  "), FormatJSON, &Document{}), errEmptyDocument)
}

func decimalPtr(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}
