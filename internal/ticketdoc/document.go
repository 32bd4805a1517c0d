// Package ticketdoc maps ticket documents read from HTTP bodies and files onto the
// calculator types, and renders computed results back into transport views.
package ticketdoc

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inesloren/ticket/internal/domain"
	"github.com/inesloren/ticket/internal/services"
)

// Document is a ticket as submitted by a client. A missing or null "lines" field decodes
// to a nil slice, which the calculator rejects as a missing ticket.
type Document struct {
	Lines []LineDocument `json:"lines" yaml:"lines"`
}

// LineDocument is one ticket line. Pointer fields distinguish absent values from zero values.
// Quantities accept JSON numbers or numeric strings and may be fractional.
type LineDocument struct {
	Product  *ProductDocument `json:"product" yaml:"product"`
	Quantity *decimal.Decimal `json:"quantity" yaml:"quantity"`
}

// ProductDocument describes the product on a line. Unit prices accept JSON numbers or numeric strings.
type ProductDocument struct {
	Name        string           `json:"name" yaml:"name"`
	UnitPrice   *decimal.Decimal `json:"unitPrice" yaml:"unitPrice"`
	TaxCategory string           `json:"taxCategory" yaml:"taxCategory"`
}

// PriceDocument asks for the taxed value of a single price.
type PriceDocument struct {
	Price       *decimal.Decimal `json:"price" yaml:"price"`
	TaxCategory string           `json:"taxCategory" yaml:"taxCategory"`
}

// NameFunc rewrites product names before they are priced.
type NameFunc func(string) string

// TicketLines converts the document into calculator input. Incomplete lines are reported with
// the same errors the calculator raises.
func (d Document) TicketLines(normalize NameFunc) ([]domain.TicketLine, error) {
	if d.Lines == nil {
		return nil, nil
	}
	lines := make([]domain.TicketLine, 0, len(d.Lines))
	for i, doc := range d.Lines {
		line, err := doc.ticketLine(normalize)
		if err != nil {
			var te *services.TicketError
			if errors.As(err, &te) {
				te.Detail = lineDetail(i, te.Detail)
			}
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// TicketLine converts a single line document.
func (d LineDocument) TicketLine(normalize NameFunc) (domain.TicketLine, error) {
	return d.ticketLine(normalize)
}

func (d LineDocument) ticketLine(normalize NameFunc) (domain.TicketLine, error) {
	if d.Quantity == nil {
		return domain.TicketLine{}, &services.TicketError{Kind: services.ErrorKindInvalidLineOrTicket, Detail: "quantity is missing"}
	}
	line := domain.TicketLine{Quantity: *d.Quantity}
	if d.Product == nil {
		return line, nil
	}
	if d.Product.UnitPrice == nil {
		return domain.TicketLine{}, &services.TicketError{Kind: services.ErrorKindInvalidPriceOrCategory, Detail: "unit price is missing"}
	}
	name := d.Product.Name
	if normalize != nil {
		name = normalize(name)
	}
	line.Product = &domain.Product{
		Name:        name,
		UnitPrice:   *d.Product.UnitPrice,
		TaxCategory: parseCategory(d.Product.TaxCategory),
	}
	return line, nil
}

// Command converts the document into a price request.
func (d PriceDocument) Command() (services.PriceCommand, error) {
	if d.Price == nil {
		return services.PriceCommand{}, &services.TicketError{Kind: services.ErrorKindInvalidPriceOrCategory, Detail: "price is missing"}
	}
	return services.PriceCommand{Price: *d.Price, TaxCategory: parseCategory(d.TaxCategory)}, nil
}

// Unknown names map to the unspecified category so the calculator rejects them
// with its usual price-or-category error.
func parseCategory(value string) domain.TaxCategory {
	var category domain.TaxCategory
	if err := category.UnmarshalText([]byte(value)); err != nil {
		return domain.TaxCategoryUnspecified
	}
	return category
}

func lineDetail(index int, detail string) string {
	return fmt.Sprintf("line %d: %s", index, detail)
}

// LineView is the rendered form of a priced line.
type LineView struct {
	Name            string             `json:"name" yaml:"name"`
	Quantity        float64            `json:"quantity" yaml:"quantity"`
	TaxCategory     domain.TaxCategory `json:"taxCategory" yaml:"taxCategory"`
	PriceWithoutTax float64            `json:"priceWithoutTax" yaml:"priceWithoutTax"`
	PriceWithTax    float64            `json:"priceWithTax" yaml:"priceWithTax"`
	Tax             float64            `json:"tax" yaml:"tax"`
}

// TotalView is the rendered form of ticket totals.
type TotalView struct {
	TotalWithoutTax float64 `json:"totalWithoutTax" yaml:"totalWithoutTax"`
	TotalWithTax    float64 `json:"totalWithTax" yaml:"totalWithTax"`
	TotalTax        float64 `json:"totalTax" yaml:"totalTax"`
}

// BreakdownView is one entry of the per-category tax breakdown.
type BreakdownView struct {
	TaxCategory domain.TaxCategory `json:"taxCategory" yaml:"taxCategory"`
	Amount      float64            `json:"amount" yaml:"amount"`
}

// TicketView is the rendered form of a final ticket. ID and IssuedAt are set only for receipts.
type TicketView struct {
	ID           string          `json:"id,omitempty" yaml:"id,omitempty"`
	IssuedAt     string          `json:"issuedAt,omitempty" yaml:"issuedAt,omitempty"`
	Lines        []LineView      `json:"lines" yaml:"lines"`
	Total        TotalView       `json:"total" yaml:"total"`
	TaxBreakdown []BreakdownView `json:"taxBreakdown" yaml:"taxBreakdown"`
}

func NewLineView(line domain.LineResult) LineView {
	return LineView{
		Name:            line.Name,
		Quantity:        line.Quantity.InexactFloat64(),
		TaxCategory:     line.TaxCategory,
		PriceWithoutTax: line.PriceWithoutTax.InexactFloat64(),
		PriceWithTax:    line.PriceWithTax.InexactFloat64(),
		Tax:             line.Tax().InexactFloat64(),
	}
}

func NewTotalView(total domain.TicketTotal) TotalView {
	return TotalView{
		TotalWithoutTax: total.TotalWithoutTax.InexactFloat64(),
		TotalWithTax:    total.TotalWithTax.InexactFloat64(),
		TotalTax:        total.TotalTax.InexactFloat64(),
	}
}

func NewBreakdownViews(entries []domain.TaxBreakdownEntry) []BreakdownView {
	views := make([]BreakdownView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, BreakdownView{
			TaxCategory: entry.TaxCategory,
			Amount:      entry.Amount.InexactFloat64(),
		})
	}
	return views
}

func NewTicketView(ticket domain.FinalTicket) TicketView {
	lines := make([]LineView, 0, len(ticket.Lines))
	for _, line := range ticket.Lines {
		lines = append(lines, NewLineView(line))
	}
	return TicketView{
		Lines:        lines,
		Total:        NewTotalView(ticket.Total),
		TaxBreakdown: NewBreakdownViews(ticket.TaxBreakdown),
	}
}

// NewReceiptView renders a receipt, stamping the ticket with its id and UTC issue time.
func NewReceiptView(receipt services.Receipt) TicketView {
	view := NewTicketView(receipt.Ticket)
	view.ID = receipt.ID
	if !receipt.IssuedAt.IsZero() {
		view.IssuedAt = receipt.IssuedAt.UTC().Format(time.RFC3339Nano)
	}
	return view
}
