package domain

import "github.com/shopspring/decimal"

// Product describes an item that can appear on a purchase ticket.
type Product struct {
	Name        string
	UnitPrice   decimal.Decimal
	TaxCategory TaxCategory
}

// TicketLine is one product-and-quantity entry on a receipt. A nil Product marks the line as incomplete.
// Quantity may be fractional for goods sold by weight.
type TicketLine struct {
	Product  *Product
	Quantity decimal.Decimal
}

// LineResult stores the priced outcome of a single ticket line.
type LineResult struct {
	Name            string
	Quantity        decimal.Decimal
	PriceWithoutTax decimal.Decimal
	TaxCategory     TaxCategory
	PriceWithTax    decimal.Decimal
}

// Tax returns the tax collected on the line.
func (r LineResult) Tax() decimal.Decimal {
	return r.PriceWithTax.Sub(r.PriceWithoutTax)
}

// TicketTotal aggregates every line of a ticket. Only TotalTax is rounded.
type TicketTotal struct {
	TotalWithoutTax decimal.Decimal
	TotalWithTax    decimal.Decimal
	TotalTax        decimal.Decimal
}

// TaxBreakdownEntry captures the tax collected for a single category.
type TaxBreakdownEntry struct {
	TaxCategory TaxCategory
	Amount      decimal.Decimal
}

// FinalTicket is the fully computed receipt.
type FinalTicket struct {
	Lines        []LineResult
	Total        TicketTotal
	TaxBreakdown []TaxBreakdownEntry
}
