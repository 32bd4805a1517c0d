package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/inesloren/ticket/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	TaxCategory       = domain.TaxCategory
	Product           = domain.Product
	TicketLine        = domain.TicketLine
	LineResult        = domain.LineResult
	TicketTotal       = domain.TicketTotal
	TaxBreakdownEntry = domain.TaxBreakdownEntry
	FinalTicket       = domain.FinalTicket
)

// TicketCalculator exposes the pure ticket pricing operations.
type TicketCalculator interface {
	PriceWithTax(price decimal.Decimal, category TaxCategory) (decimal.Decimal, error)
	ProcessLine(line TicketLine) (LineResult, error)
	ComputeTotal(lines []TicketLine) (TicketTotal, error)
	ComputeTotalsByTaxCategory(lines []TicketLine) ([]TaxBreakdownEntry, error)
	ComputeFinalTicket(lines []TicketLine) (FinalTicket, error)
}

// TicketService is the context-aware entry point used by transport layers.
type TicketService interface {
	Compute(ctx context.Context, cmd ComputeTicketCommand) (Receipt, error)
	Total(ctx context.Context, cmd ComputeTicketCommand) (TicketTotal, error)
	Breakdown(ctx context.Context, cmd ComputeTicketCommand) ([]TaxBreakdownEntry, error)
	Line(ctx context.Context, line TicketLine) (LineResult, error)
	Price(ctx context.Context, cmd PriceCommand) (decimal.Decimal, error)
}

var _ TicketCalculator = VATCalculator{}
