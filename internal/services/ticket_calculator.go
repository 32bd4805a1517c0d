package services

import (
	"github.com/shopspring/decimal"

	"github.com/inesloren/ticket/internal/domain"
)

// Amounts reported per category and the aggregated tax are rounded to cents.
const taxRoundingPlaces = 2

var one = decimal.NewFromInt(1)

// VATCalculator implements TicketCalculator using the fixed domain rate table. It holds no state.
type VATCalculator struct{}

// NewVATCalculator returns the default ticket calculator.
func NewVATCalculator() VATCalculator {
	return VATCalculator{}
}

func (VATCalculator) PriceWithTax(price decimal.Decimal, category domain.TaxCategory) (decimal.Decimal, error) {
	return PriceWithTax(price, category)
}

func (VATCalculator) ProcessLine(line domain.TicketLine) (domain.LineResult, error) {
	return ProcessLine(line)
}

func (VATCalculator) ComputeTotal(lines []domain.TicketLine) (domain.TicketTotal, error) {
	return ComputeTotal(lines)
}

func (VATCalculator) ComputeTotalsByTaxCategory(lines []domain.TicketLine) ([]domain.TaxBreakdownEntry, error) {
	return ComputeTotalsByTaxCategory(lines)
}

func (VATCalculator) ComputeFinalTicket(lines []domain.TicketLine) (domain.FinalTicket, error) {
	return ComputeFinalTicket(lines)
}

// PriceWithTax applies the category rate to price. The result is not rounded.
func PriceWithTax(price decimal.Decimal, category domain.TaxCategory) (decimal.Decimal, error) {
	if !category.Valid() {
		return decimal.Zero, invalidPriceOrCategory("tax category %s is not valid", category)
	}
	if price.IsNegative() {
		return decimal.Zero, invalidPriceOrCategory("price %s is negative", price)
	}
	return price.Mul(one.Add(category.Rate())), nil
}

// ProcessLine prices a single ticket line.
func ProcessLine(line domain.TicketLine) (domain.LineResult, error) {
	if line.Product == nil {
		return domain.LineResult{}, invalidLineOrTicket("line product is missing")
	}
	if line.Quantity.IsNegative() {
		return domain.LineResult{}, invalidLineOrTicket("line quantity %s is negative", line.Quantity)
	}

	product := line.Product
	withoutTax := product.UnitPrice.Mul(line.Quantity)
	withTax, err := PriceWithTax(withoutTax, product.TaxCategory)
	if err != nil {
		return domain.LineResult{}, err
	}

	return domain.LineResult{
		Name:            product.Name,
		Quantity:        line.Quantity,
		PriceWithoutTax: withoutTax,
		TaxCategory:     product.TaxCategory,
		PriceWithTax:    withTax,
	}, nil
}

// ComputeTotal sums every line of the ticket. A nil slice is rejected; an empty one yields zeros.
func ComputeTotal(lines []domain.TicketLine) (domain.TicketTotal, error) {
	if lines == nil {
		return domain.TicketTotal{}, invalidLineOrTicket("ticket lines are missing")
	}
	var acc ticketAccumulator
	for _, line := range lines {
		result, err := ProcessLine(line)
		if err != nil {
			return domain.TicketTotal{}, err
		}
		acc.add(result)
	}
	return acc.total(), nil
}

// ComputeTotalsByTaxCategory returns the tax collected per category, always listing all six.
func ComputeTotalsByTaxCategory(lines []domain.TicketLine) ([]domain.TaxBreakdownEntry, error) {
	if lines == nil {
		return nil, invalidLineOrTicket("ticket lines are missing")
	}
	var acc ticketAccumulator
	for _, line := range lines {
		result, err := ProcessLine(line)
		if err != nil {
			return nil, err
		}
		acc.add(result)
	}
	return acc.breakdown(), nil
}

// ComputeFinalTicket prices every line and attaches totals and the per-category breakdown.
// It walks the lines once; the output matches ProcessLine, ComputeTotal and
// ComputeTotalsByTaxCategory called separately.
func ComputeFinalTicket(lines []domain.TicketLine) (domain.FinalTicket, error) {
	if lines == nil {
		return domain.FinalTicket{}, invalidLineOrTicket("ticket lines are missing")
	}
	results := make([]domain.LineResult, 0, len(lines))
	var acc ticketAccumulator
	for _, line := range lines {
		result, err := ProcessLine(line)
		if err != nil {
			return domain.FinalTicket{}, err
		}
		results = append(results, result)
		acc.add(result)
	}
	return domain.FinalTicket{
		Lines:        results,
		Total:        acc.total(),
		TaxBreakdown: acc.breakdown(),
	}, nil
}

type ticketAccumulator struct {
	withoutTax decimal.Decimal
	withTax    decimal.Decimal
	tax        decimal.Decimal
	byCategory [domain.NumTaxCategories]decimal.Decimal
}

func (a *ticketAccumulator) add(result domain.LineResult) {
	tax := result.Tax()
	a.withoutTax = a.withoutTax.Add(result.PriceWithoutTax)
	a.withTax = a.withTax.Add(result.PriceWithTax)
	a.tax = a.tax.Add(tax)

	// zero-rated lines leave their bucket untouched
	if tax.IsPositive() {
		if idx := result.TaxCategory.Index(); idx >= 0 {
			a.byCategory[idx] = a.byCategory[idx].Add(tax)
		}
	}
}

func (a *ticketAccumulator) total() domain.TicketTotal {
	return domain.TicketTotal{
		TotalWithoutTax: a.withoutTax,
		TotalWithTax:    a.withTax,
		TotalTax:        a.tax.Round(taxRoundingPlaces),
	}
}

func (a *ticketAccumulator) breakdown() []domain.TaxBreakdownEntry {
	categories := domain.TaxCategories()
	entries := make([]domain.TaxBreakdownEntry, 0, len(categories))
	for _, category := range categories {
		entries = append(entries, domain.TaxBreakdownEntry{
			TaxCategory: category,
			Amount:      a.byCategory[category.Index()].Round(taxRoundingPlaces),
		})
	}
	return entries
}
