package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/inesloren/ticket/internal/services"
	defaultMaxLines     = 500
	receiptIDPrefix     = "tkt_"
)

var (
	// ErrTicketTooManyLines is returned when a ticket exceeds the configured line limit.
	ErrTicketTooManyLines = errors.New("ticket: too many lines")

	errTicketCalculatorRequired = errors.New("ticket service: calculator is required")
)

// TicketServiceDeps wires optional collaborators for the ticket service.
type TicketServiceDeps struct {
	Calculator     TicketCalculator
	MaxLines       int
	Now            func() time.Time
	IDGenerator    func() string
	Logger         func(context.Context, string, map[string]any)
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// ComputeTicketCommand carries the lines of a ticket. A nil Lines slice is treated as a missing ticket.
type ComputeTicketCommand struct {
	Lines []TicketLine
}

// PriceCommand asks for a single taxed price.
type PriceCommand struct {
	Price       decimal.Decimal
	TaxCategory TaxCategory
}

// Receipt is a computed ticket stamped with an identifier and issue time.
type Receipt struct {
	ID       string
	IssuedAt time.Time
	Ticket   FinalTicket
}

type ticketService struct {
	calc     TicketCalculator
	maxLines int
	now      func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
	tracer   trace.Tracer

	computed  metric.Int64Counter
	rejected  metric.Int64Counter
	lineCount metric.Int64Histogram
}

// NewTicketService constructs a TicketService with tracing, metrics and a logging hook.
func NewTicketService(deps TicketServiceDeps) (TicketService, error) {
	if deps.Calculator == nil {
		return nil, errTicketCalculatorRequired
	}

	maxLines := deps.MaxLines
	if maxLines <= 0 {
		maxLines = defaultMaxLines
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return receiptIDPrefix + ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	tp := deps.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := deps.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(instrumentationName)
	computed, err := meter.Int64Counter("tickets.computed",
		metric.WithDescription("Ticket operations completed successfully."))
	if err != nil {
		return nil, fmt.Errorf("ticket service: computed counter: %w", err)
	}
	rejected, err := meter.Int64Counter("tickets.rejected",
		metric.WithDescription("Ticket operations rejected with an error."))
	if err != nil {
		return nil, fmt.Errorf("ticket service: rejected counter: %w", err)
	}
	lineCount, err := meter.Int64Histogram("tickets.lines",
		metric.WithDescription("Number of lines per ticket request."))
	if err != nil {
		return nil, fmt.Errorf("ticket service: lines histogram: %w", err)
	}

	return &ticketService{
		calc:      deps.Calculator,
		maxLines:  maxLines,
		now:       func() time.Time { return now().UTC() },
		newID:     idGen,
		logger:    logger,
		tracer:    tp.Tracer(instrumentationName),
		computed:  computed,
		rejected:  rejected,
		lineCount: lineCount,
	}, nil
}

// Compute prices the full ticket and stamps it as a receipt.
func (s *ticketService) Compute(ctx context.Context, cmd ComputeTicketCommand) (Receipt, error) {
	var receipt Receipt
	err := s.observe(ctx, "compute", cmd.Lines, func() error {
		ticket, err := s.calc.ComputeFinalTicket(cmd.Lines)
		if err != nil {
			return err
		}
		receipt = Receipt{ID: s.newID(), IssuedAt: s.now(), Ticket: ticket}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

// Total returns the aggregated totals of the ticket.
func (s *ticketService) Total(ctx context.Context, cmd ComputeTicketCommand) (TicketTotal, error) {
	var total TicketTotal
	err := s.observe(ctx, "total", cmd.Lines, func() error {
		var err error
		total, err = s.calc.ComputeTotal(cmd.Lines)
		return err
	})
	if err != nil {
		return TicketTotal{}, err
	}
	return total, nil
}

// Breakdown returns the tax collected per category.
func (s *ticketService) Breakdown(ctx context.Context, cmd ComputeTicketCommand) ([]TaxBreakdownEntry, error) {
	var entries []TaxBreakdownEntry
	err := s.observe(ctx, "breakdown", cmd.Lines, func() error {
		var err error
		entries, err = s.calc.ComputeTotalsByTaxCategory(cmd.Lines)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Line prices a single ticket line.
func (s *ticketService) Line(ctx context.Context, line TicketLine) (LineResult, error) {
	var result LineResult
	err := s.observe(ctx, "line", []TicketLine{line}, func() error {
		var err error
		result, err = s.calc.ProcessLine(line)
		return err
	})
	if err != nil {
		return LineResult{}, err
	}
	return result, nil
}

// Price applies the category rate to a single amount.
func (s *ticketService) Price(ctx context.Context, cmd PriceCommand) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.observe(ctx, "price", nil, func() error {
		var err error
		price, err = s.calc.PriceWithTax(cmd.Price, cmd.TaxCategory)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return price, nil
}

func (s *ticketService) observe(ctx context.Context, op string, lines []TicketLine, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "ticket."+op)
	defer span.End()

	opAttr := attribute.String("ticket.operation", op)
	span.SetAttributes(opAttr, attribute.Int("ticket.lines", len(lines)))
	s.lineCount.Record(ctx, int64(len(lines)), metric.WithAttributes(opAttr))

	err := s.checkLimits(lines)
	if err == nil {
		err = fn()
	}
	if err != nil {
		kind := KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.rejected.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String("ticket.error_kind", kind.String())))

		fields := map[string]any{"operation": op, "lines": len(lines), "error": err.Error(), "kind": kind.String()}
		var te *TicketError
		if errors.As(err, &te) && te.Detail != "" {
			fields["detail"] = te.Detail
		}
		s.logger(ctx, "ticket_rejected", fields)
		return err
	}

	s.computed.Add(ctx, 1, metric.WithAttributes(opAttr))
	s.logger(ctx, "ticket_computed", map[string]any{"operation": op, "lines": len(lines)})
	return nil
}

func (s *ticketService) checkLimits(lines []TicketLine) error {
	if len(lines) > s.maxLines {
		return fmt.Errorf("%w: %d lines exceeds limit of %d", ErrTicketTooManyLines, len(lines), s.maxLines)
	}
	return nil
}
