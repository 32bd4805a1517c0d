package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inesloren/ticket/internal/platform/httpx"
	"github.com/inesloren/ticket/internal/platform/textutil"
	"github.com/inesloren/ticket/internal/services"
	"github.com/inesloren/ticket/internal/ticketdoc"
)

const defaultTicketBodySize = 64 * 1024

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("request body is required")
)

// TicketHandlers exposes the ticket calculator over HTTP.
type TicketHandlers struct {
	tickets   services.TicketService
	maxBody   int64
	normalize ticketdoc.NameFunc
}

// TicketOption customises TicketHandlers.
type TicketOption func(*TicketHandlers)

// WithTicketBodyLimit caps request bodies at limit bytes.
func WithTicketBodyLimit(limit int64) TicketOption {
	return func(h *TicketHandlers) {
		if limit > 0 {
			h.maxBody = limit
		}
	}
}

// WithNameNormalizer replaces the product name normaliser. Nil keeps names untouched.
func WithNameNormalizer(fn ticketdoc.NameFunc) TicketOption {
	return func(h *TicketHandlers) {
		h.normalize = fn
	}
}

// NewTicketHandlers constructs ticket handlers backed by the given service.
func NewTicketHandlers(tickets services.TicketService, opts ...TicketOption) *TicketHandlers {
	h := &TicketHandlers{
		tickets:   tickets,
		maxBody:   defaultTicketBodySize,
		normalize: textutil.NewNameNormalizer().Normalize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the ticket endpoints.
func (h *TicketHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/tickets:compute", h.computeTicket)
	r.Post("/tickets:total", h.computeTotal)
	r.Post("/tickets:breakdown", h.computeBreakdown)
	r.Post("/tickets/lines:process", h.processLine)
	r.Post("/prices:withTax", h.priceWithTax)
}

func (h *TicketHandlers) computeTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cmd, ok := h.decodeTicket(w, r)
	if !ok {
		return
	}

	receipt, err := h.tickets.Compute(ctx, cmd)
	if err != nil {
		writeTicketError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"ticket": ticketdoc.NewReceiptView(receipt)})
}

func (h *TicketHandlers) computeTotal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cmd, ok := h.decodeTicket(w, r)
	if !ok {
		return
	}

	total, err := h.tickets.Total(ctx, cmd)
	if err != nil {
		writeTicketError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"total": ticketdoc.NewTotalView(total)})
}

func (h *TicketHandlers) computeBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cmd, ok := h.decodeTicket(w, r)
	if !ok {
		return
	}

	entries, err := h.tickets.Breakdown(ctx, cmd)
	if err != nil {
		writeTicketError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"taxBreakdown": ticketdoc.NewBreakdownViews(entries)})
}

func (h *TicketHandlers) processLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.available(ctx, w) {
		return
	}

	var doc ticketdoc.LineDocument
	if !h.decodeBody(w, r, &doc) {
		return
	}
	line, err := doc.TicketLine(h.normalize)
	if err != nil {
		writeTicketError(ctx, w, err)
		return
	}

	result, err := h.tickets.Line(ctx, line)
	if err != nil {
		writeTicketError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"line": ticketdoc.NewLineView(result)})
}

func (h *TicketHandlers) priceWithTax(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.available(ctx, w) {
		return
	}

	var doc ticketdoc.PriceDocument
	if !h.decodeBody(w, r, &doc) {
		return
	}
	cmd, err := doc.Command()
	if err != nil {
		writeTicketError(ctx, w, err)
		return
	}

	price, err := h.tickets.Price(ctx, cmd)
	if err != nil {
		writeTicketError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"priceWithTax": price.InexactFloat64(),
		"taxCategory":  cmd.TaxCategory.String(),
	})
}

func (h *TicketHandlers) decodeTicket(w http.ResponseWriter, r *http.Request) (services.ComputeTicketCommand, bool) {
	ctx := r.Context()
	if !h.available(ctx, w) {
		return services.ComputeTicketCommand{}, false
	}

	var doc ticketdoc.Document
	if !h.decodeBody(w, r, &doc) {
		return services.ComputeTicketCommand{}, false
	}
	lines, err := doc.TicketLines(h.normalize)
	if err != nil {
		writeTicketError(ctx, w, err)
		return services.ComputeTicketCommand{}, false
	}
	return services.ComputeTicketCommand{Lines: lines}, true
}

func (h *TicketHandlers) available(ctx context.Context, w http.ResponseWriter) bool {
	if h.tickets == nil {
		httpx.WriteError(ctx, w, httpx.NewError("ticket_service_unavailable", "ticket service is unavailable", http.StatusServiceUnavailable))
		return false
	}
	return true
}

func (h *TicketHandlers) decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	ctx := r.Context()
	body, err := readLimitedBody(r, h.maxBody)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return false
	}
	return true
}

func writeTicketError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var ticketErr *services.TicketError
	switch {
	case errors.Is(err, services.ErrTicketTooManyLines):
		httpx.WriteError(ctx, w, httpx.NewError("too_many_lines", err.Error(), http.StatusUnprocessableEntity))
	case errors.As(err, &ticketErr):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_ticket", ticketErr.Error(), http.StatusBadRequest).
			WithDetails(map[string]any{"kind": ticketErr.Kind.String()}))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		httpx.WriteError(ctx, w, httpx.NewError("request_cancelled", "request was cancelled before completion", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("ticket_error", "failed to compute ticket", http.StatusInternalServerError))
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = defaultTicketBodySize
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	httpx.WriteJSON(w, status, payload)
}
