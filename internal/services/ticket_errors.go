package services

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the calculator failure modes.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindInvalidPriceOrCategory is raised when a price or tax category cannot be taxed.
	ErrorKindInvalidPriceOrCategory
	// ErrorKindInvalidLineOrTicket is raised for incomplete lines or a missing line sequence.
	ErrorKindInvalidLineOrTicket
)

const (
	messageInvalidPriceOrCategory = "Los parámetros introducidos no son correctos"
	messageInvalidLineOrTicket    = "El parámetro de entrada no es correcto"
)

var (
	// ErrInvalidPriceOrCategory matches any TicketError of kind ErrorKindInvalidPriceOrCategory.
	ErrInvalidPriceOrCategory = &TicketError{Kind: ErrorKindInvalidPriceOrCategory}
	// ErrInvalidLineOrTicket matches any TicketError of kind ErrorKindInvalidLineOrTicket.
	ErrInvalidLineOrTicket = &TicketError{Kind: ErrorKindInvalidLineOrTicket}
)

// Message returns the fixed user-facing text for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case ErrorKindInvalidPriceOrCategory:
		return messageInvalidPriceOrCategory
	case ErrorKindInvalidLineOrTicket:
		return messageInvalidLineOrTicket
	default:
		return "error desconocido"
	}
}

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindInvalidPriceOrCategory:
		return "invalid_price_or_category"
	case ErrorKindInvalidLineOrTicket:
		return "invalid_line_or_ticket"
	default:
		return "unknown"
	}
}

// TicketError is returned by every calculator operation. Error() yields only the fixed message;
// Detail carries a diagnostic suitable for logs.
type TicketError struct {
	Kind   ErrorKind
	Detail string
}

func (e *TicketError) Error() string {
	if e == nil {
		return ""
	}
	return e.Kind.Message()
}

// Is matches errors of the same kind regardless of detail.
func (e *TicketError) Is(target error) bool {
	other, ok := target.(*TicketError)
	if !ok || other == nil || e == nil {
		return false
	}
	return e.Kind == other.Kind
}

// KindOf extracts the calculator error kind from err.
func KindOf(err error) ErrorKind {
	var te *TicketError
	if errors.As(err, &te) && te != nil {
		return te.Kind
	}
	return ErrorKindUnknown
}

func invalidPriceOrCategory(format string, args ...any) error {
	return &TicketError{Kind: ErrorKindInvalidPriceOrCategory, Detail: fmt.Sprintf(format, args...)}
}

func invalidLineOrTicket(format string, args ...any) error {
	return &TicketError{Kind: ErrorKindInvalidLineOrTicket, Detail: fmt.Sprintf(format, args...)}
}
