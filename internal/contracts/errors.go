package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotQualified marks a symbol the screener rejected
	ErrNotQualified = errors.New("symbol does not qualify")

	// ErrNoData marks a source that answered but had nothing for the symbol
	ErrNoData = errors.New("no data found")
)

// NotQualifiedError carries the filter that rejected a symbol
type NotQualifiedError struct {
	Symbol string
	Reason string // filter name, e.g. "market_cap"
	Detail string
}

func (e *NotQualifiedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s (%s)", e.Symbol, ErrNotQualified, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%s: %s)", e.Symbol, ErrNotQualified, e.Reason, e.Detail)
}

// Unwrap makes errors.Is(err, ErrNotQualified) true
func (e *NotQualifiedError) Unwrap() error {
	return ErrNotQualified
}

// NotQualified builds a NotQualifiedError
func NotQualified(symbol, reason, detail string) error {
	return &NotQualifiedError{Symbol: symbol, Reason: reason, Detail: detail}
}
