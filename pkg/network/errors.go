package network

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrMalformedInput       = errors.New("malformed input")
	ErrLookup               = errors.New("mapping not found")
	ErrInvalidOrder         = errors.New("invalid contingency order")
	ErrTooManyContingencies = errors.New("too many contingencies")
)

// ParseError reports a line of an input source that could not be parsed.
type ParseError struct {
	Source string // Input name (file path or network name)
	Line   int    // 1-based line number
	Text   string // Offending line, trimmed
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d: %s: %q", e.Source, e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Unwrap makes errors.Is(err, ErrMalformedInput) hold for every ParseError.
func (e *ParseError) Unwrap() error {
	return ErrMalformedInput
}

// LookupError reports a node or edge without a mapping.
type LookupError struct {
	Entity string // "node" or "edge"
	Index  int    // Dense index, -1 when the lookup was by key
	Key    string // Identifier or endpoint pair, empty when the lookup was by index
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s: %v", e.Entity, e.Key, ErrLookup)
	}
	return fmt.Sprintf("%s index %d: %v", e.Entity, e.Index, ErrLookup)
}

// Unwrap returns ErrLookup.
func (e *LookupError) Unwrap() error {
	return ErrLookup
}

func nodeIndexError(i int) error {
	return &LookupError{Entity: "node", Index: i}
}

func edgeIndexError(i int) error {
	return &LookupError{Entity: "edge", Index: i}
}

func edgeKeyError(e Edge) error {
	return &LookupError{Entity: "edge", Index: -1, Key: e.String()}
}

// IsMalformed reports whether err was caused by unparseable input.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}
