package types

import (
	"errors"
	"fmt"
)

// Parse errors. ErrInvalidAuthors and ErrInvalidMonth wrap ErrParse so
// callers can test for either.
var (
	ErrParse          = errors.New("parse failure")
	ErrInvalidAuthors = fmt.Errorf("%w: invalid author list", ErrParse)
	ErrInvalidMonth   = fmt.Errorf("%w: invalid month", ErrParse)
)

// Entry errors.
var (
	ErrSchemaViolation  = errors.New("schema violation")
	ErrHandlerFailure   = errors.New("item handler failed")
	ErrMissingItem      = errors.New("item not found")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrInvalidName      = errors.New("invalid name")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnknownKind      = errors.New("unknown entry kind")
)

// Collection graph errors.
var (
	ErrStructural     = errors.New("structural violation")
	ErrNotFound       = errors.New("not found")
	ErrDuplicateName  = errors.New("duplicate name")
	ErrEntryConflict  = errors.New("conflicting entry with the same name")
	ErrNotMaster      = errors.New("operation requires a master collection")
	ErrMasterMismatch = errors.New("collections belong to different masters")
)

// Unit format errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported unit version")
	ErrInvalidUnit        = errors.New("invalid unit")
)

// ItemError attaches the entry and item names to an error raised while
// processing one item.
type ItemError struct {
	Entry string
	Item  string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("entry %q item %q: %v", e.Entry, e.Item, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
