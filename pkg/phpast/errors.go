package phpast

import (
	"errors"
	"fmt"
)

// Sentinel errors for conversion.
var (
	// ErrInvalidNode reports input that cannot be converted and was not
	// recovered by an enclosing construct.
	ErrInvalidNode = errors.New("invalid node")
	// ErrUnmappedShape reports a CST shape without a conversion while
	// strict dispatch is enabled.
	ErrUnmappedShape = errors.New("unmapped CST shape")
	// ErrNilTree is returned by ConvertTree for a nil tree or root.
	ErrNilTree = errors.New("nil tree")
)

// ConversionError locates a conversion failure in the source.
type ConversionError struct {
	Kind   string
	Offset uint32
	Line   uint32
	Err    error
}

// Error implements error.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("line %d (offset %d): %s: %v", e.Line, e.Offset, e.Kind, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// InternalError is the panic value raised when the converter meets a CST
// shape that the grammar guarantees cannot occur, such as an operator
// missing from the flag tables.
type InternalError struct {
	Kind   string
	Detail string
}

// Error implements error.
func (e InternalError) Error() string {
	return fmt.Sprintf("phpast: internal error in %s: %s", e.Kind, e.Detail)
}

func isInvalid(err error) bool {
	return errors.Is(err, ErrInvalidNode)
}
