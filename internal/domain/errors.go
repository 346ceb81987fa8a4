package domain

import (
	"errors"
	"fmt"

	m "flog.dev/pkg/flog/internal/model"
)

var (
	// ErrUnsupportedLiteralKind is returned when a lit node holds a value the
	// scorer has no rule for.
	ErrUnsupportedLiteralKind = errors.New("unsupported literal kind")
	// ErrUnsupportedBlockPassShape is returned when a block_pass argument
	// matches none of the known shapes.
	ErrUnsupportedBlockPassShape = errors.New("unsupported block_pass shape")
)

// LiteralError reports the offending literal value.
type LiteralError struct {
	Value any
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("%s: %#v (%T)", ErrUnsupportedLiteralKind, e.Value, e.Value)
}

func (e *LiteralError) Unwrap() error {
	return ErrUnsupportedLiteralKind
}

// BlockPassError reports the sub-nodes of a block_pass that could not be
// classified.
type BlockPassError struct {
	Arg  m.Element
	Call m.Element
}

func (e *BlockPassError) Error() string {
	return fmt.Sprintf("%s: {block_pass: [%s, %s]}",
		ErrUnsupportedBlockPassShape, m.FormatElement(e.Call), m.FormatElement(e.Arg))
}

func (e *BlockPassError) Unwrap() error {
	return ErrUnsupportedBlockPassShape
}
