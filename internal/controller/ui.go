// Package controller provides output adapters for displaying flog reports.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "flog.dev/pkg/flog/internal/model"
)

// UI defines how reports and run history reach the user.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	// DisplayReport shows a rendered flog report exactly as given.
	DisplayReport(ctx context.Context, title string, report string) error
	// DisplayScopes shows every scope in the order given, with its top construct.
	DisplayScopes(ctx context.Context, scopes []m.ScopeScore) error
	// DisplayDiff shows a unified diff between two reports.
	DisplayDiff(ctx context.Context, diff string) error
	// DisplayMessage prints a one-line status message.
	DisplayMessage(ctx context.Context, format string, args ...any)
}

// NewUI picks the pager when stdout is a terminal and plain output otherwise.
func NewUI(cmd *cobra.Command, isTTY bool) UI {
	if isTTY {
		return NewTUI(os.Stdout)
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
