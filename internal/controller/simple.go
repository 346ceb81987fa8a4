package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "flog.dev/pkg/flog/internal/model"
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayReport prints the report verbatim.
func (s *SimpleUI) DisplayReport(ctx context.Context, _ string, report string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := io.WriteString(s.cmd.OutOrStdout(), report)

	return err
}

// DisplayScopes prints a table of scopes.
func (s *SimpleUI) DisplayScopes(ctx context.Context, scopes []m.ScopeScore) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := io.WriteString(s.cmd.OutOrStdout(), renderScopesTable(scopes))

	return err
}

// DisplayDiff prints the diff, or a note when the runs match.
func (s *SimpleUI) DisplayDiff(ctx context.Context, diff string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if diff == "" {
		s.printf("%s\n", noChangesLabel)
		return nil
	}

	_, err := io.WriteString(s.cmd.OutOrStdout(), diff)

	return err
}

// DisplayMessage prints a status line.
func (s *SimpleUI) DisplayMessage(ctx context.Context, format string, args ...any) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf(format+"\n", args...)
}

func (s *SimpleUI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func renderScopesTable(scopes []m.ScopeScore) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Scope", "Score", "Top construct"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})

	var total float64

	for _, scope := range scopes {
		table.Append([]string{scope.Scope, formatScore(scope.Total), topConstruct(scope)})

		total += scope.Total
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Scopes %d", len(scopes)),
		formatScore(total),
		"",
	})

	table.Render()

	return tableBuffer.String()
}

// topConstruct describes the heaviest construct of a scope; Calls must be
// sorted by descending count.
func topConstruct(scope m.ScopeScore) string {
	if len(scope.Calls) == 0 {
		return "-"
	}

	top := scope.Calls[0]

	return fmt.Sprintf("%s (%s)", top.Name, formatScore(top.Count))
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

const noChangesLabel = "No changes between the two latest runs."
