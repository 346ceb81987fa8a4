package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	m "flog.dev/pkg/flog/internal/model"
)

func newTestCommand(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	return cmd
}

func TestSimpleUI_DisplayReport(t *testing.T) {
	var buf bytes.Buffer
	ui := NewSimpleUI(newTestCommand(&buf))

	report := "Total score = 1.0\n\nFoo#bar: (1)\n     1: baz\n"
	if err := ui.DisplayReport(context.Background(), "ignored", report); err != nil {
		t.Fatalf("DisplayReport() error = %v", err)
	}

	if buf.String() != report {
		t.Fatalf("DisplayReport() wrote %q, want %q", buf.String(), report)
	}
}

func TestSimpleUI_DisplayScopes(t *testing.T) {
	tests := []struct {
		name         string
		scopes       []m.ScopeScore
		wantContains []string
	}{
		{
			name:         "no scopes",
			scopes:       nil,
			wantContains: []string{"SCOPE", "TOTAL SCOPES 0", "0.0"},
		},
		{
			name: "scopes with top construct",
			scopes: []m.ScopeScore{
				{Scope: "Foo#bar", Total: 6.5, Calls: []m.Count{{Name: "sclass", Count: 5}, {Name: "puts", Count: 1.5}}},
				{Scope: "none#none", Total: 1},
			},
			wantContains: []string{"Foo#bar", "6.5", "sclass (5.0)", "none#none", "TOTAL SCOPES 2", "7.5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ui := NewSimpleUI(newTestCommand(&buf))

			if err := ui.DisplayScopes(context.Background(), tt.scopes); err != nil {
				t.Fatalf("DisplayScopes() error = %v", err)
			}

			output := strings.ToUpper(buf.String())
			for _, want := range tt.wantContains {
				if !strings.Contains(output, strings.ToUpper(want)) {
					t.Errorf("DisplayScopes() output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestSimpleUI_DisplayDiff(t *testing.T) {
	var buf bytes.Buffer
	ui := NewSimpleUI(newTestCommand(&buf))

	if err := ui.DisplayDiff(context.Background(), ""); err != nil {
		t.Fatalf("DisplayDiff() error = %v", err)
	}

	if !strings.Contains(buf.String(), noChangesLabel) {
		t.Fatalf("DisplayDiff() = %q, want no-changes note", buf.String())
	}

	buf.Reset()

	diff := "--- a\n+++ b\n-x\n+y\n"
	if err := ui.DisplayDiff(context.Background(), diff); err != nil {
		t.Fatalf("DisplayDiff() error = %v", err)
	}

	if buf.String() != diff {
		t.Fatalf("DisplayDiff() = %q, want %q", buf.String(), diff)
	}
}

func TestSimpleUI_CancelledContext(t *testing.T) {
	var buf bytes.Buffer
	ui := NewSimpleUI(newTestCommand(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := ui.DisplayReport(ctx, "", "x"); err == nil {
		t.Fatalf("DisplayReport() expected context error")
	}

	ui.DisplayMessage(ctx, "hidden")

	if buf.Len() != 0 {
		t.Fatalf("expected no output after cancellation, got %q", buf.String())
	}
}

func TestSimpleUI_DisplayMessage(t *testing.T) {
	var buf bytes.Buffer
	ui := NewSimpleUI(newTestCommand(&buf))

	ui.DisplayMessage(context.Background(), "Saved run %s", "abc")

	if buf.String() != "Saved run abc\n" {
		t.Fatalf("DisplayMessage() = %q", buf.String())
	}
}
