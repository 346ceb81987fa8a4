package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "flog.dev/pkg/flog/internal/model"
)

// Lines taken by the pager header and footer.
const (
	headerHeight = 2
	footerHeight = 2
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

// TUI implements UI using Bubble Tea. Output that fits on screen is printed
// as-is; longer output opens a scrollable pager.
type TUI struct {
	output io.Writer
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// DisplayReport shows the report, paging it when it is taller than the terminal.
func (p *TUI) DisplayReport(ctx context.Context, title string, report string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.page(ctx, title, report)
}

// DisplayScopes shows the scope table.
func (p *TUI) DisplayScopes(ctx context.Context, scopes []m.ScopeScore) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.page(ctx, "flog - scopes", renderScopesTable(scopes))
}

// DisplayDiff shows the diff between two reports.
func (p *TUI) DisplayDiff(ctx context.Context, diff string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if diff == "" {
		_, err := fmt.Fprintln(p.output, noChangesLabel)
		return err
	}

	return p.page(ctx, "flog - diff", diff)
}

// DisplayMessage prints a status line.
func (p *TUI) DisplayMessage(ctx context.Context, format string, args ...any) {
	if err := ctx.Err(); err != nil {
		return
	}

	_, _ = fmt.Fprintf(p.output, format+"\n", args...)
}

func (p *TUI) page(ctx context.Context, title, content string) error {
	model := newPagerModel(title, content)

	if f, ok := p.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model = model.resize(width, height)
		}
	}

	// If content is small, just print and exit
	if !model.needsPagination() {
		_, err := io.WriteString(p.output, content)
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

// pagerModel is the Bubble Tea model scrolling one block of text.
type pagerModel struct {
	title    string
	content  string
	lines    int
	viewport viewport.Model
	ready    bool
	quitting bool
}

func newPagerModel(title, content string) pagerModel {
	return pagerModel{
		title:   title,
		content: content,
		lines:   strings.Count(content, "\n"),
	}
}

// resize fits the viewport to a terminal of the given size.
func (pm pagerModel) resize(width, height int) pagerModel {
	bodyHeight := height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	if !pm.ready {
		pm.viewport = viewport.New(width, bodyHeight)
		pm.viewport.SetContent(pm.content)
		pm.ready = true

		return pm
	}

	pm.viewport.Width = width
	pm.viewport.Height = bodyHeight

	return pm
}

// needsPagination returns true if the content is too tall for the screen.
func (pm pagerModel) needsPagination() bool {
	return pm.ready && pm.lines > pm.viewport.Height
}

func (pm pagerModel) Init() tea.Cmd {
	return nil
}

func (pm pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return pm.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		return pm.handleKeyPress(msg)
	}

	return pm, nil
}

//nolint:cyclop,exhaustive // Key handling requires multiple cases for UI navigation
func (pm pagerModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		pm.quitting = true
		return pm, tea.Quit
	default:
		// Handle other key types in the string switch below
	}

	if !pm.ready {
		return pm, nil
	}

	switch msg.String() {
	case "q":
		pm.quitting = true
		return pm, tea.Quit

	case "down", "j":
		pm.viewport.LineDown(1)

	case "up", "k":
		pm.viewport.LineUp(1)

	case "g", "home":
		pm.viewport.GotoTop()

	case "G", "end":
		pm.viewport.GotoBottom()

	case "d", "pgdown":
		pm.viewport.HalfViewDown()

	case "u", "pgup":
		pm.viewport.HalfViewUp()
	}

	return pm, nil
}

func (pm pagerModel) View() string {
	if pm.quitting {
		return ""
	}

	if !pm.ready {
		return pm.content
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(pm.title))
	b.WriteString("\n\n")
	b.WriteString(pm.viewport.View())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%3.f%% ", pm.viewport.ScrollPercent()*100)
	b.WriteString(helpStyle.Render("↑/k: up | ↓/j: down | d/u: half page | g: top | G: bottom | q: quit"))

	return b.String()
}
