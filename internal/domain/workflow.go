package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"flog.dev/pkg/flog/internal/adapter"
	"flog.dev/pkg/flog/internal/controller"
	m "flog.dev/pkg/flog/internal/model"
)

const reportTitle = "flog"

var (
	// ErrNoRuns is returned when a command needs a saved run and there is none.
	ErrNoRuns = errors.New("no saved runs")
	// ErrNotEnoughRuns is returned by Diff with fewer than two saved runs.
	ErrNotEnoughRuns = errors.New("diff needs at least two saved runs")
)

// AnalyzeArgs selects the sources of an analysis.
type AnalyzeArgs struct {
	Paths   []m.Path
	Exclude []string
	Threads int
}

// ReportArgs contains the arguments of the report command.
type ReportArgs struct {
	AnalyzeArgs
	Threshold float64
	Save      bool
	Reports   m.Path
}

// ListArgs contains the arguments of the list command.
type ListArgs struct {
	AnalyzeArgs
}

// ViewArgs contains the arguments of the view command.
type ViewArgs struct {
	Reports m.Path
}

// DiffArgs contains the arguments of the diff command.
type DiffArgs struct {
	Reports m.Path
}

// MergeArgs contains the arguments of the merge command. When Output is set
// the merged run is saved there.
type MergeArgs struct {
	Reports   m.Path
	Output    m.Path
	Threshold float64
}

// Workflow runs flog's commands end to end.
type Workflow interface {
	Report(ctx context.Context, args ReportArgs) error
	List(ctx context.Context, args ListArgs) error
	View(ctx context.Context, args ViewArgs) error
	Diff(ctx context.Context, args DiffArgs) error
	Merge(ctx context.Context, args MergeArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.SourceParser
	adapter.ReportStore
	controller.UI
	table ScoreTable
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	parser adapter.SourceParser,
	reportStore adapter.ReportStore,
	ui controller.UI,
	table ScoreTable,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		SourceParser:    parser,
		ReportStore:     reportStore,
		UI:              ui,
		table:           table,
	}
}

func (w *workflow) Report(ctx context.Context, args ReportArgs) error {
	sources, scores, err := w.analyze(ctx, args.AnalyzeArgs)
	if err != nil {
		return err
	}

	if err := w.DisplayReport(ctx, reportTitle, renderReport(scores, args.Threshold)); err != nil {
		return fmt.Errorf("display report: %w", err)
	}

	if !args.Save {
		return nil
	}

	run := m.Run{
		Threshold: args.Threshold,
		Sources:   sourcePaths(sources),
		Scopes:    scores.Snapshot(),
	}

	if err := w.SaveRun(ctx, args.Reports, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	return nil
}

func (w *workflow) List(ctx context.Context, args ListArgs) error {
	_, scores, err := w.analyze(ctx, args.AnalyzeArgs)
	if err != nil {
		return err
	}

	if err := w.DisplayScopes(ctx, sortedSnapshot(scores)); err != nil {
		return fmt.Errorf("display scopes: %w", err)
	}

	return nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	runs, err := w.loadRuns(ctx, args.Reports, 1)
	if err != nil {
		return err
	}

	latest := runs[len(runs)-1]
	report := renderReport(m.ScoresFromSnapshot(latest.Scopes), latest.Threshold)

	if err := w.DisplayReport(ctx, fmt.Sprintf("%s - run %s", reportTitle, latest.ID), report); err != nil {
		return fmt.Errorf("display report: %w", err)
	}

	return nil
}

func (w *workflow) Diff(ctx context.Context, args DiffArgs) error {
	runs, err := w.loadRuns(ctx, args.Reports, 2)
	if err != nil {
		return err
	}

	before, after := runs[len(runs)-2], runs[len(runs)-1]

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(renderReport(m.ScoresFromSnapshot(before.Scopes), before.Threshold)),
		B:        difflib.SplitLines(renderReport(m.ScoresFromSnapshot(after.Scopes), after.Threshold)),
		FromFile: before.ID,
		ToFile:   after.ID,
		FromDate: before.CreatedAt.String(),
		ToDate:   after.CreatedAt.String(),
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diff runs: %w", err)
	}

	if err := w.DisplayDiff(ctx, diff); err != nil {
		return fmt.Errorf("display diff: %w", err)
	}

	return nil
}

func (w *workflow) Merge(ctx context.Context, args MergeArgs) error {
	runs, err := w.loadRuns(ctx, args.Reports, 1)
	if err != nil {
		return err
	}

	merged := m.NewScores()

	var sources []string

	for _, run := range runs {
		merged.Merge(m.ScoresFromSnapshot(run.Scopes))
		sources = append(sources, run.Sources...)
	}

	threshold := args.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	if err := w.DisplayReport(ctx, reportTitle+" - merged", renderReport(merged, threshold)); err != nil {
		return fmt.Errorf("display report: %w", err)
	}

	if args.Output == "" {
		return nil
	}

	run := m.Run{Threshold: threshold, Sources: sources, Scopes: merged.Snapshot()}
	if err := w.SaveRun(ctx, args.Output, run); err != nil {
		return fmt.Errorf("save merged run: %w", err)
	}

	w.DisplayMessage(ctx, "Merged %d run(s) into %s", len(runs), args.Output)

	return nil
}

// analyze resolves, parses and scores the requested sources. Parsing runs on
// up to args.Threads workers; scoring consumes the trees in input order on
// the calling goroutine.
func (w *workflow) analyze(ctx context.Context, args AnalyzeArgs) ([]m.Source, *m.Scores, error) {
	sources, err := w.Resolve(ctx, args.Paths, args.Exclude...)
	if err != nil {
		return nil, nil, fmt.Errorf("get sources: %w", err)
	}

	trees, err := w.parseAll(ctx, sources, args.Threads)
	if err != nil {
		return nil, nil, err
	}

	scorer := NewScorer(w.table)

	for i, tree := range trees {
		if err := scorer.Process(tree); err != nil {
			return nil, nil, fmt.Errorf("score %s: %w", sources[i].Path, err)
		}
	}

	slog.Debug("scored sources", "sources", len(sources), "scopes", scorer.Scores().Len())

	return sources, scorer.Scores(), nil
}

func (w *workflow) parseAll(ctx context.Context, sources []m.Source, threads int) ([]*m.Node, error) {
	trees := make([]*m.Node, len(sources))

	group, groupCtx := errgroup.WithContext(ctx)
	if threads > 0 {
		group.SetLimit(threads)
	}

	for i, source := range sources {
		i, source := i, source
		group.Go(func() error {
			content, err := w.Read(groupCtx, source)
			if err != nil {
				return fmt.Errorf("read %s: %w", source.Path, err)
			}

			tree, err := w.Parse(groupCtx, source, content)
			if err != nil {
				return fmt.Errorf("parse %s: %w", source.Path, err)
			}

			trees[i] = tree

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return trees, nil
}

func (w *workflow) loadRuns(ctx context.Context, dir m.Path, atLeast int) ([]m.Run, error) {
	runs, err := w.LoadRuns(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoRuns)
	}

	if len(runs) < atLeast {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotEnoughRuns)
	}

	return runs, nil
}

func renderReport(scores *m.Scores, threshold float64) string {
	var buf bytes.Buffer

	NewReporter(threshold).Report(&buf, scores)

	return buf.String()
}

// sortedSnapshot lists every scope by descending total with its constructs
// by descending count.
func sortedSnapshot(scores *m.Scores) []m.ScopeScore {
	keys := SortedScopes(scores)
	scopes := make([]m.ScopeScore, 0, len(keys))

	for _, key := range keys {
		scopes = append(scopes, m.ScopeScore{
			Scope: key.String(),
			Total: scores.Total(key),
			Calls: SortedCounts(scores.Breakdown(key)),
		})
	}

	return scopes
}

func sourcePaths(sources []m.Source) []string {
	paths := make([]string, 0, len(sources))
	for _, source := range sources {
		paths = append(paths, string(source.Path))
	}

	return paths
}
