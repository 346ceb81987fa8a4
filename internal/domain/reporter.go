package domain

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	m "flog.dev/pkg/flog/internal/model"
)

// DefaultThreshold is the fraction of the grand total after which the report
// stops printing scopes.
const DefaultThreshold = 0.60

// Reporter renders scores as the textual flog report.
type Reporter interface {
	// Report writes the report for scores to w. Failures while writing are
	// logged and suppressed; w may then hold a partial report.
	Report(w io.Writer, scores *m.Scores)
}

type reporter struct {
	threshold float64
}

// NewReporter creates a Reporter that truncates at threshold × grand total.
func NewReporter(threshold float64) Reporter {
	return &reporter{threshold: threshold}
}

func (r *reporter) Report(w io.Writer, scores *m.Scores) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("report generation aborted", "panic", rec)
		}
	}()

	if err := r.write(w, scores); err != nil {
		slog.Warn("report generation failed", "error", err)
	}
}

func (r *reporter) write(w io.Writer, scores *m.Scores) error {
	total := scores.GrandTotal()
	limit := total * r.threshold

	totalText := FormatScore(total)
	if scores.Len() == 0 {
		// No scope was ever scored, so the sum is the integer seed.
		totalText = "0"
	}

	if _, err := fmt.Fprintf(w, "Total score = %s\n\n", totalText); err != nil {
		return fmt.Errorf("write total: %w", err)
	}

	var printed float64

	for _, key := range SortedScopes(scores) {
		scopeTotal := scores.Total(key)

		if _, err := fmt.Fprintf(w, "%s: (%d)\n", key, truncate(scopeTotal)); err != nil {
			return fmt.Errorf("write scope %s: %w", key, err)
		}

		for _, c := range SortedCounts(scores.Breakdown(key)) {
			if _, err := fmt.Fprintf(w, "  %4d: %s\n", truncate(c.Count), c.Name); err != nil {
				return fmt.Errorf("write count %s: %w", c.Name, err)
			}
		}

		printed += scopeTotal
		if printed >= limit {
			break
		}
	}

	return nil
}

// SortedScopes orders scope keys by descending total; ties keep insertion order.
func SortedScopes(scores *m.Scores) []m.ScopeKey {
	keys := scores.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return scores.Total(keys[i]) > scores.Total(keys[j])
	})

	return keys
}

// SortedCounts orders counts by descending weight; ties keep their order.
func SortedCounts(counts []m.Count) []m.Count {
	sorted := make([]m.Count, len(counts))
	copy(sorted, counts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	return sorted
}

// FormatScore prints a score as its shortest decimal form, keeping a ".0"
// on integral values.
func FormatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}

	return s
}

// truncate drops the fractional part the way %d does with a float.
func truncate(v float64) int64 {
	return int64(math.Trunc(v))
}
