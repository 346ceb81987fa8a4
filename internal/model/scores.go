package model

import (
	"strings"
	"time"
)

const (
	// NoClass names the class register outside any class or module.
	NoClass = "none"
	// NoMethod names the method register outside any method definition.
	NoMethod = "none"
)

// ScopeKey identifies the innermost enclosing class and method of a score.
type ScopeKey struct {
	Class  string
	Method string
}

// String renders the key as Class#method.
func (k ScopeKey) String() string {
	return k.Class + "#" + k.Method
}

// ParseScopeKey is the inverse of ScopeKey.String.
func ParseScopeKey(s string) ScopeKey {
	class, method, ok := strings.Cut(s, "#")
	if !ok {
		return ScopeKey{Class: s, Method: NoMethod}
	}

	return ScopeKey{Class: class, Method: method}
}

// Count is one construct's weighted occurrence count within a scope.
type Count struct {
	Name  string  `yaml:"name"`
	Count float64 `yaml:"count"`
}

// Scores holds the per-scope totals and construct breakdowns of one run.
// Keys and construct names remember their first-insertion order so that
// reports can break ties deterministically.
type Scores struct {
	order  []ScopeKey
	totals map[ScopeKey]float64
	calls  map[ScopeKey]*breakdown
}

type breakdown struct {
	order  []string
	counts map[string]float64
}

// NewScores returns an empty Scores.
func NewScores() *Scores {
	return &Scores{
		totals: make(map[ScopeKey]float64),
		calls:  make(map[ScopeKey]*breakdown),
	}
}

// Add records a weighted contribution for name under key, in both the total
// and the breakdown.
func (s *Scores) Add(key ScopeKey, name string, weighted float64) {
	bd, ok := s.calls[key]
	if !ok {
		bd = &breakdown{counts: make(map[string]float64)}
		s.calls[key] = bd
		s.order = append(s.order, key)
	}

	if _, seen := bd.counts[name]; !seen {
		bd.order = append(bd.order, name)
	}

	bd.counts[name] += weighted
	s.totals[key] += weighted
}

// Keys returns the scope keys in first-insertion order.
func (s *Scores) Keys() []ScopeKey {
	keys := make([]ScopeKey, len(s.order))
	copy(keys, s.order)

	return keys
}

// Len returns the number of scopes.
func (s *Scores) Len() int {
	return len(s.order)
}

// Total returns the accumulated score of key.
func (s *Scores) Total(key ScopeKey) float64 {
	return s.totals[key]
}

// Count returns the weighted count of name under key.
func (s *Scores) Count(key ScopeKey, name string) float64 {
	bd, ok := s.calls[key]
	if !ok {
		return 0
	}

	return bd.counts[name]
}

// Breakdown returns the construct counts of key in first-insertion order.
func (s *Scores) Breakdown(key ScopeKey) []Count {
	bd, ok := s.calls[key]
	if !ok {
		return nil
	}

	counts := make([]Count, 0, len(bd.order))
	for _, name := range bd.order {
		counts = append(counts, Count{Name: name, Count: bd.counts[name]})
	}

	return counts
}

// GrandTotal sums the totals of every scope.
func (s *Scores) GrandTotal() float64 {
	var sum float64
	for _, key := range s.order {
		sum += s.totals[key]
	}

	return sum
}

// Merge adds every contribution of other into s.
func (s *Scores) Merge(other *Scores) {
	if other == nil {
		return
	}

	for _, key := range other.order {
		for _, c := range other.Breakdown(key) {
			s.Add(key, c.Name, c.Count)
		}
	}
}

// ScopeScore is the serialisable form of one scope.
type ScopeScore struct {
	Scope string  `yaml:"scope"`
	Total float64 `yaml:"total"`
	Calls []Count `yaml:"calls"`
}

// Snapshot converts scores to their serialisable form, in insertion order.
func (s *Scores) Snapshot() []ScopeScore {
	scopes := make([]ScopeScore, 0, len(s.order))
	for _, key := range s.order {
		scopes = append(scopes, ScopeScore{
			Scope: key.String(),
			Total: s.totals[key],
			Calls: s.Breakdown(key),
		})
	}

	return scopes
}

// ScoresFromSnapshot rebuilds Scores from their serialisable form.
func ScoresFromSnapshot(scopes []ScopeScore) *Scores {
	s := NewScores()

	for _, scope := range scopes {
		key := ParseScopeKey(scope.Scope)
		for _, c := range scope.Calls {
			s.Add(key, c.Name, c.Count)
		}
	}

	return s
}

// Run is a persisted analysis run.
type Run struct {
	ID        string       `yaml:"id"`
	CreatedAt time.Time    `yaml:"created_at"`
	Threshold float64      `yaml:"threshold"`
	Sources   []string     `yaml:"sources"`
	Scopes    []ScopeScore `yaml:"scopes"`
}
