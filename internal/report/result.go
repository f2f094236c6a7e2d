package report

import (
	"sort"
	"time"

	"github.com/v0xg/uisweep/internal/classify"
	"github.com/v0xg/uisweep/internal/monitor"
)

// IterationResult is the immutable record of one full navigation sweep.
type IterationResult struct {
	Index          int                                 `json:"index"`
	RunID          string                              `json:"runId"`
	StartedAt      time.Time                           `json:"startedAt"`
	Duration       time.Duration                       `json:"duration"`
	TargetsVisited int                                 `json:"targetsVisited"`
	TotalErrors    int                                 `json:"totalErrors"`
	TotalWarnings  int                                 `json:"totalWarnings"`
	ByCategory     map[classify.Category]int           `json:"byCategory"`
	ByTarget       map[string][]monitor.CapturedSignal `json:"byTarget"`
	Errors         []monitor.CapturedSignal            `json:"errors"`
	Warnings       []monitor.CapturedSignal            `json:"warnings"`
	NewErrors      []monitor.CapturedSignal            `json:"newErrors"`
	FixedErrors    []monitor.CapturedSignal            `json:"fixedErrors"`
	Screenshots    []string                            `json:"screenshots"`
}

// Sweep carries the raw material of one finished sweep.
type Sweep struct {
	Index          int
	RunID          string
	StartedAt      time.Time
	Duration       time.Duration
	TargetsVisited int
	Errors         []monitor.CapturedSignal
	Warnings       []monitor.CapturedSignal
	Screenshots    []string
}

// BuildIteration assembles the iteration record from a sweep and its diff
// against the previous iteration, stamping IsNew on the errors the diff
// found to be new.
func BuildIteration(s Sweep, d Diff) IterationResult {
	errors := make([]monitor.CapturedSignal, len(s.Errors))
	copy(errors, s.Errors)
	newSeqs := make(map[int64]bool, len(d.New))
	for _, sig := range d.New {
		newSeqs[sig.Seq] = true
	}
	for i := range errors {
		errors[i].IsNew = newSeqs[errors[i].Seq]
	}

	return IterationResult{
		Index:          s.Index,
		RunID:          s.RunID,
		StartedAt:      s.StartedAt,
		Duration:       s.Duration,
		TargetsVisited: s.TargetsVisited,
		TotalErrors:    len(errors),
		TotalWarnings:  len(s.Warnings),
		ByCategory:     CountByCategory(errors),
		ByTarget:       GroupByTarget(errors, s.Warnings),
		Errors:         errors,
		Warnings:       append([]monitor.CapturedSignal(nil), s.Warnings...),
		NewErrors:      d.New,
		FixedErrors:    d.Fixed,
		Screenshots:    append([]string(nil), s.Screenshots...),
	}
}

// CountByCategory tallies errors per taxonomy category. Only categories that
// actually occurred appear as keys, so the counts always sum to the number
// of signals given.
func CountByCategory(signals []monitor.CapturedSignal) map[classify.Category]int {
	counts := make(map[classify.Category]int)
	for _, sig := range signals {
		counts[sig.Category]++
	}
	return counts
}

// GroupByTarget buckets signals by the target active when they were
// captured, each bucket in capture order.
func GroupByTarget(lists ...[]monitor.CapturedSignal) map[string][]monitor.CapturedSignal {
	groups := make(map[string][]monitor.CapturedSignal)
	for _, list := range lists {
		for _, sig := range list {
			groups[sig.Target] = append(groups[sig.Target], sig)
		}
	}
	for name := range groups {
		sort.SliceStable(groups[name], func(i, j int) bool {
			return groups[name][i].Seq < groups[name][j].Seq
		})
	}
	return groups
}
