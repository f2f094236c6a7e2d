package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/v0xg/uisweep/internal/monitor"
)

// Options configures the reporter.
type Options struct {
	OutputDir         string
	FingerprintLength int
}

// Reporter carries the previous iteration's errors between sweeps, keyed by
// fingerprint and replaced wholesale after each iteration, and writes the
// markdown artifacts. The diffing itself stays in the pure Compare.
type Reporter struct {
	opts     Options
	log      *log.Logger
	previous map[string]monitor.CapturedSignal
}

func New(opts Options, logger *log.Logger) *Reporter {
	if opts.OutputDir == "" {
		opts.OutputDir = "sweep-results"
	}
	if opts.FingerprintLength <= 0 {
		opts.FingerprintLength = DefaultFingerprintLength
	}
	return &Reporter{opts: opts, log: logger}
}

// DiffPrevious compares current against the remembered previous iteration.
// On the first iteration everything current is new and nothing is fixed.
func (r *Reporter) DiffPrevious(current []monitor.CapturedSignal) Diff {
	return Compare(current, r.previousErrors(), r.opts.FingerprintLength)
}

// RememberErrors replaces the remembered previous iteration with errs,
// deduplicated by fingerprint (first instance wins).
func (r *Reporter) RememberErrors(errs []monitor.CapturedSignal) {
	prev := make(map[string]monitor.CapturedSignal, len(errs))
	for _, sig := range errs {
		fp := fingerprint(sig, r.opts.FingerprintLength)
		if _, ok := prev[fp]; !ok {
			prev[fp] = sig
		}
	}
	r.previous = prev
}

func (r *Reporter) previousErrors() []monitor.CapturedSignal {
	if len(r.previous) == 0 {
		return nil
	}
	out := make([]monitor.CapturedSignal, 0, len(r.previous))
	for _, sig := range r.previous {
		out = append(out, sig)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// WriteIteration renders result and writes it as iteration-NN.md in the
// output directory. A write failure surfaces as an error; it never touches
// the remembered state, so the run's in-memory record stays intact.
func (r *Reporter) WriteIteration(result IterationResult) (string, error) {
	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(r.opts.OutputDir, fmt.Sprintf("iteration-%02d.md", result.Index))
	if err := os.WriteFile(path, []byte(Render(result)), 0o644); err != nil {
		return "", fmt.Errorf("write iteration report: %w", err)
	}
	if r.log != nil {
		r.log.Info("iteration report written", "path", path, "errors", result.TotalErrors, "warnings", result.TotalWarnings)
	}
	return path, nil
}

// WriteSummary writes the run-level summary.md next to the iteration
// reports.
func (r *Reporter) WriteSummary(s Summary, all []IterationResult) (string, error) {
	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(r.opts.OutputDir, "summary.md")
	if err := os.WriteFile(path, []byte(RenderSummary(s, all)), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	if r.log != nil {
		r.log.Info("run summary written", "path", path, "progress", s.Progress)
	}
	return path, nil
}

// OutputDir reports where artifacts land, after defaulting.
func (r *Reporter) OutputDir() string { return r.opts.OutputDir }
