package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/uisweep/internal/classify"
	"github.com/v0xg/uisweep/internal/monitor"
)

func sig(seq int64, target, message string, cat classify.Category) monitor.CapturedSignal {
	return monitor.CapturedSignal{
		Seq:       seq,
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		PageURL:   "https://app.example.com/" + target,
		Target:    target,
		Category:  cat,
		Message:   message,
	}
}

func fingerprints(signals []monitor.CapturedSignal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = Fingerprint(s)
	}
	return out
}

func TestCompareSetDifference(t *testing.T) {
	a := []monitor.CapturedSignal{
		sig(1, "dashboard", "HTTP 503 on /v1/usage", classify.CategoryAPI),
		sig(2, "costs", "request failed: net::ERR_CONNECTION_REFUSED", classify.CategoryNetwork),
	}
	b := []monitor.CapturedSignal{
		sig(10, "dashboard", "HTTP 503 on /v1/usage", classify.CategoryAPI),
		sig(11, "security", "TypeError: boom", classify.CategoryJS),
	}

	d := Compare(b, a, 0)
	assert.Equal(t, fingerprints(b[1:]), fingerprints(d.New))
	assert.Equal(t, fingerprints(a[1:]), fingerprints(d.Fixed))
	assert.Equal(t, fingerprints(b[:1]), fingerprints(d.Persistent))
	for _, s := range d.New {
		assert.True(t, s.IsNew)
	}
	for _, s := range d.Persistent {
		assert.False(t, s.IsNew)
	}
}

func TestCompareAgainstItself(t *testing.T) {
	a := []monitor.CapturedSignal{
		sig(1, "dashboard", "HTTP 503 on /v1/usage", classify.CategoryAPI),
		sig(2, "costs", "Timeout", classify.CategoryNetwork),
	}
	d := Compare(a, a, 0)
	assert.Empty(t, d.New)
	assert.Empty(t, d.Fixed)
	assert.Len(t, d.Persistent, 2)
	assert.Equal(t, 0, d.Progress)
}

func TestCompareFixTracking(t *testing.T) {
	iter1 := []monitor.CapturedSignal{
		sig(1, "module-page", "Cannot find module X", classify.CategoryUnknown),
		sig(2, "timeout-page", "Timeout", classify.CategoryUnknown),
	}
	iter2 := []monitor.CapturedSignal{
		sig(20, "module-page", "Cannot find module X", classify.CategoryUnknown),
	}

	d := Compare(iter2, iter1, 0)
	assert.Empty(t, d.New)
	require.Len(t, d.Fixed, 1)
	assert.Equal(t, "Timeout", d.Fixed[0].Message)
	require.Len(t, d.Persistent, 1)
	assert.Equal(t, "Cannot find module X", d.Persistent[0].Message)
	assert.Equal(t, 50, d.Progress)
}

func TestCompareProgress(t *testing.T) {
	one := []monitor.CapturedSignal{sig(1, "a", "boom", classify.CategoryJS)}
	two := []monitor.CapturedSignal{
		sig(1, "a", "boom", classify.CategoryJS),
		sig(2, "b", "bang", classify.CategoryJS),
	}
	three := append(append([]monitor.CapturedSignal(nil), two...), sig(3, "c", "crash", classify.CategoryJS))

	assert.Equal(t, 100, Compare(nil, nil, 0).Progress, "no previous iteration")
	assert.Equal(t, 100, Compare(one, nil, 0).Progress, "previous total of zero")
	assert.Equal(t, 100, Compare(nil, two, 0).Progress)
	assert.Equal(t, 50, Compare(one, two, 0).Progress)
	assert.Equal(t, 67, Compare(one, three, 0).Progress, "rounded, not truncated")
	assert.Equal(t, -100, Compare(two, one, 0).Progress, "regressions read as negative progress")
}

func TestFingerprintShape(t *testing.T) {
	s := sig(1, "Dashboard", "HTTP 503 on /v1/usage", classify.CategoryAPI)
	assert.Equal(t, "API:Dashboard:HTTP 503 on /v1/usage", Fingerprint(s))

	other := s
	other.Target = "Costs"
	assert.NotEqual(t, Fingerprint(s), Fingerprint(other), "same message on another target is another error")
}

func TestFingerprintTruncation(t *testing.T) {
	long := "boom at " + strings.Repeat("x", 200)
	a := sig(1, "dashboard", long+" request-id=111", classify.CategoryJS)
	b := sig(2, "dashboard", long+" request-id=222", classify.CategoryJS)

	// Trailing run-specific noise falls outside the truncated window, so the
	// two messages collapse to one fingerprint.
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	d := Compare([]monitor.CapturedSignal{a}, []monitor.CapturedSignal{b}, 0)
	assert.Empty(t, d.New)
	assert.Empty(t, d.Fixed)

	// Any reasonable length works; the window just has to be applied
	// consistently on both sides.
	short1 := sig(1, "t", "ERROR alpha-12345", classify.CategoryJS)
	short2 := sig(2, "t", "ERROR alpha-67890", classify.CategoryJS)
	assert.Equal(t, fingerprint(short1, 10), fingerprint(short2, 10))
	assert.NotEqual(t, fingerprint(short1, 17), fingerprint(short2, 17))

	// Truncation counts characters, not bytes.
	multibyte := sig(3, "t", strings.Repeat("é", 150), classify.CategoryJS)
	assert.Equal(t, "JS:t:"+strings.Repeat("é", 100), Fingerprint(multibyte))
}

func TestSummarize(t *testing.T) {
	iter := func(index, errors int) IterationResult {
		return IterationResult{Index: index, TotalErrors: errors}
	}

	assert.Equal(t, Summary{}, Summarize(nil))

	s := Summarize([]IterationResult{iter(1, 5), iter(2, 3), iter(3, 0)})
	assert.Equal(t, Summary{TotalIterations: 3, InitialErrors: 5, CurrentErrors: 0, FixedCount: 5, Progress: 100, Clean: true}, s)

	// Middle iterations are ignored: strictly first versus last.
	s = Summarize([]IterationResult{iter(1, 4), iter(2, 9), iter(3, 2)})
	assert.Equal(t, 2, s.FixedCount)
	assert.Equal(t, 50, s.Progress)
	assert.False(t, s.Clean)

	s = Summarize([]IterationResult{iter(1, 1), iter(2, 4)})
	assert.Zero(t, s.FixedCount, "a regressing run must not report negative fixes")
	assert.False(t, s.Clean)

	assert.Equal(t, 100, Summarize([]IterationResult{iter(1, 0)}).Progress)
	assert.Equal(t, 0, Summarize([]IterationResult{iter(1, 0), iter(2, 3)}).Progress, "started clean, ended dirty")
}

func TestBuildIterationInvariants(t *testing.T) {
	errs := []monitor.CapturedSignal{
		sig(1, "dashboard", "HTTP 503 on /v1/usage", classify.CategoryAPI),
		sig(3, "costs", "TypeError: boom", classify.CategoryJS),
		sig(4, "costs", "HTTP 500 on /v1/costs", classify.CategoryAPI),
	}
	warns := []monitor.CapturedSignal{
		sig(2, "dashboard", "deprecated", classify.CategoryWarning),
	}
	prev := []monitor.CapturedSignal{
		sig(90, "dashboard", "HTTP 503 on /v1/usage", classify.CategoryAPI),
		sig(91, "security", "gone now", classify.CategoryUnknown),
	}

	d := Compare(errs, prev, 0)
	it := BuildIteration(Sweep{
		Index:          2,
		RunID:          "run-1",
		StartedAt:      time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Duration:       30 * time.Second,
		TargetsVisited: 11,
		Errors:         errs,
		Warnings:       warns,
	}, d)

	assert.Equal(t, it.TotalErrors, len(it.Errors))
	assert.Equal(t, it.TotalWarnings, len(it.Warnings))

	sum := 0
	for _, n := range it.ByCategory {
		sum += n
	}
	assert.Equal(t, it.TotalErrors, sum, "category breakdown sums to the error total")

	// NewErrors is a subset of Errors; FixedErrors never overlaps Errors.
	errFPs := make(map[string]bool)
	for _, s := range it.Errors {
		errFPs[Fingerprint(s)] = true
	}
	for _, s := range it.NewErrors {
		assert.True(t, errFPs[Fingerprint(s)])
	}
	for _, s := range it.FixedErrors {
		assert.False(t, errFPs[Fingerprint(s)])
	}

	// IsNew stamped on the full error list, not only on the diff slices.
	assert.False(t, it.Errors[0].IsNew)
	assert.True(t, it.Errors[1].IsNew)
	assert.True(t, it.Errors[2].IsNew)

	grouped := it.ByTarget["costs"]
	require.Len(t, grouped, 2)
	assert.True(t, grouped[0].Seq < grouped[1].Seq)
}
