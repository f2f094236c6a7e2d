package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/v0xg/uisweep/internal/classify"
	"github.com/v0xg/uisweep/internal/monitor"
)

// Render produces the per-iteration markdown report. Output is deterministic
// for a given result: map-backed data is rendered in capture order or fixed
// taxonomy order, never map order.
func Render(r IterationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Error sweep report: iteration %d\n\n", r.Index)
	fmt.Fprintf(&b, "- Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Duration: %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "- Targets visited: %d\n\n", r.TargetsVisited)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Errors | %d |\n", r.TotalErrors)
	fmt.Fprintf(&b, "| Warnings | %d |\n", r.TotalWarnings)
	fmt.Fprintf(&b, "| New this iteration | %d |\n", len(r.NewErrors))
	fmt.Fprintf(&b, "| Fixed since last iteration | %d |\n\n", len(r.FixedErrors))

	b.WriteString("## Errors by category\n\n")
	if r.TotalErrors == 0 {
		b.WriteString("(none)\n\n")
	} else {
		b.WriteString("| Category | Count |\n|---|---|\n")
		for _, cat := range classify.Categories() {
			if n := r.ByCategory[cat]; n > 0 {
				fmt.Fprintf(&b, "| %s | %d |\n", cat, n)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Signals by target\n\n")
	signals := orderedSignals(r)
	if len(signals) == 0 {
		b.WriteString("(none)\n\n")
	} else {
		for _, name := range targetOrder(signals) {
			fmt.Fprintf(&b, "### %s\n\n", name)
			for _, sig := range signals {
				if displayTarget(sig) == name {
					renderSignal(&b, sig)
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## New this iteration\n\n")
	renderSignalList(&b, r.NewErrors)

	b.WriteString("## Fixed since last iteration\n\n")
	renderSignalList(&b, r.FixedErrors)

	b.WriteString("## Verdict\n\n")
	if r.TotalErrors == 0 {
		fmt.Fprintf(&b, "✅ CLEAN: zero errors after iteration %d.\n", r.Index)
	} else {
		fmt.Fprintf(&b, "❌ %d error(s) remain after iteration %d.\n", r.TotalErrors, r.Index)
	}
	return b.String()
}

// RenderSummary produces the run-level markdown summary.
func RenderSummary(s Summary, all []IterationResult) string {
	var b strings.Builder

	b.WriteString("# Error sweep summary\n\n")
	if len(all) > 0 && all[0].RunID != "" {
		fmt.Fprintf(&b, "- Run: %s\n", all[0].RunID)
	}
	fmt.Fprintf(&b, "- Iterations: %d\n", s.TotalIterations)
	fmt.Fprintf(&b, "- Initial errors: %d\n", s.InitialErrors)
	fmt.Fprintf(&b, "- Remaining errors: %d\n", s.CurrentErrors)
	fmt.Fprintf(&b, "- Fixed: %d\n", s.FixedCount)
	fmt.Fprintf(&b, "- Progress: %d%%\n\n", s.Progress)

	if len(all) > 0 {
		b.WriteString("| Iteration | Errors | Warnings | New | Fixed | Duration |\n|---|---|---|---|---|---|\n")
		for _, it := range all {
			fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %s |\n",
				it.Index, it.TotalErrors, it.TotalWarnings, len(it.NewErrors), len(it.FixedErrors), it.Duration.Round(time.Millisecond))
		}
		b.WriteString("\n")
	}

	if s.Clean {
		b.WriteString("✅ Run ended CLEAN.\n")
	} else {
		fmt.Fprintf(&b, "❌ Run ended with %d unresolved error(s).\n", s.CurrentErrors)
	}
	return b.String()
}

func renderSignal(b *strings.Builder, sig monitor.CapturedSignal) {
	fmt.Fprintf(b, "- **[%s]** %s %s\n", sig.Category, sig.Timestamp.UTC().Format("15:04:05"), oneline(sig.Message))
	if sig.PageURL != "" {
		fmt.Fprintf(b, "  - page: %s\n", sig.PageURL)
	}
	if sig.RequestURL != "" && sig.RequestURL != sig.PageURL {
		fmt.Fprintf(b, "  - request: %s\n", sig.RequestURL)
	}
	if sig.Status != 0 {
		fmt.Fprintf(b, "  - status: %d\n", sig.Status)
	}
	if sig.ScreenshotPath != "" {
		fmt.Fprintf(b, "  - screenshot: %s\n", sig.ScreenshotPath)
	}
}

func renderSignalList(b *strings.Builder, signals []monitor.CapturedSignal) {
	if len(signals) == 0 {
		b.WriteString("(none)\n\n")
		return
	}
	for _, sig := range signals {
		fmt.Fprintf(b, "- [%s] %s: %s\n", sig.Category, displayTarget(sig), oneline(sig.Message))
	}
	b.WriteString("\n")
}

// orderedSignals merges errors and warnings back into capture order.
func orderedSignals(r IterationResult) []monitor.CapturedSignal {
	all := make([]monitor.CapturedSignal, 0, len(r.Errors)+len(r.Warnings))
	all = append(all, r.Errors...)
	all = append(all, r.Warnings...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })
	return all
}

// targetOrder lists target names by first appearance in capture order.
func targetOrder(signals []monitor.CapturedSignal) []string {
	seen := make(map[string]bool)
	var order []string
	for _, sig := range signals {
		name := displayTarget(sig)
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	return order
}

func displayTarget(sig monitor.CapturedSignal) string {
	if sig.Target == "" {
		return "(untagged)"
	}
	return sig.Target
}

func oneline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
