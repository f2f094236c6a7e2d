package report

// Summary is the cumulative first-versus-last view across a whole run,
// distinct from the iteration-to-iteration Compare.
type Summary struct {
	TotalIterations int  `json:"totalIterations"`
	InitialErrors   int  `json:"initialErrors"`
	CurrentErrors   int  `json:"currentErrors"`
	FixedCount      int  `json:"fixedCount"`
	Progress        int  `json:"progress"`
	Clean           bool `json:"clean"`
}

// Summarize compares strictly the first and last iteration, however many lie
// between. FixedCount is clamped at zero so a run where errors increased
// never reports negative fixes. An empty sequence yields a zero Summary.
func Summarize(all []IterationResult) Summary {
	if len(all) == 0 {
		return Summary{}
	}
	first := all[0].TotalErrors
	last := all[len(all)-1].TotalErrors

	s := Summary{
		TotalIterations: len(all),
		InitialErrors:   first,
		CurrentErrors:   last,
		Clean:           last == 0,
	}
	if fixed := first - last; fixed > 0 {
		s.FixedCount = fixed
	}
	switch {
	case first > 0:
		s.Progress = progressPercent(first, last)
	case last == 0:
		// Started clean, stayed clean.
		s.Progress = 100
	}
	return s
}
