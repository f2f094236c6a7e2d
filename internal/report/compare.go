package report

import (
	"math"

	"github.com/v0xg/uisweep/internal/monitor"
)

// DefaultFingerprintLength bounds how much of a message participates in the
// fingerprint. Full messages can carry run-specific noise (timestamps,
// request ids) that would defeat matching across iterations; the first 100
// characters are enough to tell genuinely distinct errors apart.
const DefaultFingerprintLength = 100

// Fingerprint is the identity of an error across iterations.
func Fingerprint(sig monitor.CapturedSignal) string {
	return fingerprint(sig, DefaultFingerprintLength)
}

func fingerprint(sig monitor.CapturedSignal, maxLen int) string {
	msg := sig.Message
	if r := []rune(msg); len(r) > maxLen {
		msg = string(r[:maxLen])
	}
	return string(sig.Category) + ":" + sig.Target + ":" + msg
}

// Diff is the outcome of comparing one iteration's errors against the
// previous iteration's.
type Diff struct {
	New        []monitor.CapturedSignal `json:"new"`
	Fixed      []monitor.CapturedSignal `json:"fixed"`
	Persistent []monitor.CapturedSignal `json:"persistent"`
	Progress   int                      `json:"progress"`
}

// Compare splits current into new and persistent errors and previous into
// fixed ones, matching by fingerprint. It is a pure function so it can be
// exercised with synthetic inputs; fingerprintLen <= 0 selects the default.
// Signals placed in New have their IsNew flag set.
func Compare(current, previous []monitor.CapturedSignal, fingerprintLen int) Diff {
	if fingerprintLen <= 0 {
		fingerprintLen = DefaultFingerprintLength
	}

	prevSet := make(map[string]bool, len(previous))
	for _, sig := range previous {
		prevSet[fingerprint(sig, fingerprintLen)] = true
	}
	curSet := make(map[string]bool, len(current))
	for _, sig := range current {
		curSet[fingerprint(sig, fingerprintLen)] = true
	}

	var d Diff
	for _, sig := range current {
		if prevSet[fingerprint(sig, fingerprintLen)] {
			d.Persistent = append(d.Persistent, sig)
		} else {
			sig.IsNew = true
			d.New = append(d.New, sig)
		}
	}
	for _, sig := range previous {
		if !curSet[fingerprint(sig, fingerprintLen)] {
			d.Fixed = append(d.Fixed, sig)
		}
	}

	d.Progress = progressPercent(len(previous), len(current))
	return d
}

// progressPercent measures the error-count reduction from previous to
// current. With no previous errors there is nothing left to fix, so the
// reduction is complete by definition. It is deliberately unclamped: a
// regression reads as negative progress.
func progressPercent(previousTotal, currentTotal int) int {
	if previousTotal == 0 {
		return 100
	}
	return int(math.Round(float64(previousTotal-currentTotal) / float64(previousTotal) * 100))
}
