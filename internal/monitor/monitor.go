package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/v0xg/uisweep/internal/classify"
)

// Monitor accumulates error and warning signals from a single page for the
// lifetime of a run. Capture is passive and asynchronous relative to
// navigation: the orchestrator tags the active target with SetCurrentTarget
// before navigating, and every signal captured until the next call carries
// that tag. A signal observed on one collection never migrates to the other.
type Monitor struct {
	log *log.Logger

	mu       sync.Mutex
	src      EventSource
	stop     func()
	seq      int64
	target   string
	errors   []CapturedSignal
	warnings []CapturedSignal
}

func New(logger *log.Logger) *Monitor {
	return &Monitor{log: logger}
}

// Start attaches the monitor to the source's four event channels. Calling
// Start while already attached detaches the previous subscription first, so
// a repeated call cannot double-register handlers and duplicate signals.
func (m *Monitor) Start(src EventSource) error {
	m.mu.Lock()
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
	m.src = src
	m.mu.Unlock()

	stop, err := src.Subscribe(Handlers{
		OnLog:           m.handleLog,
		OnException:     m.handleException,
		OnRequestFailed: m.handleRequestFailed,
		OnResponse:      m.handleResponse,
	})
	if err != nil {
		return fmt.Errorf("subscribe to page events: %w", err)
	}

	m.mu.Lock()
	m.stop = stop
	m.mu.Unlock()
	return nil
}

// Stop detaches the event listeners. Signals captured so far stay put.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
}

// Clear drops both collections without touching the subscription, so the
// next iteration starts from a blank slate on a live page.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = nil
	m.warnings = nil
}

// SetCurrentTarget records which navigation target is active. Signals
// captured from now on are tagged with name, including late-arriving ones
// caused by a previous page as long as they land before the next call.
func (m *Monitor) SetCurrentTarget(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = name
}

// CurrentTarget returns the active target tag.
func (m *Monitor) CurrentTarget() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target
}

// Errors returns a snapshot of captured errors in capture order.
func (m *Monitor) Errors() []CapturedSignal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CapturedSignal, len(m.errors))
	copy(out, m.errors)
	return out
}

// Warnings returns a snapshot of captured warnings in capture order.
func (m *Monitor) Warnings() []CapturedSignal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CapturedSignal, len(m.warnings))
	copy(out, m.warnings)
	return out
}

// SetScreenshotForCurrentTarget attaches path to every signal tagged with
// the active target that does not already have a screenshot, covering
// signals that arrived after the shot was scheduled but before it landed.
func (m *Monitor) SetScreenshotForCurrentTarget(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.errors {
		if m.errors[i].Target == m.target && m.errors[i].ScreenshotPath == "" {
			m.errors[i].ScreenshotPath = path
		}
	}
	for i := range m.warnings {
		if m.warnings[i].Target == m.target && m.warnings[i].ScreenshotPath == "" {
			m.warnings[i].ScreenshotPath = path
		}
	}
}

func (m *Monitor) handleLog(e LogEvent) {
	switch e.Level {
	case "error":
		m.capture(classify.Classify(e.Message, 0), e.Message, e.Stack, "", 0, false)
	case "warning", "warn":
		m.capture(classify.CategoryWarning, e.Message, e.Stack, "", 0, true)
	}
}

func (m *Monitor) handleException(e ExceptionEvent) {
	m.capture(classify.Classify(e.Message, 0), e.Message, e.Stack, e.URL, 0, false)
}

func (m *Monitor) handleRequestFailed(e RequestFailedEvent) {
	if classify.IsNavigationAbort(e.ErrorText, e.Canceled) {
		// Browser-initiated cancellation from our own navigation, not an
		// application failure.
		if m.log != nil {
			m.log.Debug("ignoring aborted request", "url", e.RequestURL, "error", e.ErrorText)
		}
		return
	}
	msg := e.ErrorText
	if e.RequestURL != "" {
		msg = fmt.Sprintf("request failed: %s (%s)", e.ErrorText, e.RequestURL)
	}
	m.capture(classify.Classify(msg, 0), msg, "", e.RequestURL, 0, false)
}

func (m *Monitor) handleResponse(e ResponseEvent) {
	if e.Status < 400 {
		return
	}
	msg := fmt.Sprintf("HTTP %d on %s", e.Status, e.URL)
	m.capture(classify.Classify(msg, e.Status), msg, "", e.URL, e.Status, false)
}

// capture stamps and stores one signal. A malformed event with no message
// must not kill the run; it is recorded with a placeholder so the evidence
// survives even when the payload did not parse.
func (m *Monitor) capture(category classify.Category, message, stack, requestURL string, status int, warning bool) {
	if message == "" {
		message = "(unparseable browser event)"
		if !warning {
			category = classify.CategoryUnknown
		}
	}

	m.mu.Lock()
	src := m.src
	m.mu.Unlock()
	var pageURL string
	if src != nil {
		pageURL = src.PageURL()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	sig := CapturedSignal{
		Seq:        m.seq,
		Timestamp:  time.Now(),
		PageURL:    pageURL,
		Target:     m.target,
		Category:   category,
		Message:    message,
		Stack:      stack,
		RequestURL: requestURL,
		Status:     status,
	}
	if warning {
		m.warnings = append(m.warnings, sig)
	} else {
		m.errors = append(m.errors, sig)
	}
	if m.log != nil {
		m.log.Debug("captured signal", "category", category, "target", sig.Target, "message", truncate(message, 120))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
