// Package runner owns the sweep lifecycle: launch a browser, authenticate,
// walk every navigation target while the monitor listens, and repeat until
// the application produces zero errors or the iteration ceiling is reached.
package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/v0xg/uisweep/internal/monitor"
	"github.com/v0xg/uisweep/internal/navigator"
	"github.com/v0xg/uisweep/internal/report"
)

const (
	authAttempts    = 3
	authBackoffBase = time.Second
)

// RunResult is everything one finished run produced.
type RunResult struct {
	RunID      string
	Outcome    Outcome
	Iterations []report.IterationResult
	Summary    report.Summary
	OutputDir  string
}

// Runner drives a run through its states. It only talks to the browser via
// the Driver seam, so the whole state machine is testable without Chrome.
type Runner struct {
	cfg      Config
	log      *log.Logger
	driver   Driver
	monitor  *monitor.Monitor
	reporter *report.Reporter
	shots    *shotWriter
	runID    string

	state   State
	history []State

	sleep func(time.Duration)
}

// New validates the configuration and assembles a runner. The browser is not
// touched until Run.
func New(cfg Config, logger *log.Logger) (*Runner, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	r := &Runner{
		cfg:   cfg,
		log:   logger,
		runID: uuid.NewString(),
		state: StateUninitialized,
		sleep: time.Sleep,
	}
	r.history = append(r.history, r.state)
	r.driver = newRodDriver(cfg, logger.WithPrefix("browser"))
	r.monitor = monitor.New(logger.WithPrefix("monitor"))
	r.reporter = report.New(report.Options{
		OutputDir:         cfg.OutputDir,
		FingerprintLength: cfg.FingerprintLength,
	}, logger.WithPrefix("report"))
	r.shots = newShotWriter(cfg.OutputDir, logger.WithPrefix("shots"))
	return r, nil
}

// Run executes the full sweep. Initialization and authentication failures
// return an error and no result; once iteration starts, a result is always
// returned. Cleanup runs on every path out.
func (r *Runner) Run() (*RunResult, error) {
	defer r.cleanup()

	if err := r.initialize(); err != nil {
		return nil, err
	}
	if err := r.authenticate(); err != nil {
		return nil, err
	}
	return r.iterate()
}

func (r *Runner) initialize() error {
	r.log.Info("starting run", "run", r.runID, "base", r.cfg.BaseURL)
	if err := r.driver.Start(); err != nil {
		return fmt.Errorf("initialize browser: %w", err)
	}
	if err := r.monitor.Start(r.driver.Events()); err != nil {
		return fmt.Errorf("attach monitor: %w", err)
	}
	r.transition(StateInitialized)
	return nil
}

// authenticate retries the login with exponential backoff. On the final
// failure it captures the login page before reporting AUTH_FAILED, since
// that screen usually says why.
func (r *Runner) authenticate() error {
	r.transition(StateAuthenticating)

	var lastErr error
	backoff := authBackoffBase
	for attempt := 1; attempt <= authAttempts; attempt++ {
		r.log.Info("logging in", "attempt", attempt)
		lastErr = r.driver.Login()
		if lastErr == nil {
			r.transition(StateAuthenticated)
			return nil
		}
		r.log.Warn("login failed", "attempt", attempt, "error", lastErr)
		r.sleep(backoff)
		backoff *= 2
	}

	if data, err := r.driver.Screenshot(); err == nil {
		if path, err := r.shots.save("login", data); err == nil {
			r.log.Info("captured login failure", "path", path)
		}
	}
	r.transition(StateAuthFailed)
	return fmt.Errorf("authentication failed after %d attempts: %w", authAttempts, lastErr)
}

func (r *Runner) iterate() (*RunResult, error) {
	r.transition(StateIterating)

	flat := navigator.Flatten(r.cfg.Targets, r.cfg.IncludeAdmin)
	if len(r.cfg.Only) > 0 {
		kept, missing := navigator.Only(flat, r.cfg.Only)
		if len(missing) > 0 {
			r.log.Warn("unknown target ids requested", "ids", missing)
		}
		flat = kept
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("no targets to sweep")
	}
	r.log.Info("sweep plan", "targets", len(flat), "maxIterations", r.cfg.MaxIterations)

	result := &RunResult{RunID: r.runID, OutputDir: r.cfg.OutputDir}

	clean := false
	for i := 1; i <= r.cfg.MaxIterations; i++ {
		sweep := r.runIteration(i, flat)
		diff := r.reporter.DiffPrevious(sweep.Errors)
		iter := report.BuildIteration(sweep, diff)
		if _, err := r.reporter.WriteIteration(iter); err != nil {
			r.log.Error("write iteration report", "error", err)
		}
		r.reporter.RememberErrors(sweep.Errors)
		result.Iterations = append(result.Iterations, iter)

		r.log.Info("iteration done",
			"iteration", i,
			"errors", iter.TotalErrors,
			"warnings", iter.TotalWarnings,
			"new", len(iter.NewErrors),
			"fixed", len(iter.FixedErrors),
			"progress", diff.Progress)

		if iter.TotalErrors == 0 {
			r.log.Info("application is clean, stopping early", "iteration", i)
			clean = true
			break
		}
	}

	result.Summary = report.Summarize(result.Iterations)
	if _, err := r.reporter.WriteSummary(result.Summary, result.Iterations); err != nil {
		r.log.Error("write summary report", "error", err)
	}

	if clean {
		r.transition(StateClean)
		result.Outcome = OutcomeClean
	} else {
		r.transition(StateExhausted)
		result.Outcome = OutcomeExhausted
	}
	return result, nil
}

// runIteration visits every target once and snapshots what the monitor
// caught. The monitor is cleared first so each iteration sees only its own
// signals.
func (r *Runner) runIteration(index int, targets []navigator.Target) report.Sweep {
	r.monitor.Clear()
	started := time.Now()

	sweep := report.Sweep{
		Index:     index,
		RunID:     r.runID,
		StartedAt: started,
	}

	for _, t := range targets {
		r.monitor.SetCurrentTarget(t.Name)
		res := r.driver.Navigate(t.Route, t.Name)
		if res.Success {
			r.log.Debug("visited", "target", t.Name, "url", res.URL, "load", res.LoadTime)
		} else {
			r.log.Warn("navigation failed", "target", t.Name, "error", res.Error)
		}
		sweep.TargetsVisited++

		if r.cfg.ScreenshotOnError && r.targetHasErrors(t.Name) {
			r.captureFor(t, &sweep)
		}
	}

	sweep.Duration = time.Since(started)
	sweep.Errors = r.monitor.Errors()
	sweep.Warnings = r.monitor.Warnings()
	return sweep
}

func (r *Runner) captureFor(t navigator.Target, sweep *report.Sweep) {
	data, err := r.driver.Screenshot()
	if err != nil {
		r.log.Warn("screenshot failed", "target", t.Name, "error", err)
		return
	}
	path, err := r.shots.save(t.ID, data)
	if err != nil {
		r.log.Warn("screenshot write failed", "target", t.Name, "error", err)
		return
	}
	r.monitor.SetScreenshotForCurrentTarget(path)
	sweep.Screenshots = append(sweep.Screenshots, path)
}

func (r *Runner) targetHasErrors(name string) bool {
	for _, sig := range r.monitor.Errors() {
		if sig.Target == name {
			return true
		}
	}
	return false
}

// cleanup releases the browser and event subscription. It runs on every exit
// path, including initialization and authentication failures.
func (r *Runner) cleanup() {
	r.monitor.Stop()
	r.driver.Close()
	r.transition(StateCleanedUp)
	r.log.Debug("cleaned up", "run", r.runID)
}

func (r *Runner) transition(next State) {
	r.log.Debug("state", "from", r.state, "to", next)
	r.state = next
	r.history = append(r.history, next)
}
