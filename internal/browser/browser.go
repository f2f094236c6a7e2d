// Package browser owns the Chrome session the whole run drives.
package browser

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures the browser session.
type Options struct {
	Headless   bool
	Width      int
	Height     int
	ProfileDir string // Chrome/Chromium profile directory for preauthenticated sessions
}

// Session wraps the rod browser and the single page every component of a run
// shares. The run owns it exclusively; there is no cross-run reuse.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	log     *log.Logger
}

// Launch starts a local browser and opens a blank page. Failures here are
// fatal to the caller: without a session no sweep can produce meaningful
// results, so errors propagate instead of being absorbed.
func Launch(opts Options, logger *log.Logger) (*Session, error) {
	if opts.Width == 0 {
		opts.Width = 1440
	}
	if opts.Height == 0 {
		opts.Height = 900
	}

	path, _ := launcher.LookPath()
	l := launcher.New().Bin(path).Headless(opts.Headless)
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		page.Close()
		b.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if logger != nil {
		logger.Debug("browser session ready", "headless", opts.Headless, "viewport", fmt.Sprintf("%dx%d", opts.Width, opts.Height))
	}
	return &Session{browser: b, page: page, log: logger}, nil
}

// Page returns the session's single page.
func (s *Session) Page() *rod.Page {
	return s.page
}

// Close releases the page and the browser process. Safe on a partially
// initialized or already closed session.
func (s *Session) Close() {
	if s == nil {
		return
	}
	if s.page != nil {
		if err := s.page.Close(); err != nil && s.log != nil {
			s.log.Debug("page close", "error", err)
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && s.log != nil {
			s.log.Debug("browser close", "error", err)
		}
		s.browser = nil
	}
}
