package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/v0xg/uisweep/internal/browser"
	"github.com/v0xg/uisweep/internal/monitor"
	"github.com/v0xg/uisweep/internal/navigator"
)

// Driver is the seam between the orchestrator and the live browser. The
// state machine only ever talks to this interface, so it can be exercised
// with a scripted fake while rodDriver carries the real Chrome wiring.
type Driver interface {
	Start() error
	Events() monitor.EventSource
	Login() error
	Navigate(route, name string) navigator.NavigationResult
	Screenshot() ([]byte, error)
	Close()
}

type rodDriver struct {
	cfg     Config
	log     *log.Logger
	session *browser.Session
	nav     *navigator.Navigator
}

func newRodDriver(cfg Config, logger *log.Logger) *rodDriver {
	return &rodDriver{cfg: cfg, log: logger}
}

func (d *rodDriver) Start() error {
	if err := browser.Preflight(d.cfg.BaseURL, d.cfg.InteractionTimeout); err != nil {
		return err
	}

	sess, err := browser.Launch(browser.Options{
		Headless:   d.cfg.Headless,
		ProfileDir: d.cfg.ProfileDir,
	}, d.log)
	if err != nil {
		return err
	}
	d.session = sess
	d.nav = navigator.New(sess.Page(), navigator.Options{
		BaseURL:            d.cfg.BaseURL,
		LoadTimeout:        d.cfg.PageLoadTimeout,
		InteractionTimeout: d.cfg.InteractionTimeout,
		SettleDelay:        d.cfg.SettleDelay,
	}, d.log)
	return nil
}

func (d *rodDriver) Events() monitor.EventSource {
	return monitor.NewPageSource(d.session.Page())
}

// Login drives one authentication attempt: open the application root,
// short-circuit if the session is already past the login boundary, otherwise
// fill the form and wait for the post-login redirect.
func (d *rodDriver) Login() error {
	page := d.session.Page().Timeout(d.cfg.PageLoadTimeout)
	if err := page.Navigate(d.cfg.BaseURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("load login page: %w", err)
	}

	if d.pastLogin() {
		// A profile dir or a previous attempt may already hold a session.
		if d.log != nil {
			d.log.Debug("already authenticated, skipping login form")
		}
		return nil
	}

	err := rod.Try(func() {
		p := d.session.Page().Timeout(d.cfg.InteractionTimeout)

		email := p.MustElement(d.cfg.EmailSelector)
		email.MustClick()
		email.MustSelectAllText()
		email.MustInput(d.cfg.Email)

		pass := p.MustElement(d.cfg.PasswordSelector)
		pass.MustClick()
		pass.MustSelectAllText()
		pass.MustInput(d.cfg.Password)

		p.MustElement(d.cfg.SubmitSelector).MustClick()
	})
	if err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}

	return d.waitPastLogin()
}

func (d *rodDriver) pastLogin() bool {
	info, err := d.session.Page().Info()
	if err != nil || info == nil {
		return false
	}
	return strings.Contains(info.URL, d.cfg.PostLoginPath)
}

func (d *rodDriver) waitPastLogin() error {
	deadline := time.Now().Add(d.cfg.PageLoadTimeout)
	for time.Now().Before(deadline) {
		if d.pastLogin() {
			return nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	return fmt.Errorf("no redirect to %s within %s", d.cfg.PostLoginPath, d.cfg.PageLoadTimeout)
}

func (d *rodDriver) Navigate(route, name string) navigator.NavigationResult {
	return d.nav.NavigateToRoute(route, name)
}

func (d *rodDriver) Screenshot() ([]byte, error) {
	quality := 90
	return d.session.Page().Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatPng,
		Quality: &quality,
	})
}

func (d *rodDriver) Close() {
	d.session.Close()
}
