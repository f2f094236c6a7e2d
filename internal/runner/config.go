package runner

import (
	"errors"
	"time"

	"github.com/v0xg/uisweep/internal/navigator"
)

// Config holds every recognized run option. Zero values are filled with
// defaults by normalize; only BaseURL and the credential pair are mandatory.
type Config struct {
	BaseURL  string
	Email    string
	Password string

	Headless   bool
	ProfileDir string

	PageLoadTimeout    time.Duration
	InteractionTimeout time.Duration
	SettleDelay        time.Duration

	MaxIterations int
	Only          []string
	IncludeAdmin  bool
	Targets       []navigator.Target

	ScreenshotOnError bool
	OutputDir         string
	FingerprintLength int

	// DOM contract of the login view and the post-login redirect.
	EmailSelector    string
	PasswordSelector string
	SubmitSelector   string
	PostLoginPath    string
}

func (c *Config) normalize() {
	if c.PageLoadTimeout <= 0 {
		c.PageLoadTimeout = 30 * time.Second
	}
	if c.InteractionTimeout <= 0 {
		c.InteractionTimeout = 10 * time.Second
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	} else if c.SettleDelay == 0 {
		c.SettleDelay = 1500 * time.Millisecond
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 5
	}
	if c.OutputDir == "" {
		c.OutputDir = "sweep-results"
	}
	if len(c.Targets) == 0 {
		c.Targets = navigator.DefaultTree()
	}
	if c.EmailSelector == "" {
		c.EmailSelector = `input[type="email"]`
	}
	if c.PasswordSelector == "" {
		c.PasswordSelector = `input[type="password"]`
	}
	if c.SubmitSelector == "" {
		c.SubmitSelector = `button[type="submit"]`
	}
	if c.PostLoginPath == "" {
		c.PostLoginPath = "/dashboard"
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if c.Email == "" || c.Password == "" {
		return errors.New("credentials are required (set UISWEEP_EMAIL and UISWEEP_PASSWORD or the corresponding flags)")
	}
	return nil
}
