package navigator

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
)

// PageProbe counts the interactive affordances visible on the current page.
type PageProbe struct {
	Tables         int `json:"tables"`
	TablesWithRows int `json:"tablesWithRows"`
	Inputs         int `json:"inputs"`
	InputsEnabled  int `json:"inputsEnabled"`
	Buttons        int `json:"buttons"`
	ButtonsEnabled int `json:"buttonsEnabled"`
}

// HasDataTable reports whether at least one visible table holds data rows.
func (p PageProbe) HasDataTable() bool { return p.TablesWithRows > 0 }

// HasForm reports whether the page offers at least one usable input.
func (p PageProbe) HasForm() bool { return p.InputsEnabled > 0 }

// HasButtons reports whether the page offers at least one clickable button.
func (p PageProbe) HasButtons() bool { return p.ButtonsEnabled > 0 }

// NavigationResult records one attempt to reach a target. Failures land in
// Error instead of an error return so one broken page never aborts the sweep.
type NavigationResult struct {
	Name     string        `json:"name"`
	Route    string        `json:"route"`
	URL      string        `json:"url"`
	Success  bool          `json:"success"`
	LoadTime time.Duration `json:"loadTime"`
	Probe    PageProbe     `json:"probe"`
	Error    string        `json:"error,omitempty"`
}

// Options configures navigation timing.
type Options struct {
	BaseURL            string
	LoadTimeout        time.Duration
	InteractionTimeout time.Duration
	SettleDelay        time.Duration
}

// Navigator drives a single page through the target tree.
type Navigator struct {
	page *rod.Page
	opts Options
	log  *log.Logger
}

func New(page *rod.Page, opts Options, logger *log.Logger) *Navigator {
	if opts.LoadTimeout == 0 {
		opts.LoadTimeout = 30 * time.Second
	}
	if opts.InteractionTimeout == 0 {
		opts.InteractionTimeout = 10 * time.Second
	}
	return &Navigator{page: page, opts: opts, log: logger}
}

// NavigateToRoute drives the page to route and waits for it to settle. The
// load phase is bounded by LoadTimeout, so a page that never finishes
// loading produces a failed result rather than a hang.
func (n *Navigator) NavigateToRoute(route, name string) NavigationResult {
	url := resolveURL(n.opts.BaseURL, route)
	res := NavigationResult{Name: name, Route: route, URL: url}
	start := time.Now()

	page := n.page.Timeout(n.opts.LoadTimeout)
	if err := page.Navigate(url); err != nil {
		res.LoadTime = time.Since(start)
		res.Error = fmt.Sprintf("navigate %s: %v", url, err)
		if n.log != nil {
			n.log.Warn("navigation failed", "target", name, "url", url, "error", err)
		}
		return res
	}
	if err := page.WaitLoad(); err != nil {
		res.LoadTime = time.Since(start)
		res.Error = fmt.Sprintf("wait for load of %s: %v", url, err)
		if n.log != nil {
			n.log.Warn("page never finished loading", "target", name, "url", url, "error", err)
		}
		return res
	}

	// Wait for network idle with its own short timeout so persistent
	// connections (websockets, polling) can't hang the sweep.
	n.page.Timeout(5 * time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	// SPAs keep rendering after load; give client-side fetches a moment to
	// fire so their failures are attributed to this target.
	if n.opts.SettleDelay > 0 {
		time.Sleep(n.opts.SettleDelay)
	}

	res.LoadTime = time.Since(start)
	res.Success = true
	res.Probe = n.ProbePage()
	return res
}

// ProbePage counts visible tables, inputs, and buttons in one evaluation.
// A page where the probe itself fails reports zero affordances; the sweep
// records that and moves on.
func (n *Navigator) ProbePage() PageProbe {
	obj, err := n.page.Timeout(n.opts.InteractionTimeout).Eval(probeJS)
	if err != nil {
		if n.log != nil {
			n.log.Warn("page probe failed", "error", err)
		}
		return PageProbe{}
	}
	v := obj.Value
	return PageProbe{
		Tables:         v.Get("tables").Int(),
		TablesWithRows: v.Get("tablesWithRows").Int(),
		Inputs:         v.Get("inputs").Int(),
		InputsEnabled:  v.Get("inputsEnabled").Int(),
		Buttons:        v.Get("buttons").Int(),
		ButtonsEnabled: v.Get("buttonsEnabled").Int(),
	}
}

const probeJS = `() => {
	const probe = { tables: 0, tablesWithRows: 0, inputs: 0, inputsEnabled: 0, buttons: 0, buttonsEnabled: 0 };

	document.querySelectorAll('table, [role="table"], [role="grid"]').forEach(el => {
		try {
			if (!el.offsetParent) return; // Not visible
			probe.tables++;
			const rows = el.matches('table')
				? el.querySelectorAll('tbody tr').length
				: Math.max(0, el.querySelectorAll('[role="row"]').length - 1);
			if (rows > 0) probe.tablesWithRows++;
		} catch (e) {
			// Throwing elements count as non-interactive
		}
	});

	document.querySelectorAll('input:not([type="hidden"]), textarea, select').forEach(el => {
		try {
			if (!el.offsetParent) return;
			probe.inputs++;
			if (!el.disabled && !el.readOnly) probe.inputsEnabled++;
		} catch (e) {}
	});

	document.querySelectorAll('button, [role="button"], input[type="submit"], input[type="button"]').forEach(el => {
		try {
			if (!el.offsetParent) return;
			probe.buttons++;
			if (!el.disabled) probe.buttonsEnabled++;
		} catch (e) {}
	});

	return probe;
}`

// resolveURL joins base and route, passing through routes that are already
// absolute.
func resolveURL(base, route string) string {
	if strings.HasPrefix(route, "http://") || strings.HasPrefix(route, "https://") {
		return route
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(route, "/")
}
