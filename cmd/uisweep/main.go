package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/v0xg/uisweep/internal/logging"
	"github.com/v0xg/uisweep/internal/navigator"
	"github.com/v0xg/uisweep/internal/runner"
)

var (
	email         string
	password      string
	headless      bool
	profile       string
	targetsFile   string
	only          []string
	includeAdmin  bool
	iterations    int
	loadTimeout   time.Duration
	settleDelay   time.Duration
	outputDir     string
	noScreenshots bool
	verbose       bool

	exitCode int
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "uisweep <base-url>",
		Short: "Sweep a web app for console and network errors until it comes back clean",
		Long: `uisweep logs into a web application, visits every navigation target while
watching the browser console and network traffic, and repeats the sweep
until no errors remain or the iteration ceiling is reached.

Each iteration writes a markdown report listing the errors found, which
ones are new and which were fixed since the previous pass.

Example:
  uisweep https://app.example.com --email qa@example.com --password secret`,
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&email, "email", "", "Login email (default: UISWEEP_EMAIL)")
	rootCmd.Flags().StringVar(&password, "password", "", "Login password (default: UISWEEP_PASSWORD)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "Run Chrome headless")
	rootCmd.Flags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	rootCmd.Flags().StringVar(&targetsFile, "targets", "", "YAML file describing the navigation tree (default: built-in tree)")
	rootCmd.Flags().StringSliceVar(&only, "only", nil, "Sweep only these target ids")
	rootCmd.Flags().BoolVar(&includeAdmin, "include-admin", false, "Include admin-only targets")
	rootCmd.Flags().IntVar(&iterations, "iterations", 5, "Maximum sweep iterations")
	rootCmd.Flags().DurationVar(&loadTimeout, "load-timeout", 30*time.Second, "Per-page navigation timeout")
	rootCmd.Flags().DurationVar(&settleDelay, "settle-delay", 1500*time.Millisecond, "Extra wait after each page load (0 disables)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "sweep-results", "Directory for reports and screenshots")
	rootCmd.Flags().BoolVar(&noScreenshots, "no-screenshots", false, "Disable screenshots of failing targets")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	targetsCmd := &cobra.Command{
		Use:   "targets",
		Short: "List the navigation targets a sweep would visit",
		Args:  cobra.NoArgs,
		RunE:  listTargets,
	}
	targetsCmd.Flags().StringVar(&targetsFile, "targets", "", "YAML file describing the navigation tree (default: built-in tree)")
	targetsCmd.Flags().BoolVar(&includeAdmin, "include-admin", false, "Include admin-only targets")
	rootCmd.AddCommand(targetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
	os.Exit(exitCode)
}

func run(cmd *cobra.Command, args []string) error {
	baseURL := args[0]

	if email == "" {
		email = os.Getenv("UISWEEP_EMAIL")
	}
	if password == "" {
		password = os.Getenv("UISWEEP_PASSWORD")
	}

	logOpts := logging.DefaultOptions()
	if verbose {
		logOpts.Level = "debug"
	}
	logger := logging.New(logOpts)

	cfg := runner.Config{
		BaseURL:           baseURL,
		Email:             email,
		Password:          password,
		Headless:          headless,
		ProfileDir:        profile,
		PageLoadTimeout:   loadTimeout,
		SettleDelay:       settleDelay,
		MaxIterations:     iterations,
		Only:              only,
		IncludeAdmin:      includeAdmin,
		OutputDir:         outputDir,
		ScreenshotOnError: !noScreenshots,
	}
	if settleDelay <= 0 {
		// Flag zero means no settle wait.
		cfg.SettleDelay = -1
	}
	if targetsFile != "" {
		targets, err := navigator.LoadTree(targetsFile)
		if err != nil {
			return fmt.Errorf("load targets: %w", err)
		}
		cfg.Targets = targets
	}

	r, err := runner.New(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("→ Sweeping %s (up to %d iterations)...\n", baseURL, cfg.MaxIterations)
	start := time.Now()
	res, err := r.Run()
	if err != nil {
		return err
	}

	fmt.Println()
	for _, it := range res.Iterations {
		fmt.Printf("  [%d] %d error(s), %d warning(s), %d new, %d fixed (%s)\n",
			it.Index, it.TotalErrors, it.TotalWarnings,
			len(it.NewErrors), len(it.FixedErrors),
			it.Duration.Round(time.Millisecond))
	}
	fmt.Println()

	fmt.Printf("%s  %d iteration(s) in %s\n",
		outcomeBanner(res.Outcome), len(res.Iterations), time.Since(start).Round(time.Second))
	if res.Summary.FixedCount > 0 {
		fmt.Printf("  fixed %d of %d initial error(s)\n", res.Summary.FixedCount, res.Summary.InitialErrors)
	}
	if !res.Summary.Clean {
		fmt.Printf("  %d error(s) remain\n", res.Summary.CurrentErrors)
	}
	fmt.Printf("✓ Reports in %s\n", res.OutputDir)

	exitCode = res.Outcome.ExitCode()
	return nil
}

func listTargets(cmd *cobra.Command, args []string) error {
	targets := navigator.DefaultTree()
	if targetsFile != "" {
		var err error
		targets, err = navigator.LoadTree(targetsFile)
		if err != nil {
			return fmt.Errorf("load targets: %w", err)
		}
	}

	flat := navigator.Flatten(targets, includeAdmin)
	for _, t := range flat {
		admin := ""
		if t.AdminOnly {
			admin = " [admin]"
		}
		fmt.Printf("  %-20s %s → %s%s\n", t.ID, t.Name, t.Route, admin)
	}
	fmt.Printf("%d target(s)\n", len(flat))
	return nil
}

// outcomeBanner renders the verdict as a colored badge.
func outcomeBanner(o runner.Outcome) string {
	var bg lipgloss.Color
	switch o {
	case runner.OutcomeClean:
		bg = lipgloss.Color("#a6e3a1")
	case runner.OutcomeExhausted:
		bg = lipgloss.Color("#f38ba8")
	default:
		bg = lipgloss.Color("#f9e2af")
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#1e1e2e")).
		Background(bg).
		Bold(true).
		Padding(0, 1).
		Render(string(o))
}
