// Package main provides the navcheck command: it runs a YAML suite of
// browser scenarios and verifies where their links lead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/navcheck/pkg/browser"
	"github.com/entrhq/navcheck/pkg/config"
	"github.com/entrhq/navcheck/pkg/logging"
	"github.com/entrhq/navcheck/pkg/report"
	"github.com/entrhq/navcheck/pkg/scenario"
	"github.com/entrhq/navcheck/pkg/suite"
)

const version = "0.1.0"

// Exit codes
const (
	exitPassed = 0
	exitFailed = 1
	exitConfig = 2
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile   string
	Headless     bool
	Timeout      time.Duration
	PollInterval time.Duration
	Run          string
	OutputDir    string
	Verbosity    string
	ShowVersion  bool

	// set records which flags were given explicitly
	set map[string]bool
}

func main() {
	cliConfig, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(exitConfig)
	}

	if cliConfig.ShowVersion {
		fmt.Printf("navcheck v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	code := run(ctx, cliConfig, os.Stdout)
	cancel()
	os.Exit(code)
}

// parseFlags parses command line flags
func parseFlags(args []string, output io.Writer) (*CLIConfig, error) {
	cliConfig := &CLIConfig{set: make(map[string]bool)}

	fs := flag.NewFlagSet("navcheck", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cliConfig.ConfigFile, "config", "navcheck.yaml", "Path to suite file (YAML)")
	fs.BoolVar(&cliConfig.Headless, "headless", true, "Run the browser without a window")
	fs.DurationVar(&cliConfig.Timeout, "timeout", 0, "How long to wait for each link to navigate (overrides wait.timeout)")
	fs.DurationVar(&cliConfig.PollInterval, "poll", 0, "Poll interval while waiting (overrides wait.poll_interval)")
	fs.StringVar(&cliConfig.Run, "run", "", "Only run steps whose scenario/step name matches this glob")
	fs.StringVar(&cliConfig.OutputDir, "output", "", "Artifact directory (overrides artifacts.output_dir)")
	fs.StringVar(&cliConfig.Verbosity, "verbosity", "", "quiet, normal, verbose or debug (overrides logging.verbosity)")
	fs.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(output, "navcheck - verify where the links of a web application lead\n\n")
		fmt.Fprintf(output, "Usage: navcheck [options]\n\n")
		fmt.Fprintf(output, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nExamples:\n")
		fmt.Fprintf(output, "  # Run a suite\n")
		fmt.Fprintf(output, "  navcheck -config saucedemo.yaml\n\n")
		fmt.Fprintf(output, "  # Only the footer scenario, with a visible browser\n")
		fmt.Fprintf(output, "  navcheck -config saucedemo.yaml -run 'footer/*' -headless=false\n\n")
		fmt.Fprintf(output, "Exit codes: 0 all steps passed, 1 any step failed, 2 configuration error\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		cliConfig.set[f.Name] = true
	})
	return cliConfig, nil
}

// loadSuite reads the suite file and applies flag overrides.
func loadSuite(cliConfig *CLIConfig) (*config.Suite, error) {
	s, err := config.Load(cliConfig.ConfigFile)
	if err != nil {
		return nil, err
	}

	if cliConfig.set["headless"] {
		s.Browser.Headless = cliConfig.Headless
	}
	if cliConfig.Timeout > 0 {
		s.Wait.Timeout = cliConfig.Timeout
	}
	if cliConfig.PollInterval > 0 {
		s.Wait.PollInterval = cliConfig.PollInterval
	}
	if cliConfig.Run != "" {
		s.Filter.Include = []string{cliConfig.Run}
	}
	if cliConfig.OutputDir != "" {
		s.Artifacts.OutputDir = cliConfig.OutputDir
	}
	if cliConfig.Verbosity != "" {
		s.Logging.Verbosity = cliConfig.Verbosity
	}

	// Overrides can break constraints the file satisfied
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// opener starts the browser session a run uses and opens the base URL.
func opener(manager *browser.SessionManager, s *config.Suite, logger *logging.Logger) scenario.Opener {
	return func(ctx context.Context) (scenario.Session, error) {
		if err := manager.Initialize(); err != nil {
			return nil, err
		}

		session, err := manager.StartSession("navcheck", browser.SessionOptions{
			Engine:   s.Browser.Engine,
			Headless: s.Browser.Headless,
			Viewport: &browser.Viewport{
				Width:  s.Browser.Viewport.Width,
				Height: s.Browser.Viewport.Height,
			},
			Timeout: s.Browser.Timeout,
		})
		if err != nil {
			return nil, err
		}

		if s.BaseURL != "" {
			if err := session.Goto(s.BaseURL); err != nil {
				_ = manager.CloseSession("navcheck")
				return nil, fmt.Errorf("failed to open base URL: %w", err)
			}
		}

		info := session.Info()
		logger.Debugf("session %s: %s headless=%v at %s", info.Name, info.Engine, info.Headless, info.CurrentURL)
		return session, nil
	}
}

// run executes the suite and returns the process exit code
func run(ctx context.Context, cliConfig *CLIConfig, stdout io.Writer) int {
	s, err := loadSuite(cliConfig)
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return exitConfig
	}

	plan, err := suite.Build(s, suite.Options{})
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return exitConfig
	}
	if len(plan.Scenarios) == 0 {
		log.Printf("Configuration error: no steps match the filter")
		return exitConfig
	}

	logger, logErr := logging.NewLogger("navcheck")
	if logErr != nil {
		log.Printf("Warning: %v", logErr)
	}
	defer logger.Close()
	logger.SetLevel(logging.ParseLevel(s.Logging.Verbosity))

	rep := report.New(s.Name, s.BaseURL, logger.RunID())
	rep.Filtered = plan.Filtered
	rep.SessionLog = logger.LogPath()

	// Scenarios share one session and run in sequence
	manager := browser.NewSessionManager()
	manager.SetMaxSessions(1)
	defer func() {
		for _, info := range manager.ListSessions() {
			logger.Debugf("closing session %s (%d pages, last used %s)", info.Name, info.Pages, info.LastUsedAt.Format(time.RFC3339))
		}
		if err := manager.Shutdown(); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	orchestrator := scenario.New(
		opener(manager, s, logger),
		scenario.WithLogger(logger.With("scenario")),
		scenario.WithCheckerOptions(suite.CheckerOptions(s, logger.With("navigation"))),
		scenario.WithPreconditions(plan.Preconditions...),
	)

	logger.Infof("suite %q: %d scenarios, %d steps (%d filtered out)", s.Name, len(plan.Scenarios), plan.Steps(), len(plan.Filtered))

	if err := orchestrator.Start(ctx); err != nil {
		rep.Fail(err)
	} else {
		results := orchestrator.RunAll(ctx, plan.Scenarios)
		if err := orchestrator.Teardown(); err != nil {
			logger.Warnf("%v", err)
		}
		rep.Finish(results)
		if ctx.Err() != nil {
			rep.Fail(fmt.Errorf("run interrupted: %w", ctx.Err()))
		}
	}

	writer := report.NewArtifactWriter(s.Artifacts.OutputDir, s.Artifacts.JSON, s.Artifacts.Markdown)
	if err := writer.WriteAll(rep); err != nil {
		log.Printf("Warning: failed to write artifacts: %v", err)
	} else if s.Artifacts.JSON || s.Artifacts.Markdown {
		logger.Infof("artifacts written to %s", writer.Dir(rep))
	}

	verbose := s.Logging.Verbosity == "verbose" || s.Logging.Verbosity == "debug"
	if s.Logging.Verbosity != "quiet" || !rep.Passed() {
		if err := report.NewConsole(stdout, verbose).Print(rep); err != nil {
			log.Printf("Warning: failed to print summary: %v", err)
		}
	}

	if rep.Passed() {
		return exitPassed
	}
	return exitFailed
}
