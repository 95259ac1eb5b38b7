// main.go — Entry point for the convmanage CLI binary.
// Drives conversation actions (load, delete, rename) in a chat tab over the
// Chrome DevTools Protocol.
//
// Usage: convmanage <load|delete|rename> <identifier> [--flags]
//
//	convmanage probe
//	convmanage <action> --csv-file <path>
//
// Exit codes:
//
//	0 = success
//	1 = error (action failed, browser unreachable)
//	2 = usage error (missing args, invalid flags, bad config)
//	3 = conversation not found
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dev-console/convmanage/cmd/convmanage/commands"
	"github.com/dev-console/convmanage/cmd/convmanage/config"
	"github.com/dev-console/convmanage/cmd/convmanage/output"
	"github.com/dev-console/convmanage/internal/logging"
	"github.com/dev-console/convmanage/internal/page"
	"github.com/dev-console/convmanage/internal/page/rodpage"
	"github.com/dev-console/convmanage/internal/state"
	"github.com/dev-console/convmanage/internal/thread"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitNotFound = 3
)

const usageText = `convmanage — load, delete, or rename chat conversations in a browser tab

Usage:
  convmanage <action> <identifier> [--flags]
  convmanage <action> --csv-file <path> [--flags]
  convmanage probe [--flags]

Actions:
  load       Open the conversation whose name equals <identifier>
  delete     Delete the first conversation whose name contains <identifier>
  rename     Rename the most recent conversation to <identifier>
  probe      Check that the tab already answers isManageInjected(); injects nothing

Global Flags:
  --format <human|json|csv>   Output format (default: human)
  --legacy                    Print only the legacy payload (identifier, null, or Error: ...)
  --control-url <url>         DevTools endpoint (ws:// or http://host:port); empty launches Chrome
  --headless                  Launch Chrome headless (only without --control-url)
  --page-url <regex>          Pick the tab whose URL matches
  --start-url <url>           Open this URL when no tab matches
  --settle <ms>               Max wait for the UI to re-render (default: 500)
  --timeout <ms>              Per-request timeout in ms (default: 30000)
  --csv-file <path>           CSV with an identifier column and optional action column
  --log-level <level>         debug, info, warn, error (default: warn)
  --log-format <text|json>    Log format on stderr (default: text)
  --version, -v               Show version (-v only in place of <action>)
  --help, -h                  Show this help (-h only in place of <action>)

Examples:
  convmanage load "Trip planning"
  convmanage delete recipe --format json
  convmanage rename "New name" --control-url http://127.0.0.1:9222
  convmanage delete --csv-file stale.csv --format csv
`

// Overridable in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	openPage = func(ctx context.Context, cfg config.Config, logger *slog.Logger) (session, error) {
		profile := cfg.ProfileDir
		if profile == "" && cfg.ControlURL == "" {
			if dir, err := state.ProfileDir(); err == nil {
				profile = dir
			}
		}
		return rodpage.Connect(ctx, rodpage.Options{
			ControlURL:  cfg.ControlURL,
			Headless:    cfg.Headless,
			PageURL:     cfg.PageURL,
			StartURL:    cfg.StartURL,
			UserDataDir: profile,
			Selectors:   cfg.Selectors,
			SettleQuiet: rodpage.DefaultSettleQuiet,
			Logger:      logger,
		})
	}
)

// session is a connected page that must be released. Inject installs the
// companion script; probe runs skip it so they report what the tab already has.
type session interface {
	page.Handle
	Inject(ctx context.Context) error
	Close() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// invocation is the parsed command line.
type invocation struct {
	command    string
	identifier string
	csvFile    string
	legacy     bool
	flags      *config.FlagOverrides
}

// run is the main entry point, separated for testability.
// Returns the exit code.
func run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}

	// Short forms count only in place of the action; after it they are
	// identifiers ("rename -v"). Identifiers never start with "--".
	switch args[0] {
	case "-v":
		args = []string{"--version"}
	case "-h", "help":
		args = []string{"--help"}
	}
	for _, arg := range args {
		if arg == "--version" {
			fmt.Fprintf(stdout, "convmanage %s\n", version)
			return exitOK
		}
		if arg == "--help" {
			fmt.Fprint(stdout, usageText)
			return exitOK
		}
	}

	inv, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "Error: cannot determine working directory: %v\n", err)
		return exitError
	}

	cfg, err := config.Load(cwd, inv.flags)
	if err != nil {
		fmt.Fprintf(stderr, "Error: configuration: %v\n", err)
		return exitUsage
	}

	logger := logging.New(stderr, logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		NoColor: !logging.IsTerminal(stderr),
	})

	var formatter output.Formatter = output.GetFormatter(cfg.Format)
	if inv.legacy {
		formatter = output.LegacyFormatter{}
	}

	// Validate everything that does not need the browser before connecting.
	var reqs []thread.Request
	switch {
	case inv.command == "probe":
	case inv.csvFile != "":
		reqs, err = readBulkFile(inv.csvFile, thread.Action(inv.command))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
	default:
		req, err := commands.ParseRequest(inv.command, inv.identifier)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		reqs = []thread.Request{req}
	}

	sess, err := openPage(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("closing browser failed", "error", err)
		}
	}()

	mgr := thread.NewManager(sess, thread.Options{
		SettleDelay: time.Duration(cfg.SettleMS) * time.Millisecond,
		Logger:      logger,
	})
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond

	if inv.command == "probe" {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		result := commands.ProbeResult(mgr.IsInjected(pctx))
		if err := formatter.Format(stdout, result); err != nil {
			fmt.Fprintf(stderr, "Error: format output: %v\n", err)
			return exitError
		}
		if !result.Success {
			return exitError
		}
		return exitOK
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	err = sess.Inject(pctx)
	injected := err == nil && mgr.IsInjected(pctx)
	cancel()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if !injected {
		logger.Warn("conversation script not detected in page; continuing")
	}

	results := runRequests(ctx, mgr, reqs, timeout)

	if err := writeResults(formatter, results, inv.csvFile != ""); err != nil {
		fmt.Fprintf(stderr, "Error: format output: %v\n", err)
		return exitError
	}
	return exitCode(results)
}

// runRequests executes reqs strictly one after another. Each request gets its
// own timeout.
func runRequests(ctx context.Context, mgr *thread.Manager, reqs []thread.Request, timeout time.Duration) []*output.Result {
	results := make([]*output.Result, 0, len(reqs))
	for _, req := range reqs {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		res := mgr.Do(rctx, req)
		cancel()
		results = append(results, commands.BuildResult(req, res, time.Since(start)))
	}
	return results
}

func writeResults(formatter output.Formatter, results []*output.Result, bulk bool) error {
	if mf, ok := formatter.(output.MultiFormatter); ok && bulk {
		return mf.FormatMultiple(stdout, results)
	}
	for _, r := range results {
		if err := formatter.Format(stdout, r); err != nil {
			return err
		}
	}
	return nil
}

// exitCode is error if any request failed, else not-found if any missed.
func exitCode(results []*output.Result) int {
	code := exitOK
	for _, r := range results {
		switch thread.Status(r.Status) {
		case thread.StatusError:
			return exitError
		case thread.StatusNotFound:
			code = exitNotFound
		}
	}
	return code
}

func readBulkFile(path string, defaultAction thread.Action) ([]thread.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()
	return commands.ReadBulk(f, defaultAction)
}

// parseArgs splits args into the command, its identifier, and flag overrides.
func parseArgs(args []string) (*invocation, error) {
	inv := &invocation{command: args[0]}
	remaining, flags, err := extractGlobalFlags(args[1:])
	if err != nil {
		return nil, err
	}
	inv.flags = flags

	inv.csvFile, remaining = commands.ParseFlag(remaining, "--csv-file")
	inv.legacy, remaining = commands.ParseFlagBool(remaining, "--legacy")

	for _, a := range remaining {
		if strings.HasPrefix(a, "--") {
			return nil, fmt.Errorf("unknown flag %q", a)
		}
	}

	switch {
	case inv.command == "probe":
		if len(remaining) > 0 {
			return nil, errors.New("probe takes no arguments")
		}
	case inv.csvFile != "":
		if len(remaining) > 0 {
			return nil, errors.New("--csv-file cannot be combined with a positional identifier")
		}
	default:
		if len(remaining) == 0 {
			return nil, fmt.Errorf("missing identifier for %q", inv.command)
		}
		if len(remaining) > 1 {
			return nil, fmt.Errorf("expected one identifier, got %d (quote names containing spaces)", len(remaining))
		}
		inv.identifier = remaining[0]
	}
	return inv, nil
}

// extractGlobalFlags removes the config-affecting flags from args.
func extractGlobalFlags(args []string) ([]string, *config.FlagOverrides, error) {
	flags := &config.FlagOverrides{}
	remaining := args

	for _, f := range []struct {
		name string
		dst  **string
	}{
		{"--format", &flags.Format},
		{"--control-url", &flags.ControlURL},
		{"--page-url", &flags.PageURL},
		{"--start-url", &flags.StartURL},
		{"--log-level", &flags.LogLevel},
		{"--log-format", &flags.LogFormat},
	} {
		var v string
		v, remaining = commands.ParseFlag(remaining, f.name)
		if v != "" {
			*f.dst = &v
		}
	}

	for _, f := range []struct {
		name string
		dst  **int
	}{
		{"--settle", &flags.SettleMS},
		{"--timeout", &flags.TimeoutMS},
	} {
		n, ok, rest, err := commands.ParseFlagInt(remaining, f.name)
		if err != nil {
			return nil, nil, err
		}
		remaining = rest
		if ok {
			*f.dst = &n
		}
	}

	if on, rest := commands.ParseFlagBool(remaining, "--headless"); on {
		flags.Headless = &on
		remaining = rest
	}

	return remaining, flags, nil
}
