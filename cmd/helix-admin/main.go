package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/corruptguard/helix/config"
	"github.com/corruptguard/helix/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

const defaultCommandTimeout = 2 * time.Minute

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	list := []command{
		{name: "login", description: "Log in with the configured AUTH_MODE and persist the session", run: runLogin},
		{name: "demo-login", description: "Log in as a demo role (--role, --principal)", run: runDemoLogin},
		{name: "logout", description: "Revoke the session and clear every stored slot", run: runLogout},
		{name: "whoami", description: "Restore the stored session and print the current user", run: runWhoAmI},
		{name: "profile", description: "Fetch the user profile from the backend", run: runProfile},
		{name: "refresh", description: "Refresh the held token now", run: runRefresh},
		{name: "demo-users", description: "List selectable demo identities", run: runDemoUsers},
		{name: "fraud-detect", description: "Score a claim with the fraud detection API", run: runFraudDetect},
		{name: "fraud-history", description: "List recent fraud verdicts (--limit)", run: runFraudHistory},
		{name: "claims", description: "List claims, or show one with --id", run: runClaims},
		{name: "submit-claim", description: "Submit a claim, pinning --invoice to IPFS first", run: runSubmitClaim},
		{name: "budgets", description: "List budget lines", run: runBudgets},
		{name: "alerts", description: "List ledger fraud alerts", run: runAlerts},
		{name: "stats", description: "Show ledger statistics", run: runStats},
		{name: "overview", description: "Show stats, budgets and alerts together", run: runOverview},
		{name: "health", description: "Check backend health", run: runHealth},
		{name: "pin", description: "Pin a document to IPFS and print its gateway URL", run: runPin},
		{name: "migrate", description: "Create the postgres session slot table", run: runMigrate},
		{name: "clear-session", description: "Delete stored session slots without contacting the backend", run: runClearSession},
	}
	out := make(map[string]command, len(list))
	for _, c := range list {
		out[c.name] = c
	}
	return out
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: helix-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-16s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// withApp builds the full client for one command and closes it afterwards.
func withApp(cmdCtx *commandContext, f func(context.Context, *bootstrap.App) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	app, err := bootstrap.New(ctx, bootstrap.AppOptions{
		Config: &cmdCtx.Config,
		Logger: cmdCtx.Logger,
		OpenBrowser: func(_ context.Context, authURL string) error {
			return writef(cmdCtx.Out, "Open this URL in a browser to continue:\n  %s\n", authURL)
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close app failed", "error", cerr)
		}
	}()

	if initErr := app.Sessions.Init(ctx); initErr != nil {
		return initErr
	}
	return f(ctx, app)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

// confirm asks for an explicit "y" on stdin unless yes is set.
func confirm(w io.Writer, in io.Reader, yes bool, action string) error {
	if yes {
		return nil
	}
	if err := writef(w, "About to %s. Continue? [y/N]: ", action); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp != "y" && resp != "yes" {
		return errors.New("aborted by user")
	}
	return nil
}
