// Package cli is the cobra command tree behind the todo binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada-remote/internal/config"
	"github.com/Makepad-fr/tada-remote/internal/logging"
	"github.com/Makepad-fr/tada-remote/internal/remote"
	"github.com/Makepad-fr/tada-remote/internal/state"
	"github.com/Makepad-fr/tada-remote/internal/tui"
	"github.com/Makepad-fr/tada-remote/internal/ui"
)

// Exit codes returned by Execute.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const (
	envLogLevel = "TADA_LOG_LEVEL"
	logFileName = "tada.log"

	// commands carrying this annotation own the terminal
	annotationInteractive = "interactive"
)

// UsageError marks bad invocations; Execute maps it to ExitUsage.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// usageArgs turns an argument validator failure into a UsageError.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// app holds what the persistent flags resolve to.
type app struct {
	server    string
	theme     string
	noColor   bool
	logLevel  string
	logFile   string
	configDir string

	dir      string
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
}

// rootCmd builds the full command tree. Running it without a subcommand
// opens the interactive list.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "Todo list client for a remote /api/todos server",
		Long: `todo talks to a todo server over HTTP/JSON.

Without a subcommand it opens the interactive list:
  a add · e edit · space toggle · d delete · r refresh · y copy · / filter · q quit

Settings come from ~/.tada/config.json, then TADA_* environment variables,
then flags.`,
		Args:              usageArgs(cobra.NoArgs),
		SilenceUsage:      true,
		SilenceErrors:     true,
		Annotations:       map[string]string{annotationInteractive: "true"},
		PersistentPreRunE: a.setup,
		RunE:              a.runUI,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.server, "server", "", "server URL (default from config, then "+config.DefaultServerURL+")")
	pf.StringVar(&a.theme, "theme", "", "color theme: "+strings.Join(ui.Themes, ", "))
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.logFile, "log-file", "", "log file (default ~/.tada/tada.log while the list is open)")
	pf.StringVar(&a.configDir, "config-dir", "", "settings directory (default $TADA_HOME or ~/.tada)")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	root.AddCommand(a.uiCmd())
	root.AddCommand(a.lsCmd())
	root.AddCommand(a.addCmd())
	root.AddCommand(a.doneCmd())
	root.AddCommand(a.editCmd())
	root.AddCommand(a.rmCmd())
	root.AddCommand(a.authCmd())
	return root
}

// Execute runs args through the command tree and returns the exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	ui.SetOutput(stdout, stderr)

	err := root.ExecuteContext(ctx)
	// runs on failed commands too, where cobra skips post-run hooks
	if cerr := a.close(); cerr != nil && err == nil {
		err = fmt.Errorf("close log: %w", cerr)
	}
	if err == nil {
		return ExitOK
	}
	ui.Fail(err.Error())

	var ue *UsageError
	if errors.As(err, &ue) {
		ui.Hint("Run `todo --help` for usage.")
		return ExitUsage
	}
	return ExitFailure
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	ui.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	ui.SetColorForcing(false, a.noColor)

	dir := strings.TrimSpace(a.configDir)
	if dir == "" {
		d, err := config.Dir()
		if err != nil {
			return err
		}
		dir = d
	}
	a.dir = dir

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return &UsageError{Err: err}
	}
	if a.server != "" {
		cfg.ServerURL = a.server
	}
	if a.theme != "" {
		cfg.Theme = a.theme
	}
	if err := ui.SetTheme(cfg.Theme); err != nil {
		return &UsageError{Err: err}
	}
	a.cfg = cfg

	return a.setupLogging(cmd)
}

// setupLogging sends logs to a file while the list owns the terminal, and
// to stderr at warn and above otherwise.
func (a *app) setupLogging(cmd *cobra.Command) error {
	interactive := cmd.Annotations[annotationInteractive] == "true"

	levelText := a.logLevel
	if levelText == "" {
		levelText = os.Getenv(envLogLevel)
	}
	level := slog.LevelWarn
	if interactive {
		level = slog.LevelInfo
	}
	if levelText != "" {
		l, err := logging.ParseLevel(levelText)
		if err != nil {
			return &UsageError{Err: err}
		}
		level = l
	}

	path := a.logFile
	if path == "" && interactive {
		path = filepath.Join(a.dir, logFileName)
	}
	if path == "" {
		a.logger = logging.New(cmd.ErrOrStderr(), level)
		slog.SetDefault(a.logger)
		a.closeLog = func() error { return nil }
		return nil
	}
	logger, closeLog, err := logging.Setup(path, level)
	if err != nil {
		return err
	}
	a.logger, a.closeLog = logger, closeLog
	return nil
}

func (a *app) close() error {
	if a.closeLog == nil {
		return nil
	}
	err := a.closeLog()
	a.closeLog = nil
	return err
}

// sync builds the API client from the resolved settings and stored token.
func (a *app) sync() (*state.Sync, error) {
	opts := []remote.Option{remote.WithLogger(a.logger)}
	if a.cfg.TimeoutSec > 0 {
		opts = append(opts, remote.WithHTTPClient(&http.Client{
			Timeout: time.Duration(a.cfg.TimeoutSec) * time.Second,
		}))
	}
	tok, err := config.GetToken(a.dir)
	if err != nil {
		return nil, err
	}
	if tok != nil {
		if tok.ExpiresAt != nil && time.Now().After(*tok.ExpiresAt) {
			a.logger.Warn("stored token has expired", "expires_at", tok.ExpiresAt)
		}
		opts = append(opts, remote.WithToken(tok.Token))
	}
	c, err := remote.New(a.cfg.ServerURL, opts...)
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	return state.NewSync(c), nil
}

func (a *app) uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "ui",
		Short:       "Open the interactive list (default)",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: map[string]string{annotationInteractive: "true"},
		RunE:        a.runUI,
	}
}

func (a *app) runUI(cmd *cobra.Command, args []string) error {
	if !ui.IsTTY(os.Stdin) || !ui.IsTTY(os.Stdout) {
		return errors.New("the interactive list needs a terminal; try `todo ls`")
	}
	s, err := a.sync()
	if err != nil {
		return err
	}
	a.logger.Info("ui start", "server", a.cfg.ServerURL)
	return tui.Run(cmd.Context(), s, tui.Options{Logger: a.logger})
}
