//go:build unix

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/ensilo-events/internal/config"
	"github.com/crimson-sun/ensilo-events/internal/connector"
	"github.com/crimson-sun/ensilo-events/internal/lock"
	"github.com/crimson-sun/ensilo-events/internal/logging"
	"github.com/crimson-sun/ensilo-events/internal/metrics"
	"github.com/crimson-sun/ensilo-events/internal/pipeline"

	// Register connector implementations.
	_ "github.com/crimson-sun/ensilo-events/internal/connector/ensilo"
)

const logTag = "ensiloEventLogs"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type flagError struct{ err error }

func (e flagError) Error() string { return e.err.Error() }
func (e flagError) Unwrap() error { return e.err }

type options struct {
	configFile string
	testing    bool
	console    bool
	getToken   bool
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI with args and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &flagError{}):
		fmt.Fprintf(stderr, "%v\n\n%s", err, cmd.UsageString())
		return exitUsage
	default:
		fmt.Fprintf(stderr, "ensilo-events: %v\n", err)
		return exitError
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "ensilo-events",
		Short: "Forward enSilo (FortiEDR) events to syslog",
		Long: `Runs one poll cycle: fetches behavioral and system events from the
enSilo management API since the last successful run and forwards them as
JSON records (syslog facility LOCAL7 by default).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, stdout)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return flagError{err}
	})

	f := cmd.Flags()
	f.StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./"+config.DefaultFile+")")
	f.BoolVarP(&opts.testing, "testing", "t", false, "testing mode: write events to output.TIMESTAMP in the working directory instead of sending them")
	f.BoolVarP(&opts.console, "log-stdout", "l", false, "log to the console instead of syslog LOCAL6")
	f.BoolVarP(&opts.getToken, "get-token", "g", false, "authenticate, print the token and exit")
	return cmd
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	logCloser := logging.Init(opts.console, slog.LevelInfo, logTag)

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		logCloser.Close()
		slog.Error("invalid configuration", "error", err)
		return err
	}
	if level := logging.ParseLevel(cfg.LogLevel); level != slog.LevelInfo {
		logCloser.Close()
		logCloser = logging.Init(opts.console, level, logTag)
	}
	defer logCloser.Close()

	l, err := lock.Acquire(cfg.PIDFile)
	if errors.Is(err, lock.ErrLocked) {
		slog.Error("an instance of the connector is already running", "pid_file", cfg.PIDFile)
		return nil
	}
	if err != nil {
		return err
	}
	defer l.Release()

	ctor, err := connector.Get(cfg.Connector.Provider)
	if err != nil {
		return err
	}
	conn := ctor()

	if opts.getToken {
		token, err := conn.Authenticate(ctx, cfg.Connector)
		if err != nil {
			slog.Error("authentication failed", "error", err)
			return err
		}
		fmt.Fprintf(stdout, "Token - %s\n", token)
		return nil
	}

	now := time.Now()
	out, err := buildOutput(cfg, opts.testing, now)
	if err != nil {
		return err
	}
	store, err := buildStore(cfg.State)
	if err != nil {
		out.Close()
		return err
	}
	events, system, err := buildMappings(cfg.Mapping)
	if err != nil {
		out.Close()
		store.Close()
		return err
	}

	slog.Info("outputs ready", "sinks", out.Names())

	var m *metrics.Metrics
	if cfg.MetricsFile != "" {
		m = metrics.New()
	}

	p, err := pipeline.New(conn, store, out, pipeline.Settings{
		Connector:    cfg.Connector,
		Offset:       cfg.TimeOffset,
		Events:       events,
		SystemEvents: system,
	}, pipeline.WithMetrics(m))
	if err != nil {
		out.Close()
		store.Close()
		return err
	}

	_, runErr := p.Run(ctx)
	if err := p.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close outputs: %w", err)
	}
	if err := m.WriteFile(cfg.MetricsFile); err != nil {
		slog.Warn("failed to write metrics file", "path", cfg.MetricsFile, "error", err)
	}
	if runErr == nil {
		slog.Info("done sending events")
	}
	return runErr
}
