// Command ssync-demo drives a list coordinator over an in-memory engine.
//
// Rounds never complete on their own: the complete, roomdata and fail
// commands play the role of the server, which makes confirmation and
// readiness ordering observable step by step.
//
// Usage:
//
//	ssync-demo run [flags]
//
// Examples:
//
//	# Start with the default list 0 and write a trace
//	ssync-demo run --proxy https://proxy.example.org --user @alice:example.org --event-log demo.sslog
//
//	# Start from a session file with debug output
//	ssync-demo run --config session.yaml --log-level debug
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/slidingsync/ssync-go/cmd/ssync-demo/repl"
	"github.com/slidingsync/ssync-go/pkg/config"
	"github.com/slidingsync/ssync-go/pkg/coordinator"
	"github.com/slidingsync/ssync-go/pkg/log"
	"github.com/spf13/cobra"
	"maunium.net/go/mautrix/id"
)

type runOptions struct {
	configFile string
	proxyURL   string
	userID     string
	eventLog   string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssync-demo",
		Short: "Interactive sliding sync list coordinator",
	}
	cmd.AddCommand(newRunCommand())
	return cmd
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.session()
			if err != nil {
				return err
			}
			return run(cfg)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&opts.configFile, "config", "", "session file (YAML)")
	cmd.Flags().StringVar(&opts.proxyURL, "proxy", "", "sliding sync proxy URL")
	cmd.Flags().StringVar(&opts.userID, "user", "", "user ID, e.g. @alice:example.org")
	cmd.Flags().StringVar(&opts.eventLog, "event-log", "", "write the coordinator trace to this file")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return cmd
}

// session loads the session file, if any, and applies flag overrides.
func (o *runOptions) session() (*config.Session, error) {
	cfg := config.Default()
	if o.configFile != "" {
		loaded, err := config.Load(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if o.proxyURL != "" {
		cfg.ProxyURL = o.proxyURL
	}
	if o.userID != "" {
		cfg.UserID = id.UserID(o.userID)
	}
	if o.eventLog != "" {
		cfg.EventLog = o.eventLog
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if len(cfg.Lists) == 0 {
		cfg.Lists = []config.List{{Index: 0}}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func run(cfg *config.Session) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	shell, err := repl.NewShell("ssync> ")
	if err != nil {
		return err
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(shell.Stderr(), &slog.HandlerOptions{Level: level}))

	// The trace goes to the file when configured, and to the debug log.
	var fileLogger *log.FileLogger
	if cfg.EventLog != "" {
		fileLogger, err = log.NewFileLogger(cfg.EventLog)
		if err != nil {
			return fmt.Errorf("failed to open event log: %w", err)
		}
		defer fileLogger.Close()
	}
	var sinks []log.Logger
	if fileLogger != nil {
		sinks = append(sinks, fileLogger)
	}
	if level <= slog.LevelDebug {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}

	session, err := repl.Boot(ctx, cfg, shell.Stdout(),
		coordinator.WithLogger(logger),
		coordinator.WithEventLogger(log.NewMultiLogger(sinks...)),
	)
	if err != nil {
		return err
	}
	defer session.Close()

	logger.Info("coordinator ready", "proxy", cfg.ProxyURL, "user", cfg.UserID, "lists", len(cfg.Lists))

	shell.Attach(session)
	shell.Run(ctx)
	cancel()
	session.Wait()

	if fileLogger != nil && fileLogger.Dropped() > 0 {
		logger.Warn("trace events dropped", "count", fileLogger.Dropped())
	}
	return nil
}
