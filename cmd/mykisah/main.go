package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/fepfitra/mykisah/internal/config"
	"github.com/fepfitra/mykisah/internal/logging"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		tui     bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "mykisah [kisah-dir]",
		Short: "WhatsApp bot that answers with OpenRouter completions",
		Long: `mykisah links to WhatsApp as a secondary device and replies to incoming
messages. "ping" answers "pong", messages starting with "!" run as shell
commands, and everything else is sent to OpenRouter. kisah-dir holds the
context fragments (SOUL.md, IDENTITY.md, BOOTSTRAP.md, AGENTS.md, USER.md).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kisahDir string
			if len(args) > 0 {
				kisahDir = args[0]
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.Init(logOptions(cfg, verbose, tui))
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if tui {
				return runConsole(ctx, cfg, kisahDir, logger)
			}
			return runBot(ctx, cfg, kisahDir, logger)
		},
	}

	cmd.Flags().BoolVar(&tui, "tui", false, "run the interactive terminal console instead of the WhatsApp bot")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging with the console encoder")
	cmd.AddCommand(newEventsCmd())
	return cmd
}

// logOptions picks the logger settings. The console front-end shares the
// terminal with stderr, so it only logs warnings and errors unless --verbose.
func logOptions(cfg config.Config, verbose, tui bool) logging.Options {
	opts := logging.Options{
		Level:   cfg.LogLevel,
		Console: cfg.LogFormat == "console",
	}
	switch {
	case verbose:
		opts.Level = "debug"
		opts.Console = true
	case tui:
		if level, err := logging.ParseLevel(opts.Level); err == nil && level < zapcore.WarnLevel {
			opts.Level = "warn"
		}
		opts.Console = true
	}
	return opts
}
