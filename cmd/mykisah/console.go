package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/fepfitra/mykisah/internal/config"
	"github.com/fepfitra/mykisah/internal/console"
	ctxpkg "github.com/fepfitra/mykisah/internal/context"
)

func runConsole(ctx context.Context, cfg config.Config, kisahDir string, logger *zap.Logger) error {
	bundle := ctxpkg.LoadBundle(kisahDir, logger)
	provider, err := newProvider(cfg, bundle, logger)
	if err != nil {
		return err
	}
	runner, policy := newShell(cfg, kisahDir)

	var input console.LineReader
	if term.IsTerminal(int(os.Stdin.Fd())) {
		input = console.NewTerminalReader()
	} else {
		input = console.NewStreamReader(os.Stdin, os.Stdout)
	}
	defer input.Close()

	c := console.New(console.Options{
		Provider:          provider,
		Shell:             runner,
		Policy:            policy,
		Input:             input,
		Output:            os.Stdout,
		CompletionTimeout: time.Duration(cfg.CompletionTimeoutSeconds) * time.Second,
		Logger:            logger,
	})
	return c.Run(ctx)
}
