package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fepfitra/mykisah/internal/bridge"
	"github.com/fepfitra/mykisah/internal/commander"
	"github.com/fepfitra/mykisah/internal/config"
	ctxpkg "github.com/fepfitra/mykisah/internal/context"
	"github.com/fepfitra/mykisah/internal/db"
	"github.com/fepfitra/mykisah/internal/dummy"
	"github.com/fepfitra/mykisah/internal/model"
	"github.com/fepfitra/mykisah/internal/openrouter"
	"github.com/fepfitra/mykisah/internal/router"
	"github.com/fepfitra/mykisah/internal/shell"
	"github.com/fepfitra/mykisah/internal/whatsapp"
)

func runBot(ctx context.Context, cfg config.Config, kisahDir string, logger *zap.Logger) error {
	bundle := ctxpkg.LoadBundle(kisahDir, logger)
	provider, err := newProvider(cfg, bundle, logger)
	if err != nil {
		return err
	}
	runner, policy := newShell(cfg, kisahDir)

	recorder, closeAudit := openAudit(cfg.DBPath, logger)
	defer closeAudit()
	processID := recorder.Record(nil, db.EventProcessStarted, map[string]any{
		"pid":            os.Getpid(),
		"commander":      cfg.Commander,
		"model_provider": cfg.ModelProvider,
		"model":          cfg.OpenRouterModel,
		"kisah_dir":      kisahDir,
		"bundle_turns":   bundle.Len(),
		"shell_enabled":  policy.Enabled,
	})

	cmdr, err := newCommander(ctx, cfg, logger)
	if err != nil {
		return err
	}

	r := router.New(router.Options{
		Provider:          provider,
		Sender:            cmdr,
		Shell:             runner,
		Policy:            policy,
		Recorder:          recorder,
		ProcessEventID:    processID,
		CompletionTimeout: time.Duration(cfg.CompletionTimeoutSeconds) * time.Second,
		Logger:            logger,
	})
	b := bridge.New(r, os.Stdout, recorder, processID, logger)

	logger.Info("bot starting",
		zap.String("commander", cfg.Commander),
		zap.String("model_provider", cfg.ModelProvider),
		zap.String("model", cfg.OpenRouterModel),
		zap.String("kisah_dir", kisahDir),
		zap.Int("bundle_turns", bundle.Len()),
	)
	if err := cmdr.Run(ctx, b.Handle); err != nil {
		return fmt.Errorf("%s commander stopped: %w", cfg.Commander, err)
	}
	logger.Info("bot stopped")
	return nil
}

func newProvider(cfg config.Config, bundle *ctxpkg.Bundle, logger *zap.Logger) (model.Provider, error) {
	switch cfg.ModelProvider {
	case config.ProviderDummy:
		p, err := dummy.NewProvider("dummy", cfg.DummyProviderScript, bundle)
		if err != nil {
			return nil, fmt.Errorf("failed to create dummy provider: %w", err)
		}
		return p, nil
	default:
		return openrouter.NewClient(openrouter.Options{
			APIKey:      cfg.OpenRouterAPIKey,
			Model:       cfg.OpenRouterModel,
			URL:         cfg.OpenRouterURL,
			Referer:     cfg.OpenRouterReferer,
			Title:       cfg.OpenRouterTitle,
			Timeout:     time.Duration(cfg.CompletionTimeoutSeconds) * time.Second,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, bundle, logger), nil
	}
}

func newCommander(ctx context.Context, cfg config.Config, logger *zap.Logger) (commander.Commander, error) {
	switch cfg.Commander {
	case config.CommanderDummy:
		c, err := dummy.NewCommander(cfg.DummyCommanderScript, cfg.DummySendScript)
		if err != nil {
			return nil, fmt.Errorf("failed to create dummy commander: %w", err)
		}
		return c, nil
	default:
		c, err := whatsapp.NewClient(ctx, cfg.SessionDBPath, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// newShell builds the shell runner rooted at kisahDir, or the process working
// directory when kisahDir is empty.
func newShell(cfg config.Config, kisahDir string) (*shell.Runner, *shell.Policy) {
	runner := shell.NewRunner(kisahDir, time.Duration(cfg.ShellTimeoutSeconds)*time.Second, shell.Limits{
		MaxLines: cfg.ShellMaxOutputLines,
		MaxBytes: cfg.ShellMaxOutputBytes,
	})
	policy := shell.NewPolicy(cfg.ShellEnabled, cfg.ShellPrefix, cfg.ShellAllowedSenders, cfg.ShellDenylist)
	return runner, policy
}

// openAudit opens the audit log. Failures disable auditing instead of
// stopping the bot; the returned recorder is nil then.
func openAudit(path string, logger *zap.Logger) (*db.Recorder, func()) {
	if path == "" {
		return nil, func() {}
	}
	database, err := db.OpenDB(path)
	if err != nil {
		logger.Warn("audit log disabled", zap.Error(err))
		return nil, func() {}
	}
	if err := db.InitSchema(database); err != nil {
		logger.Warn("audit log disabled", zap.Error(err))
		database.Close()
		return nil, func() {}
	}
	return db.NewRecorder(database, logger), func() { database.Close() }
}
