// Command webapp-container-hook is the click hook run by the package manager
// after web apps are installed, updated or removed. It reconciles the
// installed *.webapp hooks with the processed copies.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hay-kot/morph/internal/core/config"
	"github.com/hay-kot/morph/internal/hook"
)

// Env is read from WEBAPPCONTAINER_* variables. Empty folders fall back to
// the XDG defaults.
type Env struct {
	ProcessedHooksFolder string `envconfig:"PROCESSED_HOOKS_FOLDER"`
	InstalledHooksFolder string `envconfig:"INSTALLED_HOOKS_FOLDER"`
	MetricsFile          string `envconfig:"METRICS_FILE"`
	LogLevel             string `envconfig:"LOG_LEVEL" default:"info"`
}

func loadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("webappcontainer", &env); err != nil {
		return env, fmt.Errorf("read environment: %w", err)
	}
	return env, nil
}

// dirs returns the hook directories of env, falling back to the defaults
// of the configuration file.
func (env Env) dirs() hook.Dirs {
	defaults := config.DefaultConfig().Hooks

	dirs := hook.Dirs{
		Processed: env.ProcessedHooksFolder,
		Installed: env.InstalledHooksFolder,
		Cache:     defaults.CacheDir,
		Data:      defaults.DataDir,
	}
	if dirs.Processed == "" {
		dirs.Processed = defaults.ProcessedDir
	}
	if dirs.Installed == "" {
		dirs.Installed = defaults.InstalledDir
	}
	return dirs
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}

// run returns the exit code: 1 for extra arguments, an invalid environment
// or a processed directory that cannot be created, 0 otherwise. Other
// failures are logged.
func run(ctx context.Context, args []string) int {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(args) > 0 {
		log.Error().Strs("args", args).Msg("unexpected arguments")
		return 1
	}

	env, err := loadEnv()
	if err != nil {
		log.Error().Err(err).Msg("invalid environment")
		return 1
	}

	if level, err := zerolog.ParseLevel(env.LogLevel); err == nil {
		log.Logger = log.Logger.Level(level)
	}

	metrics := hook.NewMetrics()
	reconciler := hook.NewReconciler(log.Logger, env.dirs(), hook.WithMetrics(metrics))

	report, err := reconciler.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconciliation failed")
		if errors.Is(err, hook.ErrProcessedDir) {
			return 1
		}
		return 0
	}

	if env.MetricsFile != "" {
		if err := metrics.WriteTextfile(env.MetricsFile); err != nil {
			log.Warn().Err(err).Str("path", env.MetricsFile).Msg("failed to write metrics")
		}
	}

	log.Info().
		Int("installed", report.Count(hook.ActionInstall, hook.OutcomeDone)).
		Int("updated", report.Count(hook.ActionUpdate, hook.OutcomeDone)).
		Int("uninstalled", report.Count(hook.ActionUninstall, hook.OutcomeDone)).
		Msg("hooks reconciled")

	return 0
}
