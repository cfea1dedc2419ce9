package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/morph/internal/commands"
	"github.com/hay-kot/morph/internal/core/config"
	"github.com/hay-kot/morph/internal/morph"
	"github.com/hay-kot/morph/internal/printer"
	"github.com/hay-kot/morph/pkg/utils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	if err := setupLogger("info", "", nil); err != nil {
		panic(err)
	}

	var (
		p     = printer.New(os.Stderr)
		ctx   = printer.NewContext(context.Background(), p)
		flags = &commands.Flags{}
	)

	var deferredLogs *utils.DeferredWriter

	app := &cli.Command{
		Name:      "morph",
		Usage:     "Manage the data of a web browser",
		UsageText: "morph [global options] command [command options]",
		Description: `Morph keeps the browsing history, downloads, saved tabs and cookies of a
web browser in a data directory, and reconciles the hooks of installed
web apps.

Run 'morph' with no arguments to search your history interactively.
Run 'morph history list' to print recent pages.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("MORPH_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (optional)",
				Sources:     cli.EnvVars("MORPH_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("MORPH_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("MORPH_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Detect TUI mode: no subcommand or browse
			isTUI := c.Args().Len() == 0 || c.Args().First() == "browse"

			// In TUI mode, buffer logs to display after exit
			var deferred io.Writer
			if isTUI {
				deferredLogs = &utils.DeferredWriter{}
				deferred = deferredLogs
			}

			if err := setupLogger(flags.LogLevel, flags.LogFile, deferred); err != nil {
				return ctx, err
			}

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			logger := log.With().Str("component", "morph").Logger()
			flags.Service = morph.New(cfg, logger, os.Stdout)
			if err := flags.Service.EnsureDataDir(); err != nil {
				return ctx, err
			}

			return ctx, nil
		},
	}

	browseCmd := commands.NewBrowseCmd(flags)

	app = browseCmd.Register(app)
	app = commands.NewHistoryCmd(flags).Register(app)
	app = commands.NewDownloadsCmd(flags).Register(app)
	app = commands.NewTabsCmd(flags).Register(app)
	app = commands.NewCookiesCmd(flags).Register(app)
	app = commands.NewHookCmd(flags).Register(app)
	app = commands.NewFaviconCmd(flags).Register(app)
	app = commands.NewIntentCmd(flags).Register(app)
	app = commands.NewConfigCmd(flags).Register(app)
	app = commands.NewDoctorCmd(flags).Register(app)

	// Register browse flags on root command
	app.Flags = append(app.Flags, browseCmd.Flags()...)

	// Set the history browser as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'morph --help' for usage", c.Args().First())
		}
		return browseCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Println()
		printer.Ctx(ctx).FatalError(err)
		exitCode = 1
	}

	if flags.Service != nil {
		if err := flags.Service.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close stores")
		}
	}

	// Flush deferred logs to console after TUI exits
	if deferredLogs != nil {
		if err := deferredLogs.Flush(console()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
		}
	}

	os.Exit(exitCode)
}

func setupLogger(level string, logFile string, deferred io.Writer) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	// While the TUI owns the terminal, console output is buffered
	var screen io.Writer = console()
	if deferred != nil {
		screen = deferred
	}

	output := screen
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		// The file gets plain JSON lines
		output = io.MultiWriter(screen, file)
	}

	log.Logger = log.Output(output).Level(parsedLevel)

	return nil
}

// console writes human readable logs to stderr, without colors when NO_COLOR
// is set.
func console() zerolog.ConsoleWriter {
	_, noColor := os.LookupEnv("NO_COLOR")
	return zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor, TimeFormat: time.Kitchen}
}
