package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/morph/internal/core/download"
	"github.com/hay-kot/morph/internal/core/validate"
	"github.com/hay-kot/morph/internal/filter"
	"github.com/hay-kot/morph/internal/listmodel"
	"github.com/hay-kot/morph/internal/printer"
)

type DownloadsCmd struct {
	flags *Flags

	// Command-specific flags
	mimetype string
	path     string
	json     bool
	errMsg   string
	complete bool
}

// NewDownloadsCmd creates a new downloads command
func NewDownloadsCmd(flags *Flags) *DownloadsCmd {
	return &DownloadsCmd{flags: flags}
}

// Register adds the downloads command to the application
func (cmd *DownloadsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "downloads",
		Usage:     "View or manage downloads",
		UsageText: "morph downloads <command> [options]",
		Description: `View or manage the downloads database.

Downloads whose file no longer exists are left out of listings. Run
'morph doctor --fix' to prune them from the database.`,
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List downloads",
				UsageText: "morph downloads list [--mimetype '^image/']",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "mimetype",
						Aliases:     []string{"m"},
						Usage:       "regular expression the mimetype must match",
						Destination: &cmd.mimetype,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "print JSON instead of a table",
						Destination: &cmd.json,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "add",
				Usage:     "Record a download",
				UsageText: "morph downloads add <id> <url> --path file [--mimetype type] [--complete]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "path",
						Aliases:     []string{"p"},
						Usage:       "where the file is written",
						Destination: &cmd.path,
					},
					&cli.StringFlag{
						Name:        "mimetype",
						Aliases:     []string{"m"},
						Usage:       "mimetype reported by the server",
						Destination: &cmd.mimetype,
					},
					&cli.BoolFlag{
						Name:        "complete",
						Usage:       "mark the download as finished",
						Destination: &cmd.complete,
					},
				},
				Action: cmd.runAdd,
			},
			{
				Name:      "complete",
				Usage:     "Mark a download as finished or failed",
				UsageText: "morph downloads complete <id> [--error message]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "error",
						Usage:       "record a failure instead",
						Destination: &cmd.errMsg,
					},
				},
				Action: cmd.runComplete,
			},
			{
				Name:      "pause",
				Usage:     "Pause a download",
				UsageText: "morph downloads pause <id>",
				Action:    cmd.runPause(true),
			},
			{
				Name:      "resume",
				Usage:     "Resume a paused download",
				UsageText: "morph downloads resume <id>",
				Action:    cmd.runPause(false),
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a download and its file",
				UsageText: "morph downloads delete <id>",
				Action:    cmd.runDelete,
			},
		},
	})

	return app
}

func (cmd *DownloadsCmd) find(ctx context.Context, c *cli.Command) (*listmodel.DownloadsModel, string, error) {
	args, err := requireArgs(c, "id")
	if err != nil {
		return nil, "", err
	}

	m := cmd.flags.Service.Downloads(ctx)
	if !m.Contains(args[0]) {
		return nil, "", fmt.Errorf("%q: %w", args[0], download.ErrNotFound)
	}
	return m, args[0], nil
}

func (cmd *DownloadsCmd) runList(ctx context.Context, c *cli.Command) error {
	filtered := filter.NewMimetype(cmd.flags.Service.Downloads(ctx))
	defer filtered.Close()
	if err := filtered.SetPattern(cmd.mimetype); err != nil {
		return err
	}

	rows := collect[download.Download](filtered)
	if cmd.json {
		if rows == nil {
			rows = []download.Download{}
		}
		return printer.WriteJSON(c.Root().Writer, rows)
	}

	if len(rows) == 0 {
		printer.Ctx(ctx).Infof("No downloads")
		return nil
	}

	t := printer.NewTable(c.Root().Writer, "ID", "STATUS", "MIMETYPE", "FILE", "URL")
	for _, d := range rows {
		t.Row(d.ID, downloadStatus(d), d.Mimetype, filepath.Base(d.Path), printer.Truncate(d.URL, 60))
	}
	return t.Flush()
}

func downloadStatus(d download.Download) string {
	switch {
	case d.Failed():
		return printer.StatusFailed(d.Error)
	case d.Complete:
		return printer.StatusOK()
	case d.Paused:
		return printer.StatusWarn("paused")
	default:
		return printer.StatusWarn("in progress")
	}
}

func (cmd *DownloadsCmd) runAdd(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	args, err := requireArgs(c, "id", "url")
	if err != nil {
		return err
	}
	id, url := args[0], args[1]
	if err := validate.DownloadID(id); err != nil {
		return err
	}
	if err := validate.URL(url); err != nil {
		return err
	}

	m := cmd.flags.Service.Downloads(ctx)
	if m.Contains(id) {
		return fmt.Errorf("download %q already exists", id)
	}

	m.Add(ctx, id, url, cmd.mimetype, false)
	if cmd.path != "" {
		path, err := filepath.Abs(cmd.path)
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		m.SetPath(ctx, id, path)
	} else {
		p.Warnf("No --path given, the download will not be listed again")
	}
	if cmd.complete {
		m.SetComplete(ctx, id, true)
	}

	p.Successf("Recorded download %s", id)
	return nil
}

func (cmd *DownloadsCmd) runComplete(ctx context.Context, c *cli.Command) error {
	m, id, err := cmd.find(ctx, c)
	if err != nil {
		return err
	}

	if cmd.errMsg != "" {
		m.SetError(ctx, id, cmd.errMsg)
		printer.Ctx(ctx).Warnf("Download %s failed: %s", id, cmd.errMsg)
		return nil
	}

	m.SetComplete(ctx, id, true)
	d, _ := m.Get(m.IndexOf(id))
	printer.Ctx(ctx).Successf("Download %s complete (%s)", id, d.Mimetype)
	return nil
}

func (cmd *DownloadsCmd) runPause(paused bool) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		m, id, err := cmd.find(ctx, c)
		if err != nil {
			return err
		}

		m.SetPaused(ctx, id, paused)
		if paused {
			printer.Ctx(ctx).Successf("Paused %s", id)
		} else {
			printer.Ctx(ctx).Successf("Resumed %s", id)
		}
		return nil
	}
}

func (cmd *DownloadsCmd) runDelete(ctx context.Context, c *cli.Command) error {
	m, id, err := cmd.find(ctx, c)
	if err != nil {
		return err
	}

	m.Delete(ctx, id)
	printer.Ctx(ctx).Successf("Deleted %s", id)
	return nil
}
