package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/morph/internal/core/tab"
	"github.com/hay-kot/morph/internal/core/validate"
	"github.com/hay-kot/morph/internal/listmodel"
	"github.com/hay-kot/morph/internal/printer"
)

type TabsCmd struct {
	flags *Flags

	// Command-specific flags
	title      string
	background bool
	json       bool
}

// NewTabsCmd creates a new tabs command
func NewTabsCmd(flags *Flags) *TabsCmd {
	return &TabsCmd{flags: flags}
}

// Register adds the tabs command to the application
func (cmd *TabsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tabs",
		Usage:     "View or manage the saved tab session",
		UsageText: "morph tabs <command> [options]",
		Description: `View or manage the tabs saved in the session file.

The first tab is the current one. Tabs are addressed by their position
(starting at 0) or by their id.`,
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List tabs, current first",
				UsageText: "morph tabs list",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "print JSON instead of a table",
						Destination: &cmd.json,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "open",
				Usage:     "Open a new tab",
				UsageText: "morph tabs open <url> [--title title] [--background]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "tab title", Destination: &cmd.title},
					&cli.BoolFlag{
						Name:        "background",
						Aliases:     []string{"b"},
						Usage:       "keep the current tab in front",
						Destination: &cmd.background,
					},
				},
				Action: cmd.runOpen,
			},
			{
				Name:      "close",
				Usage:     "Close a tab",
				UsageText: "morph tabs close <index|id>",
				Action:    cmd.runClose,
			},
			{
				Name:      "focus",
				Usage:     "Make a tab the current one",
				UsageText: "morph tabs focus <index|id>",
				Action:    cmd.runFocus,
			},
		},
	})

	return app
}

// resolveTab finds a tab by position or id.
func resolveTab(tabs *listmodel.TabsModel, ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if _, ok := tabs.Get(i); ok {
			return i, nil
		}
		return -1, fmt.Errorf("tab %d: %w", i, tab.ErrNotFound)
	}

	if i := tabs.IndexOf(ref); i != -1 {
		return i, nil
	}
	return -1, fmt.Errorf("tab %q: %w", ref, tab.ErrNotFound)
}

func (cmd *TabsCmd) runList(ctx context.Context, c *cli.Command) error {
	tabs, err := cmd.flags.Service.Tabs(ctx)
	if err != nil {
		return err
	}

	rows := tabs.Tabs()
	if cmd.json {
		if rows == nil {
			rows = []tab.Tab{}
		}
		return printer.WriteJSON(c.Root().Writer, rows)
	}

	if len(rows) == 0 {
		printer.Ctx(ctx).Infof("No open tabs")
		return nil
	}

	t := printer.NewTable(c.Root().Writer, "#", "ID", "TITLE", "URL")
	for i, tb := range rows {
		index := strconv.Itoa(i)
		if i == 0 {
			index += "*"
		}
		t.Row(index, tb.ID, printer.Truncate(tb.Title, 40), tb.URL)
	}
	return t.Flush()
}

func (cmd *TabsCmd) runOpen(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, "url")
	if err != nil {
		return err
	}
	if err := validate.URL(args[0]); err != nil {
		return err
	}

	tabs, err := cmd.flags.Service.Tabs(ctx)
	if err != nil {
		return err
	}

	i, opened := tabs.Add(tab.Tab{URL: args[0], Title: cmd.title})
	if !cmd.background {
		tabs.SetCurrent(i)
	}

	if err := cmd.flags.Service.SaveTabs(ctx); err != nil {
		return err
	}

	printer.Ctx(ctx).Successf("Opened %s (%s)", opened.URL, opened.ID)
	return nil
}

func (cmd *TabsCmd) runClose(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, "index|id")
	if err != nil {
		return err
	}

	tabs, err := cmd.flags.Service.Tabs(ctx)
	if err != nil {
		return err
	}

	i, err := resolveTab(tabs, args[0])
	if err != nil {
		return err
	}

	closed, _ := tabs.Remove(i)
	if err := cmd.flags.Service.SaveTabs(ctx); err != nil {
		return err
	}

	printer.Ctx(ctx).Successf("Closed %s", closed.URL)
	return nil
}

func (cmd *TabsCmd) runFocus(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, "index|id")
	if err != nil {
		return err
	}

	tabs, err := cmd.flags.Service.Tabs(ctx)
	if err != nil {
		return err
	}

	i, err := resolveTab(tabs, args[0])
	if err != nil {
		return err
	}

	tabs.SetCurrent(i)
	if err := cmd.flags.Service.SaveTabs(ctx); err != nil {
		return err
	}

	current, _ := tabs.Current()
	printer.Ctx(ctx).Successf("Focused %s", current.URL)
	return nil
}
