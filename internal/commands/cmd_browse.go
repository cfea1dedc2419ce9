package commands

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/morph/internal/tui"
)

type BrowseCmd struct {
	flags *Flags

	// Command-specific flags
	limit int
}

// NewBrowseCmd creates a new browse command
func NewBrowseCmd(flags *Flags) *BrowseCmd {
	return &BrowseCmd{flags: flags}
}

// Register adds the browse command to the application
func (cmd *BrowseCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "browse",
		Usage:     "Search history interactively",
		UsageText: "morph browse [query...]",
		Description: `Opens the history browser. Typing filters the pages by title and URL,
tab switches between recent pages and top sites, and enter prints the
selected URL to stdout.`,
		Flags:  cmd.Flags(),
		Action: cmd.run,
	})

	return app
}

// Flags returns the browser flags for registration on the root command
func (cmd *BrowseCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "rows shown per view, -1 for all (defaults to browse.limit)",
			Destination: &cmd.limit,
		},
	}
}

// Run executes the browser. Exported for use as default command.
func (cmd *BrowseCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *BrowseCmd) run(ctx context.Context, c *cli.Command) error {
	svc := cmd.flags.Service
	if err := svc.HistoryErr(ctx); err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	limit := cmd.flags.Config.Browse.Limit
	if c.IsSet("limit") {
		limit = cmd.limit
	}

	m := tui.New(ctx, svc.History(ctx), tui.Options{
		Limit: limit,
		Query: strings.Join(c.Args().Slice(), " "),
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		m.Close()
		return fmt.Errorf("run tui: %w", err)
	}

	result, ok := final.(tui.Model)
	if !ok {
		m.Close()
		return nil
	}
	defer result.Close()

	if err := result.Err(); err != nil {
		return err
	}
	if url := result.Selected(); url != "" {
		_, _ = fmt.Fprintln(c.Root().Writer, url)
	}
	return nil
}
