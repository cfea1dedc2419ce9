package commands

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/morph/internal/core/cookie"
	"github.com/hay-kot/morph/internal/printer"
)

type CookiesCmd struct {
	flags *Flags

	// Command-specific flags
	from string
	to   string
}

// NewCookiesCmd creates a new cookies command
func NewCookiesCmd(flags *Flags) *CookiesCmd {
	return &CookiesCmd{flags: flags}
}

// Register adds the cookies command to the application
func (cmd *CookiesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "cookies",
		Usage:     "Manage cookie databases",
		UsageText: "morph cookies <command> [options]",
		Commands: []*cli.Command{
			{
				Name:      "move",
				Usage:     "Copy cookies from one database into another",
				UsageText: "morph cookies move --from old.sqlite [--to cookies.sqlite]",
				Description: `Copies every cookie of the source database into the destination,
replacing what the destination holds. Nothing is copied when the
destination was written after the source. Relative paths resolve against
the data directory.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "from",
						Usage:       "source cookie database",
						Required:    true,
						Destination: &cmd.from,
					},
					&cli.StringFlag{
						Name:        "to",
						Usage:       "destination cookie database (defaults to cookies.database)",
						Destination: &cmd.to,
					},
				},
				Action: cmd.runMove,
			},
		},
	})

	return app
}

func (cmd *CookiesCmd) runMove(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)

	to := cmd.to
	if to == "" {
		to = cmd.flags.Config.Cookies.Database
	}

	err := cmd.flags.Service.MoveCookies(ctx, cmd.from, to)
	if errors.Is(err, cookie.ErrStale) {
		p.Warnf("%s is newer than %s, nothing moved", to, cmd.from)
		return nil
	}
	if err != nil {
		return err
	}

	p.Successf("Moved cookies")
	p.Moved(cmd.from, to)
	return nil
}
