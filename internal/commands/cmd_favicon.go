package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/morph/internal/favicon"
)

type FaviconCmd struct {
	flags *Flags

	// Command-specific flags
	noCache bool
}

// NewFaviconCmd creates a new favicon command
func NewFaviconCmd(flags *Flags) *FaviconCmd {
	return &FaviconCmd{flags: flags}
}

// Register adds the favicon command to the application
func (cmd *FaviconCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "favicon",
		Usage:     "Fetch and cache site icons",
		UsageText: "morph favicon <command> <url>",
		Commands: []*cli.Command{
			{
				Name:      "fetch",
				Usage:     "Download an icon and print its local URL",
				UsageText: "morph favicon fetch https://example.com/favicon.ico [--no-cache]",
				Description: `Downloads the icon at the URL, checks that it is an image and stores it
in the favicon cache. The printed file:// URL can be used in place of the
remote one. With --no-cache the icon is printed as a data: URL instead.`,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "no-cache",
						Usage:       "skip the cache and print a data: URL",
						Destination: &cmd.noCache,
					},
				},
				Action: cmd.runFetch,
			},
		},
	})

	return app
}

func (cmd *FaviconCmd) runFetch(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, "url")
	if err != nil {
		return err
	}

	var opts []favicon.Option
	if cmd.noCache {
		opts = append(opts, favicon.WithoutCache())
	}

	local, err := cmd.flags.Service.Favicons(opts...).Fetch(ctx, args[0])
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.Root().Writer, local)
	return err
}
