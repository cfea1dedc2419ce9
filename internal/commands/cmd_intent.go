package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/morph/internal/intent"
	"github.com/hay-kot/morph/internal/printer"
)

type IntentCmd struct {
	flags *Flags

	// Command-specific flags
	json       bool
	filterFile string
}

// NewIntentCmd creates a new intent command
func NewIntentCmd(flags *Flags) *IntentCmd {
	return &IntentCmd{flags: flags}
}

// Register adds the intent command to the application
func (cmd *IntentCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "intent",
		Usage:     "Decode intent URIs and run custom scheme filters",
		UsageText: "morph intent <command> <uri>",
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Decode an intent:// URI",
				UsageText: "morph intent parse 'intent://maps.example.com/place#Intent;scheme=https;package=com.example.maps;end'",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "print JSON",
						Destination: &cmd.json,
					},
				},
				Action: cmd.runParse,
			},
			{
				Name:      "filter",
				Usage:     "Run the scheme filter for a URI",
				UsageText: "morph intent filter <uri> [--filters file.json]",
				Description: `Runs the JavaScript filter registered for the scheme of the URI and
prints the object it returns. Schemes without a filter pass through
unchanged as {scheme, path, host}.

Filters are read from intent.filter_file in the configuration, or from
--filters. The file is a JSON object mapping a scheme to the source of a
function, for example:

  {"mailto": "(function(uri) { return {scheme: 'https', host: 'mail.example.com', path: uri.path}; })"}`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "filters",
						Usage:       "filter file overriding the configured one",
						Destination: &cmd.filterFile,
					},
				},
				Action: cmd.runFilter,
			},
		},
	})

	return app
}

func (cmd *IntentCmd) runParse(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, "uri")
	if err != nil {
		return err
	}

	d, err := intent.ParseValid(args[0])
	if err != nil {
		return fmt.Errorf("%q: %w", args[0], err)
	}

	if cmd.json {
		return printer.WriteJSON(c.Root().Writer, d)
	}

	t := printer.NewTable(c.Root().Writer)
	for _, row := range [][2]string{
		{"scheme", d.Scheme},
		{"package", d.Package},
		{"uri", d.URIPath},
		{"host", d.Host},
		{"action", d.Action},
		{"component", d.Component},
		{"category", d.Category},
	} {
		if row[1] != "" {
			t.Row(row[0], row[1])
		}
	}
	return t.Flush()
}

func (cmd *IntentCmd) runFilter(ctx context.Context, c *cli.Command) error {
	args, err := requireArgs(c, "uri")
	if err != nil {
		return err
	}

	var f *intent.SchemeFilter
	if cmd.filterFile != "" {
		sources, err := intent.ParseFilterFile(cmd.filterFile)
		if err != nil {
			return err
		}
		f = intent.NewSchemeFilter(sources)
	} else {
		f, err = cmd.flags.Service.SchemeFilter()
		if err != nil {
			return err
		}
	}

	out, err := f.Apply(ctx, args[0])
	if err != nil {
		return err
	}
	return printer.WriteJSON(c.Root().Writer, out)
}
