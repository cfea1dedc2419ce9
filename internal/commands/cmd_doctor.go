package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/morph/internal/commands/doctor"
	"github.com/hay-kot/morph/internal/hook"
	"github.com/hay-kot/morph/internal/printer"
)

type DoctorCmd struct {
	flags  *Flags
	format string
	fix    bool
}

func NewDoctorCmd(flags *Flags) *DoctorCmd {
	return &DoctorCmd{flags: flags}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your morph setup",
		UsageText:   "morph doctor [options]",
		Description: "Runs diagnostic checks on configuration, web app hooks, and the downloads database.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "fix",
				Usage:       "reconcile hooks and prune dangling downloads",
				Destination: &cmd.fix,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	svc := cmd.flags.Service

	var reconcile func(ctx context.Context) (hook.Report, error)
	if cmd.fix {
		reconcile = func(ctx context.Context) (hook.Report, error) {
			return svc.RunHooks(ctx, hook.WithOutput(nil))
		}
	}

	checks := []doctor.Check{
		doctor.NewConfigCheck(cmd.flags.Config, cmd.flags.ConfigPath),
		doctor.NewHookCheck(svc.HookDirs(), reconcile),
		doctor.NewDanglingDownloadsCheck(svc.DownloadStore(), cmd.fix),
	}

	results := doctor.RunAll(ctx, checks)

	switch cmd.format {
	case "json":
		return cmd.outputJSON(c, results)
	case "text", "":
		return cmd.outputText(ctx, results)
	default:
		return fmt.Errorf("unknown format %q (use text or json)", cmd.format)
	}
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	passed, warned, failed := doctor.Summary(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Fixable int             `json:"fixable"`
		Summary summaryJSON     `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: doctor.Healthy(results),
		Fixable: doctor.CountFixable(results),
		Summary: summaryJSON{Passed: passed, Warned: warned, Failed: failed},
		Checks:  results,
	}

	return printer.WriteJSON(c.Root().Writer, out)
}

type summaryJSON struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func (cmd *DoctorCmd) outputText(ctx context.Context, results []doctor.Result) error {
	p := printer.Ctx(ctx)

	for _, result := range results {
		p.Section(result.Name)

		for _, item := range result.Items {
			switch item.Status {
			case doctor.StatusPass:
				p.CheckItem(item.Label, item.Detail)
			case doctor.StatusWarn:
				p.WarnItem(item.Label, item.Detail)
			case doctor.StatusFail:
				p.FailItem(item.Label, item.Detail)
			}
		}

		p.Printf("")
	}

	passed, warned, failed := doctor.Summary(results)
	p.Printf("Summary: %d passed, %d warnings, %d failed", passed, warned, failed)

	if n := doctor.CountFixable(results); n > 0 {
		p.Infof("%d issues can be fixed with 'morph doctor --fix'", n)
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}

	return nil
}
