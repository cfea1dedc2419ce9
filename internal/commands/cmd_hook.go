package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/morph/internal/hook"
	"github.com/hay-kot/morph/internal/printer"
)

type HookCmd struct {
	flags *Flags

	// Command-specific flags
	json bool
}

// NewHookCmd creates a new hook command
func NewHookCmd(flags *Flags) *HookCmd {
	return &HookCmd{flags: flags}
}

// Register adds the hook command to the application
func (cmd *HookCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "hook",
		Usage:     "Reconcile web app hooks",
		UsageText: "morph hook <command>",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Install, update and uninstall processed web app hooks",
				UsageText: "morph hook run [--json]",
				Description: `Compares the installed *.webapp hooks with the processed copies,
copies new and changed hooks and removes the ones whose package is gone.
Payload directives in a hook may ask for the app's cache or cookies to
be deleted along the way.`,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "print the report as JSON",
						Destination: &cmd.json,
					},
				},
				Action: cmd.runRun,
			},
			{
				Name:      "status",
				Usage:     "Show what a run would do",
				UsageText: "morph hook status",
				Action:    cmd.runStatus,
			},
		},
	})

	return app
}

func (cmd *HookCmd) runRun(ctx context.Context, c *cli.Command) error {
	var opts []hook.Option
	if cmd.json {
		opts = append(opts, hook.WithOutput(nil))
	}

	report, err := cmd.flags.Service.RunHooks(ctx, opts...)
	if err != nil {
		return err
	}

	if cmd.json {
		if report.Steps == nil {
			report.Steps = []hook.Step{}
		}
		return printer.WriteJSON(c.Root().Writer, report)
	}

	p := printer.Ctx(ctx)
	p.Printf("")

	failed := 0
	for _, action := range []hook.Action{hook.ActionInstall, hook.ActionUpdate, hook.ActionUninstall} {
		done := report.Count(action, hook.OutcomeDone)
		skipped := report.Count(action, hook.OutcomeSkipped)
		failed += report.Count(action, hook.OutcomeFailed)
		if done+skipped > 0 {
			p.Infof("%s: %d done, %d up to date", action, done, skipped)
		}
	}

	if failed > 0 {
		p.Errorf("%d hooks failed", failed)
		return cli.Exit("", 1)
	}
	p.Successf("Hooks reconciled")
	return nil
}

func (cmd *HookCmd) runStatus(ctx context.Context, c *cli.Command) error {
	dirs := cmd.flags.Service.HookDirs()

	processed, err := hook.ScanProcessed(dirs.Processed)
	if err != nil {
		return err
	}
	installed, err := hook.ScanInstalled(dirs.Installed)
	if err != nil {
		return err
	}
	plan := hook.Diff(processed, installed)

	if plan.Empty() {
		printer.Ctx(ctx).Infof("No hooks installed")
		return nil
	}

	t := printer.NewTable(c.Root().Writer, "ACTION", "KEY")
	for _, row := range []struct {
		action hook.Action
		keys   []string
	}{
		{hook.ActionInstall, plan.Installs},
		{hook.ActionUpdate, plan.Updates},
		{hook.ActionUninstall, plan.Uninstalls},
	} {
		for _, key := range row.keys {
			t.Row(string(row.action), key)
		}
	}
	return t.Flush()
}
