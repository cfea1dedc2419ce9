package doctor

import (
	"context"
	"fmt"

	"github.com/hay-kot/morph/internal/hook"
)

// HookCheck compares processed web app hooks with the installed ones. A
// processed hook without an installed *.webapp file is left over from an
// uninstall that was never reconciled; an installed one that was never
// processed is waiting for installation.
type HookCheck struct {
	dirs hook.Dirs
	fix  func(ctx context.Context) (hook.Report, error)
}

// NewHookCheck creates a new hook check. If fix is non-nil it is called to
// reconcile the directories when they disagree.
func NewHookCheck(dirs hook.Dirs, fix func(ctx context.Context) (hook.Report, error)) *HookCheck {
	return &HookCheck{dirs: dirs, fix: fix}
}

func (c *HookCheck) Name() string {
	return "Web App Hooks"
}

func (c *HookCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	plan, err := c.plan()
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "Scan hooks",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	if len(plan.Installs) == 0 && len(plan.Uninstalls) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "Hooks in sync",
			Status: StatusPass,
			Detail: fmt.Sprintf("%d processed", len(plan.Updates)),
		})
		return result
	}

	if c.fix != nil {
		report, err := c.fix(ctx)
		if err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  "Reconcile",
				Status: StatusFail,
				Detail: err.Error(),
			})
			return result
		}

		for _, step := range report.Steps {
			if step.Action == hook.ActionUpdate {
				continue
			}
			item := CheckItem{Label: step.Key, Status: StatusPass, Detail: string(step.Action) + "ed"}
			switch step.Outcome {
			case hook.OutcomeFailed:
				item.Status = StatusFail
				item.Detail = fmt.Sprintf("failed to %s: %s", step.Action, step.Error)
			case hook.OutcomeSkipped:
				item.Detail = string(step.Action) + " skipped"
			}
			result.Items = append(result.Items, item)
		}
		return result
	}

	for _, key := range plan.Uninstalls {
		result.Items = append(result.Items, CheckItem{
			Label:   key,
			Status:  StatusWarn,
			Detail:  "processed hook no longer installed",
			Fixable: true,
		})
	}
	for _, key := range plan.Installs {
		result.Items = append(result.Items, CheckItem{
			Label:   key,
			Status:  StatusWarn,
			Detail:  "installed hook not processed",
			Fixable: true,
		})
	}

	return result
}

func (c *HookCheck) plan() (hook.Plan, error) {
	processed, err := hook.ScanProcessed(c.dirs.Processed)
	if err != nil {
		return hook.Plan{}, err
	}
	installed, err := hook.ScanInstalled(c.dirs.Installed)
	if err != nil {
		return hook.Plan{}, err
	}
	return hook.Diff(processed, installed), nil
}
