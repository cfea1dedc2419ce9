package hook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/morph/pkg/randid"
)

// ErrProcessedDir is returned by Run when the processed hooks directory
// cannot be created.
var ErrProcessedDir = errors.New("processed hooks dir unavailable")

// Dirs locates the directories a reconciliation touches.
type Dirs struct {
	Processed string // processed hook copies, created when missing
	Installed string // *.webapp files installed by the package manager
	Cache     string // parent of per-app cache directories
	Data      string // parent of per-app data (cookie) directories
}

// Action is one kind of reconciliation step.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUpdate    Action = "update"
	ActionUninstall Action = "uninstall"
)

// Outcome is the result of one step.
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Plan is the set difference of two snapshots.
type Plan struct {
	Installs   []string
	Updates    []string
	Uninstalls []string
}

// Empty reports whether the plan has nothing to do.
func (p Plan) Empty() bool {
	return len(p.Installs) == 0 && len(p.Updates) == 0 && len(p.Uninstalls) == 0
}

// Diff compares the processed and installed snapshots: installs are the
// installed keys not yet processed, updates the keys in both, uninstalls the
// processed keys no longer installed. Keys are sorted.
func Diff(processed, installed Snapshot) Plan {
	var p Plan
	for _, key := range installed.Keys() {
		if processed.Has(key) {
			p.Updates = append(p.Updates, key)
		} else {
			p.Installs = append(p.Installs, key)
		}
	}
	for _, key := range processed.Keys() {
		if !installed.Has(key) {
			p.Uninstalls = append(p.Uninstalls, key)
		}
	}
	return p
}

// Step records what happened to one key.
type Step struct {
	Key     string  `json:"key"`
	Action  Action  `json:"action"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// Report lists the steps of a run in execution order.
type Report struct {
	Steps []Step `json:"steps"`
}

// Count returns the number of steps with the given action and outcome.
func (r Report) Count(action Action, outcome Outcome) int {
	n := 0
	for _, s := range r.Steps {
		if s.Action == action && s.Outcome == outcome {
			n++
		}
	}
	return n
}

// Keys returns the keys of the steps with the given action and outcome.
func (r Report) Keys(action Action, outcome Outcome) []string {
	var keys []string
	for _, s := range r.Steps {
		if s.Action == action && s.Outcome == outcome {
			keys = append(keys, s.Key)
		}
	}
	return keys
}

// Reconciler applies a Plan to the filesystem. It holds no state between
// runs.
type Reconciler struct {
	log     zerolog.Logger
	dirs    Dirs
	metrics *Metrics
	stdout  io.Writer
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMetrics counts every step in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// WithOutput prints a summary of each phase to w.
func WithOutput(w io.Writer) Option {
	return func(r *Reconciler) { r.stdout = w }
}

// NewReconciler creates a Reconciler for dirs.
func NewReconciler(log zerolog.Logger, dirs Dirs, opts ...Option) *Reconciler {
	r := &Reconciler{
		log:  log.With().Str("component", "hook").Logger(),
		dirs: dirs,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dirs returns the directories the reconciler works on.
func (r *Reconciler) Dirs() Dirs {
	return r.dirs
}

// Scan creates the processed directory if needed and snapshots both sides.
func (r *Reconciler) Scan() (processed, installed Snapshot, err error) {
	if err := os.MkdirAll(r.dirs.Processed, fs.ModePerm); err != nil {
		return processed, installed, fmt.Errorf("%w: %w", ErrProcessedDir, err)
	}

	processed, err = ScanProcessed(r.dirs.Processed)
	if err != nil {
		return processed, installed, err
	}
	installed, err = ScanInstalled(r.dirs.Installed)
	if err != nil {
		return processed, installed, err
	}
	return processed, installed, nil
}

// Run reconciles the two directories: installs, then updates, then
// uninstalls. Failures of single steps are logged and recorded in the
// report. Scan failures and cancellation end the run with an error, one
// wrapping ErrProcessedDir when the processed directory cannot be created.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	var report Report

	processed, installed, err := r.Scan()
	if err != nil {
		return report, err
	}

	plan := Diff(processed, installed)
	r.log.Debug().
		Strs("installs", plan.Installs).
		Strs("updates", plan.Updates).
		Strs("uninstalls", plan.Uninstalls).
		Msg("reconciliation plan")

	phases := []struct {
		action Action
		keys   []string
		apply  func(key string) (Outcome, error)
	}{
		{ActionInstall, plan.Installs, func(key string) (Outcome, error) {
			return r.install(installed.Hooks[key])
		}},
		{ActionUpdate, plan.Updates, func(key string) (Outcome, error) {
			return r.update(installed.Hooks[key])
		}},
		{ActionUninstall, plan.Uninstalls, func(key string) (Outcome, error) {
			return r.uninstall(processed.Hooks[key])
		}},
	}

	for _, phase := range phases {
		if len(phase.keys) == 0 {
			r.log.Debug().Str("action", string(phase.action)).Msg("nothing to do")
			continue
		}

		r.printHeader(phase.action, len(phase.keys))

		for _, key := range phase.keys {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			default:
			}

			outcome, err := phase.apply(key)
			step := Step{Key: key, Action: phase.action, Outcome: outcome}
			if err != nil {
				step.Error = err.Error()
				r.log.Error().Err(err).
					Str("key", key).
					Str("action", string(phase.action)).
					Msg("hook step failed")
			}
			report.Steps = append(report.Steps, step)
			r.printStep(step)

			if r.metrics != nil {
				r.metrics.observe(phase.action, outcome)
			}
		}
	}

	if r.metrics != nil {
		r.metrics.finished(time.Now())
	}

	return report, nil
}

func (r *Reconciler) destination(key string) string {
	return filepath.Join(r.dirs.Processed, key)
}

func (r *Reconciler) install(src Descriptor) (Outcome, error) {
	r.runDirectives(src.Key, src.Path(), PhaseInstall)

	dst := r.destination(src.Key)
	if err := replaceFile(src.Path(), dst); err != nil {
		return OutcomeFailed, fmt.Errorf("install %s: %w", src.Name, err)
	}

	r.log.Info().Str("key", src.Key).Str("dst", dst).Msg("installed hook")
	return OutcomeDone, nil
}

func (r *Reconciler) update(src Descriptor) (Outcome, error) {
	srcInfo, err := os.Stat(src.Path())
	if err != nil {
		return OutcomeFailed, fmt.Errorf("stat %s: %w", src.Name, err)
	}

	dst := r.destination(src.Key)
	if dstInfo, err := os.Stat(dst); err == nil && !dstInfo.ModTime().Before(srcInfo.ModTime()) {
		r.log.Debug().Str("key", src.Key).Msg("processed hook is up to date")
		return OutcomeSkipped, nil
	}

	r.runDirectives(src.Key, src.Path(), PhaseUpdate)

	if err := replaceFile(src.Path(), dst); err != nil {
		return OutcomeFailed, fmt.Errorf("update %s: %w", src.Name, err)
	}

	r.log.Info().Str("key", src.Key).Str("dst", dst).Msg("updated hook")
	return OutcomeDone, nil
}

func (r *Reconciler) uninstall(hook Descriptor) (Outcome, error) {
	r.runDirectives(hook.Key, hook.Path(), PhaseUninstall)

	if err := os.Remove(hook.Path()); err != nil && !os.IsNotExist(err) {
		return OutcomeFailed, fmt.Errorf("remove %s: %w", hook.Name, err)
	}

	r.log.Info().Str("key", hook.Key).Msg("uninstalled hook")
	return OutcomeDone, nil
}

// runDirectives applies the directives of phase read from path. Failures
// are logged only.
func (r *Reconciler) runDirectives(key, path string, phase Phase) {
	d := ReadDirectives(path, phase)
	if !d.Any() {
		return
	}

	appID := ShortAppID(key)
	if appID == "" || isPathTraversal(appID) {
		r.log.Warn().Str("key", key).Msg("no usable app id, skipping directives")
		return
	}

	if d.DeleteCache {
		r.removeAppDir(r.dirs.Cache, appID, "cache")
	}
	if d.DeleteCookies {
		r.removeAppDir(r.dirs.Data, appID, "cookies")
	}
}

func (r *Reconciler) removeAppDir(parent, appID, kind string) {
	if parent == "" {
		return
	}
	dir := filepath.Join(parent, appID)
	if err := os.RemoveAll(dir); err != nil {
		r.log.Error().Err(err).Str("dir", dir).Msgf("remove %s", kind)
		return
	}
	r.log.Info().Str("dir", dir).Msgf("removed %s", kind)
}

// isPathTraversal returns true if the relative path attempts to escape its
// base directory.
func isPathTraversal(relPath string) bool {
	clean := filepath.Clean(relPath)
	if filepath.IsAbs(clean) || clean == "." {
		return true
	}
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

// replaceFile copies src over dst through a temporary file in dst's
// directory, so dst is either the old or the new content.
func replaceFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	tmp := filepath.Join(filepath.Dir(dst), randid.TempName(filepath.Base(dst)))
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("copy contents: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
