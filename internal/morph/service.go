// Package morph wires the configured stores, models and helpers together for
// the command line.
package morph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/hay-kot/morph/internal/core/config"
	"github.com/hay-kot/morph/internal/core/cookie"
	"github.com/hay-kot/morph/internal/core/download"
	"github.com/hay-kot/morph/internal/favicon"
	"github.com/hay-kot/morph/internal/hook"
	"github.com/hay-kot/morph/internal/intent"
	"github.com/hay-kot/morph/internal/listmodel"
	"github.com/hay-kot/morph/internal/store/jsonfile"
	"github.com/hay-kot/morph/internal/store/sqlite"
)

// Service orchestrates morph operations. Stores are opened on first use and
// released by Close. A Service is not safe for concurrent use.
type Service struct {
	config *config.Config
	log    zerolog.Logger
	stdout io.Writer

	historyDB   *sqlite.HistoryStore
	history     *listmodel.HistoryModel
	downloadsDB *sqlite.DownloadStore
	downloads   *listmodel.DownloadsModel
	tabStore    *jsonfile.TabStore
	tabs        *listmodel.TabsModel
	filter      *intent.SchemeFilter
}

// New creates a new Service. Hook summaries are written to stdout.
func New(cfg *config.Config, log zerolog.Logger, stdout io.Writer) *Service {
	return &Service{
		config: cfg,
		log:    log,
		stdout: stdout,
	}
}

// Config returns the loaded configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

func (s *Service) component(name string) zerolog.Logger {
	return s.log.With().Str("component", name).Logger()
}

// History returns the history model loaded from the configured database.
func (s *Service) History(ctx context.Context) *listmodel.HistoryModel {
	if s.history == nil {
		s.historyDB = sqlite.NewHistoryStore(s.config.History.Database, s.component("history-store"))
		s.history = listmodel.NewHistoryModel(s.component("history"))
		s.history.SetSource(ctx, s.historyDB)
	}
	return s.history
}

// HistoryErr reports whether the history database could be opened.
func (s *Service) HistoryErr(ctx context.Context) error {
	s.History(ctx)
	return s.historyDB.Err()
}

// DownloadStore returns the downloads database, including rows whose file is
// gone.
func (s *Service) DownloadStore() download.Store {
	if s.downloadsDB == nil {
		s.downloadsDB = sqlite.NewDownloadStore(s.config.Downloads.Database, s.component("downloads-store"))
	}
	return s.downloadsDB
}

// Downloads returns the downloads model loaded from the configured database.
func (s *Service) Downloads(ctx context.Context) *listmodel.DownloadsModel {
	if s.downloads == nil {
		store := s.DownloadStore()
		s.downloads = listmodel.NewDownloadsModel(s.component("downloads"))
		s.downloads.SetSource(ctx, store)
	}
	return s.downloads
}

// Tabs returns the tabs model restored from the session file.
func (s *Service) Tabs(ctx context.Context) (*listmodel.TabsModel, error) {
	if s.tabs == nil {
		s.tabStore = jsonfile.NewTabStore(s.config.Tabs.SessionFile)
		tabs := listmodel.NewTabsModel(s.component("tabs"))
		if err := tabs.Restore(ctx, s.tabStore); err != nil {
			return nil, fmt.Errorf("restore tabs: %w", err)
		}
		s.tabs = tabs
	}
	return s.tabs, nil
}

// SaveTabs writes the tabs model back to the session file.
func (s *Service) SaveTabs(ctx context.Context) error {
	if s.tabs == nil {
		return nil
	}
	return s.tabs.Persist(ctx, s.tabStore)
}

// HookDirs returns the directories used for hook reconciliation.
func (s *Service) HookDirs() hook.Dirs {
	return hook.Dirs{
		Processed: s.config.Hooks.ProcessedDir,
		Installed: s.config.Hooks.InstalledDir,
		Cache:     s.config.Hooks.CacheDir,
		Data:      s.config.Hooks.DataDir,
	}
}

// RunHooks reconciles processed hooks with installed ones and, when a metrics
// file is configured, records the run there. Options are applied after the
// defaults, so hook.WithOutput(nil) silences the summary.
func (s *Service) RunHooks(ctx context.Context, opts ...hook.Option) (hook.Report, error) {
	metrics := hook.NewMetrics()
	opts = append([]hook.Option{hook.WithMetrics(metrics), hook.WithOutput(s.stdout)}, opts...)
	reconciler := hook.NewReconciler(s.log, s.HookDirs(), opts...)

	report, err := reconciler.Run(ctx)
	if err != nil {
		return report, err
	}

	if path := s.config.Hooks.MetricsFile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("failed to write hook metrics")
		}
	}

	return report, nil
}

// Favicons returns a fetcher caching icons in the configured directory.
func (s *Service) Favicons(opts ...favicon.Option) *favicon.Fetcher {
	opts = append([]favicon.Option{favicon.WithTimeout(s.config.Favicon.Timeout)}, opts...)
	return favicon.NewFetcher(s.component("favicon"), s.config.Favicon.CacheDir, opts...)
}

// SchemeFilter returns the custom scheme filter loaded from the configured
// filter file. Without a file every scheme passes through.
func (s *Service) SchemeFilter() (*intent.SchemeFilter, error) {
	if s.filter != nil {
		return s.filter, nil
	}

	var sources map[string]string
	if path := s.config.Intent.FilterFile; path != "" {
		var err error
		sources, err = intent.ParseFilterFile(path)
		if err != nil {
			return nil, err
		}
	}

	s.filter = intent.NewSchemeFilter(sources, intent.WithLogger(s.component("intent")))
	return s.filter, nil
}

// MoveCookies copies the cookies of the database at from into the database
// at to, unless the destination is newer. Relative paths resolve against the
// data directory.
func (s *Service) MoveCookies(ctx context.Context, from, to string) error {
	src := sqlite.NewCookieStore(s.resolve(from), s.component("cookies"))
	defer func() { _ = src.Close() }()
	if err := src.Err(); err != nil {
		return fmt.Errorf("open source cookies: %w", err)
	}

	dst := sqlite.NewCookieStore(s.resolve(to), s.component("cookies"))
	defer func() { _ = dst.Close() }()
	if err := dst.Err(); err != nil {
		return fmt.Errorf("open destination cookies: %w", err)
	}

	return cookie.Move(ctx, dst, src)
}

func (s *Service) resolve(path string) string {
	if path == "" || path == config.Memory || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.config.DataDir, path)
}

// EnsureDataDir creates the data directory.
func (s *Service) EnsureDataDir() error {
	if err := os.MkdirAll(s.config.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

// Close releases every opened store.
func (s *Service) Close() error {
	var errs []error
	if s.historyDB != nil {
		errs = append(errs, s.historyDB.Close())
	}
	if s.downloadsDB != nil {
		errs = append(errs, s.downloadsDB.Close())
	}
	return errors.Join(errs...)
}
