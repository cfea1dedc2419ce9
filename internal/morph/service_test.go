package morph

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/morph/internal/core/config"
	"github.com/hay-kot/morph/internal/core/cookie"
	"github.com/hay-kot/morph/internal/core/tab"
	"github.com/hay-kot/morph/internal/hook"
	"github.com/hay-kot/morph/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "share"))

	cfg, err := config.Load("", filepath.Join(root, "data"))
	require.NoError(t, err)

	var out bytes.Buffer
	svc := New(cfg, zerolog.Nop(), &out)
	require.NoError(t, svc.EnsureDataDir())
	t.Cleanup(func() { _ = svc.Close() })
	return svc, &out
}

func TestService_HistoryPersists(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.NoError(t, svc.HistoryErr(ctx))
	svc.History(ctx).Add(ctx, "https://go.dev/", "Go", "")
	require.NoError(t, svc.Close())

	again := New(svc.Config(), zerolog.Nop(), nil)
	defer func() { _ = again.Close() }()

	h := again.History(ctx)
	require.Equal(t, 1, h.Count())
	entry, _ := h.Get(0)
	assert.Equal(t, "go.dev", entry.Domain)
}

func TestService_Tabs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tabs, err := svc.Tabs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, tabs.Count())

	tabs.Add(tab.Tab{URL: "https://a.com"})
	tabs.Add(tab.Tab{URL: "https://b.com"})
	require.NoError(t, svc.SaveTabs(ctx))

	restored, err := New(svc.Config(), zerolog.Nop(), nil).Tabs(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, restored.Count())
	current, _ := restored.Current()
	assert.Equal(t, "https://a.com", current.URL)
}

func TestService_RunHooksWritesMetrics(t *testing.T) {
	ctx := context.Background()
	svc, out := newTestService(t)
	svc.Config().Hooks.MetricsFile = filepath.Join(t.TempDir(), "hooks.prom")

	installed := svc.Config().Hooks.InstalledDir
	require.NoError(t, os.MkdirAll(installed, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(installed, "app_app_1.0.webapp"), []byte(`[{}]`), 0o644))

	report, err := svc.RunHooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"app_app"}, report.Keys(hook.ActionInstall, hook.OutcomeDone))
	assert.Contains(t, out.String(), "app_app")

	metrics, err := os.ReadFile(svc.Config().Hooks.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "morph_hook_actions_total")
}

func TestService_SchemeFilter(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	f, err := svc.SchemeFilter()
	require.NoError(t, err)
	out, err := f.Apply(ctx, "mailto:someone@example.com")
	require.NoError(t, err)
	assert.Equal(t, "mailto", out["scheme"])

	path := filepath.Join(t.TempDir(), "filters.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mailto": "nope"}`), 0o644))
	other, _ := newTestService(t)
	other.Config().Intent.FilterFile = path
	_, err = other.SchemeFilter()
	require.Error(t, err)
}

func TestService_MoveCookies(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	dataDir := svc.Config().DataDir

	dst := sqlite.NewCookieStore(filepath.Join(dataDir, "browser.sqlite"), zerolog.Nop())
	require.NoError(t, dst.Err())
	require.NoError(t, dst.Close())

	time.Sleep(20 * time.Millisecond)
	src := sqlite.NewCookieStore(filepath.Join(dataDir, "webapp.sqlite"), zerolog.Nop())
	require.NoError(t, src.SetCookies(ctx, []*http.Cookie{{Name: "sid", Value: "1", Domain: "a.com", Path: "/"}}))
	require.NoError(t, src.Close())

	require.NoError(t, svc.MoveCookies(ctx, "webapp.sqlite", "browser.sqlite"))

	dst = sqlite.NewCookieStore(filepath.Join(dataDir, "browser.sqlite"), zerolog.Nop())
	defer func() { _ = dst.Close() }()
	cookies, err := dst.GetCookies(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)

	// the destination was just written, the source is now older
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, dst.SetCookies(ctx, nil))
	err = svc.MoveCookies(ctx, "webapp.sqlite", "browser.sqlite")
	assert.ErrorIs(t, err, cookie.ErrStale)
}
