package listmodel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/morph/internal/core/download"
	"github.com/hay-kot/morph/internal/store/sqlite"
)

func newDownloadsModel(t *testing.T) (*DownloadsModel, *sqlite.DownloadStore) {
	t.Helper()
	store := sqlite.NewDownloadStore(sqlite.Memory, zerolog.Nop())
	require.NoError(t, store.Err())
	t.Cleanup(func() { _ = store.Close() })

	m := NewDownloadsModel(zerolog.Nop(), WithClock(tick()))
	m.SetSource(context.Background(), store)
	return m, store
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDownloadsModel_AddPrepends(t *testing.T) {
	ctx := context.Background()
	m, store := newDownloadsModel(t)
	rec := &Recorder{}
	m.Subscribe(rec.Observe)

	m.Add(ctx, "1", "http://a.com/a.txt", "text/plain", false)
	m.Add(ctx, "2", "http://a.com/b.txt", "text/plain", false)
	m.Add(ctx, "2", "http://a.com/dup.txt", "text/plain", false)

	assert.Equal(t, 2, m.Count())
	first, _ := m.Get(0)
	assert.Equal(t, "2", first.ID)
	assert.Equal(t, []EventKind{EventInserted, EventInserted}, rec.Kinds())

	stored, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestDownloadsModel_IncognitoNotPersisted(t *testing.T) {
	ctx := context.Background()
	m, store := newDownloadsModel(t)

	m.Add(ctx, "secret", "http://a.com/x", "text/plain", true)
	m.SetPath(ctx, "secret", "/tmp/x")
	assert.True(t, m.Contains("secret"))

	stored, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestDownloadsModel_SetCompleteDetectsMimetype(t *testing.T) {
	ctx := context.Background()
	m, store := newDownloadsModel(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "page.bin", "<html><body>hello</body></html>")

	m.Add(ctx, "1", "http://a.com/page", "application/octet-stream", false)
	m.SetPath(ctx, "1", path)

	rec := &Recorder{}
	m.Subscribe(rec.Observe)
	m.SetComplete(ctx, "1", true)

	d, ok := m.Get(0)
	require.True(t, ok)
	assert.True(t, d.Complete)
	assert.Contains(t, d.Mimetype, "text/html")
	require.Len(t, rec.Events, 1)
	assert.ElementsMatch(t, []string{"complete", "mimetype"}, rec.Events[0].Fields)

	stored, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Complete)
	assert.Equal(t, path, stored[0].Path)
}

func TestDownloadsModel_SetErrorAndPaused(t *testing.T) {
	ctx := context.Background()
	m, _ := newDownloadsModel(t)
	m.Add(ctx, "1", "http://a.com/f", "", false)

	rec := &Recorder{}
	m.Subscribe(rec.Observe)

	m.SetPaused(ctx, "1", true)
	m.SetPaused(ctx, "1", true)
	m.SetError(ctx, "1", "network down")
	m.SetError(ctx, "unknown", "ignored")

	require.Len(t, rec.Events, 2)
	assert.Equal(t, Changed(0, download.RolePaused.String()), rec.Events[0])
	assert.Equal(t, Changed(0, download.RoleError.String()), rec.Events[1])

	d, _ := m.Get(0)
	assert.True(t, d.Failed())
}

func TestDownloadsModel_LoadSkipsMissingFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	present := writeFile(t, dir, "present.txt", "data")

	store := sqlite.NewDownloadStore(sqlite.Memory, zerolog.Nop())
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Save(ctx, download.Download{ID: "1", Path: present, Complete: true}))
	require.NoError(t, store.Save(ctx, download.Download{ID: "2", Path: filepath.Join(dir, "gone.txt"), Complete: true}))

	m := NewDownloadsModel(zerolog.Nop())
	m.SetSource(ctx, store)

	require.Equal(t, 1, m.Count())
	d, _ := m.Get(0)
	assert.Equal(t, "1", d.ID)

	stored, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2, "missing files stay in the table")
}

func TestDownloadsModel_Delete(t *testing.T) {
	ctx := context.Background()
	m, store := newDownloadsModel(t)
	path := writeFile(t, t.TempDir(), "f.txt", "data")

	m.Add(ctx, "1", "http://a.com/f.txt", "text/plain", false)
	m.SetPath(ctx, "1", path)

	rec := &Recorder{}
	m.Subscribe(rec.Observe)
	m.Delete(ctx, "1")

	assert.Equal(t, 0, m.Count())
	assert.Equal(t, Removed(0, 0), rec.Events[0])
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	stored, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
