package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/morph/internal/hook"
)

func hookDirs(t *testing.T) hook.Dirs {
	t.Helper()
	root := t.TempDir()
	dirs := hook.Dirs{
		Processed: filepath.Join(root, "processed"),
		Installed: filepath.Join(root, "installed"),
	}
	require.NoError(t, os.MkdirAll(dirs.Processed, 0o755))
	require.NoError(t, os.MkdirAll(dirs.Installed, 0o755))
	return dirs
}

func reconcile(dirs hook.Dirs) func(ctx context.Context) (hook.Report, error) {
	return func(ctx context.Context) (hook.Report, error) {
		return hook.NewReconciler(zerolog.Nop(), dirs).Run(ctx)
	}
}

func TestHookCheck_InSync(t *testing.T) {
	dirs := hookDirs(t)
	writeFile(t, filepath.Join(dirs.Installed, "mail_mail_1.0.webapp"))
	writeFile(t, filepath.Join(dirs.Processed, "mail_mail"))

	result := NewHookCheck(dirs, nil).Run(context.Background())

	assert.Equal(t, "Web App Hooks", result.Name)
	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, "1 processed", result.Items[0].Detail)
}

func TestHookCheck_MissingDirs(t *testing.T) {
	dirs := hook.Dirs{Processed: "/nonexistent/processed", Installed: "/nonexistent/installed"}

	result := NewHookCheck(dirs, nil).Run(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, "Hooks in sync", result.Items[0].Label)
}

func TestHookCheck_ReportsDrift(t *testing.T) {
	dirs := hookDirs(t)
	writeFile(t, filepath.Join(dirs.Installed, "maps_maps_2.1.webapp"))
	writeFile(t, filepath.Join(dirs.Processed, "mail_mail"))

	result := NewHookCheck(dirs, nil).Run(context.Background())

	require.Len(t, result.Items, 2)
	assert.Equal(t, "mail_mail", result.Items[0].Label)
	assert.Equal(t, StatusWarn, result.Items[0].Status)
	assert.Contains(t, result.Items[0].Detail, "no longer installed")
	assert.Equal(t, "maps_maps", result.Items[1].Label)
	assert.Contains(t, result.Items[1].Detail, "not processed")
	assert.Equal(t, 2, CountFixable([]Result{result}))
}

func TestHookCheck_FixReconciles(t *testing.T) {
	dirs := hookDirs(t)
	writeFile(t, filepath.Join(dirs.Installed, "maps_maps_2.1.webapp"))
	writeFile(t, filepath.Join(dirs.Processed, "mail_mail"))

	result := NewHookCheck(dirs, reconcile(dirs)).Run(context.Background())

	require.Len(t, result.Items, 2)
	assert.Equal(t, "maps_maps", result.Items[0].Label)
	assert.Equal(t, "installed", result.Items[0].Detail)
	assert.Equal(t, "mail_mail", result.Items[1].Label)
	assert.Equal(t, "uninstalled", result.Items[1].Detail)

	_, err := os.Stat(filepath.Join(dirs.Processed, "maps_maps"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dirs.Processed, "mail_mail"))
	assert.True(t, os.IsNotExist(err))
}
