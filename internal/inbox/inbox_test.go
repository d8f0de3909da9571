package inbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/checkindesk/internal/repository"
	"github.com/parisxmas/checkindesk/internal/service"
	"github.com/parisxmas/checkindesk/internal/storage"
)

func newViewer(t *testing.T) (*service.ViewerService, *repository.SubmissionRepo) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewSubmissionRepo(storage.NewAccessor(storage.NewMemoryStore(), logger), "", logger)
	return service.NewViewerService(repo, nil, nil, logger), repo
}

// drop writes under a temporary name and renames, so the watcher never
// sees a half-written file.
func drop(t *testing.T, dir, name, content string) {
	t.Helper()
	tmp := filepath.Join(dir, name+".part")
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, name)))
}

func startWatcher(t *testing.T, dir string, imp Importer) {
	t.Helper()
	w, err := New(dir, imp, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestWatcherImportsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	viewer, repo := newViewer(t)
	startWatcher(t, dir, viewer)

	drop(t, dir, "backup.json", `[{"name":"Asha"},{"name":"Vikram"}]`)

	require.Eventually(t, func() bool {
		return exists(filepath.Join(dir, ProcessedDir, "backup.json"))
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 2, repo.Count(context.Background()))
	assert.False(t, exists(filepath.Join(dir, "backup.json")))
}

func TestWatcherMovesBadFileToFailed(t *testing.T) {
	dir := t.TempDir()
	viewer, repo := newViewer(t)
	startWatcher(t, dir, viewer)

	drop(t, dir, "broken.json", `{"name":"Asha"}`)

	require.Eventually(t, func() bool {
		return exists(filepath.Join(dir, FailedDir, "broken.json"))
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 0, repo.Count(context.Background()))
}

func TestWatcherImportsExistingFilesOnStart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waiting.json"), []byte(`[{"name":"Asha"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	viewer, repo := newViewer(t)
	startWatcher(t, dir, viewer)

	require.Eventually(t, func() bool {
		return repo.Count(context.Background()) == 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.True(t, exists(filepath.Join(dir, "notes.txt")))
}
