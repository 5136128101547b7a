package index

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_RebuildsOnArchiveWrite(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.db")
	require.NoError(t, os.WriteFile(archive, []byte("v1"), 0o644))

	var rebuilds atomic.Int32
	w, err := NewWatcher(archive, 50*time.Millisecond, func(ctx context.Context) error {
		rebuilds.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = w.Start(ctx)
		close(done)
	}()

	// Give the watcher a moment to register, then write twice in a
	// burst: debouncing should collapse both into one rebuild.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(archive, []byte("v2"), 0o644))
	require.NoError(t, os.WriteFile(archive, []byte("v3"), 0o644))

	assert.Eventually(t, func() bool {
		return rebuilds.Load() == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, w.Stop())
	<-done
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.db")
	require.NoError(t, os.WriteFile(archive, []byte("v1"), 0o644))

	var rebuilds atomic.Int32
	w, err := NewWatcher(archive, 30*time.Millisecond, func(ctx context.Context) error {
		rebuilds.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), rebuilds.Load())

	require.NoError(t, w.Stop())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.db")

	w, err := NewWatcher(archive, time.Millisecond, func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestNewWatcher_RequiresCallback(t *testing.T) {
	_, err := NewWatcher("x", time.Second, nil)
	assert.Error(t, err)
}
