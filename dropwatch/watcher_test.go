package dropwatch

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()

	w, err := New(filepath.Join(dir, "drop"), nil)
	require.NoError(t, err)
	w.settle = 50 * time.Millisecond
	t.Cleanup(func() { w.Close() })

	w.Start()
	return w, w.Dir()
}

func receiveBatch(t *testing.T, w *Watcher) Batch {
	t.Helper()
	select {
	case batch := <-w.Batches():
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for drop batch")
		return Batch{}
	}
}

func TestNewCreatesDropDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "drop")

	w, err := New(dir, nil)
	require.NoError(t, err)
	defer w.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDroppedFilesAreEmitted(t *testing.T) {
	w, dir := newTestWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta"), 0644))

	var names []string
	for len(names) < 2 {
		batch := receiveBatch(t, w)
		for _, f := range batch.Files {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestFileContentIsRead(t *testing.T) {
	w, dir := newTestWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644))

	batch := receiveBatch(t, w)
	require.Len(t, batch.Files, 1)
	assert.Equal(t, "notes.txt", batch.Files[0].Name)
	assert.Equal(t, []byte("hello"), batch.Files[0].Data)
}

func TestResetSettleTimerDrainsStaleTick(t *testing.T) {
	timer := time.NewTimer(time.Millisecond)
	// Let the tick land in the channel before the reset.
	time.Sleep(20 * time.Millisecond)

	resetSettleTimer(timer, 100*time.Millisecond)

	select {
	case <-timer.C:
		t.Fatal("stale tick survived the reset")
	case <-time.After(20 * time.Millisecond):
	}

	select {
	case <-timer.C:
	case <-time.After(time.Second):
		t.Fatal("timer never fired after reset")
	}
}

func TestFilesEmitOnlyOnce(t *testing.T) {
	w, dir := newTestWatcher(t)

	path := filepath.Join(dir, "again.txt")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0644))
	receiveBatch(t, w)

	// Rewriting the same file must not emit it again, but a new file must
	// still come through.
	require.NoError(t, os.WriteFile(path, []byte("two"), 0644))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.txt"), []byte("three"), 0644))

	batch := receiveBatch(t, w)
	require.Len(t, batch.Files, 1)
	assert.Equal(t, "fresh.txt", batch.Files[0].Name)
}
