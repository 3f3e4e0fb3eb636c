package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchfire-io/nearby/internal/config"
)

func startWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()

	w, err := New(dir)
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)
	return w, dir
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case e := <-w.Events():
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return Event{}
	}
}

func TestSettingsWriteEmitsOneEvent(t *testing.T) {
	w, dir := startWatcher(t)
	path := filepath.Join(dir, config.SettingsFileName)

	// A burst of writes collapses into one reload.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))
	}

	e := waitEvent(t, w)
	assert.Equal(t, EventSettingsChanged, e.Type)
	assert.Equal(t, path, e.Path)

	select {
	case extra := <-w.Events():
		t.Fatalf("unexpected extra event: %+v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestAtomicSaveEmitsEvent(t *testing.T) {
	w, dir := startWatcher(t)
	path := filepath.Join(dir, config.SettingsFileName)

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte("version: 1\n"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	e := waitEvent(t, w)
	assert.Equal(t, EventSettingsChanged, e.Type)
}

func TestDaemonFileRemoval(t *testing.T) {
	w, dir := startWatcher(t)
	path := filepath.Join(dir, config.DaemonFileName)
	require.NoError(t, os.WriteFile(path, []byte("port: 1\n"), 0644))
	require.NoError(t, os.Remove(path))

	e := waitEvent(t, w)
	assert.Equal(t, EventDaemonFileRemoved, e.Type)
}

func TestOtherFilesIgnored(t *testing.T) {
	w, dir := startWatcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case e := <-w.Events():
		t.Fatalf("unexpected event: %+v", e)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestStopIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
}
