package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchfire-io/nearby/internal/config"
	"github.com/watchfire-io/nearby/internal/daemon/server"
	"github.com/watchfire-io/nearby/internal/drag"
	"github.com/watchfire-io/nearby/internal/engine"
	"github.com/watchfire-io/nearby/internal/models"
	"github.com/watchfire-io/nearby/internal/surface"
)

func startTestDaemon(t *testing.T) *daemon {
	t.Helper()
	t.Setenv(config.HomeEnv, t.TempDir())

	d, err := newDaemon(models.NewSettings(), false)
	require.NoError(t, err)
	require.NoError(t, d.start())
	return d
}

func TestDaemonLifecycle(t *testing.T) {
	d := startTestDaemon(t)

	info, err := config.LoadDaemonInfo()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, d.server.Port(), info.Port)
	assert.Equal(t, os.Getpid(), info.PID)

	ctx := context.Background()
	_, err = d.dispatcher.Handle(ctx, engine.MethodStartNotification, map[string]any{
		"selfName":       "Ana",
		"connectedCount": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, engine.Visible, d.engine.State(surface.NameNotification))

	// No terminal in tests, so the overlay is never permitted.
	shown, err := d.dispatcher.Handle(ctx, engine.MethodShowOverlay, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, false, shown)
	assert.Equal(t, engine.Hidden, d.engine.State(surface.NameOverlay))

	d.stop()
	assert.Equal(t, engine.Hidden, d.engine.State(surface.NameNotification))

	path, err := config.GlobalDaemonFile()
	require.NoError(t, err)
	assert.NoFileExists(t, path)
}

func TestDaemonReloadAppliesSettings(t *testing.T) {
	d := startTestDaemon(t)
	defer d.stop()

	_, err := config.UpdateSettings(func(s *models.Settings) {
		s.Notification.AppLabel = "Team Room"
		s.Notification.OpenCommand = []string{"true"}
	})
	require.NoError(t, err)

	d.reload()

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Equal(t, "Team Room", d.settings.Notification.AppLabel)
	assert.Equal(t, []string{"true"}, d.settings.Notification.OpenCommand)
}

func TestDaemonRestoresRemovedInfo(t *testing.T) {
	d := startTestDaemon(t)
	defer d.stop()

	require.NoError(t, config.RemoveDaemonInfo())
	d.restoreDaemonInfo()

	info, err := config.LoadDaemonInfo()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, d.server.Port(), info.Port)
}

func TestSaveOffsetPersists(t *testing.T) {
	d := startTestDaemon(t)
	defer d.stop()

	d.saveOffset(drag.Offset{X: 40, Y: 120})

	s, err := config.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, 40, s.Overlay.OffsetX)
	assert.Equal(t, 120, s.Overlay.OffsetY)

	dir, err := config.GlobalDir()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, config.SettingsFileName))
}

func TestLazyHostBeforeStart(t *testing.T) {
	h := &lazyHost{get: func() *server.TrayHost { return nil }}
	assert.Equal(t, 0, h.Port())
	h.BringToFront()
	h.GrantOverlay(true)
}
