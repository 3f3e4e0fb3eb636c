package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchfire-io/nearby/internal/presence"
	"github.com/watchfire-io/nearby/internal/surface"
)

type recordingSurface struct {
	name string

	mu        sync.Mutex
	opens     int
	closes    int
	presented []presence.State

	openErr    error
	presentErr error
	panicOn    string
}

func (r *recordingSurface) Name() string { return r.name }

func (r *recordingSurface) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicOn == "open" {
		panic("open exploded")
	}
	if r.openErr != nil {
		return r.openErr
	}
	r.opens++
	return nil
}

func (r *recordingSurface) Present(s presence.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicOn == "present" {
		panic("present exploded")
	}
	if r.presentErr != nil {
		return r.presentErr
	}
	r.presented = append(r.presented, s)
	return nil
}

func (r *recordingSurface) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++
	return nil
}

func (r *recordingSurface) presentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.presented)
}

func newTestEngine() (*Engine, *recordingSurface, *recordingSurface) {
	n := &recordingSurface{name: surface.NameNotification}
	o := &recordingSurface{name: surface.NameOverlay}
	return New(n, o), n, o
}

func payload(activity string) map[string]any {
	return map[string]any{"selfName": "Ana", "selfActivity": activity, "connectedCount": 1}
}

func TestShowCreatesOnce(t *testing.T) {
	e, _, o := newTestEngine()

	require.NoError(t, e.Show(surface.NameOverlay, payload("Idle")))
	require.NoError(t, e.Show(surface.NameOverlay, payload("Typing")))

	assert.Equal(t, 1, o.opens)
	require.Len(t, o.presented, 2)
	assert.Equal(t, "Typing", o.presented[1].SelfActivity)
	assert.Equal(t, Visible, e.State(surface.NameOverlay))
}

func TestUpdateWhileHiddenIsNoop(t *testing.T) {
	e, _, o := newTestEngine()

	require.NoError(t, e.Update(surface.NameOverlay, payload("Typing")))

	assert.Equal(t, 0, o.opens)
	assert.Empty(t, o.presented)
	assert.Equal(t, Hidden, e.State(surface.NameOverlay))
	assert.Equal(t, "Typing", e.Current().SelfActivity)
}

func TestHideIsIdempotentAndTerminal(t *testing.T) {
	e, _, o := newTestEngine()

	require.NoError(t, e.Hide(surface.NameOverlay))
	assert.Equal(t, 0, o.closes)

	require.NoError(t, e.Show(surface.NameOverlay, payload("Idle")))
	require.NoError(t, e.Hide(surface.NameOverlay))
	require.NoError(t, e.Hide(surface.NameOverlay))
	assert.Equal(t, 1, o.closes)

	require.NoError(t, e.Update(surface.NameOverlay, payload("Typing")))
	assert.Len(t, o.presented, 1)

	require.NoError(t, e.Show(surface.NameOverlay, payload("Browsing")))
	assert.Equal(t, 2, o.opens)
	assert.Len(t, o.presented, 2)
}

func TestApplyIsolatesFailingSurface(t *testing.T) {
	tests := []struct {
		name    string
		breakIt func(*recordingSurface)
	}{
		{"error", func(s *recordingSurface) { s.presentErr = errors.New("boom") }},
		{"panic", func(s *recordingSurface) { s.panicOn = "present" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, n, o := newTestEngine()
			require.NoError(t, e.Show(surface.NameNotification, payload("Idle")))
			require.NoError(t, e.Show(surface.NameOverlay, payload("Idle")))

			tt.breakIt(n)
			e.Apply(payload("Editing Document"))

			require.Len(t, o.presented, 2)
			assert.Equal(t, "Editing Document", o.presented[1].SelfActivity)
			assert.Equal(t, Visible, e.State(surface.NameNotification))
		})
	}
}

func TestApplySkipsHiddenSurfaces(t *testing.T) {
	e, n, o := newTestEngine()
	require.NoError(t, e.Show(surface.NameNotification, payload("Idle")))

	e.Apply(payload("Typing"))

	assert.Len(t, n.presented, 2)
	assert.Empty(t, o.presented)
}

func TestShowOpenFailureKeepsSurfaceHidden(t *testing.T) {
	e, _, o := newTestEngine()
	o.openErr = errors.New("no display")

	err := e.Show(surface.NameOverlay, payload("Idle"))

	require.Error(t, err)
	assert.ErrorIs(t, err, o.openErr)
	assert.Equal(t, Hidden, e.State(surface.NameOverlay))
	assert.Empty(t, o.presented)
}

func TestShowOpenPanicIsRecovered(t *testing.T) {
	e, _, o := newTestEngine()
	o.panicOn = "open"

	require.Error(t, e.Show(surface.NameOverlay, payload("Idle")))
	assert.Equal(t, Hidden, e.State(surface.NameOverlay))
}

func TestUnknownSurface(t *testing.T) {
	e, _, _ := newTestEngine()

	assert.ErrorIs(t, e.Show("billboard", nil), ErrUnknownSurface)
	assert.ErrorIs(t, e.Update("billboard", nil), ErrUnknownSurface)
	assert.ErrorIs(t, e.Hide("billboard"), ErrUnknownSurface)
}

func TestOnStateSeesEverySnapshot(t *testing.T) {
	e, _, _ := newTestEngine()
	var seen []string
	e.OnState(func(s presence.State) { seen = append(seen, s.SelfActivity) })

	e.Apply(payload("Idle"))
	require.NoError(t, e.Update(surface.NameOverlay, payload("Typing")))

	assert.Equal(t, []string{"Idle", "Typing"}, seen)
}

func TestConcurrentApplyAndHide(t *testing.T) {
	e, n, o := newTestEngine()
	require.NoError(t, e.Show(surface.NameNotification, payload("Idle")))
	require.NoError(t, e.Show(surface.NameOverlay, payload("Idle")))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			e.Apply(payload("Typing"))
		}()
		go func() {
			defer wg.Done()
			_ = e.Hide(surface.NameOverlay)
		}()
	}
	wg.Wait()

	assert.Equal(t, Hidden, e.State(surface.NameOverlay))
	assert.Equal(t, 1, o.closes)
	assert.GreaterOrEqual(t, n.presentCount(), 51)

	// Every rendered snapshot is one complete normalized payload.
	for _, s := range n.presented {
		assert.Equal(t, "Ana", s.SelfName)
	}
}

func TestHideAll(t *testing.T) {
	e, n, o := newTestEngine()
	require.NoError(t, e.Show(surface.NameNotification, nil))
	require.NoError(t, e.Show(surface.NameOverlay, nil))

	e.HideAll()

	assert.Equal(t, 1, n.closes)
	assert.Equal(t, 1, o.closes)
	assert.Equal(t, []string{surface.NameNotification, surface.NameOverlay}, e.Surfaces())
}
