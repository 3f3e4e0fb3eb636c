package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchfire-io/nearby/internal/surface"
)

type stubPermission struct {
	granted    bool
	requested  int
	requestErr error
}

func (s *stubPermission) Granted() bool { return s.granted }

func (s *stubPermission) Request(context.Context) (bool, error) {
	s.requested++
	return s.granted, s.requestErr
}

func TestDispatcherNotification(t *testing.T) {
	e, n, _ := newTestEngine()
	d := NewDispatcher(e, &stubPermission{})
	ctx := context.Background()

	for _, method := range []string{MethodStartNotification, MethodUpdateNotification, MethodStartOrUpdateNotification} {
		res, err := d.Handle(ctx, method, payload("Typing"))
		require.NoError(t, err)
		assert.Nil(t, res)
	}
	assert.Equal(t, 1, n.opens)
	assert.Len(t, n.presented, 3)

	_, err := d.Handle(ctx, MethodStopNotification, nil)
	require.NoError(t, err)
	assert.Equal(t, Hidden, e.State(surface.NameNotification))
}

func TestDispatcherOverlayRequiresPermission(t *testing.T) {
	e, _, o := newTestEngine()
	perm := &stubPermission{}
	d := NewDispatcher(e, perm)
	ctx := context.Background()

	res, err := d.Handle(ctx, MethodShowOverlay, payload("Idle"))
	require.NoError(t, err)
	assert.Equal(t, false, res)
	assert.Equal(t, 0, o.opens)

	perm.granted = true
	res, err = d.Handle(ctx, MethodShowOverlay, payload("Idle"))
	require.NoError(t, err)
	assert.Equal(t, true, res)

	_, err = d.Handle(ctx, MethodUpdateOverlay, payload("Typing"))
	require.NoError(t, err)
	assert.Len(t, o.presented, 2)

	_, err = d.Handle(ctx, MethodHideOverlay, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, o.closes)
}

func TestDispatcherShowOverlayOpenFailure(t *testing.T) {
	e, _, o := newTestEngine()
	o.openErr = errors.New("no terminal")
	d := NewDispatcher(e, &stubPermission{granted: true})

	res, err := d.Handle(context.Background(), MethodShowOverlay, nil)

	require.NoError(t, err)
	assert.Equal(t, false, res)
}

func TestDispatcherPermissionQueries(t *testing.T) {
	e, _, _ := newTestEngine()
	perm := &stubPermission{granted: true}
	d := NewDispatcher(e, perm)
	ctx := context.Background()

	res, err := d.Handle(ctx, MethodCheckOverlayPermission, nil)
	require.NoError(t, err)
	assert.Equal(t, true, res)

	perm.granted = false
	perm.requestErr = errors.New("settings unwritable")
	res, err = d.Handle(ctx, MethodRequestOverlayPermission, nil)
	require.NoError(t, err)
	assert.Equal(t, false, res)
	assert.Equal(t, 1, perm.requested)
}

func TestDispatcherUnknownMethod(t *testing.T) {
	e, n, o := newTestEngine()
	d := NewDispatcher(e, &stubPermission{granted: true})

	res, err := d.Handle(context.Background(), "launchRocket", payload("Idle"))

	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Empty(t, n.presented)
	assert.Empty(t, o.presented)
}

func TestMethodsAreAllHandled(t *testing.T) {
	e, _, _ := newTestEngine()
	d := NewDispatcher(e, &stubPermission{granted: true})

	for _, m := range Methods() {
		_, err := d.Handle(context.Background(), m, nil)
		assert.NotErrorIs(t, err, ErrNotImplemented, m)
	}
}

func showBoth(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx := context.Background()
	_, err := d.Handle(ctx, MethodStartNotification, payload("Idle"))
	require.NoError(t, err)
	res, err := d.Handle(ctx, MethodShowOverlay, payload("Idle"))
	require.NoError(t, err)
	require.Equal(t, true, res)
}

func TestDispatcherKeepsVisibleSurfacesInSync(t *testing.T) {
	tests := []struct {
		method string
	}{
		{MethodUpdateNotification},
		{MethodStartOrUpdateNotification},
		{MethodUpdateOverlay},
		{MethodShowOverlay},
		{MethodApplyPresence},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			e, n, o := newTestEngine()
			d := NewDispatcher(e, &stubPermission{granted: true})
			showBoth(t, d)
			nBefore, oBefore := n.presentCount(), o.presentCount()

			_, err := d.Handle(context.Background(), tt.method, payload("Writing Notes"))
			require.NoError(t, err)

			require.Equal(t, nBefore+1, n.presentCount())
			require.Equal(t, oBefore+1, o.presentCount())
			assert.Equal(t, "Writing Notes", n.presented[len(n.presented)-1].SelfActivity)
			assert.Equal(t, "Writing Notes", o.presented[len(o.presented)-1].SelfActivity)
		})
	}
}

func TestDispatcherApplyIsolatesFailingSurface(t *testing.T) {
	e, n, o := newTestEngine()
	d := NewDispatcher(e, &stubPermission{granted: true})
	showBoth(t, d)
	n.panicOn = "present"

	res, err := d.Handle(context.Background(), MethodApplyPresence, payload("Browsing"))

	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, "Browsing", o.presented[len(o.presented)-1].SelfActivity)
	assert.Equal(t, Visible, e.State(surface.NameNotification))
	assert.Equal(t, "Browsing", e.Current().SelfActivity)
}

func TestDispatcherApplyLeavesHiddenSurfacesHidden(t *testing.T) {
	e, n, o := newTestEngine()
	d := NewDispatcher(e, &stubPermission{granted: true})

	_, err := d.Handle(context.Background(), MethodApplyPresence, payload("Typing"))

	require.NoError(t, err)
	assert.Zero(t, n.opens)
	assert.Zero(t, o.opens)
	assert.Equal(t, "Typing", e.Current().SelfActivity)
}
