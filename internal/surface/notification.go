package surface

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/watchfire-io/nearby/internal/presence"
)

// Notification constants carried over from the host integration.
const (
	NotificationID        = 1001
	NotificationChannelID = "nearby_connections_channel"
	NotificationCategory  = "status"
	DefaultAppLabel       = "Nearby Connections"

	noUsersLine  = "No users connected"
	fallbackBody = "Presence is active"
)

// Priority mirrors platform notification importance levels.
type Priority int

// Notification priorities.
const (
	PriorityLow     Priority = -1
	PriorityDefault Priority = 0
)

// Action is what happens when the user taps a surface.
type Action string

// ActionBringToFront restores the host application to the foreground.
const ActionBringToFront Action = "bring-to-front"

// NotificationSpec is a complete description of the status notification.
type NotificationSpec struct {
	ID        int
	ChannelID string
	Category  string

	Title   string
	SubText string
	Body    string

	// Expanded line-list section.
	BigTitle string
	Lines    []string

	SelfIcon  presence.IconID
	LargeIcon []byte // PNG, nil when no avatar is available

	Ongoing       bool
	OnlyAlertOnce bool
	Priority      Priority
	TapAction     Action

	// ChronometerBase anchors the elapsed-time display at first show.
	ChronometerBase time.Time
	ShowChronometer bool

	Degraded bool
}

// NotificationDecorator adds optional content to a rendered spec. An error
// degrades the whole render to the fallback spec.
type NotificationDecorator func(spec *NotificationSpec, s presence.State) error

// NotificationRenderer builds NotificationSpecs from presence snapshots.
type NotificationRenderer struct {
	AppLabel  string
	ChannelID string
	Decorate  NotificationDecorator

	mu sync.RWMutex // guards AppLabel after construction
}

// NewNotificationRenderer returns a renderer with the default channel.
func NewNotificationRenderer(appLabel string) *NotificationRenderer {
	if appLabel == "" {
		appLabel = DefaultAppLabel
	}
	return &NotificationRenderer{AppLabel: appLabel, ChannelID: NotificationChannelID}
}

// SetAppLabel changes the label used by subsequent renders.
func (r *NotificationRenderer) SetAppLabel(label string) {
	if label == "" {
		label = DefaultAppLabel
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.AppLabel = label
}

func (r *NotificationRenderer) label() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.AppLabel
}

// Render produces the rich spec, or the fallback spec if anything fails.
func (r *NotificationRenderer) Render(s presence.State, shownAt time.Time) Result[NotificationSpec] {
	return guard(
		func() (NotificationSpec, error) { return r.render(s, shownAt) },
		func() NotificationSpec { return r.Fallback(shownAt) },
	)
}

func (r *NotificationRenderer) render(s presence.State, shownAt time.Time) (NotificationSpec, error) {
	d := presence.Plan(s)

	spec := r.base(shownAt)
	spec.Title = fmt.Sprintf("%s: %s", s.SelfName, s.SelfActivity)
	spec.SubText = r.label()
	spec.Body = "Connected: " + strconv.Itoa(s.ConnectedCount)
	spec.BigTitle = fmt.Sprintf("%d Connected Users", s.ConnectedCount)
	spec.SelfIcon = presence.ResolveIcon(s.SelfActivity)

	if d.Empty {
		spec.Lines = []string{noUsersLine}
	} else {
		for _, p := range d.Shown() {
			spec.Lines = append(spec.Lines, presence.PeerLine(p))
		}
		if more := d.OverflowText(); more != "" {
			spec.Lines = append(spec.Lines, more)
		}
	}

	if r.Decorate != nil {
		if err := r.Decorate(&spec, s); err != nil {
			return NotificationSpec{}, fmt.Errorf("decorate notification: %w", err)
		}
	}
	return spec, nil
}

// Fallback is the minimal spec shown when rich rendering fails. It keeps the
// notification persistent so a rendering defect never makes it disappear.
func (r *NotificationRenderer) Fallback(shownAt time.Time) NotificationSpec {
	spec := r.base(shownAt)
	spec.Title = r.label()
	spec.Body = fallbackBody
	spec.SelfIcon = presence.IconUnknown
	spec.Degraded = true
	return spec
}

func (r *NotificationRenderer) base(shownAt time.Time) NotificationSpec {
	return NotificationSpec{
		ID:              NotificationID,
		ChannelID:       r.ChannelID,
		Category:        NotificationCategory,
		Ongoing:         true,
		OnlyAlertOnce:   true,
		Priority:        PriorityLow,
		TapAction:       ActionBringToFront,
		ChronometerBase: shownAt,
		ShowChronometer: !shownAt.IsZero(),
	}
}

// NotificationPresenter shows specs on the platform's notification surface.
type NotificationPresenter interface {
	Notify(spec NotificationSpec) error
	Cancel() error
}

// NotificationSurface adapts a renderer and a presenter to Surface. Calls
// are serialized by the engine.
type NotificationSurface struct {
	renderer  *NotificationRenderer
	presenter NotificationPresenter
	now       func() time.Time

	open    bool
	shownAt time.Time
}

// NewNotificationSurface creates the notification surface.
func NewNotificationSurface(r *NotificationRenderer, p NotificationPresenter) *NotificationSurface {
	return &NotificationSurface{renderer: r, presenter: p, now: time.Now}
}

// Name implements Surface.
func (n *NotificationSurface) Name() string { return NameNotification }

// Open anchors the elapsed-time display. Updates never move the anchor.
func (n *NotificationSurface) Open() error {
	if n.open {
		return nil
	}
	n.open = true
	n.shownAt = n.now()
	return nil
}

// Present renders s and hands the result to the presenter.
func (n *NotificationSurface) Present(s presence.State) error {
	res := n.renderer.Render(s, n.shownAt)
	if res.Err != nil {
		log.Printf("[notification] Rendering degraded: %v", res.Err)
	}
	if err := n.presenter.Notify(res.Spec); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Close cancels the notification and forgets the anchor.
func (n *NotificationSurface) Close() error {
	if !n.open {
		return nil
	}
	n.open = false
	n.shownAt = time.Time{}
	if err := n.presenter.Cancel(); err != nil {
		return fmt.Errorf("cancel notification: %w", err)
	}
	return nil
}
