// Package overlay draws the floating presence widget on the daemon's
// controlling terminal.
package overlay

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/watchfire-io/nearby/internal/drag"
	"github.com/watchfire-io/nearby/internal/surface"
)

// ErrNotOpen is returned by Draw when the window is closed.
var ErrNotOpen = errors.New("overlay window is not open")

// Options configures a Window.
type Options struct {
	Anchor drag.Anchor
	Offset drag.Offset

	// LogFile receives log output while the window owns the terminal.
	LogFile string

	// OnTap runs when the widget is clicked without dragging.
	OnTap func()
	// OnDismiss runs when the user asks to hide the widget.
	OnDismiss func()
	// OnMoved runs after a drag with the final offset.
	OnMoved func(drag.Offset)

	// Input and Output default to the process's terminal.
	Input  io.Reader
	Output io.Writer
}

// Window is a bubbletea program showing the overlay widget. It implements
// surface.OverlayPresenter.
type Window struct {
	opts Options

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	logFile *os.File
	offset  drag.Offset
}

// NewWindow creates a closed window.
func NewWindow(opts Options) *Window {
	return &Window{opts: opts, offset: opts.Offset}
}

// Open starts the widget program.
func (w *Window) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.program != nil {
		return nil
	}

	if w.opts.LogFile != "" {
		f, err := tea.LogToFile(w.opts.LogFile, "[nearbyd]")
		if err != nil {
			return fmt.Errorf("failed to redirect logs: %w", err)
		}
		w.logFile = f
	}

	cb := callbacks{
		onTap:     w.opts.OnTap,
		onDismiss: w.opts.OnDismiss,
		onMoved:   w.moved,
	}
	model := newModel(w.opts.Anchor, w.offset, cb)

	programOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithoutSignalHandler(),
	}
	if w.opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(w.opts.Input))
	}
	if w.opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(w.opts.Output))
	}

	p := tea.NewProgram(model, programOpts...)
	done := make(chan struct{})
	w.program = p
	w.done = done

	go func() {
		defer close(done)
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			log.Printf("[overlay] Window exited: %v", err)
		}
	}()

	log.Printf("[overlay] Window opened (anchor %s, offset %d,%d)", w.opts.Anchor, w.offset.X, w.offset.Y)
	return nil
}

// Draw replaces the widget's content.
func (w *Window) Draw(spec surface.OverlaySpec) error {
	w.mu.Lock()
	p := w.program
	w.mu.Unlock()

	if p == nil {
		return ErrNotOpen
	}
	p.Send(specMsg(spec))
	return nil
}

// Close stops the program and waits for it to release the terminal.
func (w *Window) Close() error {
	w.mu.Lock()
	p, done, f := w.program, w.done, w.logFile
	w.program, w.done, w.logFile = nil, nil, nil
	w.mu.Unlock()

	if p == nil {
		return nil
	}
	p.Quit()
	<-done

	if f != nil {
		log.SetOutput(os.Stderr)
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
	}
	log.Printf("[overlay] Window closed")
	return nil
}

// Offset returns the last offset the user dragged the widget to.
func (w *Window) Offset() drag.Offset {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset
}

func (w *Window) moved(off drag.Offset) {
	w.mu.Lock()
	w.offset = off
	w.mu.Unlock()

	if w.opts.OnMoved != nil {
		w.opts.OnMoved(off)
	}
}
