// Package tui renders the tracked entities in a bubbletea terminal dashboard.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"regard/internal/notify"
	"regard/internal/tracking"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Requester dispatches interpretation requests.
type Requester interface {
	RequestInterpretation(ctx context.Context, id string) (string, error)
}

// entityMsg carries a store event.
type entityMsg struct{ ev tracking.Event }

// notificationMsg carries an operator notification.
type notificationMsg struct{ n notify.Notification }

// requestMsg reports the synchronous result of an interpretation request.
type requestMsg struct {
	id        string
	requestID string
	err       error
}

const inboxSize = 256

// Options configures the dashboard.
type Options struct {
	APIActive  bool
	MapEnabled bool
}

// Dashboard owns the bubbletea program and forwards store events and
// notifications into it without blocking the caller.
type Dashboard struct {
	program teaProgram
	run     func() error
	inbox   chan tea.Msg
}

// New builds a dashboard over the current store contents.
func New(store *tracking.Store, req Requester, opts Options) *Dashboard {
	m := newModel(store.Snapshot(), tracking.NewView(), req)
	m.apiActive = opts.APIActive
	m.mapEnabled = opts.MapEnabled
	p := tea.NewProgram(m, tea.WithAltScreen())
	return &Dashboard{
		program: p,
		run: func() error {
			_, err := p.Run()
			return err
		},
		inbox: make(chan tea.Msg, inboxSize),
	}
}

// HandleEvent matches the tracking.Store subscriber signature.
func (d *Dashboard) HandleEvent(ev tracking.Event) {
	d.enqueue(entityMsg{ev: ev})
}

// HandleNotification matches the notify.Center subscriber signature.
func (d *Dashboard) HandleNotification(n notify.Notification) {
	d.enqueue(notificationMsg{n: n})
}

// enqueue drops the message when the program is not keeping up; the next
// event for the same entity carries a full snapshot.
func (d *Dashboard) enqueue(msg tea.Msg) {
	select {
	case d.inbox <- msg:
	default:
	}
}

// Run blocks until the user quits or ctx is cancelled.
func (d *Dashboard) Run(ctx context.Context) error {
	pumpCtx, stop := context.WithCancel(ctx)
	defer stop()
	go d.pump(pumpCtx)
	go func() {
		<-pumpCtx.Done()
		d.program.Send(tea.Quit())
	}()
	if err := d.run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (d *Dashboard) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.inbox:
			d.program.Send(msg)
		}
	}
}

func formatTime(ts int64) string {
	return time.UnixMilli(ts).UTC().Format("15:04:05")
}
