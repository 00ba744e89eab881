// Package notify mirrors milestone and completion messages to desktop
// notifications over the session D-Bus.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/pavelanni/conceptbridge/internal/i18n"
	"github.com/pavelanni/conceptbridge/internal/model"
)

const (
	appName       = "ConceptBridge"
	expireMillis  = int32(8000)
	queueCapacity = 8
)

// Sender delivers one notification.
type Sender interface {
	Send(summary, body string) error
}

// DBus sends through org.freedesktop.Notifications.
type DBus struct {
	conn *dbus.Conn
}

// ConnectSessionBus connects to the user's session bus.
func ConnectSessionBus() (*DBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &DBus{conn: conn}, nil
}

// Close closes the bus connection.
func (d *DBus) Close() error { return d.conn.Close() }

func (d *DBus) Send(summary, body string) error {
	obj := d.conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		appName,
		uint32(0), // replaces_id
		"appointment-soon",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(byte(1)),
		},
		expireMillis,
	)
	if call.Err != nil {
		return fmt.Errorf("send notification: %w", call.Err)
	}
	return nil
}

type note struct {
	summary, body string
}

// Notifier is a presenter that only acts on milestones and session
// completion. Delivery happens on Run's goroutine so presenter callbacks
// never wait on the bus; notes beyond the queue capacity are dropped.
type Notifier struct {
	sender Sender
	ctx    context.Context
	queue  chan note
}

// New creates a notifier localizing into lang.
func New(sender Sender, lang string) *Notifier {
	return &Notifier{
		sender: sender,
		ctx:    i18n.WithLocalizer(context.Background(), i18n.NewLocalizer(lang)),
		queue:  make(chan note, queueCapacity),
	}
}

// Run delivers queued notes until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-n.queue:
			if err := n.sender.Send(m.summary, m.body); err != nil {
				slog.Warn("desktop notification failed", "error", err)
			}
		}
	}
}

func (n *Notifier) enqueue(body string) {
	m := note{summary: i18n.T(n.ctx, "NotificationTitle"), body: body}
	select {
	case n.queue <- m:
	default:
		slog.Debug("notification queue full, dropping", "body", body)
	}
}

func (n *Notifier) OnMilestone(message string) { n.enqueue(i18n.Text(n.ctx, message)) }

func (n *Notifier) OnSessionComplete() { n.enqueue(i18n.T(n.ctx, "SessionComplete")) }

func (n *Notifier) OnTick(int)                        {}
func (n *Notifier) OnStateChange(model.SessionStatus) {}
func (n *Notifier) OnQuizReady([]model.Question)      {}
func (n *Notifier) OnQuizScored(int, int)             {}
func (n *Notifier) OnMessage(string)                  {}
