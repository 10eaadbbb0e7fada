// Package notify delivers desktop notifications to the local user.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/lewisedginton/chatbridge/pkg/logger"
)

// Notifier shows a notification with a title and body.
type Notifier interface {
	Notify(title, body string) error
}

// Desktop sends notifications through the host notification daemon.
type Desktop struct {
	log logger.Logger
}

// NewDesktop returns a Notifier backed by the OS notification system.
func NewDesktop(log logger.Logger) *Desktop {
	return &Desktop{log: log}
}

func (d *Desktop) Notify(title, body string) error {
	if err := beeep.Notify(title, body, ""); err != nil {
		d.log.Warn("failed to send desktop notification", logger.ErrorField(err))
		return err
	}
	d.log.Debug("sent desktop notification", logger.StringField("title", title))
	return nil
}

// Noop discards notifications. Used when notifications are disabled.
type Noop struct{}

func (Noop) Notify(string, string) error { return nil }

// Recorded is a notification captured by a Recorder.
type Recorded struct {
	Title string
	Body  string
}

// Recorder captures notifications in memory, for tests and headless
// environments.
type Recorder struct {
	mu   sync.Mutex
	sent []Recorded
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Recorded{Title: title, Body: body})
	return nil
}

// Sent returns a copy of every notification recorded so far.
func (r *Recorder) Sent() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.sent))
	copy(out, r.sent)
	return out
}
