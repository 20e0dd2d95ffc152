// Package test provides helpers for testing notifiers and their
// configuration.
package test

import (
	"context"
	"errors"
	"sync"

	"github.com/caddyserver/caddy"
	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/dhcpadmin/core/replication"
	"github.com/nextdhcp/dhcpadmin/plugin"
)

type (
	// Notification is a replication event received by a Recorder
	Notification struct {
		Event  caddy.EventName
		Report *replication.Report
	}

	// Recorder is a plugin.Notifier that records all notifications
	Recorder struct {
		l             sync.Mutex
		notifications []Notification
		err           error
	}
)

var (
	// ErrorNotifier is a plugin.Notifier and always returns an error
	ErrorNotifier = plugin.NotifierFunc(func(context.Context, caddy.EventName, *replication.Report) error {
		return errors.New("simulated error")
	})

	// NoOpNotifier is a No-Operation plugin.Notifier
	NoOpNotifier = plugin.NotifierFunc(func(context.Context, caddy.EventName, *replication.Report) error {
		return nil
	})
)

// NewRecorder returns a Recorder whose Notify returns err
func NewRecorder(err error) *Recorder {
	return &Recorder{err: err}
}

// Name implements plugin.Notifier
func (r *Recorder) Name() string {
	return "test.Recorder"
}

// Notify implements plugin.Notifier
func (r *Recorder) Notify(_ context.Context, event caddy.EventName, report *replication.Report) error {
	r.l.Lock()
	defer r.l.Unlock()

	r.notifications = append(r.notifications, Notification{event, report})
	return r.err
}

// Take returns and clears all recorded notifications
func (r *Recorder) Take() []Notification {
	r.l.Lock()
	defer r.l.Unlock()

	n := r.notifications
	r.notifications = nil
	return n
}

// Register registers a notifier called name that returns rec for every
// notify block. The block itself is skipped.
func Register(name string, rec *Recorder) {
	plugin.Register(name, func(c *caddyfile.Dispenser) (plugin.Notifier, error) {
		c.RemainingArgs()
		for c.NextBlock() {
			c.RemainingArgs()
		}
		return rec, nil
	})
}
