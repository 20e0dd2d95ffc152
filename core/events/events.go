package events

import (
	"runtime/debug"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpadmin/core/replication"
)

const (
	// EventReplicationFinished is emitted when all operations of a
	// replication have been applied
	EventReplicationFinished caddy.EventName = "replication-finished"

	// EventReplicationFailed is emitted when a replication stopped with
	// an error
	EventReplicationFailed caddy.EventName = "replication-failed"
)

type (
	// ReplicationEventHook is the function type that can receive
	// replication events
	ReplicationEventHook func(event caddy.EventName, r *replication.Report) error
)

var (
	validReplicationEvents = map[caddy.EventName]struct{}{
		EventReplicationFinished: {},
		EventReplicationFailed:   {},
	}
)

// IsReplicationEvent reports whether name is a known replication event
func IsReplicationEvent(name caddy.EventName) bool {
	_, ok := validReplicationEvents[name]
	return ok
}

// EmitReplicationEvent emits a replication event
func EmitReplicationEvent(event caddy.EventName, r *replication.Report) {
	if !IsReplicationEvent(event) {
		log.Errorf("invalid replication event type %q\n%s", event, debug.Stack())
		return
	}

	caddy.EmitEvent(event, r)
}

// RegisterReplicationEventHook registers hook under name. The hook only
// receives replication events.
func RegisterReplicationEventHook(name string, hook ReplicationEventHook) {
	caddy.RegisterEventHook(name, func(e caddy.EventName, value interface{}) error {
		if !IsReplicationEvent(e) {
			return nil
		}

		r, ok := value.(*replication.Report)
		if !ok {
			return nil
		}

		return hook(e, r)
	})
}
