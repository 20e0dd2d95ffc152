// Package plugin holds the registry of replication notifiers that can be
// configured with the "notify" directive of an Adminfile.
package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/dhcpadmin/core/replication"
)

type (
	// Notifier is informed about finished or failed replications
	Notifier interface {
		// Name returns the name of the notifier
		Name() string

		// Notify is called for each replication event. Notifiers decide
		// themselves whether the event is of interest.
		Notify(ctx context.Context, event caddy.EventName, r *replication.Report) error
	}

	// SetupFunc parses the block of a notify directive. The dispenser is
	// positioned on the notifier name.
	SetupFunc func(c *caddyfile.Dispenser) (Notifier, error)

	// NotifierFunc allows to easily wrap a function as a Notifier
	NotifierFunc func(ctx context.Context, event caddy.EventName, r *replication.Report) error
)

// Notify implements the Notifier interface
func (fn NotifierFunc) Notify(ctx context.Context, event caddy.EventName, r *replication.Report) error {
	return fn(ctx, event, r)
}

// Name returns "NotifierFunc" and implements the Notifier interface
func (fn NotifierFunc) Name() string {
	return "NotifierFunc"
}

var (
	setupLock sync.RWMutex
	setups    = map[string]SetupFunc{}
)

// Register registers the setup function of a notifier. It panics if name
// is already taken.
func Register(name string, fn SetupFunc) {
	setupLock.Lock()
	defer setupLock.Unlock()

	if _, ok := setups[name]; ok {
		panic(fmt.Sprintf("notifier %q already registered", name))
	}
	setups[name] = fn
}

// Lookup returns the setup function registered for name
func Lookup(name string) (SetupFunc, bool) {
	setupLock.RLock()
	defer setupLock.RUnlock()

	fn, ok := setups[name]
	return fn, ok
}

// Names returns the names of all registered notifiers
func Names() []string {
	setupLock.RLock()
	defer setupLock.RUnlock()

	names := make([]string, 0, len(setups))
	for n := range setups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatcher fans replication events out to notifiers. Each notifier runs
// in its own goroutine so replication never waits for a notification.
type Dispatcher struct {
	notifiers []Notifier
	wg        sync.WaitGroup
}

// NewDispatcher returns a dispatcher for notifiers
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

// Len returns the number of notifiers
func (d *Dispatcher) Len() int {
	return len(d.notifiers)
}

// Handle is a events.ReplicationEventHook
func (d *Dispatcher) Handle(event caddy.EventName, r *replication.Report) error {
	for _, n := range d.notifiers {
		d.wg.Add(1)
		go func(n Notifier) {
			defer d.wg.Done()

			if err := n.Notify(context.Background(), event, r); err != nil {
				log.WithFields(log.Fields{
					"notifier":    n.Name(),
					"replication": r.ID,
				}).Warnf("failed to send notification: %s", err.Error())
			}
		}(n)
	}
	return nil
}

// Wait blocks until all pending notifications are sent
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
