package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/admin"
	"github.com/nextdhcp/dhcpadmin/core/events"
	"github.com/nextdhcp/dhcpadmin/core/metrics"
	"github.com/nextdhcp/dhcpadmin/core/replication"
	"github.com/nextdhcp/dhcpadmin/core/snapshot"
	"github.com/nextdhcp/dhcpadmin/internal/config"
	"github.com/nextdhcp/dhcpadmin/plugin"
	"github.com/spf13/cobra"
)

// env is the state shared by the commands of a single invocation
type env struct {
	cfg        *config.Config
	metrics    *metrics.Metrics
	dispatcher *plugin.Dispatcher

	l     sync.Mutex
	store *snapshot.Store
	conns []*admin.Server
}

func newEnv(cfg *config.Config) *env {
	e := &env{
		cfg:        cfg,
		dispatcher: plugin.NewDispatcher(cfg.Notifiers...),
	}

	if cfg.Metrics != nil {
		e.metrics = metrics.New(cfg.Metrics.Addr, cfg.Metrics.Path)
	}

	return e
}

// connect opens the server configured as name. Connections are closed
// with the env.
func (e *env) connect(ctx context.Context, name string) (*admin.Server, error) {
	srv, ok := e.cfg.Server(name)
	if !ok {
		return nil, fmt.Errorf("unknown server %q", name)
	}

	proto, err := srv.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if e.metrics != nil {
		proto = e.metrics.Instrument(proto, name)
	}

	s, err := admin.Connect(ctx, proto, srv.Address, name)
	if err != nil {
		proto.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	e.l.Lock()
	e.conns = append(e.conns, s)
	e.l.Unlock()

	return s, nil
}

// scope connects to server and returns the scope of subnet
func (e *env) scope(ctx context.Context, server string, subnet address.IP) (*admin.Scope, error) {
	s, err := e.connect(ctx, server)
	if err != nil {
		return nil, err
	}
	return s.Scope(ctx, subnet)
}

// Dial implements admin.Dialer for failover partners. Partners are looked
// up by address and then by name in the Adminfile.
func (e *env) Dial(ctx context.Context, addr address.IP, name string) (*admin.Server, error) {
	for _, srv := range e.cfg.Servers {
		if srv.Address == addr {
			return e.connect(ctx, srv.Name)
		}
	}
	if _, ok := e.cfg.Server(name); ok {
		return e.connect(ctx, name)
	}
	return nil, fmt.Errorf("failover partner %s (%s) is not configured", name, addr)
}

// snapshots opens the snapshot store on first use
func (e *env) snapshots() (*snapshot.Store, error) {
	e.l.Lock()
	defer e.l.Unlock()

	if e.store != nil {
		return e.store, nil
	}

	if e.cfg.Snapshots == "" {
		return nil, errors.New("no snapshot database configured, add a snapshots directive to " + e.cfg.Filename)
	}

	store, err := snapshot.Open(e.cfg.Snapshots)
	if err != nil {
		return nil, err
	}
	e.store = store
	return store, nil
}

// handleReplication forwards replication events to metrics and notifiers
func (e *env) handleReplication(event caddy.EventName, r *replication.Report) error {
	if e.metrics != nil {
		e.metrics.HandleReplication(event, r) // nolint:errcheck
	}
	return e.dispatcher.Handle(event, r)
}

// close waits for pending notifications and releases all resources
func (e *env) close() error {
	e.dispatcher.Wait()

	e.l.Lock()
	defer e.l.Unlock()

	var errs []error
	for _, s := range e.conns {
		errs = append(errs, s.Close())
	}
	e.conns = nil

	if e.store != nil {
		errs = append(errs, e.store.Close())
		e.store = nil
	}

	return errors.Join(errs...)
}

var (
	hookOnce   sync.Once
	activeLock sync.RWMutex
	active     *env
)

// activate routes replication events to e. The event hook can only be
// registered once per process so it forwards to the active env.
func activate(e *env) {
	hookOnce.Do(func() {
		events.RegisterReplicationEventHook("dhcpadmin", func(event caddy.EventName, r *replication.Report) error {
			activeLock.RLock()
			cur := active
			activeLock.RUnlock()

			if cur == nil {
				return nil
			}
			return cur.handleReplication(event, r)
		})
	})

	activeLock.Lock()
	active = e
	activeLock.Unlock()
}

func deactivate(e *env) {
	activeLock.Lock()
	defer activeLock.Unlock()

	if active == e {
		active = nil
	}
}

type envKey struct{}

func setEnv(cmd *cobra.Command, e *env) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, envKey{}, e))
}

// runFunc is the body of a command that needs the loaded Adminfile
type runFunc func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error

// run adapts fn to cobra. The env is active for replication events
// while fn runs and closed afterwards.
func run(fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		e, ok := ctx.Value(envKey{}).(*env)
		if !ok {
			return errors.New("configuration not loaded")
		}

		activate(e)
		defer func() {
			deactivate(e)
			if cerr := e.close(); err == nil {
				err = cerr
			}
		}()

		return fn(ctx, e, cmd, args)
	}
}
