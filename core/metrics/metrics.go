// Package metrics exports prometheus metrics for management protocol
// calls, server statistics and replication runs.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpadmin/core/admin"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/nextdhcp/dhcpadmin/core/replication"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultPath is the HTTP path metrics are served on
	DefaultPath = "/metrics"

	// DefaultAddr is the default listen address of the metrics handler
	DefaultAddr = "localhost:9180"
)

// Metrics holds all collectors of dhcpadmin in a dedicated registry
type Metrics struct {
	addr           string // where to we listen
	path           string
	latencyBuckets []float64

	registry *prometheus.Registry
	srv      *http.Server

	calls          *prometheus.CounterVec
	callDuration   *prometheus.HistogramVec
	messages       *prometheus.GaugeVec
	addresses      *prometheus.GaugeVec
	serverStarted  *prometheus.GaugeVec
	replications   *prometheus.CounterVec
	replicationOps *prometheus.CounterVec
}

// Option configures Metrics
type Option func(*Metrics)

// WithLatencyBuckets sets the histogram buckets used for call durations
func WithLatencyBuckets(b ...float64) Option {
	return func(m *Metrics) {
		m.latencyBuckets = b
	}
}

// New creates a new Metrics instance serving on addr and path. Empty
// values select DefaultAddr and DefaultPath.
func New(addr, path string, opts ...Option) *Metrics {
	if path == "" {
		path = DefaultPath
	}
	if addr == "" {
		addr = DefaultAddr
	}

	m := &Metrics{
		addr:     addr,
		path:     path,
		registry: prometheus.NewRegistry(),
	}

	for _, fn := range opts {
		fn(m)
	}

	m.define()
	return m
}

func (m *Metrics) define() {
	if m.latencyBuckets == nil {
		m.latencyBuckets = append([]float64{}, prometheus.DefBuckets...)
	}

	m.calls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dhcpadmin_protocol_calls_total",
		Help: "Counter of management protocol calls by result status.",
	}, []string{"server", "operation", "status"})

	m.callDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dhcpadmin_protocol_call_duration_seconds",
		Help:    "Histogram of the time (in seconds) each management protocol call took.",
		Buckets: m.latencyBuckets,
	}, []string{"server", "operation"})

	m.messages = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dhcpadmin_server_messages",
		Help: "DHCP messages processed by a server since it started.",
	}, []string{"server", "type"})

	m.addresses = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dhcpadmin_server_addresses",
		Help: "Address usage reported for the first scope of a server.",
	}, []string{"server", "state"})

	m.serverStarted = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dhcpadmin_server_start_time_seconds",
		Help: "Start time of a server as a unix timestamp.",
	}, []string{"server"})

	m.replications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dhcpadmin_replications_total",
		Help: "Counter of replication runs by event.",
	}, []string{"source", "destination", "event"})

	m.replicationOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dhcpadmin_replication_operations_total",
		Help: "Counter of applied replication operations by kind.",
	}, []string{"destination", "kind"})

	m.registry.MustRegister(
		m.calls,
		m.callDuration,
		m.messages,
		m.addresses,
		m.serverStarted,
		m.replications,
		m.replicationOps,
	)
}

// Addr returns the configured listen address
func (m *Metrics) Addr() string { return m.addr }

// Path returns the HTTP path metrics are served on
func (m *Metrics) Path() string { return m.path }

// Registry returns the registry holding all collectors
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the HTTP handler exposing the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Start starts serving metrics. The listener is opened before Start
// returns so address errors are reported to the caller.
func (m *Metrics) Start() (net.Addr, error) {
	if m.srv != nil {
		return nil, errors.New("metrics: already started")
	}

	l, err := net.Listen("tcp", m.addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(m.path, m.Handler())
	m.srv = &http.Server{Handler: mux}

	go func() {
		err := m.srv.Serve(l)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics: serving on %s: %v", l.Addr(), err)
		}
	}()

	log.Infof("metrics: serving on http://%s%s", l.Addr(), m.path)
	return l.Addr(), nil
}

// Stop shuts down the metrics handler
func (m *Metrics) Stop(ctx context.Context) error {
	if m.srv == nil {
		return nil
	}
	return m.srv.Shutdown(ctx)
}

// ObserveMib updates the statistics gauges of server
func (m *Metrics) ObserveMib(server string, info *admin.MibInfoV4) {
	if info == nil {
		return
	}

	for typ, v := range map[string]uint32{
		"discover": info.Discovers,
		"offer":    info.Offers,
		"request":  info.Requests,
		"ack":      info.Acks,
		"nak":      info.Naks,
		"decline":  info.Declines,
		"release":  info.Releases,
	} {
		m.messages.WithLabelValues(server, typ).Set(float64(v))
	}

	if info.NumAddressesInUse != nil {
		m.addresses.WithLabelValues(server, "in_use").Set(float64(*info.NumAddressesInUse))
	}
	if info.NumAddressesFree != nil {
		m.addresses.WithLabelValues(server, "free").Set(float64(*info.NumAddressesFree))
	}
	if info.NumPendingOffers != nil {
		m.addresses.WithLabelValues(server, "pending_offer").Set(float64(*info.NumPendingOffers))
	}

	if info.ServerStarted.After(protocol.MinTime) {
		m.serverStarted.WithLabelValues(server).Set(float64(info.ServerStarted.Unix()))
	}
}

// HandleReplication counts replication runs and their applied
// operations. It is an events.ReplicationEventHook.
func (m *Metrics) HandleReplication(event caddy.EventName, r *replication.Report) error {
	m.replications.WithLabelValues(r.Source, r.Destination, string(event)).Inc()

	if r.DryRun {
		return nil
	}

	applied := r.Applied
	if applied > len(r.Ops) {
		applied = len(r.Ops)
	}
	for _, op := range r.Ops[:applied] {
		m.replicationOps.WithLabelValues(r.Destination, op.Kind.String()).Inc()
	}

	return nil
}
