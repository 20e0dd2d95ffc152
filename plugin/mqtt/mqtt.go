package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nextdhcp/dhcpadmin/core/matcher"
	"github.com/nextdhcp/dhcpadmin/core/replacer"
	"github.com/nextdhcp/dhcpadmin/core/replication"
)

const defaultTopic = "dhcpadmin/replication/{event}"

type (
	// msgFactory creates the topic or payload of a MQTT message from a
	// replication event
	msgFactory func(ctx context.Context, event caddy.EventName, r *replication.Report) (string, error)

	// publisher publishes a single message
	publisher interface {
		Publish(topic string, qos byte, payload string) error
	}

	mqttConnConfig struct {
		broker       []string
		user         string
		password     string
		clientID     string
		cleanSession bool
		qos          int

		l sync.Mutex
		c publisher
	}

	mqttNotifier struct {
		*matcher.Matcher

		conn    *mqttConnConfig
		name    string // optional name for the connection
		topic   msgFactory
		payload msgFactory
	}

	pahoPublisher struct {
		cli mqtt.Client
	}
)

var (
	// connections holds named connections that can be shared by "use"
	connLock    sync.Mutex
	connections = map[string]*mqttConnConfig{}

	// dial opens a connection. It is replaced in tests
	dial = func(conn *mqttConnConfig) (publisher, error) {
		return conn.open()
	}
)

// Name returns "mqtt" and implements plugin.Notifier
func (m *mqttNotifier) Name() string {
	return "mqtt"
}

// Notify publishes a MQTT message if the event matches the configured
// conditions. It implements plugin.Notifier
func (m *mqttNotifier) Notify(ctx context.Context, event caddy.EventName, r *replication.Report) error {
	match, err := m.Match(ctx, event, r)
	if err != nil {
		return fmt.Errorf("matching failed for MQTT notifier %q: %w", m.name, err)
	}
	if !match {
		return nil
	}

	cli, qos, err := m.getClient()
	if err != nil {
		return fmt.Errorf("failed to get MQTT connection for %q: %w", m.name, err)
	}

	topic, err := m.topic(ctx, event, r)
	if err != nil {
		return fmt.Errorf("failed to get MQTT topic for %q: %w", m.name, err)
	}

	payload, err := m.payload(ctx, event, r)
	if err != nil {
		return fmt.Errorf("failed to get MQTT payload for %q: %w", m.name, err)
	}

	if err := cli.Publish(topic, byte(qos), payload); err != nil {
		return fmt.Errorf("failed to publish MQTT message for %q: %w", m.name, err)
	}

	log.Debugf("published MQTT message to topic %s", topic)
	return nil
}

func (m *mqttNotifier) getClient() (publisher, int, error) {
	conn := m.conn
	if conn == nil {
		connLock.Lock()
		conn = connections[m.name]
		connLock.Unlock()

		if conn == nil {
			return nil, 0, fmt.Errorf("MQTT configuration with name %q not found", m.name)
		}
	}

	conn.l.Lock()
	defer conn.l.Unlock()

	if conn.c == nil {
		c, err := dial(conn)
		if err != nil {
			return nil, 0, err
		}
		conn.c = c
	}

	return conn.c, conn.qos, nil
}

func (conn *mqttConnConfig) open() (publisher, error) {
	opts := mqtt.NewClientOptions()

	for _, b := range conn.broker {
		opts.AddBroker(b)
	}

	if conn.user != "" {
		opts.SetUsername(conn.user)
	}

	if conn.password != "" {
		opts.SetPassword(conn.password)
	}

	if conn.cleanSession {
		opts.SetCleanSession(true)
	}

	if conn.clientID != "" {
		opts.SetClientID(conn.clientID)
	}

	opts.SetAutoReconnect(true)

	cli := mqtt.NewClient(opts)

	var servers []string
	for _, s := range opts.Servers {
		servers = append(servers, s.String())
	}

	log.Debugf("connecting to MQTT brokers at %s", strings.Join(servers, ", "))
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Infof("connected to MQTT brokers at %s", strings.Join(servers, ", "))

	return &pahoPublisher{cli: cli}, nil
}

func (p *pahoPublisher) Publish(topic string, qos byte, payload string) error {
	token := p.cli.Publish(topic, qos, false, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func getStringFactory(s string) msgFactory {
	return func(ctx context.Context, event caddy.EventName, r *replication.Report) (string, error) {
		rep := replacer.NewReplacer(ctx, event, r)
		return rep.Replace(s), nil
	}
}

// jsonPayload is used when no payload template is configured
func jsonPayload(_ context.Context, event caddy.EventName, r *replication.Report) (string, error) {
	msg := struct {
		Event string `json:"event"`
		*replication.Report
		Error string `json:"error,omitempty"`
	}{
		Event:  string(event),
		Report: r,
	}
	if r.Err != nil {
		msg.Error = r.Err.Error()
	}

	blob, err := json.Marshal(msg)
	return string(blob), err
}
