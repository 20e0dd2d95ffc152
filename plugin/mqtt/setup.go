// Package mqtt publishes replication events to MQTT brokers
package mqtt

import (
	"strconv"

	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/dhcpadmin/core/matcher"
	"github.com/nextdhcp/dhcpadmin/plugin"
)

func init() {
	plugin.Register("mqtt", setupMqtt)
}

// notify mqtt [condition] {
//	broker tcp://localhost:1883
//	topic dhcpadmin/{subnet}/{event}
//	payload "{source} -> {destination}"
//	if failed
// }
func setupMqtt(c *caddyfile.Dispenser) (plugin.Notifier, error) {
	n := &mqttNotifier{}
	useExisting := false

	cond, err := matcher.SetupMatcherLine(c)
	if err != nil {
		return nil, err
	}
	n.Matcher = cond

	for c.NextBlock() {
		switch c.Val() {
		case "broker", "user", "password", "client-id",
			"clean-session", "qos":
			if useExisting {
				return nil, c.Err("either configure a new connection or \"use\" an existing one")
			}

			if err := parseConnectionSettings(n, c); err != nil {
				return nil, err
			}

		case "name":
			if !c.NextArg() {
				return nil, c.ArgErr()
			}
			n.name = c.Val()

		case "use":
			if n.conn != nil {
				return nil, c.Err("either configure a new connection or \"use\" an existing one")
			}
			useExisting = true

			if !c.NextArg() {
				return nil, c.ArgErr()
			}
			n.name = c.Val()

		case "topic":
			if !c.NextArg() {
				return nil, c.ArgErr()
			}
			n.topic = getStringFactory(c.Val())

		case "payload", "body":
			if !c.NextArg() {
				return nil, c.ArgErr()
			}
			n.payload = getStringFactory(c.Val())

		case "if", "if_op":
			// handled by the matcher
			c.RemainingArgs()

		default:
			return nil, c.Errf("mqtt: unknown item: %s", c.Val())
		}
	}

	if !useExisting && n.conn == nil {
		return nil, c.Err("either configure a MQTT connection or \"use\" an existing one")
	}

	if n.conn != nil && len(n.conn.broker) == 0 {
		return nil, c.Err("mqtt: no broker configured")
	}

	if n.conn != nil && n.name != "" {
		connLock.Lock()
		connections[n.name] = n.conn
		connLock.Unlock()
	}

	if n.topic == nil {
		n.topic = getStringFactory(defaultTopic)
	}
	if n.payload == nil {
		n.payload = jsonPayload
	}

	return n, nil
}

func parseConnectionSettings(n *mqttNotifier, c *caddyfile.Dispenser) error {
	if n.conn == nil {
		n.conn = &mqttConnConfig{}
	}

	action := c.Val()
	if action == "clean-session" {
		n.conn.cleanSession = true
		return nil
	}

	if !c.NextArg() {
		return c.ArgErr()
	}

	switch action {
	case "broker":
		n.conn.broker = append([]string{c.Val()}, c.RemainingArgs()...)
	case "user":
		n.conn.user = c.Val()
	case "password":
		n.conn.password = c.Val()
	case "client-id":
		n.conn.clientID = c.Val()
	case "qos":
		i, err := strconv.Atoi(c.Val())
		if err != nil || i < 0 || i > 2 {
			return c.Err("expected a number between 0 and 2")
		}
		n.conn.qos = i
	}

	return nil
}
