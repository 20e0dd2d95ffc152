// Package gotify sends replication events as gotify notifications
package gotify

import (
	"net/url"
	"strconv"

	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/dhcpadmin/core/matcher"
	"github.com/nextdhcp/dhcpadmin/plugin"
)

const defaultMessage = "replication of {subnet} from {source} to {destination} {status}: {applied}/{ops} operations {error}"

func init() {
	plugin.Register("gotify", setupGotify)
}

func setupGotify(c *caddyfile.Dispenser) (plugin.Notifier, error) {
	return makeNotification(c)
}

// notify gotify [condition] {
//	server http://gotify.example.com app-token
//	title "replication {status}"
//	message "{subnet}: {applied}/{ops}"
//	priority 8
// }
func makeNotification(c *caddyfile.Dispenser) (*notification, error) {
	cond, err := matcher.SetupMatcherLine(c)
	if err != nil {
		return nil, err
	}

	n := &notification{Matcher: cond}

	for c.NextBlock() {
		switch c.Val() {
		case "server":
			args := c.RemainingArgs()
			if len(args) != 2 {
				return nil, c.ArgErr()
			}
			if _, err := url.Parse(args[0]); err != nil {
				return nil, c.Errf("gotify: invalid server URL %q: %s", args[0], err)
			}
			n.srv = args[0]
			n.token = args[1]

		case "message":
			if !c.NextArg() {
				return nil, c.ArgErr()
			}
			n.msg = getStringFactory(c.Val())

		case "title":
			if !c.NextArg() {
				return nil, c.ArgErr()
			}
			n.title = getStringFactory(c.Val())

		case "priority":
			if !c.NextArg() {
				return nil, c.ArgErr()
			}
			p, err := strconv.Atoi(c.Val())
			if err != nil || p < 0 || p > 10 {
				return nil, c.Err("gotify: expected a priority between 0 and 10")
			}
			n.priority = p

		case "if", "if_op":
			// handled by the matcher
			c.RemainingArgs()

		default:
			return nil, c.Errf("gotify: unknown item: %s", c.Val())
		}
	}

	if n.srv == "" {
		return nil, c.Err("gotify: no server configured")
	}

	if n.msg == nil {
		n.msg = getStringFactory(defaultMessage)
	}

	return n, nil
}
