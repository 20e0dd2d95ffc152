package gotify

import (
	"context"
	"net/http"
	"net/url"

	"github.com/caddyserver/caddy"
	"github.com/gotify/go-api-client/v2/auth"
	"github.com/gotify/go-api-client/v2/client/message"
	"github.com/gotify/go-api-client/v2/gotify"
	"github.com/gotify/go-api-client/v2/models"
	"github.com/nextdhcp/dhcpadmin/core/matcher"
	"github.com/nextdhcp/dhcpadmin/core/replacer"
	"github.com/nextdhcp/dhcpadmin/core/replication"
)

const (
	defaultTitle    = "dhcpadmin"
	defaultPriority = 5
)

type (
	// msgFactory creates the gotify notification message from a
	// replication event
	msgFactory func(ctx context.Context, event caddy.EventName, r *replication.Report) (string, error)

	// notification combines the matcher (condition) and a message
	// factory for a gotify notification. It implements plugin.Notifier
	notification struct {
		*matcher.Matcher
		msg      msgFactory
		title    msgFactory
		priority int
		srv      string
		token    string
	}
)

// notify sends msg to the gotify server at srv. It is replaced in tests
var notify = func(srv *url.URL, token string, msg *message.CreateMessageParams) error {
	cli := gotify.NewClient(srv, &http.Client{})
	_, err := cli.Message.CreateMessage(msg, auth.TokenAuth(token))
	return err
}

// Name returns "gotify" and implements plugin.Notifier
func (n *notification) Name() string {
	return "gotify"
}

// Prepare checks if we should send a notification for the given event and
// returns the title and message body. An empty message body indicates that
// no notification should be sent
func (n *notification) Prepare(ctx context.Context, event caddy.EventName, r *replication.Report) (string, string, error) {
	if n.msg == nil {
		return "", "", nil
	}

	matched, err := n.Match(ctx, event, r)
	if err != nil {
		return "", "", err
	}

	if !matched {
		return "", "", nil
	}

	msg, err := n.msg(ctx, event, r)
	if err != nil {
		return "", "", err
	}

	var title string
	if n.title != nil {
		title, _ = n.title(ctx, event, r)
	}

	if title == "" {
		title = defaultTitle
	}

	return title, msg, nil
}

// Send delivers a notification to the gotify server
func (n *notification) Send(title, msg string) error {
	gotifyURL, err := url.Parse(n.srv)
	if err != nil {
		return err
	}

	priority := n.priority
	if priority == 0 {
		priority = defaultPriority
	}

	params := message.NewCreateMessageParams()
	params.Body = &models.MessageExternal{
		Title:   title,
		Message: msg,
	}
	setPriority(&params.Body.Priority, priority)

	return notify(gotifyURL, n.token, params)
}

func setPriority[T ~int | ~int32 | ~int64](dst *T, p int) {
	*dst = T(p)
}

// Notify implements plugin.Notifier
func (n *notification) Notify(ctx context.Context, event caddy.EventName, r *replication.Report) error {
	title, body, err := n.Prepare(ctx, event, r)
	if err != nil {
		return err
	}

	if body == "" {
		return nil
	}

	return n.Send(title, body)
}

func getStringFactory(s string) msgFactory {
	return func(ctx context.Context, event caddy.EventName, r *replication.Report) (string, error) {
		return replacer.NewReplacer(ctx, event, r).Replace(s), nil
	}
}
