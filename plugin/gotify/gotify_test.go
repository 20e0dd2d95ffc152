package gotify

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/caddyserver/caddy"
	"github.com/gotify/go-api-client/v2/client/message"
	"github.com/gotify/go-api-client/v2/models"
	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/events"
	"github.com/nextdhcp/dhcpadmin/core/matcher"
	"github.com/nextdhcp/dhcpadmin/core/replication"
	"github.com/nextdhcp/dhcpadmin/plugin/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport() *replication.Report {
	return &replication.Report{
		ID:          "42",
		Subnet:      address.MustParseIP("10.0.0.0"),
		Source:      "dhcp1",
		Destination: "dhcp2",
		Ops:         []replication.Op{{Kind: replication.AddExclusion}, {Kind: replication.AddOption}},
		Applied:     2,
	}
}

func mockNotify(t *testing.T, err error) *[]*models.MessageExternal {
	var messages []*models.MessageExternal

	old := notify
	notify = func(srv *url.URL, token string, msg *message.CreateMessageParams) error {
		messages = append(messages, msg.Body)
		return err
	}
	t.Cleanup(func() { notify = old })

	return &messages
}

func TestNotificationPrepare(t *testing.T) {
	ctx := context.Background()
	report := testReport()
	emptyMatcher, err := matcher.SetupMatcherString("")
	require.NoError(t, err)

	var (
		msg      string
		title    string
		msgErr   error
		titleErr error
	)

	n := notification{
		Matcher: emptyMatcher,
		msg: func(context.Context, caddy.EventName, *replication.Report) (string, error) {
			return msg, msgErr
		},
		title: func(context.Context, caddy.EventName, *replication.Report) (string, error) {
			return title, titleErr
		},
		srv:   "http://gotify.com",
		token: "some-token",
	}

	// empty title should be replaced with the default
	nt, nm, err := n.Prepare(ctx, events.EventReplicationFinished, report)
	assert.NoError(t, err)
	assert.Equal(t, "dhcpadmin", nt)
	assert.Empty(t, nm)

	msg = "some message"
	title = "some title"
	nt, nm, err = n.Prepare(ctx, events.EventReplicationFinished, report)
	assert.NoError(t, err)
	assert.Equal(t, "some title", nt)
	assert.Equal(t, "some message", nm)

	// should return empty strings if not matched
	alwaysFalse, err := matcher.SetupMatcherString("1 == 0")
	require.NoError(t, err)
	n.Matcher = alwaysFalse
	nt, nm, err = n.Prepare(ctx, events.EventReplicationFinished, report)
	assert.NoError(t, err)
	assert.Empty(t, nm)
	assert.Empty(t, nt)

	errorMatcher, err := matcher.SetupMatcherString("'string'")
	require.NoError(t, err)
	n.Matcher = errorMatcher
	_, _, err = n.Prepare(ctx, events.EventReplicationFinished, report)
	assert.Error(t, err)

	n.Matcher = emptyMatcher
	msgErr = errors.New("simulated error")
	nt, nm, err = n.Prepare(ctx, events.EventReplicationFinished, report)
	assert.Equal(t, msgErr, err)
	assert.Empty(t, nt)
	assert.Empty(t, nm)
}

func TestNotificationSend(t *testing.T) {
	returnErr := errors.New("simulated error")

	var gotSrv, gotToken string
	old := notify
	notify = func(srv *url.URL, token string, msg *message.CreateMessageParams) error {
		gotSrv = srv.String()
		gotToken = token

		assert.Equal(t, "title", msg.Body.Title)
		assert.Equal(t, "message", msg.Body.Message)
		assert.EqualValues(t, 5, msg.Body.Priority)

		return returnErr
	}
	defer func() { notify = old }()

	n := notification{srv: "http://gotify.com", token: "some-token"}
	assert.Equal(t, returnErr, n.Send("title", "message"))
	assert.Equal(t, "http://gotify.com", gotSrv)
	assert.Equal(t, "some-token", gotToken)
}

func TestNotify(t *testing.T) {
	ctx := context.Background()
	messages := mockNotify(t, nil)

	n, err := makeNotification(test.Dispenser(t, `notify gotify {
		server http://gotify.com some-app-token
		title "replication {status}"
		priority 8
		if failed
	}`))
	require.NoError(t, err)

	report := testReport()
	require.NoError(t, n.Notify(ctx, events.EventReplicationFinished, report))
	assert.Empty(t, *messages)

	report.Err = errors.New("access denied")
	require.NoError(t, n.Notify(ctx, events.EventReplicationFailed, report))

	require.Len(t, *messages, 1)
	m := (*messages)[0]
	assert.Equal(t, "replication failed", m.Title)
	assert.Equal(t, "replication of 10.0.0.0 from dhcp1 to dhcp2 failed: 2/2 operations access denied", m.Message)
	assert.EqualValues(t, 8, m.Priority)
}

func TestNotify_sendError(t *testing.T) {
	mockNotify(t, errors.New("unauthorized"))

	n, err := makeNotification(test.Dispenser(t, "notify gotify {\nserver http://gotify.com token\n}"))
	require.NoError(t, err)
	assert.Error(t, n.Notify(context.Background(), events.EventReplicationFinished, testReport()))
}
