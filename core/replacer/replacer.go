// Package replacer expands {placeholder} variables in notification
// templates with the values of a replication report.
package replacer

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/dhcpadmin/core/replication"
)

type (
	// Replacer is capable of replacing variables in a template string
	Replacer interface {
		// Replace replaces all variables in string and returns the result
		Replace(string) string

		// Set adds a custom replacement value
		Set(key string, value Value)

		// Get returns the replacement value for key
		Get(key string) string
	}

	// Value is a getter for string represenations of custom report
	// fields
	Value interface {
		// Get returns the string represenation for the given report
		Get(r *replication.Report) string
	}

	// ValueGetter implements the Value interface and returns a string
	// based on the provided report
	ValueGetter func(r *replication.Report) string

	// StringValue is a utility method to use string constants for
	// the Value interface
	StringValue string

	// CtxKey is used to store a replace instance in a context value
	CtxKey struct{}

	replacer struct {
		event              caddy.EventName
		report             *replication.Report
		customReplacements map[string]Value // a list of custom replacements configured via Set
	}
)

// Get implements the Value interface and calls g itself
func (g ValueGetter) Get(r *replication.Report) string {
	return g(r)
}

// Get implements the Value interface and returns s itself
func (s StringValue) Get(_ *replication.Report) string {
	return string(s)
}

// WithReplacer returns a new context with a replacer instance
func WithReplacer(ctx context.Context, r Replacer) context.Context {
	return context.WithValue(ctx, CtxKey{}, r)
}

// GetReplacer returns the replacer associated with ctx
func GetReplacer(ctx context.Context) Replacer {
	v := ctx.Value(CtxKey{})
	if v == nil {
		return nil
	}

	r, ok := v.(Replacer)
	if !ok {
		panic("replacer.CtxKey used for a none replacer type")
	}
	return r
}

// NewReplacer returns a new replacer instance for the given replication
// event. A replacer already stored in ctx takes precedence.
func NewReplacer(ctx context.Context, event caddy.EventName, report *replication.Report) Replacer {
	if parent := GetReplacer(ctx); parent != nil {
		return parent
	}

	return &replacer{
		event:              event,
		report:             report,
		customReplacements: make(map[string]Value),
	}
}

func (r *replacer) Set(key string, val Value) {
	r.customReplacements[key] = val
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func (r *replacer) Get(key string) string {
	val, ok := r.customReplacements[key]
	if ok {
		return val.Get(r.report)
	}

	if key == "event" {
		return string(r.event)
	}

	if r.report == nil {
		return ""
	}

	// {>kind} counts the operations of the given kind
	if strings.HasPrefix(key, ">") {
		kind, ok := replication.ParseKind(strings.TrimPrefix(key, ">"))
		if !ok {
			return "<unknown>"
		}
		return strconv.Itoa(r.report.Count(kind))
	}

	switch key {
	case "id":
		return r.report.ID

	case "subnet":
		return r.report.Subnet.String()

	case "source":
		return r.report.Source

	case "destination":
		return r.report.Destination

	case "dryrun":
		return strconv.FormatBool(r.report.DryRun)

	case "ops":
		return strconv.Itoa(len(r.report.Ops))

	case "applied":
		return strconv.Itoa(r.report.Applied)

	case "started":
		return formatTime(r.report.Started)

	case "finished":
		return formatTime(r.report.Finished)

	case "duration":
		return r.report.Duration().String()

	case "status":
		if r.report.Failed() {
			return "failed"
		}
		return "finished"

	case "error":
		if r.report.Err == nil {
			return ""
		}
		return r.report.Err.Error()
	}

	return ""
}

// Replace expands every {key} in s. Braces escaped with a backslash are
// kept literally and an unpaired opening brace is copied as is.
func (r *replacer) Replace(s string) string {
	if !strings.ContainsAny(s, "{}") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s) && (s[i+1] == '{' || s[i+1] == '}'):
			b.WriteByte(s[i+1])
			i++

		case c == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end == -1 {
				b.WriteString(s[i:])
				return b.String()
			}
			b.WriteString(r.Get(s[i+1 : i+1+end]))
			i += end + 1

		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
