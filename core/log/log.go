// Package log configures the apex/log logger used throughout dhcpadmin
// and provides field helpers for servers and scopes.
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/mattn/go-isatty"
	"github.com/nextdhcp/dhcpadmin/core/address"
)

// Supported output formats
const (
	FormatAuto = ""
	FormatCLI  = "cli"
	FormatText = "text"
	FormatJSON = "json"
)

// Config describes the logging setup
type Config struct {
	Level  string
	Format string
	// Output defaults to stderr
	Output io.Writer
}

// Setup installs the handler and level described by cfg. The auto format
// uses the cli handler when the output is a terminal and plain text
// otherwise.
func Setup(cfg Config) error {
	level := log.InfoLevel
	if cfg.Level != "" {
		l, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		level = l
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var handler log.Handler
	switch cfg.Format {
	case FormatAuto:
		if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			handler = cli.New(out)
		} else {
			handler = text.New(out)
		}
	case FormatCLI:
		handler = cli.New(out)
	case FormatText:
		handler = text.New(out)
	case FormatJSON:
		handler = json.New(out)
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	log.SetHandler(handler)
	log.SetLevel(level)
	return nil
}

// WithServer returns a log entry for server
func WithServer(server string) *log.Entry {
	return log.WithField("server", server)
}

// WithScope returns a log entry for the scope subnet on server
func WithScope(server string, subnet address.IP) *log.Entry {
	return log.WithFields(log.Fields{
		"server": server,
		"subnet": subnet.String(),
	})
}
