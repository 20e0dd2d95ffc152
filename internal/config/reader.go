package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/plugin"
)

// Load reads the Adminfile at path. A path of "-" or "stdin" reads
// from standard input.
func Load(path string) (*Config, error) {
	if path == "-" || path == "stdin" {
		return Read("stdin", os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(path, f)
}

// Read parses an Adminfile from r. filename is used in error messages.
func Read(filename string, r io.Reader) (*Config, error) {
	d := caddyfile.NewDispenser(filename, r)
	cfg := &Config{Filename: filename}

	var seen = map[string]bool{}

	for d.Next() {
		directive := d.Val()

		switch directive {
		case "log", "snapshots", "metrics":
			if seen[directive] {
				return nil, d.Errf("%s: can only be specified once", directive)
			}
			seen[directive] = true
		}

		var err error
		switch directive {
		case "log":
			err = parseLog(&d, cfg)
		case "snapshots":
			err = parseSnapshots(&d, cfg)
		case "metrics":
			err = parseMetrics(&d, cfg)
		case "server":
			err = parseServer(&d, cfg)
		case "replicate":
			err = parseReplicate(&d, cfg)
		case "notify":
			err = parseNotify(&d, cfg)
		default:
			err = d.Errf("unknown directive %q", directive)
		}

		if err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Debugf("config: loaded %d servers, %d replications and %d notifiers from %s",
		len(cfg.Servers), len(cfg.Replications), len(cfg.Notifiers), filename)

	return cfg, nil
}

// log <level> [format]
func parseLog(d *caddyfile.Dispenser, cfg *Config) error {
	args := d.RemainingArgs()
	switch len(args) {
	case 1:
		cfg.Log.Level = args[0]
	case 2:
		cfg.Log.Level = args[0]
		cfg.Log.Format = args[1]
	default:
		return d.ArgErr()
	}

	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return d.Errf("log: %s", err)
	}

	switch cfg.Log.Format {
	case "", "cli", "text", "json":
	default:
		return d.Errf("log: unknown format %q", cfg.Log.Format)
	}

	return nil
}

// snapshots <path>
func parseSnapshots(d *caddyfile.Dispenser, cfg *Config) error {
	args := d.RemainingArgs()
	if len(args) != 1 {
		return d.ArgErr()
	}
	cfg.Snapshots = args[0]
	return nil
}

// metrics <addr> [path]
// Or:
// metrics {
//	address localhost:9180
//	path /metrics
// }
func parseMetrics(d *caddyfile.Dispenser, cfg *Config) error {
	m := &MetricsConfig{}

	args := d.RemainingArgs()
	switch len(args) {
	case 0:
	case 1:
		m.Addr = args[0]
	case 2:
		m.Addr = args[0]
		m.Path = args[1]
	default:
		return d.ArgErr()
	}

	for d.NextBlock() {
		switch d.Val() {
		case "address":
			args = d.RemainingArgs()
			if len(args) != 1 {
				return d.ArgErr()
			}
			m.Addr = args[0]
		case "path":
			args = d.RemainingArgs()
			if len(args) != 1 {
				return d.ArgErr()
			}
			m.Path = args[0]
		default:
			return d.Errf("metrics: unknown item: %s", d.Val())
		}
	}

	if m.Path != "" && !strings.HasPrefix(m.Path, "/") {
		return d.Errf("metrics: path must start with /: %q", m.Path)
	}

	cfg.Metrics = m
	return nil
}

// server <name> {
//	driver <name> [key=value...]
//	address <ip>
// }
func parseServer(d *caddyfile.Dispenser, cfg *Config) error {
	line := d.Line()

	args := d.RemainingArgs()
	if len(args) != 1 {
		return d.ArgErr()
	}
	name := args[0]

	if _, ok := cfg.Server(name); ok {
		return d.Errf("server: %q already defined", name)
	}

	srv := &ServerConfig{
		Name: name,
		Args: map[string][]string{},
		line: line,
	}

	for d.NextBlock() {
		switch d.Val() {
		case "driver":
			args := d.RemainingArgs()
			if len(args) == 0 {
				return d.ArgErr()
			}
			srv.Driver = args[0]
			for _, a := range args[1:] {
				key, value, ok := strings.Cut(a, "=")
				if !ok {
					key, value = "", a
				}
				srv.Args[key] = append(srv.Args[key], value)
			}

		case "address":
			args := d.RemainingArgs()
			if len(args) != 1 {
				return d.ArgErr()
			}
			ip, err := address.ParseIP(args[0])
			if err != nil {
				return d.Errf("server: %s", err)
			}
			srv.Address = ip

		default:
			return d.Errf("server: unknown item: %s", d.Val())
		}
	}

	if srv.Driver == "" {
		return d.Errf("server: %q has no driver", name)
	}
	if srv.Address == 0 {
		return d.Errf("server: %q has no address", name)
	}

	cfg.Servers = append(cfg.Servers, srv)
	return nil
}

// replicate <subnet> {
//	from <server>
//	to <server>
// }
func parseReplicate(d *caddyfile.Dispenser, cfg *Config) error {
	line := d.Line()

	args := d.RemainingArgs()
	if len(args) != 1 {
		return d.ArgErr()
	}

	subnet, err := address.ParseIP(args[0])
	if err != nil {
		return d.Errf("replicate: %s", err)
	}

	r := &ReplicationConfig{
		Subnet: subnet,
		line:   line,
	}

	for d.NextBlock() {
		switch d.Val() {
		case "from":
			if !d.NextArg() {
				return d.ArgErr()
			}
			r.From = d.Val()
		case "to":
			if !d.NextArg() {
				return d.ArgErr()
			}
			r.To = d.Val()
		default:
			return d.Errf("replicate: unknown item: %s", d.Val())
		}
	}

	if r.From == "" || r.To == "" {
		return d.Errf("replicate: %s needs a source and a destination", subnet)
	}
	if r.From == r.To {
		return d.Errf("replicate: %s cannot be replicated from %q to itself", subnet, r.From)
	}

	cfg.Replications = append(cfg.Replications, r)
	return nil
}

// notify <kind> [condition] { ... }
func parseNotify(d *caddyfile.Dispenser, cfg *Config) error {
	if !d.NextArg() {
		return d.ArgErr()
	}

	kind := d.Val()
	setup, ok := plugin.Lookup(kind)
	if !ok {
		return d.Errf("notify: unknown notifier %q (available: %s)", kind, strings.Join(plugin.Names(), ", "))
	}

	n, err := setup(d)
	if err != nil {
		return err
	}

	cfg.Notifiers = append(cfg.Notifiers, n)
	return nil
}

// validate checks references between directives
func (c *Config) validate() error {
	for _, r := range c.Replications {
		for _, name := range []string{r.From, r.To} {
			if _, ok := c.Server(name); !ok {
				return c.errf(r.line, "replicate: unknown server %q", name)
			}
		}
	}
	return nil
}

// errf formats an error like caddyfile.Dispenser.Errf for line
func (c *Config) errf(line int, format string, args ...interface{}) error {
	return fmt.Errorf("%s:%d - Error during parsing: %s", c.Filename, line, fmt.Sprintf(format, args...))
}
