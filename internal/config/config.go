// Package config loads the Adminfile describing the DHCP servers managed
// by dhcpadmin, the replication pairs between them and the notifiers
// informed about replication runs.
package config

import (
	"os"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/nextdhcp/dhcpadmin/plugin"
)

const (
	// DefaultFile is loaded if neither --conf nor DHCPADMIN_CONF is set
	DefaultFile = "Adminfile"

	// EnvFile is the environment variable selecting the Adminfile
	EnvFile = "DHCPADMIN_CONF"
)

// LogConfig configures logging
type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures the prometheus handler
type MetricsConfig struct {
	Addr string
	Path string
}

// ServerConfig describes a managed DHCP server
type ServerConfig struct {
	// Name is used to reference the server in replicate blocks and
	// on the command line
	Name string

	// Driver is the name of the protocol driver used to connect
	Driver string

	// Args are additional driver arguments given as key=value pairs.
	// Arguments without a value are stored with an empty key.
	Args map[string][]string

	// Address is the IPv4 address of the server
	Address address.IP

	line int
}

// ReplicationConfig describes a configured replication pair
type ReplicationConfig struct {
	Subnet address.IP
	From   string
	To     string

	line int
}

// Config is a parsed Adminfile
type Config struct {
	// Filename is the file the configuration has been read from
	Filename string

	Log LogConfig

	// Snapshots is the path of the snapshot database. Empty disables
	// backup and restore.
	Snapshots string

	// Metrics is nil if metrics are disabled
	Metrics *MetricsConfig

	Servers      []*ServerConfig
	Replications []*ReplicationConfig
	Notifiers    []plugin.Notifier
}

// Server returns the server configured as name
func (c *Config) Server(name string) (*ServerConfig, bool) {
	for _, s := range c.Servers {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// ReplicationsFor returns all replication pairs configured for subnet
func (c *Config) ReplicationsFor(subnet address.IP) []*ReplicationConfig {
	var res []*ReplicationConfig
	for _, r := range c.Replications {
		if r.Subnet == subnet {
			res = append(res, r)
		}
	}
	return res
}

// Open opens a protocol connection to the server
func (s *ServerConfig) Open() (protocol.Protocol, error) {
	return protocol.Open(s.Driver, s.Address.String(), s.Args)
}

// Path returns the Adminfile to load. flag takes precedence over the
// DHCPADMIN_CONF environment variable which takes precedence over
// DefaultFile.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvFile); env != "" {
		return env
	}
	return DefaultFile
}
