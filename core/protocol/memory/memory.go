// Package memory implements an in-memory DHCP server that speaks the
// management protocol. It is registered as the "memory" driver and used
// for tests and lab setups.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/option"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/ppacher/webthings-mqtt-gateway/pkg/mutex"
)

// Default version reported by new servers
const (
	DefaultMajor = 6
	DefaultMinor = 3
)

// minimum versions of the extended formats
const (
	v2003   = 5<<16 | 2
	v2008   = 6 << 16
	v2008R2 = 6<<16 | 1
	v2012   = 6<<16 | 2
)

type subnet struct {
	info         protocol.SubnetInfoVQ
	ipRange      *protocol.BootpIPRange
	rangeType    protocol.ElementType
	exclusions   []protocol.IPRange
	reservations map[address.IP]protocol.IPReservationV4
	delayOffer   uint16
}

func (s *subnet) contains(ip address.IP) bool {
	return s.info.SubnetMask.Network(ip) == s.info.SubnetAddress
}

// Server is an in-memory DHCP server
type Server struct {
	l *mutex.Mutex // context.Context aware mutex to protect all fields below

	major, minor uint32
	pageSize     int

	subnets  map[address.IP]*subnet
	clients  map[address.IP]protocol.ClientInfoVQ
	options  map[protocol.OptionScope]option.Values
	failover map[string]protocol.FailoverRelationship
	mib      protocol.MibInfoV5
	mibV6    protocol.MibInfoV6
	calls    map[string]int
}

// Option configures a Server
type Option func(*Server)

// WithVersion sets the version reported by the server
func WithVersion(major, minor uint32) Option {
	return func(s *Server) {
		s.major, s.minor = major, minor
	}
}

// WithPageSize limits the number of items returned by a single
// enumeration call. Zero returns everything at once.
func WithPageSize(n int) Option {
	return func(s *Server) {
		s.pageSize = n
	}
}

// New returns a new, empty server
func New(opts ...Option) *Server {
	s := &Server{
		l:        mutex.New(),
		major:    DefaultMajor,
		minor:    DefaultMinor,
		subnets:  make(map[address.IP]*subnet),
		clients:  make(map[address.IP]protocol.ClientInfoVQ),
		options:  make(map[protocol.OptionScope]option.Values),
		failover: make(map[string]protocol.FailoverRelationship),
		calls:    make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var (
	instancesLock sync.Mutex
	instances     = map[string]*Server{}
)

// factory returns the server registered for address so every connection
// to the same address shares its state. Supported arguments are
// "version" (major.minor) and "page-size".
func factory(addr string, args map[string][]string) (protocol.Protocol, error) {
	var opts []Option

	if v, ok := args["version"]; ok && len(v) > 0 {
		parts := strings.SplitN(v[0], ".", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid version %q", v[0])
		}
		major, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", v[0], err)
		}
		minor, err := strconv.ParseUint(parts[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", v[0], err)
		}
		opts = append(opts, WithVersion(uint32(major), uint32(minor)))
	}

	if v, ok := args["page-size"]; ok && len(v) > 0 {
		n, err := strconv.Atoi(v[0])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid page size %q", v[0])
		}
		opts = append(opts, WithPageSize(n))
	}

	instancesLock.Lock()
	defer instancesLock.Unlock()

	if s, ok := instances[addr]; ok {
		return s, nil
	}

	s := New(opts...)
	instances[addr] = s
	return s, nil
}

func init() {
	protocol.MustRegister("memory", factory)
}

func (s *Server) version() uint32 {
	return s.major<<16 | s.minor
}

// lock acquires the server lock and counts the call. It returns false if
// ctx is done before the lock could be acquired.
func (s *Server) lock(ctx context.Context, op string) bool {
	if !s.l.TryLock(ctx) {
		return false
	}
	s.calls[op]++
	return true
}

// Calls returns how often op has been called
func (s *Server) Calls(op string) int {
	s.l.Lock()
	defer s.l.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of protocol calls served
func (s *Server) TotalCalls() int {
	s.l.Lock()
	defer s.l.Unlock()

	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// page returns the next page of items starting at resume
func page[T any](items []T, resume *protocol.ResumeHandle, size int) ([]T, protocol.Status) {
	start := int(*resume)
	if start >= len(items) {
		return nil, protocol.NoMoreItems
	}

	end := len(items)
	if size > 0 && start+size < end {
		end = start + size
	}
	*resume = protocol.ResumeHandle(end)

	res := append([]T(nil), items[start:end]...)
	if end < len(items) {
		return res, protocol.MoreData
	}
	return res, protocol.Success
}

func sortedIPs[T any](m map[address.IP]T) []address.IP {
	ips := make([]address.IP, 0, len(m))
	for ip := range m {
		ips = append(ips, ip)
	}
	sort.Slice(ips, func(i, j int) bool { return ips[i] < ips[j] })
	return ips
}

// GetVersion implements protocol.Protocol
func (s *Server) GetVersion(ctx context.Context) (uint32, uint32, protocol.Status, error) {
	if !s.lock(ctx, "GetVersion") {
		return 0, 0, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	return s.major, s.minor, protocol.Success, nil
}

// Close implements protocol.Protocol
func (s *Server) Close() error {
	return nil
}

// Directory is a static list of servers implementing protocol.Directory
type Directory []protocol.ServerEntry

// EnumServers implements protocol.Directory
func (d Directory) EnumServers(ctx context.Context) ([]protocol.ServerEntry, protocol.Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, protocol.Success, err
	}
	return append([]protocol.ServerEntry(nil), d...), protocol.Success, nil
}

var (
	_ protocol.Protocol  = &Server{}
	_ protocol.Directory = Directory{}
)
