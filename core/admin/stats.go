package admin

import (
	"context"
	"time"

	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// ScopeUsage holds the utilization counters reported for the first scope
// of a MIB response. Servers may omit them.
type ScopeUsage struct {
	NumAddressesInUse *uint32 `json:"inUse,omitempty"`
	NumAddressesFree  *uint32 `json:"free,omitempty"`
	NumPendingOffers  *uint32 `json:"pendingOffers,omitempty"`
}

func scopeUsage(info []protocol.ScopeMibInfo) ScopeUsage {
	if len(info) == 0 {
		return ScopeUsage{}
	}
	first := info[0]
	return ScopeUsage{
		NumAddressesInUse: &first.InUse,
		NumAddressesFree:  &first.Free,
		NumPendingOffers:  &first.PendingOffers,
	}
}

// MibInfoV4 are the IPv4 statistics of a server
type MibInfoV4 struct {
	protocol.MibInfoV5
	ScopeUsage
	ServerStarted time.Time `json:"serverStarted"`
}

// MibInfoV6 are the IPv6 statistics of a server
type MibInfoV6 struct {
	protocol.MibInfoV6
	ScopeUsage
	ServerStarted time.Time `json:"serverStarted"`
}

// MibInfoV4 returns the IPv4 statistics of the server
func (s *Server) MibInfoV4(ctx context.Context) (*MibInfoV4, error) {
	if err := s.require("IPv4 statistics", minMibInfo); err != nil {
		return nil, err
	}

	info, status, err := s.proto.GetMibInfoV5(ctx)
	if err := protocol.Check("GetMibInfoV5", status, err); err != nil {
		return nil, err
	}

	return &MibInfoV4{
		MibInfoV5:     *info,
		ScopeUsage:    scopeUsage(info.ScopeInfo),
		ServerStarted: info.ServerStartTime.Time(),
	}, nil
}

// MibInfoV6 returns the IPv6 statistics of the server
func (s *Server) MibInfoV6(ctx context.Context) (*MibInfoV6, error) {
	if err := s.require("IPv6 statistics", minMibInfo); err != nil {
		return nil, err
	}

	info, status, err := s.proto.GetMibInfoV6(ctx)
	if err := protocol.Check("GetMibInfoV6", status, err); err != nil {
		return nil, err
	}

	return &MibInfoV6{
		MibInfoV6:     *info,
		ScopeUsage:    scopeUsage(info.ScopeInfo),
		ServerStarted: info.ServerStartTime.Time(),
	}, nil
}
