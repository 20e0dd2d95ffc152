package memory

import (
	"context"
	"time"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// SetMibInfo lets fn update the message counters reported by
// GetMibInfoV5. Scope counters are always computed from the leases.
func (s *Server) SetMibInfo(fn func(*protocol.MibInfoV5)) {
	s.l.Lock()
	defer s.l.Unlock()
	fn(&s.mib)
}

// SetMibInfoV6 lets fn update the statistics reported by GetMibInfoV6
func (s *Server) SetMibInfoV6(fn func(*protocol.MibInfoV6)) {
	s.l.Lock()
	defer s.l.Unlock()
	fn(&s.mibV6)
}

func (s *Server) scopeMibInfo() []protocol.ScopeMibInfo {
	var res []protocol.ScopeMibInfo
	for _, ip := range sortedIPs(s.subnets) {
		sn := s.subnets[ip]
		info := protocol.ScopeMibInfo{Subnet: ip}

		if sn.ipRange != nil {
			r := address.Range{Start: sn.ipRange.Start, End: sn.ipRange.End}

			excluded := make([]address.Range, 0, len(sn.exclusions))
			for _, x := range sn.exclusions {
				excluded = append(excluded, address.Range{Type: address.Excluded, Start: x.Start, End: x.End})
			}

			// exclusions may overlap
			free := address.Ranges{r}
			for _, x := range address.Merge(excluded) {
				free = address.DeleteFrom(x, free)
			}

			var size, leased uint32
			for _, f := range free {
				size += uint32(f.Len())
			}
			for addr := range s.clients {
				if r.Contains(addr) {
					info.InUse++
				}
				if free.Contains(addr) {
					leased++
				}
			}

			if size > leased {
				info.Free = size - leased
			}
		}

		res = append(res, info)
	}
	return res
}

// GetMibInfoV5 implements protocol.Protocol
func (s *Server) GetMibInfoV5(ctx context.Context) (*protocol.MibInfoV5, protocol.Status, error) {
	if !s.lock(ctx, "GetMibInfoV5") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2008 {
		return nil, protocol.NotSupported, nil
	}

	info := s.mib
	if info.ServerStartTime == 0 {
		info.ServerStartTime = protocol.DateTimeFrom(startTime)
	}
	info.ScopeInfo = s.scopeMibInfo()
	info.Scopes = uint32(len(info.ScopeInfo))

	return &info, protocol.Success, nil
}

// GetMibInfoV6 implements protocol.Protocol
func (s *Server) GetMibInfoV6(ctx context.Context) (*protocol.MibInfoV6, protocol.Status, error) {
	if !s.lock(ctx, "GetMibInfoV6") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2008 {
		return nil, protocol.NotSupported, nil
	}

	info := s.mibV6
	if info.ServerStartTime == 0 {
		info.ServerStartTime = protocol.DateTimeFrom(startTime)
	}
	info.ScopeInfo = append([]protocol.ScopeMibInfo(nil), info.ScopeInfo...)
	info.Scopes = uint32(len(info.ScopeInfo))

	return &info, protocol.Success, nil
}

var startTime = time.Now().UTC().Truncate(time.Second)
