package memory

import (
	"context"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

func copyClient(c protocol.ClientInfoVQ) protocol.ClientInfoVQ {
	c.HardwareAddress = append([]byte(nil), c.HardwareAddress...)
	return c
}

// GetClientInfo implements protocol.Protocol
func (s *Server) GetClientInfo(ctx context.Context, ip address.IP) (*protocol.ClientInfo, protocol.Status, error) {
	if !s.lock(ctx, "GetClientInfo") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	c, ok := s.clients[ip]
	if !ok {
		return nil, protocol.JetError, nil
	}

	info := copyClient(c).ClientInfo
	return &info, protocol.Success, nil
}

// GetClientInfoVQ implements protocol.Protocol
func (s *Server) GetClientInfoVQ(ctx context.Context, ip address.IP) (*protocol.ClientInfoVQ, protocol.Status, error) {
	if !s.lock(ctx, "GetClientInfoVQ") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2008R2 {
		return nil, protocol.NotSupported, nil
	}

	c, ok := s.clients[ip]
	if !ok {
		return nil, protocol.JetError, nil
	}

	info := copyClient(c)
	return &info, protocol.Success, nil
}

// SetClientInfo implements protocol.Protocol
func (s *Server) SetClientInfo(ctx context.Context, info protocol.ClientInfo) (protocol.Status, error) {
	if !s.lock(ctx, "SetClientInfo") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	c, ok := s.clients[info.Address]
	if !ok {
		return protocol.JetError, nil
	}

	c.ClientInfo = info
	s.clients[info.Address] = copyClient(c)
	return protocol.Success, nil
}

func (s *Server) createClient(info protocol.ClientInfoVQ) protocol.Status {
	sn := s.subnetFor(info.Address)
	if sn == nil {
		return protocol.SubnetNotPresent
	}
	if len(info.HardwareAddress) == 0 {
		return protocol.InvalidParameter
	}
	if _, ok := s.clients[info.Address]; ok {
		return protocol.ClientExists
	}
	if r, ok := sn.reservations[info.Address]; ok && string(r.HardwareAddress) != string(info.HardwareAddress) {
		return protocol.ReservedClient
	}

	if info.SubnetMask == 0 {
		info.SubnetMask = sn.info.SubnetMask
	}
	s.clients[info.Address] = copyClient(info)
	return protocol.Success
}

// CreateClientInfo implements protocol.Protocol
func (s *Server) CreateClientInfo(ctx context.Context, info protocol.ClientInfo) (protocol.Status, error) {
	if !s.lock(ctx, "CreateClientInfo") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	return s.createClient(protocol.ClientInfoVQ{
		ClientInfo: info,
		ClientType: protocol.ClientDHCP,
	}), nil
}

// CreateClientInfoVQ implements protocol.Protocol
func (s *Server) CreateClientInfoVQ(ctx context.Context, info protocol.ClientInfoVQ) (protocol.Status, error) {
	if !s.lock(ctx, "CreateClientInfoVQ") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2008R2 {
		return protocol.NotSupported, nil
	}
	return s.createClient(info), nil
}

// DeleteClientInfo implements protocol.Protocol
func (s *Server) DeleteClientInfo(ctx context.Context, ip address.IP) (protocol.Status, error) {
	if !s.lock(ctx, "DeleteClientInfo") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if _, ok := s.clients[ip]; !ok {
		return protocol.JetError, nil
	}
	delete(s.clients, ip)
	return protocol.Success, nil
}

// clientsOf returns the clients of subnet ordered by address. A subnet
// of 0 selects all clients.
func (s *Server) clientsOf(ip address.IP) ([]protocol.ClientInfoVQ, protocol.Status) {
	var sn *subnet
	if ip != 0 {
		var status protocol.Status
		if sn, status = s.subnet(ip); sn == nil {
			return nil, status
		}
	}

	var res []protocol.ClientInfoVQ
	for _, addr := range sortedIPs(s.clients) {
		if sn != nil && !sn.contains(addr) {
			continue
		}
		res = append(res, copyClient(s.clients[addr]))
	}
	return res, protocol.Success
}

// EnumSubnetClients implements protocol.Protocol
func (s *Server) EnumSubnetClients(ctx context.Context, ip address.IP, resume *protocol.ResumeHandle, _ uint32) ([]protocol.ClientInfo, protocol.Status, error) {
	if !s.lock(ctx, "EnumSubnetClients") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	all, status := s.clientsOf(ip)
	if status != protocol.Success {
		return nil, status, nil
	}

	list := make([]protocol.ClientInfo, len(all))
	for i, c := range all {
		list[i] = c.ClientInfo
	}

	items, status := page(list, resume, s.pageSize)
	return items, status, nil
}

// EnumSubnetClientsVQ implements protocol.Protocol
func (s *Server) EnumSubnetClientsVQ(ctx context.Context, ip address.IP, resume *protocol.ResumeHandle, _ uint32) ([]protocol.ClientInfoVQ, protocol.Status, error) {
	if !s.lock(ctx, "EnumSubnetClientsVQ") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2008R2 {
		return nil, protocol.NotSupported, nil
	}

	all, status := s.clientsOf(ip)
	if status != protocol.Success {
		return nil, status, nil
	}

	items, status := page(all, resume, s.pageSize)
	return items, status, nil
}
