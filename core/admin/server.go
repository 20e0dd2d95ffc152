// Package admin implements the object model of a remote DHCP server on
// top of its management protocol. Scopes, clients and reservations are
// immutable snapshots that are replaced by their setters after every
// successful write.
package admin

import (
	"context"

	"github.com/apex/log"
	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// Server is a connection to the management interface of a DHCP server
type Server struct {
	proto   protocol.Protocol
	address address.IP
	name    string
	version Version
	l       log.Interface
}

// Connect reads the version of the server behind proto and returns a
// Server using it
func Connect(ctx context.Context, proto protocol.Protocol, addr address.IP, name string) (*Server, error) {
	major, minor, status, err := proto.GetVersion(ctx)
	if err := protocol.Check("GetVersion", status, err); err != nil {
		return nil, err
	}

	s := &Server{
		proto:   proto,
		address: addr,
		name:    name,
		version: NewVersion(major, minor),
	}
	s.l = log.WithFields(log.Fields{
		"server":  s.String(),
		"version": s.version.String(),
	})
	s.l.Debugf("connected")

	return s, nil
}

// Servers lists the DHCP servers registered in the directory
func Servers(ctx context.Context, dir protocol.Directory) ([]protocol.ServerEntry, error) {
	entries, status, err := dir.EnumServers(ctx)
	if err := protocol.Check("EnumServers", status, err); err != nil {
		return nil, err
	}
	return entries, nil
}

// Address returns the address of the server
func (s *Server) Address() address.IP { return s.address }

// Name returns the name of the server
func (s *Server) Name() string { return s.name }

// Version returns the version reported by the server
func (s *Server) Version() Version { return s.version }

// Protocol returns the underlying protocol connection
func (s *Server) Protocol() protocol.Protocol { return s.proto }

// Close closes the protocol connection
func (s *Server) Close() error {
	return s.proto.Close()
}

func (s *Server) String() string {
	if s.name != "" {
		return s.name + " (" + s.address.String() + ")"
	}
	return s.address.String()
}

// ScopeAddresses returns a cursor over the subnet addresses of all scopes
// configured on the server
func (s *Server) ScopeAddresses() *paging.Cursor[address.IP] {
	step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]address.IP, protocol.Status, error) {
		return s.proto.EnumSubnets(ctx, resume, max)
	}
	return paging.New("EnumSubnets", paging.MaxAll, step, paging.WithBenign(protocol.EndpointNotRegistered))
}

// Scopes returns all scopes of the server
func (s *Server) Scopes(ctx context.Context) ([]*Scope, error) {
	return paging.Map(ctx, s.ScopeAddresses(), func(subnet address.IP) (*Scope, error) {
		return s.Scope(ctx, subnet)
	})
}

// Clients returns a cursor over all clients of the server
func (s *Server) Clients() (*paging.Cursor[*Client], error) {
	return s.clients(0)
}

// Client returns the client leasing ip. It returns nil if the server
// does not know the address.
func (s *Server) Client(ctx context.Context, ip address.IP) (*Client, error) {
	rec, err := s.clientRecord(ctx, ip)
	if err != nil || rec == nil {
		return nil, err
	}
	return &Client{server: s, record: *rec}, nil
}

func (s *Server) clientRecord(ctx context.Context, ip address.IP) (*ClientRecord, error) {
	if err := s.require("client information", minClientInfo); err != nil {
		return nil, err
	}

	if s.IsCompatible(minClientInfoVQ) {
		info, status, err := s.proto.GetClientInfoVQ(ctx, ip)
		if err == nil && status == protocol.JetError {
			return nil, nil
		}
		if err := protocol.Check("GetClientInfoVQ", status, err); err != nil {
			return nil, err
		}
		rec := clientFromVQ(*info)
		return &rec, nil
	}

	info, status, err := s.proto.GetClientInfo(ctx, ip)
	if err == nil && status == protocol.JetError {
		return nil, nil
	}
	if err := protocol.Check("GetClientInfo", status, err); err != nil {
		return nil, err
	}
	rec := clientFromV0(*info)
	return &rec, nil
}

// clients returns a cursor over the clients of subnet or of all subnets
// if subnet is 0
func (s *Server) clients(subnet address.IP) (*paging.Cursor[*Client], error) {
	if err := s.require("client enumeration", minClientInfo); err != nil {
		return nil, err
	}

	if s.IsCompatible(minClientInfoVQ) {
		step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]*Client, protocol.Status, error) {
			infos, status, err := s.proto.EnumSubnetClientsVQ(ctx, subnet, resume, max)
			clients := make([]*Client, 0, len(infos))
			for _, info := range infos {
				clients = append(clients, &Client{server: s, record: clientFromVQ(info)})
			}
			return clients, status, err
		}
		return paging.New("EnumSubnetClientsVQ", paging.MaxClients, step), nil
	}

	step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]*Client, protocol.Status, error) {
		infos, status, err := s.proto.EnumSubnetClients(ctx, subnet, resume, max)
		clients := make([]*Client, 0, len(infos))
		for _, info := range infos {
			clients = append(clients, &Client{server: s, record: clientFromV0(info)})
		}
		return clients, status, err
	}
	return paging.New("EnumSubnetClients", paging.MaxClients, step), nil
}
