package admin

import (
	"context"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/nextdhcp/dhcpadmin/core/replication"
)

// FailoverRelationship is a failover relationship the server takes
// part in
type FailoverRelationship struct {
	protocol.FailoverRelationship
	server *Server
}

// Partner returns the address of the other server of the relationship
func (f *FailoverRelationship) Partner() address.IP {
	if f.ServerType == protocol.PrimaryServer {
		return f.SecondaryServer
	}
	return f.PrimaryServer
}

// PartnerName returns the name of the other server of the relationship
func (f *FailoverRelationship) PartnerName() string {
	if f.ServerType == protocol.PrimaryServer {
		return f.SecondaryServerName
	}
	return f.PrimaryServerName
}

// Dialer connects to other DHCP servers
type Dialer interface {
	Dial(ctx context.Context, addr address.IP, name string) (*Server, error)
}

// DialerFunc is a function implementing Dialer
type DialerFunc func(ctx context.Context, addr address.IP, name string) (*Server, error)

// Dial calls fn
func (fn DialerFunc) Dial(ctx context.Context, addr address.IP, name string) (*Server, error) {
	return fn(ctx, addr, name)
}

// FailoverRelationships returns all failover relationships of the server
func (s *Server) FailoverRelationships(ctx context.Context) ([]*FailoverRelationship, error) {
	if err := s.require("failover", minFailover); err != nil {
		return nil, err
	}

	step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]protocol.FailoverRelationship, protocol.Status, error) {
		return s.proto.EnumFailoverRelationships(ctx, resume, max)
	}
	return paging.Map(ctx, paging.New("EnumFailoverRelationships", paging.MaxAll, step), func(r protocol.FailoverRelationship) (*FailoverRelationship, error) {
		return &FailoverRelationship{FailoverRelationship: r, server: s}, nil
	})
}

// FailoverRelationship returns the relationship name or nil if it does
// not exist
func (s *Server) FailoverRelationship(ctx context.Context, name string) (*FailoverRelationship, error) {
	if err := s.require("failover", minFailover); err != nil {
		return nil, err
	}

	rel, status, err := s.proto.GetFailoverRelationship(ctx, name)
	if err == nil && status == protocol.FailoverRelationshipDoesNotExist {
		return nil, nil
	}
	if err := protocol.Check("GetFailoverRelationship", status, err); err != nil {
		return nil, err
	}
	return &FailoverRelationship{FailoverRelationship: *rel, server: s}, nil
}

// FailoverRelationship returns the relationship the scope is part of or
// nil if it is not replicated by failover
func (sc *Scope) FailoverRelationship(ctx context.Context) (*FailoverRelationship, error) {
	if err := sc.server.require("failover", minFailover); err != nil {
		return nil, err
	}

	rel, status, err := sc.server.proto.GetSubnetFailoverRelationship(ctx, sc.record.SubnetAddress)
	if err == nil && (status == protocol.FailoverRelationshipDoesNotExist || status == protocol.FailoverScopeNotInRelationship) {
		return nil, nil
	}
	if err := protocol.Check("GetSubnetFailoverRelationship", status, err); err != nil {
		return nil, err
	}
	return &FailoverRelationship{FailoverRelationship: *rel, server: sc.server}, nil
}

// ReplicateFailoverPartner replicates the scope onto the scope of the
// same subnet on the failover partner
func (sc *Scope) ReplicateFailoverPartner(ctx context.Context, dialer Dialer) (*replication.Report, error) {
	rel, err := sc.FailoverRelationship(ctx)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, invalid("failover", "scope "+sc.record.SubnetAddress.String()+" is not part of a failover relationship")
	}

	partner, err := dialer.Dial(ctx, rel.Partner(), rel.PartnerName())
	if err != nil {
		return nil, err
	}

	dst, err := partner.Scope(ctx, sc.record.SubnetAddress)
	if err != nil {
		return nil, err
	}

	return sc.ReplicateTo(ctx, dst)
}

// ReplicateFailoverPartner replicates every scope that is part of a
// failover relationship onto the failover partner. It stops at the
// first failed replication.
func (s *Server) ReplicateFailoverPartner(ctx context.Context, dialer Dialer) ([]*replication.Report, error) {
	rels, err := s.FailoverRelationships(ctx)
	if err != nil {
		return nil, err
	}

	var reports []*replication.Report
	for _, rel := range rels {
		if len(rel.Scopes) == 0 {
			continue
		}

		partner, err := dialer.Dial(ctx, rel.Partner(), rel.PartnerName())
		if err != nil {
			return reports, err
		}

		for _, subnet := range rel.Scopes {
			src, err := s.Scope(ctx, subnet)
			if err != nil {
				return reports, err
			}
			dst, err := partner.Scope(ctx, subnet)
			if err != nil {
				return reports, err
			}

			report, err := src.ReplicateTo(ctx, dst)
			if report != nil {
				reports = append(reports, report)
			}
			if err != nil {
				return reports, err
			}
		}
	}

	return reports, nil
}
