package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

func copyRelationship(r protocol.FailoverRelationship) protocol.FailoverRelationship {
	r.Scopes = append([]address.IP(nil), r.Scopes...)
	return r
}

// AddFailoverRelationship configures a failover relationship. Every scope
// of rel must exist and may only be part of a single relationship.
func (s *Server) AddFailoverRelationship(rel protocol.FailoverRelationship) error {
	s.l.Lock()
	defer s.l.Unlock()

	if rel.Name == "" {
		return errors.New("relationship name must not be empty")
	}
	if _, ok := s.failover[rel.Name]; ok {
		return &protocol.Error{Op: "AddFailoverRelationship", Status: protocol.FailoverRelationshipExists}
	}

	for _, ip := range rel.Scopes {
		if _, ok := s.subnets[ip]; !ok {
			return &protocol.Error{Op: "AddFailoverRelationship", Status: protocol.SubnetNotPresent}
		}
		if _, ok := s.relationshipOf(ip); ok {
			return &protocol.Error{Op: "AddFailoverRelationship", Status: protocol.FailoverRelationshipExists}
		}
	}

	s.failover[rel.Name] = copyRelationship(rel)
	return nil
}

func (s *Server) relationshipOf(ip address.IP) (protocol.FailoverRelationship, bool) {
	for _, rel := range s.failover {
		for _, scope := range rel.Scopes {
			if scope == ip {
				return rel, true
			}
		}
	}
	return protocol.FailoverRelationship{}, false
}

// EnumFailoverRelationships implements protocol.Protocol
func (s *Server) EnumFailoverRelationships(ctx context.Context, resume *protocol.ResumeHandle, _ uint32) ([]protocol.FailoverRelationship, protocol.Status, error) {
	if !s.lock(ctx, "EnumFailoverRelationships") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2012 {
		return nil, protocol.NotSupported, nil
	}

	names := make([]string, 0, len(s.failover))
	for n := range s.failover {
		names = append(names, n)
	}
	sort.Strings(names)

	list := make([]protocol.FailoverRelationship, len(names))
	for i, n := range names {
		list[i] = copyRelationship(s.failover[n])
	}

	items, status := page(list, resume, s.pageSize)
	return items, status, nil
}

// GetFailoverRelationship implements protocol.Protocol
func (s *Server) GetFailoverRelationship(ctx context.Context, name string) (*protocol.FailoverRelationship, protocol.Status, error) {
	if !s.lock(ctx, "GetFailoverRelationship") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2012 {
		return nil, protocol.NotSupported, nil
	}

	rel, ok := s.failover[name]
	if !ok {
		return nil, protocol.FailoverRelationshipDoesNotExist, nil
	}

	rel = copyRelationship(rel)
	return &rel, protocol.Success, nil
}

// GetSubnetFailoverRelationship implements protocol.Protocol
func (s *Server) GetSubnetFailoverRelationship(ctx context.Context, ip address.IP) (*protocol.FailoverRelationship, protocol.Status, error) {
	if !s.lock(ctx, "GetSubnetFailoverRelationship") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2012 {
		return nil, protocol.NotSupported, nil
	}
	if _, status := s.subnet(ip); status != protocol.Success {
		return nil, status, nil
	}

	rel, ok := s.relationshipOf(ip)
	if !ok {
		return nil, protocol.FailoverScopeNotInRelationship, nil
	}

	rel = copyRelationship(rel)
	return &rel, protocol.Success, nil
}
