package memory

import (
	"context"
	"sort"

	"github.com/nextdhcp/dhcpadmin/core/option"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// optionScope normalizes scope and checks that its owner exists
func (s *Server) optionScope(scope protocol.OptionScope) (protocol.OptionScope, protocol.Status) {
	switch scope.Type {
	case protocol.OptionScopeGlobal:
		return protocol.GlobalOptions(), protocol.Success

	case protocol.OptionScopeSubnet:
		if _, status := s.subnet(scope.Subnet); status != protocol.Success {
			return scope, status
		}
		return protocol.SubnetOptions(scope.Subnet), protocol.Success

	case protocol.OptionScopeReserved:
		sn, status := s.subnet(scope.Subnet)
		if sn == nil {
			return scope, status
		}
		if _, ok := sn.reservations[scope.Reserved]; !ok {
			return scope, protocol.NotReservedClient
		}
		return protocol.ReservationOptions(scope.Subnet, scope.Reserved), protocol.Success
	}

	return scope, protocol.InvalidParameter
}

// GetOptionValue implements protocol.Protocol
func (s *Server) GetOptionValue(ctx context.Context, id uint32, scope protocol.OptionScope) (*protocol.OptionValue, protocol.Status, error) {
	if !s.lock(ctx, "GetOptionValue") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	scope, status := s.optionScope(scope)
	if status != protocol.Success {
		return nil, status, nil
	}

	v, ok := s.options[scope][id]
	if !ok {
		return nil, protocol.OptionNotPresent, nil
	}

	v = v.Clone()
	return &v, protocol.Success, nil
}

// SetOptionValue implements protocol.Protocol
func (s *Server) SetOptionValue(ctx context.Context, scope protocol.OptionScope, value protocol.OptionValue) (protocol.Status, error) {
	if !s.lock(ctx, "SetOptionValue") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	scope, status := s.optionScope(scope)
	if status != protocol.Success {
		return status, nil
	}
	if len(value.Elements) == 0 {
		return protocol.InvalidParameter, nil
	}

	values, ok := s.options[scope]
	if !ok {
		values = make(option.Values)
		s.options[scope] = values
	}
	values[value.OptionID] = value.Clone()

	return protocol.Success, nil
}

// RemoveOptionValue implements protocol.Protocol
func (s *Server) RemoveOptionValue(ctx context.Context, id uint32, scope protocol.OptionScope) (protocol.Status, error) {
	if !s.lock(ctx, "RemoveOptionValue") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	scope, status := s.optionScope(scope)
	if status != protocol.Success {
		return status, nil
	}

	if _, ok := s.options[scope][id]; !ok {
		return protocol.OptionNotPresent, nil
	}
	delete(s.options[scope], id)

	return protocol.Success, nil
}

// EnumOptionValues implements protocol.Protocol
func (s *Server) EnumOptionValues(ctx context.Context, scope protocol.OptionScope, resume *protocol.ResumeHandle, _ uint32) ([]protocol.OptionValue, protocol.Status, error) {
	if !s.lock(ctx, "EnumOptionValues") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	scope, status := s.optionScope(scope)
	if status != protocol.Success {
		return nil, status, nil
	}

	values := s.options[scope]
	ids := make([]uint32, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	list := make([]protocol.OptionValue, len(ids))
	for i, id := range ids {
		list[i] = values[id].Clone()
	}

	items, status := page(list, resume, s.pageSize)
	return items, status, nil
}
