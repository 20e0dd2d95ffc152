package admin

import (
	"context"

	"github.com/nextdhcp/dhcpadmin/core/option"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// OptionSet gives access to the option values configured at a single
// option scope: server wide, for a subnet or for a reservation
type OptionSet struct {
	server *Server
	scope  protocol.OptionScope
}

// GlobalOptions returns the server wide option values
func (s *Server) GlobalOptions() *OptionSet {
	return &OptionSet{server: s, scope: protocol.GlobalOptions()}
}

// Options returns the option values of the scope
func (sc *Scope) Options() *OptionSet {
	return &OptionSet{server: sc.server, scope: protocol.SubnetOptions(sc.record.SubnetAddress)}
}

// Scope returns the option scope addressed by the set
func (o *OptionSet) Scope() protocol.OptionScope {
	return o.scope
}

// Cursor returns a cursor over all option values of the set
func (o *OptionSet) Cursor() *paging.Cursor[option.Value] {
	step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]option.Value, protocol.Status, error) {
		return o.server.proto.EnumOptionValues(ctx, o.scope, resume, max)
	}
	return paging.New("EnumOptionValues", paging.MaxAll, step)
}

// List returns all option values of the set
func (o *OptionSet) List(ctx context.Context) ([]option.Value, error) {
	return paging.Collect(ctx, o.Cursor())
}

// Values returns all option values of the set indexed by option id
func (o *OptionSet) Values(ctx context.Context) (option.Values, error) {
	list, err := o.List(ctx)
	if err != nil {
		return nil, err
	}
	return option.Index(list), nil
}

// Get returns the value of option id or nil if the option is not set
func (o *OptionSet) Get(ctx context.Context, id uint32) (*option.Value, error) {
	v, status, err := o.server.proto.GetOptionValue(ctx, id, o.scope)
	if err == nil && (status == protocol.OptionNotPresent || status == protocol.FileNotFound) {
		return nil, nil
	}
	if err := protocol.Check("GetOptionValue", status, err); err != nil {
		return nil, err
	}
	return v, nil
}

// Set adds or replaces an option value
func (o *OptionSet) Set(ctx context.Context, v option.Value) error {
	status, err := o.server.proto.SetOptionValue(ctx, o.scope, v)
	return protocol.Check("SetOptionValue", status, err)
}

// Remove removes the value of option id
func (o *OptionSet) Remove(ctx context.Context, id uint32) error {
	status, err := o.server.proto.RemoveOptionValue(ctx, id, o.scope)
	return protocol.Check("RemoveOptionValue", status, err)
}
