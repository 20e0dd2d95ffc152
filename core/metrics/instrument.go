package metrics

import (
	"context"
	"time"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// transportError is the status label of calls that failed before the
// server reported a status
const transportError = "TRANSPORT_ERROR"

// instrumented wraps a protocol.Protocol and records every call
type instrumented struct {
	next   protocol.Protocol
	server string
	m      *Metrics
}

// Instrument returns a protocol.Protocol that records the call count,
// status and duration of every call made through proto. server is used
// as the server label.
func (m *Metrics) Instrument(proto protocol.Protocol, server string) protocol.Protocol {
	return &instrumented{
		next:   proto,
		server: server,
		m:      m,
	}
}

func (p *instrumented) observe(op string, start time.Time, status protocol.Status, err error) {
	label := status.String()
	if err != nil {
		label = transportError
	}

	p.m.calls.WithLabelValues(p.server, op, label).Inc()
	p.m.callDuration.WithLabelValues(p.server, op).Observe(time.Since(start).Seconds())
}

func (p *instrumented) GetVersion(ctx context.Context) (uint32, uint32, protocol.Status, error) {
	start := time.Now()
	major, minor, status, err := p.next.GetVersion(ctx)
	p.observe("GetVersion", start, status, err)
	return major, minor, status, err
}

func (p *instrumented) GetSubnetInfo(ctx context.Context, subnet address.IP) (*protocol.SubnetInfo, protocol.Status, error) {
	start := time.Now()
	info, status, err := p.next.GetSubnetInfo(ctx, subnet)
	p.observe("GetSubnetInfo", start, status, err)
	return info, status, err
}

func (p *instrumented) GetSubnetInfoVQ(ctx context.Context, subnet address.IP) (*protocol.SubnetInfoVQ, protocol.Status, error) {
	start := time.Now()
	info, status, err := p.next.GetSubnetInfoVQ(ctx, subnet)
	p.observe("GetSubnetInfoVQ", start, status, err)
	return info, status, err
}

func (p *instrumented) SetSubnetInfo(ctx context.Context, subnet address.IP, info protocol.SubnetInfo) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.SetSubnetInfo(ctx, subnet, info)
	p.observe("SetSubnetInfo", start, status, err)
	return status, err
}

func (p *instrumented) SetSubnetInfoVQ(ctx context.Context, subnet address.IP, info protocol.SubnetInfoVQ) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.SetSubnetInfoVQ(ctx, subnet, info)
	p.observe("SetSubnetInfoVQ", start, status, err)
	return status, err
}

func (p *instrumented) CreateSubnet(ctx context.Context, subnet address.IP, info protocol.SubnetInfo) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.CreateSubnet(ctx, subnet, info)
	p.observe("CreateSubnet", start, status, err)
	return status, err
}

func (p *instrumented) DeleteSubnet(ctx context.Context, subnet address.IP, force protocol.ForceFlag) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.DeleteSubnet(ctx, subnet, force)
	p.observe("DeleteSubnet", start, status, err)
	return status, err
}

func (p *instrumented) EnumSubnets(ctx context.Context, resume *protocol.ResumeHandle, preferredMaximum uint32) ([]address.IP, protocol.Status, error) {
	start := time.Now()
	subnets, status, err := p.next.EnumSubnets(ctx, resume, preferredMaximum)
	p.observe("EnumSubnets", start, status, err)
	return subnets, status, err
}

func (p *instrumented) EnumSubnetElements(ctx context.Context, subnet address.IP, elementType protocol.ElementType, resume *protocol.ResumeHandle, preferredMaximum uint32) ([]protocol.SubnetElement, protocol.Status, error) {
	start := time.Now()
	elements, status, err := p.next.EnumSubnetElements(ctx, subnet, elementType, resume, preferredMaximum)
	p.observe("EnumSubnetElements", start, status, err)
	return elements, status, err
}

func (p *instrumented) EnumSubnetElementsV5(ctx context.Context, subnet address.IP, elementType protocol.ElementType, resume *protocol.ResumeHandle, preferredMaximum uint32) ([]protocol.SubnetElementV5, protocol.Status, error) {
	start := time.Now()
	elements, status, err := p.next.EnumSubnetElementsV5(ctx, subnet, elementType, resume, preferredMaximum)
	p.observe("EnumSubnetElementsV5", start, status, err)
	return elements, status, err
}

func (p *instrumented) AddSubnetElement(ctx context.Context, subnet address.IP, element protocol.SubnetElement) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.AddSubnetElement(ctx, subnet, element)
	p.observe("AddSubnetElement", start, status, err)
	return status, err
}

func (p *instrumented) AddSubnetElementV5(ctx context.Context, subnet address.IP, element protocol.SubnetElementV5) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.AddSubnetElementV5(ctx, subnet, element)
	p.observe("AddSubnetElementV5", start, status, err)
	return status, err
}

func (p *instrumented) RemoveSubnetElement(ctx context.Context, subnet address.IP, element protocol.SubnetElement, force protocol.ForceFlag) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.RemoveSubnetElement(ctx, subnet, element, force)
	p.observe("RemoveSubnetElement", start, status, err)
	return status, err
}

func (p *instrumented) GetSubnetDelayOffer(ctx context.Context, subnet address.IP) (uint16, protocol.Status, error) {
	start := time.Now()
	ms, status, err := p.next.GetSubnetDelayOffer(ctx, subnet)
	p.observe("GetSubnetDelayOffer", start, status, err)
	return ms, status, err
}

func (p *instrumented) SetSubnetDelayOffer(ctx context.Context, subnet address.IP, milliseconds uint16) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.SetSubnetDelayOffer(ctx, subnet, milliseconds)
	p.observe("SetSubnetDelayOffer", start, status, err)
	return status, err
}

func (p *instrumented) GetClientInfo(ctx context.Context, ip address.IP) (*protocol.ClientInfo, protocol.Status, error) {
	start := time.Now()
	info, status, err := p.next.GetClientInfo(ctx, ip)
	p.observe("GetClientInfo", start, status, err)
	return info, status, err
}

func (p *instrumented) GetClientInfoVQ(ctx context.Context, ip address.IP) (*protocol.ClientInfoVQ, protocol.Status, error) {
	start := time.Now()
	info, status, err := p.next.GetClientInfoVQ(ctx, ip)
	p.observe("GetClientInfoVQ", start, status, err)
	return info, status, err
}

func (p *instrumented) SetClientInfo(ctx context.Context, info protocol.ClientInfo) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.SetClientInfo(ctx, info)
	p.observe("SetClientInfo", start, status, err)
	return status, err
}

func (p *instrumented) CreateClientInfo(ctx context.Context, info protocol.ClientInfo) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.CreateClientInfo(ctx, info)
	p.observe("CreateClientInfo", start, status, err)
	return status, err
}

func (p *instrumented) CreateClientInfoVQ(ctx context.Context, info protocol.ClientInfoVQ) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.CreateClientInfoVQ(ctx, info)
	p.observe("CreateClientInfoVQ", start, status, err)
	return status, err
}

func (p *instrumented) DeleteClientInfo(ctx context.Context, ip address.IP) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.DeleteClientInfo(ctx, ip)
	p.observe("DeleteClientInfo", start, status, err)
	return status, err
}

func (p *instrumented) EnumSubnetClients(ctx context.Context, subnet address.IP, resume *protocol.ResumeHandle, preferredMaximum uint32) ([]protocol.ClientInfo, protocol.Status, error) {
	start := time.Now()
	clients, status, err := p.next.EnumSubnetClients(ctx, subnet, resume, preferredMaximum)
	p.observe("EnumSubnetClients", start, status, err)
	return clients, status, err
}

func (p *instrumented) EnumSubnetClientsVQ(ctx context.Context, subnet address.IP, resume *protocol.ResumeHandle, preferredMaximum uint32) ([]protocol.ClientInfoVQ, protocol.Status, error) {
	start := time.Now()
	clients, status, err := p.next.EnumSubnetClientsVQ(ctx, subnet, resume, preferredMaximum)
	p.observe("EnumSubnetClientsVQ", start, status, err)
	return clients, status, err
}

func (p *instrumented) GetOptionValue(ctx context.Context, optionID uint32, scope protocol.OptionScope) (*protocol.OptionValue, protocol.Status, error) {
	start := time.Now()
	value, status, err := p.next.GetOptionValue(ctx, optionID, scope)
	p.observe("GetOptionValue", start, status, err)
	return value, status, err
}

func (p *instrumented) SetOptionValue(ctx context.Context, scope protocol.OptionScope, value protocol.OptionValue) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.SetOptionValue(ctx, scope, value)
	p.observe("SetOptionValue", start, status, err)
	return status, err
}

func (p *instrumented) RemoveOptionValue(ctx context.Context, optionID uint32, scope protocol.OptionScope) (protocol.Status, error) {
	start := time.Now()
	status, err := p.next.RemoveOptionValue(ctx, optionID, scope)
	p.observe("RemoveOptionValue", start, status, err)
	return status, err
}

func (p *instrumented) EnumOptionValues(ctx context.Context, scope protocol.OptionScope, resume *protocol.ResumeHandle, preferredMaximum uint32) ([]protocol.OptionValue, protocol.Status, error) {
	start := time.Now()
	values, status, err := p.next.EnumOptionValues(ctx, scope, resume, preferredMaximum)
	p.observe("EnumOptionValues", start, status, err)
	return values, status, err
}

func (p *instrumented) GetMibInfoV5(ctx context.Context) (*protocol.MibInfoV5, protocol.Status, error) {
	start := time.Now()
	info, status, err := p.next.GetMibInfoV5(ctx)
	p.observe("GetMibInfoV5", start, status, err)
	return info, status, err
}

func (p *instrumented) GetMibInfoV6(ctx context.Context) (*protocol.MibInfoV6, protocol.Status, error) {
	start := time.Now()
	info, status, err := p.next.GetMibInfoV6(ctx)
	p.observe("GetMibInfoV6", start, status, err)
	return info, status, err
}

func (p *instrumented) EnumFailoverRelationships(ctx context.Context, resume *protocol.ResumeHandle, preferredMaximum uint32) ([]protocol.FailoverRelationship, protocol.Status, error) {
	start := time.Now()
	rels, status, err := p.next.EnumFailoverRelationships(ctx, resume, preferredMaximum)
	p.observe("EnumFailoverRelationships", start, status, err)
	return rels, status, err
}

func (p *instrumented) GetFailoverRelationship(ctx context.Context, name string) (*protocol.FailoverRelationship, protocol.Status, error) {
	start := time.Now()
	rel, status, err := p.next.GetFailoverRelationship(ctx, name)
	p.observe("GetFailoverRelationship", start, status, err)
	return rel, status, err
}

func (p *instrumented) GetSubnetFailoverRelationship(ctx context.Context, subnet address.IP) (*protocol.FailoverRelationship, protocol.Status, error) {
	start := time.Now()
	rel, status, err := p.next.GetSubnetFailoverRelationship(ctx, subnet)
	p.observe("GetSubnetFailoverRelationship", start, status, err)
	return rel, status, err
}

func (p *instrumented) Close() error {
	return p.next.Close()
}
