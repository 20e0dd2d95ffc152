package admin

import (
	"context"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/option"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// Defaults used by CreateScope
const (
	DefaultLeaseDuration  = 8 * 24 * time.Hour
	DefaultTimeDelayOffer = time.Duration(0)

	// MaxTimeDelayOffer is the longest delay a server may wait before
	// answering a DISCOVER
	MaxTimeDelayOffer = time.Second
)

// Scope is a DHCP scope (subnet) configured on a server
type Scope struct {
	server *Server
	record ScopeRecord
	vq     vqFields
	l      log.Interface
}

// vqFields are the members of the extended subnet format that are not
// part of ScopeRecord. They are sent back unchanged.
type vqFields struct {
	reserved1 uint32
	reserved2 uint32
	reserved3 uint64
	reserved4 uint64
}

// ScopeSpec describes a scope to create
type ScopeSpec struct {
	Name    string
	Comment string

	// IPRange is the range of addresses to hand out. Its type must be one
	// of the scope range types.
	IPRange address.Range

	// Mask of the subnet. The zero mask selects the smallest subnet that
	// contains IPRange.
	Mask address.Mask

	// TimeDelayOffer delays OFFERs of the scope by up to one second
	TimeDelayOffer time.Duration

	// LeaseDuration of the scope. nil means leases never expire.
	LeaseDuration *time.Duration
}

// NewScopeSpec returns a spec for a DHCP-only scope with the default
// lease duration
func NewScopeSpec(name string, start, end address.IP) ScopeSpec {
	lease := DefaultLeaseDuration
	return ScopeSpec{
		Name:           name,
		IPRange:        address.Range{Type: address.ScopeDhcpOnly, Start: start, End: end},
		TimeDelayOffer: DefaultTimeDelayOffer,
		LeaseDuration:  &lease,
	}
}

func validateLeaseDuration(d *time.Duration) error {
	if d != nil && *d < time.Minute {
		return invalid("lease duration", "lease duration can be unlimited or at least 1 minute")
	}
	return nil
}

func validateTimeDelayOffer(d time.Duration) error {
	if d < 0 {
		return invalid("time delay offer", "must be positive")
	}
	if d > MaxTimeDelayOffer {
		return invalid("time delay offer", "must be less than or equal to 1000ms")
	}
	return nil
}

// CreateScope creates a new, disabled scope on server
func CreateScope(ctx context.Context, server *Server, spec ScopeSpec) (*Scope, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, invalid("name", "must not be empty")
	}
	if err := validateLeaseDuration(spec.LeaseDuration); err != nil {
		return nil, err
	}
	if err := validateTimeDelayOffer(spec.TimeDelayOffer); err != nil {
		return nil, err
	}
	if !spec.IPRange.Type.IsScope() {
		return nil, invalid("range type", "the range must be of a scope type")
	}
	if err := spec.IPRange.Validate(); err != nil {
		return nil, invalid("range", err.Error())
	}

	mask := spec.Mask
	if mask == 0 {
		mask = spec.IPRange.SmallestMask()
	}
	if !mask.Valid() {
		return nil, invalid("mask", mask.String()+" is not contiguous")
	}

	// the excluded range spans the subnet including network and broadcast
	maskRange := mask.RangeFor(spec.IPRange.Start)
	subnet := maskRange.Start

	switch {
	case maskRange.Start == spec.IPRange.Start:
		return nil, outOfRange("range", spec.IPRange, "the subnet address cannot be part of the range")
	case maskRange.End == spec.IPRange.End:
		return nil, outOfRange("range", spec.IPRange, "the broadcast address cannot be part of the range")
	case maskRange.End < spec.IPRange.End:
		return nil, outOfRange("range", spec.IPRange, "the range is not valid for mask "+mask.String())
	}

	status, err := server.proto.CreateSubnet(ctx, subnet, protocol.SubnetInfo{
		SubnetAddress: subnet,
		SubnetMask:    mask,
		Name:          spec.Name,
		Comment:       spec.Comment,
		PrimaryHost:   protocol.HostInfo{Address: server.address},
		State:         protocol.SubnetDisabled,
	})
	if err := protocol.Check("CreateSubnet", status, err); err != nil {
		return nil, err
	}

	if err := server.addRange(ctx, subnet, spec.IPRange); err != nil {
		return nil, err
	}

	if spec.TimeDelayOffer != 0 {
		if err := setTimeDelayOffer(ctx, server, subnet, spec.TimeDelayOffer); err != nil {
			return nil, err
		}
	}

	if err := setLeaseDuration(ctx, server, subnet, spec.LeaseDuration); err != nil {
		return nil, err
	}

	server.l.Infof("created scope %s/%d (%s)", subnet, mask.SignificantBits(), spec.Name)

	return server.Scope(ctx, subnet)
}

// Scope returns the scope with the given subnet address
func (s *Server) Scope(ctx context.Context, subnet address.IP) (*Scope, error) {
	scope := &Scope{
		server: s,
		l:      s.l.WithField("scope", subnet.String()),
	}

	if s.IsCompatible(minSubnetInfoVQ) {
		info, status, err := s.proto.GetSubnetInfoVQ(ctx, subnet)
		if err := protocol.Check("GetSubnetInfoVQ", status, err); err != nil {
			return nil, err
		}
		scope.record = scopeFromWire(info.SubnetInfo)
		scope.record.QuarantineOn = info.QuarantineOn != 0
		scope.vq = vqFields{info.Reserved1, info.Reserved2, info.Reserved3, info.Reserved4}
	} else {
		info, status, err := s.proto.GetSubnetInfo(ctx, subnet)
		if err := protocol.Check("GetSubnetInfo", status, err); err != nil {
			return nil, err
		}
		scope.record = scopeFromWire(*info)
	}

	cur := s.rangeElements(subnet, protocol.ElementIPRangesDhcpBootp)
	if cur.Next(ctx) {
		scope.record.IPRange = cur.Item()
	} else if err := cur.Err(); err != nil {
		return nil, err
	} else {
		scope.l.Warnf("scope has no address range")
	}

	return scope, nil
}

func scopeFromWire(info protocol.SubnetInfo) ScopeRecord {
	return ScopeRecord{
		SubnetAddress: info.SubnetAddress,
		Mask:          info.SubnetMask,
		Name:          info.Name,
		Comment:       info.Comment,
		PrimaryHost:   info.PrimaryHost,
		State:         scopeStateFromWire(info.State),
	}
}

// Server returns the server the scope belongs to
func (sc *Scope) Server() *Server { return sc.server }

// Record returns the current snapshot of the scope
func (sc *Scope) Record() ScopeRecord { return sc.record }

// Address returns the subnet address of the scope
func (sc *Scope) Address() address.IP { return sc.record.SubnetAddress }

// Mask returns the subnet mask of the scope
func (sc *Scope) Mask() address.Mask { return sc.record.Mask }

// Name returns the name of the scope
func (sc *Scope) Name() string { return sc.record.Name }

// Comment returns the comment of the scope
func (sc *Scope) Comment() string { return sc.record.Comment }

// State returns the administrative state of the scope
func (sc *Scope) State() ScopeState { return sc.record.State }

// IPRange returns the address range of the scope
func (sc *Scope) IPRange() address.Range { return sc.record.IPRange }

// QuarantineOn reports whether network access protection is enabled
func (sc *Scope) QuarantineOn() bool { return sc.record.QuarantineOn }

func (sc *Scope) String() string {
	return sc.record.String()
}

// setInfo writes the subnet information of rec and replaces the snapshot
// on success
func (sc *Scope) setInfo(ctx context.Context, rec ScopeRecord) error {
	state := protocol.SubnetDisabled
	if rec.State == ScopeEnabled {
		state = protocol.SubnetEnabled
	}

	info := protocol.SubnetInfo{
		SubnetAddress: rec.SubnetAddress,
		SubnetMask:    rec.Mask,
		Name:          rec.Name,
		Comment:       rec.Comment,
		PrimaryHost:   rec.PrimaryHost,
		State:         state,
	}

	var (
		status protocol.Status
		err    error
		op     string
	)
	if sc.server.IsCompatible(minSubnetInfoVQ) {
		vq := protocol.SubnetInfoVQ{
			SubnetInfo: info,
			Reserved1:  sc.vq.reserved1,
			Reserved2:  sc.vq.reserved2,
			Reserved3:  sc.vq.reserved3,
			Reserved4:  sc.vq.reserved4,
		}
		if rec.QuarantineOn {
			vq.QuarantineOn = 1
		}
		op = "SetSubnetInfoVQ"
		status, err = sc.server.proto.SetSubnetInfoVQ(ctx, rec.SubnetAddress, vq)
	} else {
		op = "SetSubnetInfo"
		status, err = sc.server.proto.SetSubnetInfo(ctx, rec.SubnetAddress, info)
	}

	if err := protocol.Check(op, status, err); err != nil {
		return err
	}

	sc.record = rec
	return nil
}

// SetName renames the scope
func (sc *Scope) SetName(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "must not be empty")
	}
	if name == sc.record.Name {
		return nil
	}

	rec := sc.record
	rec.Name = name
	return sc.setInfo(ctx, rec)
}

// SetComment updates the comment of the scope
func (sc *Scope) SetComment(ctx context.Context, comment string) error {
	if comment == sc.record.Comment {
		return nil
	}

	rec := sc.record
	rec.Comment = comment
	return sc.setInfo(ctx, rec)
}

// Activate enables the scope
func (sc *Scope) Activate(ctx context.Context) error {
	return sc.setState(ctx, ScopeEnabled)
}

// Deactivate disables the scope
func (sc *Scope) Deactivate(ctx context.Context) error {
	return sc.setState(ctx, ScopeDisabled)
}

func (sc *Scope) setState(ctx context.Context, state ScopeState) error {
	if sc.record.State == state {
		return nil
	}

	rec := sc.record
	rec.State = state
	if err := sc.setInfo(ctx, rec); err != nil {
		return err
	}

	sc.l.Infof("scope %s", state)
	return nil
}

// SetIPRange changes the address range of the scope. The range must lie
// within the assignable addresses of the subnet.
func (sc *Scope) SetIPRange(ctx context.Context, r address.Range) error {
	if r.Equal(sc.record.IPRange) {
		return nil
	}
	if err := r.Validate(); err != nil {
		return invalid("range", err.Error())
	}
	if !r.Type.IsScope() {
		return invalid("range type", "the range must be of a scope type")
	}

	subnetRange := sc.record.Mask.DhcpRangeFor(sc.record.SubnetAddress)
	if !subnetRange.ContainsRange(r) {
		return outOfRange("range", r, "the range is invalid for subnet "+subnetRange.String())
	}

	if err := sc.server.addRange(ctx, sc.record.SubnetAddress, r); err != nil {
		return err
	}

	sc.record.IPRange = r
	return nil
}

// TimeDelayOffer returns the delay applied to OFFERs of the scope
func (sc *Scope) TimeDelayOffer(ctx context.Context) (time.Duration, error) {
	ms, status, err := sc.server.proto.GetSubnetDelayOffer(ctx, sc.record.SubnetAddress)
	if err := protocol.Check("GetSubnetDelayOffer", status, err); err != nil {
		return 0, err
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// SetTimeDelayOffer sets the delay applied to OFFERs of the scope
func (sc *Scope) SetTimeDelayOffer(ctx context.Context, d time.Duration) error {
	return setTimeDelayOffer(ctx, sc.server, sc.record.SubnetAddress, d)
}

func setTimeDelayOffer(ctx context.Context, server *Server, subnet address.IP, d time.Duration) error {
	if err := validateTimeDelayOffer(d); err != nil {
		return err
	}

	status, err := server.proto.SetSubnetDelayOffer(ctx, subnet, uint16(d/time.Millisecond))
	return protocol.Check("SetSubnetDelayOffer", status, err)
}

// LeaseDuration returns the lease duration of the scope. A nil duration
// means leases never expire.
func (sc *Scope) LeaseDuration(ctx context.Context) (*time.Duration, error) {
	v, err := sc.Options().Get(ctx, option.LeaseTime)
	if err != nil {
		if protocol.IsStatus(err, protocol.FileNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if v == nil || len(v.Elements) == 0 {
		return nil, nil
	}

	seconds := v.Elements[0].Int32()
	if v.Elements[0].Type != option.DWordType || seconds < 0 {
		return nil, nil
	}

	d := time.Duration(seconds) * time.Second
	return &d, nil
}

// SetLeaseDuration sets the lease duration of the scope. nil makes
// leases unlimited.
func (sc *Scope) SetLeaseDuration(ctx context.Context, d *time.Duration) error {
	return setLeaseDuration(ctx, sc.server, sc.record.SubnetAddress, d)
}

func setLeaseDuration(ctx context.Context, server *Server, subnet address.IP, d *time.Duration) error {
	if err := validateLeaseDuration(d); err != nil {
		return err
	}

	seconds := int32(-1)
	if d != nil {
		seconds = int32(*d / time.Second)
	}

	status, err := server.proto.SetOptionValue(ctx, protocol.SubnetOptions(subnet), option.Value{
		OptionID: option.LeaseTime,
		Elements: option.Elements{option.SignedDWord(seconds)},
	})
	return protocol.Check("SetOptionValue", status, err)
}

// Delete removes the scope from the server. If retainClientDNSRecords is
// set the DNS records of its clients are kept.
func (sc *Scope) Delete(ctx context.Context, retainClientDNSRecords bool) error {
	force := protocol.ForceFull
	if retainClientDNSRecords {
		force = protocol.ForceFailover
	}

	status, err := sc.server.proto.DeleteSubnet(ctx, sc.record.SubnetAddress, force)
	if err := protocol.Check("DeleteSubnet", status, err); err != nil {
		return err
	}

	sc.l.Infof("scope deleted")
	return nil
}

// Clients returns a cursor over the clients of the scope
func (sc *Scope) Clients() (*paging.Cursor[*Client], error) {
	return sc.server.clients(sc.record.SubnetAddress)
}

// Refresh reloads the scope from the server
func (sc *Scope) Refresh(ctx context.Context) error {
	fresh, err := sc.server.Scope(ctx, sc.record.SubnetAddress)
	if err != nil {
		return err
	}
	*sc = *fresh
	return nil
}
