package memory

import (
	"context"
	"sort"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

func (s *Server) subnet(ip address.IP) (*subnet, protocol.Status) {
	sn, ok := s.subnets[ip]
	if !ok {
		return nil, protocol.SubnetNotPresent
	}
	return sn, protocol.Success
}

// subnetFor returns the subnet that contains ip
func (s *Server) subnetFor(ip address.IP) *subnet {
	for _, sn := range s.subnets {
		if sn.contains(ip) {
			return sn
		}
	}
	return nil
}

// GetSubnetInfo implements protocol.Protocol
func (s *Server) GetSubnetInfo(ctx context.Context, ip address.IP) (*protocol.SubnetInfo, protocol.Status, error) {
	if !s.lock(ctx, "GetSubnetInfo") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	sn, status := s.subnet(ip)
	if sn == nil {
		return nil, status, nil
	}

	info := sn.info.SubnetInfo
	return &info, protocol.Success, nil
}

// GetSubnetInfoVQ implements protocol.Protocol
func (s *Server) GetSubnetInfoVQ(ctx context.Context, ip address.IP) (*protocol.SubnetInfoVQ, protocol.Status, error) {
	if !s.lock(ctx, "GetSubnetInfoVQ") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2008R2 {
		return nil, protocol.NotSupported, nil
	}

	sn, status := s.subnet(ip)
	if sn == nil {
		return nil, status, nil
	}

	info := sn.info
	return &info, protocol.Success, nil
}

// SetSubnetInfo implements protocol.Protocol
func (s *Server) SetSubnetInfo(ctx context.Context, ip address.IP, info protocol.SubnetInfo) (protocol.Status, error) {
	if !s.lock(ctx, "SetSubnetInfo") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	sn, status := s.subnet(ip)
	if sn == nil {
		return status, nil
	}
	if info.SubnetAddress != ip || info.SubnetMask != sn.info.SubnetMask {
		return protocol.InvalidParameter, nil
	}

	sn.info.SubnetInfo = info
	return protocol.Success, nil
}

// SetSubnetInfoVQ implements protocol.Protocol
func (s *Server) SetSubnetInfoVQ(ctx context.Context, ip address.IP, info protocol.SubnetInfoVQ) (protocol.Status, error) {
	if !s.lock(ctx, "SetSubnetInfoVQ") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2008R2 {
		return protocol.NotSupported, nil
	}

	sn, status := s.subnet(ip)
	if sn == nil {
		return status, nil
	}
	if info.SubnetAddress != ip || info.SubnetMask != sn.info.SubnetMask {
		return protocol.InvalidParameter, nil
	}

	sn.info = info
	return protocol.Success, nil
}

// CreateSubnet implements protocol.Protocol
func (s *Server) CreateSubnet(ctx context.Context, ip address.IP, info protocol.SubnetInfo) (protocol.Status, error) {
	if !s.lock(ctx, "CreateSubnet") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if !info.SubnetMask.Valid() || info.SubnetAddress != ip || info.SubnetMask.Network(ip) != ip {
		return protocol.InvalidParameter, nil
	}
	if _, ok := s.subnets[ip]; ok {
		return protocol.SubnetExists, nil
	}
	for _, sn := range s.subnets {
		if sn.contains(ip) || info.SubnetMask.Network(sn.info.SubnetAddress) == ip {
			return protocol.InvalidRange, nil
		}
	}

	s.subnets[ip] = &subnet{
		info:         protocol.SubnetInfoVQ{SubnetInfo: info},
		reservations: make(map[address.IP]protocol.IPReservationV4),
	}
	return protocol.Success, nil
}

// DeleteSubnet implements protocol.Protocol. All clients, reservations
// and option values of the subnet are removed as well.
func (s *Server) DeleteSubnet(ctx context.Context, ip address.IP, force protocol.ForceFlag) (protocol.Status, error) {
	if !s.lock(ctx, "DeleteSubnet") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	sn, status := s.subnet(ip)
	if sn == nil {
		return status, nil
	}

	var leases []address.IP
	for addr := range s.clients {
		if sn.contains(addr) {
			leases = append(leases, addr)
		}
	}
	if force == protocol.NoForce && len(leases) > 0 {
		return protocol.ElementCantRemove, nil
	}

	for _, addr := range leases {
		delete(s.clients, addr)
	}
	for scope := range s.options {
		if scope.Type != protocol.OptionScopeGlobal && scope.Subnet == ip {
			delete(s.options, scope)
		}
	}
	delete(s.subnets, ip)

	return protocol.Success, nil
}

// EnumSubnets implements protocol.Protocol
func (s *Server) EnumSubnets(ctx context.Context, resume *protocol.ResumeHandle, _ uint32) ([]address.IP, protocol.Status, error) {
	if !s.lock(ctx, "EnumSubnets") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	items, status := page(sortedIPs(s.subnets), resume, s.pageSize)
	return items, status, nil
}

// rangeElements returns the elements of type et as ranges
func (sn *subnet) rangeElements(et protocol.ElementType) []protocol.BootpIPRange {
	if et == protocol.ElementExcludedIPRanges {
		res := make([]protocol.BootpIPRange, len(sn.exclusions))
		for i, r := range sn.exclusions {
			res[i] = protocol.BootpIPRange{Start: r.Start, End: r.End}
		}
		return res
	}

	if sn.ipRange == nil {
		return nil
	}
	return []protocol.BootpIPRange{*sn.ipRange}
}

func (sn *subnet) sortedReservations() []protocol.IPReservationV4 {
	res := make([]protocol.IPReservationV4, 0, len(sn.reservations))
	for _, ip := range sortedIPs(sn.reservations) {
		r := sn.reservations[ip]
		r.HardwareAddress = append([]byte(nil), r.HardwareAddress...)
		res = append(res, r)
	}
	return res
}

// EnumSubnetElements implements protocol.Protocol. The basic format
// reports the scope range as ElementIPRanges.
func (s *Server) EnumSubnetElements(ctx context.Context, ip address.IP, et protocol.ElementType, resume *protocol.ResumeHandle, _ uint32) ([]protocol.SubnetElement, protocol.Status, error) {
	if !s.lock(ctx, "EnumSubnetElements") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	sn, status := s.subnet(ip)
	if sn == nil {
		return nil, status, nil
	}

	var elems []protocol.SubnetElement
	switch {
	case et == protocol.ElementReservedIPs:
		for _, r := range sn.sortedReservations() {
			elems = append(elems, protocol.SubnetElement{
				Type:        et,
				Reservation: &protocol.IPReservation{Address: r.Address, HardwareAddress: r.HardwareAddress},
			})
		}
	case et.IsRange():
		t := et
		if et != protocol.ElementExcludedIPRanges {
			t = protocol.ElementIPRanges
		}
		for _, r := range sn.rangeElements(et) {
			elems = append(elems, protocol.SubnetElement{
				Type:  t,
				Range: &protocol.IPRange{Start: r.Start, End: r.End},
			})
		}
	}

	items, status := page(elems, resume, s.pageSize)
	return items, status, nil
}

// EnumSubnetElementsV5 implements protocol.Protocol. Every range type but
// ElementExcludedIPRanges reports the scope range with its own type.
func (s *Server) EnumSubnetElementsV5(ctx context.Context, ip address.IP, et protocol.ElementType, resume *protocol.ResumeHandle, _ uint32) ([]protocol.SubnetElementV5, protocol.Status, error) {
	if !s.lock(ctx, "EnumSubnetElementsV5") {
		return nil, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2008 {
		return nil, protocol.NotSupported, nil
	}

	sn, status := s.subnet(ip)
	if sn == nil {
		return nil, status, nil
	}

	var elems []protocol.SubnetElementV5
	switch {
	case et == protocol.ElementReservedIPs:
		for _, r := range sn.sortedReservations() {
			r := r
			elems = append(elems, protocol.SubnetElementV5{Type: et, Reservation: &r})
		}
	case et.IsRange():
		t := et
		if et != protocol.ElementExcludedIPRanges {
			t = sn.rangeType
		}
		for _, r := range sn.rangeElements(et) {
			r := r
			elems = append(elems, protocol.SubnetElementV5{Type: t, Range: &r})
		}
	}

	items, status := page(elems, resume, s.pageSize)
	return items, status, nil
}

// addRange stores r as the scope range or as an exclusion
func (sn *subnet) addRange(et protocol.ElementType, r protocol.BootpIPRange) protocol.Status {
	if r.Start > r.End || !sn.contains(r.Start) || !sn.contains(r.End) {
		return protocol.InvalidRange
	}

	if et != protocol.ElementExcludedIPRanges {
		sn.ipRange = &r
		sn.rangeType = et
		return protocol.Success
	}

	if sn.ipRange == nil || r.Start < sn.ipRange.Start || r.End > sn.ipRange.End {
		return protocol.InvalidRange
	}
	for _, x := range sn.exclusions {
		if x.Start == r.Start && x.End == r.End {
			return protocol.IPRangeExists
		}
	}

	sn.exclusions = append(sn.exclusions, protocol.IPRange{Start: r.Start, End: r.End})
	sort.Slice(sn.exclusions, func(i, j int) bool { return sn.exclusions[i].Start < sn.exclusions[j].Start })
	return protocol.Success
}

func (s *Server) addReservation(sn *subnet, r protocol.IPReservationV4) protocol.Status {
	if len(r.HardwareAddress) == 0 {
		return protocol.InvalidParameter
	}
	if !sn.contains(r.Address) || sn.ipRange == nil || r.Address < sn.ipRange.Start || r.Address > sn.ipRange.End {
		return protocol.InvalidRange
	}
	if _, ok := sn.reservations[r.Address]; ok {
		return protocol.ReservedIPExists
	}
	if c, ok := s.clients[r.Address]; ok && string(c.HardwareAddress) != string(r.HardwareAddress) {
		return protocol.ClientExists
	}

	r.HardwareAddress = append([]byte(nil), r.HardwareAddress...)
	sn.reservations[r.Address] = r
	return protocol.Success
}

// AddSubnetElement implements protocol.Protocol
func (s *Server) AddSubnetElement(ctx context.Context, ip address.IP, elem protocol.SubnetElement) (protocol.Status, error) {
	if !s.lock(ctx, "AddSubnetElement") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	sn, status := s.subnet(ip)
	if sn == nil {
		return status, nil
	}

	switch {
	case elem.Type == protocol.ElementReservedIPs && elem.Reservation != nil:
		return s.addReservation(sn, protocol.IPReservationV4{
			Address:            elem.Reservation.Address,
			HardwareAddress:    elem.Reservation.HardwareAddress,
			AllowedClientTypes: uint8(protocol.ClientBoth),
		}), nil
	case elem.Type.IsRange() && elem.Range != nil:
		et := elem.Type
		if et != protocol.ElementExcludedIPRanges {
			et = protocol.ElementIPRangesDhcpOnly
		}
		return sn.addRange(et, protocol.BootpIPRange{Start: elem.Range.Start, End: elem.Range.End}), nil
	}

	return protocol.InvalidParameter, nil
}

// AddSubnetElementV5 implements protocol.Protocol
func (s *Server) AddSubnetElementV5(ctx context.Context, ip address.IP, elem protocol.SubnetElementV5) (protocol.Status, error) {
	if !s.lock(ctx, "AddSubnetElementV5") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	if s.version() < v2003 {
		return protocol.NotSupported, nil
	}

	sn, status := s.subnet(ip)
	if sn == nil {
		return status, nil
	}

	switch {
	case elem.Type == protocol.ElementReservedIPs && elem.Reservation != nil:
		return s.addReservation(sn, *elem.Reservation), nil
	case elem.Type.IsRange() && elem.Range != nil:
		et := elem.Type
		if et == protocol.ElementIPRanges {
			et = protocol.ElementIPRangesDhcpOnly
		}
		return sn.addRange(et, *elem.Range), nil
	}

	return protocol.InvalidParameter, nil
}

// RemoveSubnetElement implements protocol.Protocol
func (s *Server) RemoveSubnetElement(ctx context.Context, ip address.IP, elem protocol.SubnetElement, force protocol.ForceFlag) (protocol.Status, error) {
	if !s.lock(ctx, "RemoveSubnetElement") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	sn, status := s.subnet(ip)
	if sn == nil {
		return status, nil
	}

	switch {
	case elem.Type == protocol.ElementReservedIPs && elem.Reservation != nil:
		addr := elem.Reservation.Address
		if _, ok := sn.reservations[addr]; !ok {
			return protocol.NotReservedClient, nil
		}
		if _, leased := s.clients[addr]; leased {
			if force == protocol.NoForce {
				return protocol.ElementCantRemove, nil
			}
			delete(s.clients, addr)
		}
		delete(sn.reservations, addr)
		delete(s.options, protocol.ReservationOptions(ip, addr))
		return protocol.Success, nil

	case elem.Type == protocol.ElementExcludedIPRanges && elem.Range != nil:
		for i, x := range sn.exclusions {
			if x == *elem.Range {
				sn.exclusions = append(sn.exclusions[:i], sn.exclusions[i+1:]...)
				return protocol.Success, nil
			}
		}
		return protocol.ElementCantRemove, nil

	case elem.Type.IsRange() && elem.Range != nil:
		if sn.ipRange == nil || sn.ipRange.Start != elem.Range.Start || sn.ipRange.End != elem.Range.End {
			return protocol.ElementCantRemove, nil
		}
		sn.ipRange = nil
		return protocol.Success, nil
	}

	return protocol.InvalidParameter, nil
}

// GetSubnetDelayOffer implements protocol.Protocol
func (s *Server) GetSubnetDelayOffer(ctx context.Context, ip address.IP) (uint16, protocol.Status, error) {
	if !s.lock(ctx, "GetSubnetDelayOffer") {
		return 0, protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	sn, status := s.subnet(ip)
	if sn == nil {
		return 0, status, nil
	}
	return sn.delayOffer, protocol.Success, nil
}

// SetSubnetDelayOffer implements protocol.Protocol
func (s *Server) SetSubnetDelayOffer(ctx context.Context, ip address.IP, ms uint16) (protocol.Status, error) {
	if !s.lock(ctx, "SetSubnetDelayOffer") {
		return protocol.Success, ctx.Err()
	}
	defer s.l.Unlock()

	sn, status := s.subnet(ip)
	if sn == nil {
		return status, nil
	}
	if ms > 1000 {
		return protocol.InvalidDelay, nil
	}

	sn.delayOffer = ms
	return protocol.Success, nil
}
