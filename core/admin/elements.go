package admin

import (
	"context"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/hwaddr"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// rangeElements returns a cursor over the range elements of type et
func (s *Server) rangeElements(subnet address.IP, et protocol.ElementType) *paging.Cursor[address.Range] {
	if s.IsCompatible(minEnumElementsV5) {
		step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]address.Range, protocol.Status, error) {
			elems, status, err := s.proto.EnumSubnetElementsV5(ctx, subnet, et, resume, max)
			ranges := make([]address.Range, 0, len(elems))
			for _, e := range elems {
				if e.Range == nil {
					continue
				}
				ranges = append(ranges, address.Range{Type: protocol.RangeTypeFor(e.Type), Start: e.Range.Start, End: e.Range.End})
			}
			return ranges, status, err
		}
		return paging.New("EnumSubnetElementsV5", paging.MaxAll, step)
	}

	step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]address.Range, protocol.Status, error) {
		elems, status, err := s.proto.EnumSubnetElements(ctx, subnet, et, resume, max)
		ranges := make([]address.Range, 0, len(elems))
		for _, e := range elems {
			if e.Range == nil {
				continue
			}
			ranges = append(ranges, address.Range{Type: protocol.RangeTypeFor(e.Type), Start: e.Range.Start, End: e.Range.End})
		}
		return ranges, status, err
	}
	return paging.New("EnumSubnetElements", paging.MaxAll, step)
}

// addRange adds a scope or exclusion range to subnet
func (s *Server) addRange(ctx context.Context, subnet address.IP, r address.Range) error {
	et := protocol.ElementTypeFor(r.Type)

	if s.IsCompatible(minAddElementV5) {
		elem := protocol.SubnetElementV5{
			Type:  et,
			Range: &protocol.BootpIPRange{Start: r.Start, End: r.End},
		}
		if r.Type == address.ScopeDhcpAndBootp || r.Type == address.ScopeBootpOnly {
			elem.Range.MaxBootpAllowed = ^uint32(0)
		}
		status, err := s.proto.AddSubnetElementV5(ctx, subnet, elem)
		return protocol.Check("AddSubnetElementV5", status, err)
	}

	// the basic format only knows a single scope range type
	if r.Type.IsScope() {
		et = protocol.ElementIPRanges
	}
	status, err := s.proto.AddSubnetElement(ctx, subnet, protocol.SubnetElement{
		Type:  et,
		Range: &protocol.IPRange{Start: r.Start, End: r.End},
	})
	return protocol.Check("AddSubnetElement", status, err)
}

func (s *Server) removeRange(ctx context.Context, subnet address.IP, r address.Range) error {
	status, err := s.proto.RemoveSubnetElement(ctx, subnet, protocol.SubnetElement{
		Type:  protocol.ElementTypeFor(r.Type),
		Range: &protocol.IPRange{Start: r.Start, End: r.End},
	}, protocol.ForceFull)
	return protocol.Check("RemoveSubnetElement", status, err)
}

// reservationElements returns a cursor over the reservations of subnet
func (s *Server) reservationElements(subnet address.IP) *paging.Cursor[reservationRecord] {
	if s.IsCompatible(minEnumElementsV5) {
		step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]reservationRecord, protocol.Status, error) {
			elems, status, err := s.proto.EnumSubnetElementsV5(ctx, subnet, protocol.ElementReservedIPs, resume, max)
			res := make([]reservationRecord, 0, len(elems))
			for _, e := range elems {
				if e.Reservation == nil {
					continue
				}
				res = append(res, reservationRecord{
					Address:            e.Reservation.Address,
					HardwareAddress:    hwaddr.FromWire(hwaddr.Ethernet, e.Reservation.HardwareAddress),
					AllowedClientTypes: protocol.ClientType(e.Reservation.AllowedClientTypes),
				})
			}
			return res, status, err
		}
		return paging.New("EnumSubnetElementsV5", paging.MaxAll, step)
	}

	step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]reservationRecord, protocol.Status, error) {
		elems, status, err := s.proto.EnumSubnetElements(ctx, subnet, protocol.ElementReservedIPs, resume, max)
		res := make([]reservationRecord, 0, len(elems))
		for _, e := range elems {
			if e.Reservation == nil {
				continue
			}
			res = append(res, reservationRecord{
				Address:            e.Reservation.Address,
				HardwareAddress:    hwaddr.FromWire(hwaddr.Ethernet, e.Reservation.HardwareAddress),
				AllowedClientTypes: protocol.ClientBoth,
			})
		}
		return res, status, err
	}
	return paging.New("EnumSubnetElements", paging.MaxAll, step)
}

func (s *Server) addReservation(ctx context.Context, subnet address.IP, rec reservationRecord) error {
	hw, err := rec.HardwareAddress.Bytes()
	if err != nil {
		return invalid("hardware address", err.Error())
	}

	if s.IsCompatible(minAddElementV5) {
		status, err := s.proto.AddSubnetElementV5(ctx, subnet, protocol.SubnetElementV5{
			Type: protocol.ElementReservedIPs,
			Reservation: &protocol.IPReservationV4{
				Address:            rec.Address,
				HardwareAddress:    hw,
				AllowedClientTypes: uint8(rec.AllowedClientTypes),
			},
		})
		return protocol.Check("AddSubnetElementV5", status, err)
	}

	status, err := s.proto.AddSubnetElement(ctx, subnet, protocol.SubnetElement{
		Type:        protocol.ElementReservedIPs,
		Reservation: &protocol.IPReservation{Address: rec.Address, HardwareAddress: hw},
	})
	return protocol.Check("AddSubnetElement", status, err)
}

func (s *Server) removeReservation(ctx context.Context, subnet address.IP, rec reservationRecord) error {
	// reservations are identified by address, an invalid hardware
	// address is not sent at all
	hw, err := rec.HardwareAddress.Bytes()
	if err != nil {
		hw = nil
	}

	status, err := s.proto.RemoveSubnetElement(ctx, subnet, protocol.SubnetElement{
		Type:        protocol.ElementReservedIPs,
		Reservation: &protocol.IPReservation{Address: rec.Address, HardwareAddress: hw},
	}, protocol.ForceFull)
	return protocol.Check("RemoveSubnetElement", status, err)
}
