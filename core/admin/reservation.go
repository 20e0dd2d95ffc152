package admin

import (
	"context"
	"fmt"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/hwaddr"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

type reservationRecord struct {
	Address            address.IP
	HardwareAddress    hwaddr.Address
	AllowedClientTypes protocol.ClientType
}

// Reservation binds an address of a scope to a hardware address
type Reservation struct {
	scope  *Scope
	record reservationRecord
}

// Address returns the reserved address
func (r *Reservation) Address() address.IP { return r.record.Address }

// HardwareAddress returns the hardware address the address is reserved for
func (r *Reservation) HardwareAddress() hwaddr.Address { return r.record.HardwareAddress }

// AllowedClientTypes returns the protocols the client may use to obtain
// the address
func (r *Reservation) AllowedClientTypes() protocol.ClientType { return r.record.AllowedClientTypes }

// Scope returns the scope of the reservation
func (r *Reservation) Scope() *Scope { return r.scope }

func (r *Reservation) String() string {
	return fmt.Sprintf("%s [%s]", r.record.Address, r.record.HardwareAddress)
}

// Options returns the option values of the reservation
func (r *Reservation) Options() *OptionSet {
	return &OptionSet{
		server: r.scope.server,
		scope:  protocol.ReservationOptions(r.scope.record.SubnetAddress, r.record.Address),
	}
}

// Delete removes the reservation from its scope
func (r *Reservation) Delete(ctx context.Context) error {
	if err := r.scope.server.removeReservation(ctx, r.scope.record.SubnetAddress, r.record); err != nil {
		return err
	}
	r.scope.l.Debugf("deleted reservation %s", r)
	return nil
}

// reservationCursor returns a cursor over the reservations of the scope
func (sc *Scope) reservationCursor() *paging.Cursor[reservationRecord] {
	return sc.server.reservationElements(sc.record.SubnetAddress)
}

// Reservations returns all reservations of the scope
func (sc *Scope) Reservations(ctx context.Context) ([]*Reservation, error) {
	return paging.Map(ctx, sc.reservationCursor(), func(rec reservationRecord) (*Reservation, error) {
		return &Reservation{scope: sc, record: rec}, nil
	})
}

// Reservation returns the reservation of ip or nil if the address is not
// reserved
func (sc *Scope) Reservation(ctx context.Context, ip address.IP) (*Reservation, error) {
	var found *Reservation
	cur := sc.reservationCursor()
	for cur.Next(ctx) {
		if cur.Item().Address == ip {
			found = &Reservation{scope: sc, record: cur.Item()}
			break
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

// AddReservation reserves ip for the client with hardware address hw
func (sc *Scope) AddReservation(ctx context.Context, ip address.IP, hw hwaddr.Address, allowed protocol.ClientType) (*Reservation, error) {
	if !hw.Valid() {
		return nil, invalid("hardware address", hw.String()+" exceeds the maximum length")
	}
	if !sc.record.IPRange.Contains(ip) {
		return nil, outOfRange("address", ip, "the address is not within the range of scope "+sc.record.IPRange.String())
	}

	rec := reservationRecord{Address: ip, HardwareAddress: hw, AllowedClientTypes: allowed}
	if err := sc.server.addReservation(ctx, sc.record.SubnetAddress, rec); err != nil {
		return nil, err
	}

	res := &Reservation{scope: sc, record: rec}
	sc.l.Debugf("added reservation %s", res)
	return res, nil
}
