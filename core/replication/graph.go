// Package replication reconciles the configuration of two scopes. Plan
// computes the ordered operations required to make a destination scope
// match a source scope and Apply issues them against a Target.
package replication

import (
	"context"
	"fmt"
	"sort"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/hwaddr"
	"github.com/nextdhcp/dhcpadmin/core/option"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// Reservation is the replicated configuration of an address reservation
type Reservation struct {
	Address            address.IP          `json:"address"`
	HardwareAddress    hwaddr.Address      `json:"hardwareAddress"`
	AllowedClientTypes protocol.ClientType `json:"allowedClientTypes"`
	Options            option.Values       `json:"options,omitempty"`
}

// ScopeGraph is a snapshot of a scope together with its exclusions,
// option values and reservations
type ScopeGraph struct {
	SubnetAddress address.IP                 `json:"subnet"`
	Mask          address.Mask               `json:"mask"`
	Name          string                     `json:"name"`
	Comment       string                     `json:"comment"`
	QuarantineOn  bool                       `json:"quarantineOn"`
	IPRange       address.Range              `json:"range"`
	Exclusions    []address.Range            `json:"exclusions,omitempty"`
	Options       option.Values              `json:"options,omitempty"`
	Reservations  map[address.IP]Reservation `json:"reservations,omitempty"`
}

// Clone returns a deep copy of g
func (g *ScopeGraph) Clone() *ScopeGraph {
	c := *g
	c.Exclusions = append([]address.Range(nil), g.Exclusions...)
	c.Options = cloneValues(g.Options)
	if g.Reservations != nil {
		c.Reservations = make(map[address.IP]Reservation, len(g.Reservations))
		for ip, r := range g.Reservations {
			r.Options = cloneValues(r.Options)
			c.Reservations[ip] = r
		}
	}
	return &c
}

func cloneValues(v option.Values) option.Values {
	if v == nil {
		return nil
	}
	c := make(option.Values, len(v))
	for id, val := range v {
		c[id] = val.Clone()
	}
	return c
}

func sortedOptionIDs(v option.Values) []uint32 {
	ids := make([]uint32, 0, len(v))
	for id := range v {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedAddresses(m map[address.IP]Reservation) []address.IP {
	ips := make([]address.IP, 0, len(m))
	for ip := range m {
		ips = append(ips, ip)
	}
	sort.Slice(ips, func(i, j int) bool { return ips[i] < ips[j] })
	return ips
}

// ApplyOp applies op to the graph itself so a graph can be used as the
// Target of a replication
func (g *ScopeGraph) ApplyOp(_ context.Context, op Op) error {
	switch op.Kind {
	case UpdateScalars:
		g.Name = op.Scalars.Name
		g.Comment = op.Scalars.Comment
		g.QuarantineOn = op.Scalars.QuarantineOn
	case SetIPRange:
		g.IPRange = op.Range
	case RemoveExclusion:
		idx := address.Ranges(g.Exclusions).Find(op.Range)
		if idx < 0 {
			return fmt.Errorf("exclusion %s not found", op.Range)
		}
		g.Exclusions = append(g.Exclusions[:idx:idx], g.Exclusions[idx+1:]...)
	case AddExclusion:
		g.Exclusions = append(g.Exclusions, op.Range)
	case RemoveOption:
		delete(g.Options, op.Option.OptionID)
	case AddOption, ReplaceOption:
		if g.Options == nil {
			g.Options = option.Values{}
		}
		g.Options[op.Option.OptionID] = op.Option.Clone()
	case DeleteReservation:
		if _, ok := g.Reservations[op.Reservation.Address]; !ok {
			return fmt.Errorf("reservation %s not found", op.Reservation.Address)
		}
		delete(g.Reservations, op.Reservation.Address)
	case CreateReservation:
		if g.Reservations == nil {
			g.Reservations = map[address.IP]Reservation{}
		}
		if _, ok := g.Reservations[op.Reservation.Address]; ok {
			return fmt.Errorf("reservation %s already exists", op.Reservation.Address)
		}
		res := op.Reservation
		res.Options = nil
		g.Reservations[res.Address] = res
	case RemoveReservationOption, AddReservationOption, ReplaceReservationOption:
		res, ok := g.Reservations[op.Reservation.Address]
		if !ok {
			return fmt.Errorf("reservation %s not found", op.Reservation.Address)
		}
		if op.Kind == RemoveReservationOption {
			delete(res.Options, op.Option.OptionID)
		} else {
			if res.Options == nil {
				res.Options = option.Values{}
			}
			res.Options[op.Option.OptionID] = op.Option.Clone()
		}
		g.Reservations[res.Address] = res
	default:
		return fmt.Errorf("unknown operation %s", op.Kind)
	}
	return nil
}
