package admin

import (
	"context"
	"fmt"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/events"
	"github.com/nextdhcp/dhcpadmin/core/replication"
)

// Graph loads the scope together with its exclusions, option values and
// reservations
func (sc *Scope) Graph(ctx context.Context) (*replication.ScopeGraph, error) {
	g := &replication.ScopeGraph{
		SubnetAddress: sc.record.SubnetAddress,
		Mask:          sc.record.Mask,
		Name:          sc.record.Name,
		Comment:       sc.record.Comment,
		QuarantineOn:  sc.record.QuarantineOn,
		IPRange:       sc.record.IPRange,
		Reservations:  map[address.IP]replication.Reservation{},
	}

	var err error
	if g.Exclusions, err = sc.ExcludedRanges(ctx); err != nil {
		return nil, err
	}
	if g.Options, err = sc.Options().Values(ctx); err != nil {
		return nil, err
	}

	reservations, err := sc.Reservations(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range reservations {
		opts, err := r.Options().Values(ctx)
		if err != nil {
			return nil, err
		}
		g.Reservations[r.Address()] = replication.Reservation{
			Address:            r.Address(),
			HardwareAddress:    r.HardwareAddress(),
			AllowedClientTypes: r.AllowedClientTypes(),
			Options:            opts,
		}
	}

	return g, nil
}

// ApplyOp implements replication.Target
func (sc *Scope) ApplyOp(ctx context.Context, op replication.Op) error {
	switch op.Kind {
	case replication.UpdateScalars:
		rec := sc.record
		rec.Name = op.Scalars.Name
		rec.Comment = op.Scalars.Comment
		rec.QuarantineOn = op.Scalars.QuarantineOn
		return sc.setInfo(ctx, rec)

	case replication.SetIPRange:
		return sc.SetIPRange(ctx, op.Range)

	case replication.RemoveExclusion:
		return sc.RemoveExcludedRange(ctx, op.Range)

	case replication.AddExclusion:
		return sc.AddExcludedRange(ctx, op.Range)

	case replication.RemoveOption:
		return sc.Options().Remove(ctx, op.Option.OptionID)

	case replication.AddOption, replication.ReplaceOption:
		return sc.Options().Set(ctx, op.Option)

	case replication.DeleteReservation:
		r := &Reservation{scope: sc, record: reservationRecord{
			Address:         op.Reservation.Address,
			HardwareAddress: op.Reservation.HardwareAddress,
		}}
		return r.Delete(ctx)

	case replication.CreateReservation:
		_, err := sc.AddReservation(ctx, op.Reservation.Address, op.Reservation.HardwareAddress, op.Reservation.AllowedClientTypes)
		return err

	case replication.RemoveReservationOption, replication.AddReservationOption, replication.ReplaceReservationOption:
		r := &Reservation{scope: sc, record: reservationRecord{Address: op.Reservation.Address}}
		if op.Kind == replication.RemoveReservationOption {
			return r.Options().Remove(ctx, op.Option.OptionID)
		}
		return r.Options().Set(ctx, op.Option)
	}

	return fmt.Errorf("unsupported replication operation %s", op.Kind)
}

// ReplicateTo makes dst match the configuration of the scope. Both
// scopes must share the same subnet address.
func (sc *Scope) ReplicateTo(ctx context.Context, dst *Scope) (*replication.Report, error) {
	if sc.record.SubnetAddress != dst.record.SubnetAddress {
		return nil, invalid("destination", fmt.Sprintf("scopes %s and %s are incompatible and cannot be replicated", sc.record.SubnetAddress, dst.record.SubnetAddress))
	}

	src, err := sc.Graph(ctx)
	if err != nil {
		return nil, err
	}

	return Replicate(ctx, src, sc.server.String(), dst, false)
}

// Replicate makes dst match the scope graph src. source names the origin
// of src in the report. If dryRun is set the operations are only planned.
func Replicate(ctx context.Context, src *replication.ScopeGraph, source string, dst *Scope, dryRun bool) (*replication.Report, error) {
	if src.SubnetAddress != dst.record.SubnetAddress {
		return nil, invalid("destination", fmt.Sprintf("scopes %s and %s are incompatible and cannot be replicated", src.SubnetAddress, dst.record.SubnetAddress))
	}

	current, err := dst.Graph(ctx)
	if err != nil {
		return nil, err
	}

	report := replication.Run(ctx, src, current, dst, dryRun)
	report.Source = source
	report.Destination = dst.server.String()

	if report.Failed() {
		events.EmitReplicationEvent(events.EventReplicationFailed, report)
	} else if !dryRun {
		events.EmitReplicationEvent(events.EventReplicationFinished, report)
	}

	return report, report.Err
}
