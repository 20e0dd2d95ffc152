package admin

import (
	"context"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// ExcludedRanges returns the ranges excluded from the address range of
// the scope
func (sc *Scope) ExcludedRanges(ctx context.Context) ([]address.Range, error) {
	cur := sc.server.rangeElements(sc.record.SubnetAddress, protocol.ElementExcludedIPRanges)
	return paging.Collect(ctx, cur)
}

// AddExcludedRange excludes r from the address range of the scope
func (sc *Scope) AddExcludedRange(ctx context.Context, r address.Range) error {
	if err := validateExclusion(r); err != nil {
		return err
	}
	if err := sc.server.addRange(ctx, sc.record.SubnetAddress, r); err != nil {
		return err
	}
	sc.l.Debugf("excluded %s", r)
	return nil
}

// RemoveExcludedRange removes the exclusion r
func (sc *Scope) RemoveExcludedRange(ctx context.Context, r address.Range) error {
	if err := validateExclusion(r); err != nil {
		return err
	}
	if err := sc.server.removeRange(ctx, sc.record.SubnetAddress, r); err != nil {
		return err
	}
	sc.l.Debugf("removed exclusion %s", r)
	return nil
}

// AssignableRanges returns the parts of the scope range that are not
// covered by an exclusion, sorted by start address. Overlapping and
// adjacent exclusions are merged first.
func (sc *Scope) AssignableRanges(ctx context.Context) ([]address.Range, error) {
	if sc.record.IPRange == (address.Range{}) {
		return nil, nil
	}

	excluded, err := sc.ExcludedRanges(ctx)
	if err != nil {
		return nil, err
	}

	free := []address.Range{sc.record.IPRange}
	for _, x := range address.Merge(excluded) {
		free = address.DeleteFrom(x, free)
	}
	return free, nil
}

func validateExclusion(r address.Range) error {
	if r.Type != address.Excluded {
		return invalid("range type", "expected range type "+address.Excluded.String()+" but got "+r.Type.String())
	}
	if err := r.Validate(); err != nil {
		return invalid("range", err.Error())
	}
	return nil
}
