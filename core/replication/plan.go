package replication

import (
	"fmt"
	"sort"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/option"
)

// Kind is the kind of a replication operation
type Kind uint8

// Operation kinds in the order they are planned
const (
	UpdateScalars Kind = iota
	SetIPRange
	RemoveExclusion
	AddExclusion
	RemoveOption
	AddOption
	ReplaceOption
	DeleteReservation
	CreateReservation
	RemoveReservationOption
	AddReservationOption
	ReplaceReservationOption
)

var kindNames = map[Kind]string{
	UpdateScalars:            "update-scalars",
	SetIPRange:               "set-ip-range",
	RemoveExclusion:          "remove-exclusion",
	AddExclusion:             "add-exclusion",
	RemoveOption:             "remove-option",
	AddOption:                "add-option",
	ReplaceOption:            "replace-option",
	DeleteReservation:        "delete-reservation",
	CreateReservation:        "create-reservation",
	RemoveReservationOption:  "remove-reservation-option",
	AddReservationOption:     "add-reservation-option",
	ReplaceReservationOption: "replace-reservation-option",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind returns the kind named s
func ParseKind(s string) (Kind, bool) {
	for k, n := range kindNames {
		if n == s {
			return k, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown replication operation %q", string(b))
	}
	*k = v
	return nil
}

// IsReservationOption reports whether operations of kind k target the
// option values of a reservation
func (k Kind) IsReservationOption() bool {
	return k == RemoveReservationOption || k == AddReservationOption || k == ReplaceReservationOption
}

// Scalars are the plain properties copied by an UpdateScalars operation
type Scalars struct {
	Name         string `json:"name"`
	Comment      string `json:"comment"`
	QuarantineOn bool   `json:"quarantineOn"`
}

// Op is a single mutating operation on the destination scope. Which
// fields are set depends on Kind:
//
//	UpdateScalars                        Scalars
//	SetIPRange, *Exclusion               Range
//	*Option                              Option
//	DeleteReservation, CreateReservation Reservation
//	*ReservationOption                   Reservation.Address and Option
//
// Remove operations only carry the option id in Option.OptionID.
type Op struct {
	Kind        Kind          `json:"kind"`
	Scalars     Scalars       `json:"scalars,omitempty"`
	Range       address.Range `json:"range,omitempty"`
	Option      option.Value  `json:"option,omitempty"`
	Reservation Reservation   `json:"reservation,omitempty"`
}

func (op Op) String() string {
	switch op.Kind {
	case UpdateScalars:
		return fmt.Sprintf("%s name=%q comment=%q quarantine=%t", op.Kind, op.Scalars.Name, op.Scalars.Comment, op.Scalars.QuarantineOn)
	case SetIPRange, RemoveExclusion, AddExclusion:
		return fmt.Sprintf("%s %s", op.Kind, op.Range)
	case RemoveOption:
		return fmt.Sprintf("%s %s", op.Kind, option.Name(op.Option.OptionID))
	case AddOption, ReplaceOption:
		return fmt.Sprintf("%s %s", op.Kind, op.Option)
	case DeleteReservation:
		return fmt.Sprintf("%s %s", op.Kind, op.Reservation.Address)
	case CreateReservation:
		return fmt.Sprintf("%s %s [%s]", op.Kind, op.Reservation.Address, op.Reservation.HardwareAddress)
	case RemoveReservationOption:
		return fmt.Sprintf("%s %s %s", op.Kind, op.Reservation.Address, option.Name(op.Option.OptionID))
	case AddReservationOption, ReplaceReservationOption:
		return fmt.Sprintf("%s %s %s", op.Kind, op.Reservation.Address, op.Option)
	default:
		return op.Kind.String()
	}
}

// SubnetMismatchError is returned by Plan if both scopes belong to
// different subnets
type SubnetMismatchError struct {
	Source      address.IP
	Destination address.IP
}

func (e *SubnetMismatchError) Error() string {
	return fmt.Sprintf("scopes %s and %s are incompatible and cannot be replicated", e.Source, e.Destination)
}

// Plan returns the operations required to make dst match src. Neither
// graph is modified. Operations are grouped as scalars, address range,
// exclusions, options and reservations. Within a group, ranges, option
// ids and reservation addresses are visited in ascending order.
func Plan(src, dst *ScopeGraph) ([]Op, error) {
	if src.SubnetAddress != dst.SubnetAddress {
		return nil, &SubnetMismatchError{Source: src.SubnetAddress, Destination: dst.SubnetAddress}
	}

	var ops []Op

	if src.Name != dst.Name || src.Comment != dst.Comment || src.QuarantineOn != dst.QuarantineOn {
		ops = append(ops, Op{
			Kind: UpdateScalars,
			Scalars: Scalars{
				Name:         src.Name,
				Comment:      src.Comment,
				QuarantineOn: src.QuarantineOn,
			},
		})
	}

	if !src.IPRange.Equal(dst.IPRange) {
		ops = append(ops, Op{Kind: SetIPRange, Range: src.IPRange})
	}

	ops = append(ops, planExclusions(src.Exclusions, dst.Exclusions)...)
	ops = append(ops, planOptions(src.Options, dst.Options, nil)...)
	ops = append(ops, planReservations(src.Reservations, dst.Reservations)...)

	return ops, nil
}

func planExclusions(src, dst []address.Range) []Op {
	var ops []Op

	sortedDst := sortRanges(dst)
	sortedSrc := sortRanges(src)

	for _, r := range sortedDst {
		if address.Ranges(sortedSrc).Find(r) < 0 {
			ops = append(ops, Op{Kind: RemoveExclusion, Range: r})
		}
	}
	for _, r := range sortedSrc {
		if address.Ranges(sortedDst).Find(r) < 0 {
			ops = append(ops, Op{Kind: AddExclusion, Range: r})
		}
	}

	return ops
}

// planOptions reconciles option values. If res is not nil the operations
// target the options of that reservation.
func planOptions(src, dst option.Values, res *Reservation) []Op {
	remove, add, replace := RemoveOption, AddOption, ReplaceOption
	var owner Reservation
	if res != nil {
		remove, add, replace = RemoveReservationOption, AddReservationOption, ReplaceReservationOption
		owner = Reservation{Address: res.Address}
	}

	var ops []Op
	for _, id := range sortedOptionIDs(dst) {
		if _, ok := src[id]; !ok {
			ops = append(ops, Op{Kind: remove, Option: option.Value{OptionID: id}, Reservation: owner})
		}
	}
	for _, id := range sortedOptionIDs(src) {
		if _, ok := dst[id]; !ok {
			ops = append(ops, Op{Kind: add, Option: src[id].Clone(), Reservation: owner})
		}
	}
	for _, id := range sortedOptionIDs(src) {
		d, ok := dst[id]
		if ok && !src[id].Elements.Equal(d.Elements) {
			ops = append(ops, Op{Kind: replace, Option: src[id].Clone(), Reservation: owner})
		}
	}

	return ops
}

// planReservations deletes destination reservations whose hardware
// address differs from the source and creates them again afterwards.
func planReservations(src, dst map[address.IP]Reservation) []Op {
	var ops []Op

	remaining := make(map[address.IP]Reservation, len(dst))
	for ip, r := range dst {
		remaining[ip] = r
	}

	for _, ip := range sortedAddresses(src) {
		d, ok := remaining[ip]
		if ok && !d.HardwareAddress.Equal(src[ip].HardwareAddress) {
			ops = append(ops, Op{Kind: DeleteReservation, Reservation: Reservation{Address: ip, HardwareAddress: d.HardwareAddress}})
			delete(remaining, ip)
		}
	}

	for _, ip := range sortedAddresses(remaining) {
		if _, ok := src[ip]; !ok {
			ops = append(ops, Op{Kind: DeleteReservation, Reservation: Reservation{Address: ip, HardwareAddress: remaining[ip].HardwareAddress}})
		}
	}

	for _, ip := range sortedAddresses(src) {
		if _, ok := remaining[ip]; ok {
			continue
		}

		s := src[ip]
		ops = append(ops, Op{Kind: CreateReservation, Reservation: Reservation{
			Address:            ip,
			HardwareAddress:    s.HardwareAddress,
			AllowedClientTypes: s.AllowedClientTypes,
		}})
		for _, id := range sortedOptionIDs(s.Options) {
			ops = append(ops, Op{Kind: AddReservationOption, Option: s.Options[id].Clone(), Reservation: Reservation{Address: ip}})
		}
	}

	for _, ip := range sortedAddresses(src) {
		d, ok := remaining[ip]
		if !ok {
			continue
		}
		s := src[ip]
		ops = append(ops, planOptions(s.Options, d.Options, &s)...)
	}

	return ops
}

func sortRanges(r []address.Range) []address.Range {
	sorted := append(address.Ranges(nil), r...)
	sort.Stable(sorted)
	return sorted
}
