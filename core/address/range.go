package address

import (
	"errors"
	"fmt"
	"math/bits"
	"net"
	"sort"
	"strings"
)

// RangeType describes how the addresses of a range are used by the server
type RangeType uint8

// Known range types
const (
	ScopeDhcpOnly RangeType = iota
	ScopeDhcpAndBootp
	ScopeBootpOnly
	Excluded
)

var rangeTypeNames = map[RangeType]string{
	ScopeDhcpOnly:     "dhcp",
	ScopeDhcpAndBootp: "dhcp+bootp",
	ScopeBootpOnly:    "bootp",
	Excluded:          "excluded",
}

func (t RangeType) String() string {
	if s, ok := rangeTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("RangeType(%d)", uint8(t))
}

// IsScope reports whether t may be used as the address range of a scope
func (t RangeType) IsScope() bool {
	return t == ScopeDhcpOnly || t == ScopeDhcpAndBootp || t == ScopeBootpOnly
}

// ParseRangeType parses the name of a range type
func ParseRangeType(s string) (RangeType, error) {
	for t, name := range rangeTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown range type %q", s)
}

// Range is a range of IP addresses from (inclusive) Start to (inclusive)
// End.
type Range struct {
	Type  RangeType `json:"type"`
	Start IP        `json:"start"`
	End   IP        `json:"end"`
}

// NewRange returns a new range of the given type. It fails if start is
// greater than end.
func NewRange(t RangeType, start, end IP) (Range, error) {
	r := Range{Type: t, Start: start, End: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// ParseRange parses a range in the form "a-b" or in CIDR notation. A CIDR
// range covers the whole subnet.
func ParseRange(t RangeType, s string) (Range, error) {
	if strings.Contains(s, "/") {
		_, n, err := net.ParseCIDR(s)
		if err != nil {
			return Range{}, err
		}
		base, ok := FromNet(n.IP)
		if !ok {
			return Range{}, fmt.Errorf("%s is not an IPv4 network", s)
		}
		ones, _ := n.Mask.Size()
		r := MaskFromBits(ones).RangeFor(base)
		r.Type = t
		return r, nil
	}

	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}

	start, err := ParseIP(parts[0])
	if err != nil {
		return Range{}, err
	}
	end, err := ParseIP(parts[1])
	if err != nil {
		return Range{}, err
	}

	return NewRange(t, start, end)
}

// Validate the range and return any error encountered
func (r Range) Validate() error {
	if r.Start > r.End {
		return errors.New("invalid range: start is after end")
	}
	return nil
}

// Len returns the number of IP addresses inside the range
func (r Range) Len() int {
	if r.Start > r.End {
		return 0
	}
	return int(r.End-r.Start) + 1
}

// ByIdx returns the IP address at the given index
func (r Range) ByIdx(i int) IP {
	return r.Start + IP(i)
}

// Contains checks if ip is part of the range
func (r Range) Contains(ip IP) bool {
	return r.Start <= ip && ip <= r.End
}

// ContainsRange checks if other lies completely within r
func (r Range) ContainsRange(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Intersects reports whether r and other share at least one address
func (r Range) Intersects(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Equal reports whether both ranges have the same type and span
func (r Range) Equal(other Range) bool {
	return r == other
}

// SpanEqual reports whether both ranges cover the same addresses
// regardless of their type
func (r Range) SpanEqual(other Range) bool {
	return r.Start == other.Start && r.End == other.End
}

// SmallestMask returns the longest mask whose subnet contains the whole
// range
func (r Range) SmallestMask() Mask {
	return MaskFromBits(bits.LeadingZeros32(uint32(r.Start ^ r.End)))
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Ranges is a slice of Range and implements the sort.Interface.
// Ranges are sorted by increasing start IP
type Ranges []Range

// Len implements sort.Interface
func (ranges Ranges) Len() int {
	return len(ranges)
}

// Less implements sort.Interface
func (ranges Ranges) Less(i, j int) bool {
	return ranges[i].Start < ranges[j].Start
}

// Swap implements sort.Interface
func (ranges Ranges) Swap(i, j int) {
	ranges[i], ranges[j] = ranges[j], ranges[i]
}

// Contains reports whether one of the ranges contains the IP in question
func (ranges Ranges) Contains(ip IP) bool {
	for _, r := range ranges {
		if r.Contains(ip) {
			return true
		}
	}

	return false
}

// Find returns the index of the first range that equals r or -1
func (ranges Ranges) Find(r Range) int {
	for i, c := range ranges {
		if c.Equal(r) {
			return i
		}
	}
	return -1
}

func (ranges Ranges) String() string {
	s := make([]string, 0, len(ranges))

	for _, r := range ranges {
		s = append(s, r.String())
	}

	return strings.Join(s, ", ")
}

// Merge merges multiple ranges and combines overlapping ones. The type
// of the first range of each merged group is kept.
func Merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}

	sorted := append(Ranges{}, ranges...)
	sort.Sort(sorted)

	stack := []Range{sorted[0]}

	for i := 1; i < len(sorted); i++ {
		top := &stack[len(stack)-1]
		cur := sorted[i]

		// adjacent ranges are merged as well
		if top.End != 0xFFFFFFFF && top.End+1 < cur.Start {
			stack = append(stack, cur)
		} else if top.End < cur.End {
			top.End = cur.End
		}
	}

	return stack
}

// DeleteFrom deletes a range from a set of sorted ranges. The range to
// delete may span multiple ranges.
func DeleteFrom(del Range, ranges []Range) []Range {
	stack := []Range{}

	for _, cur := range ranges {
		if !cur.Intersects(del) {
			stack = append(stack, cur)
			continue
		}

		if del.Start > cur.Start {
			stack = append(stack, Range{Type: cur.Type, Start: cur.Start, End: del.Start - 1})
		}

		if del.End < cur.End {
			stack = append(stack, Range{Type: cur.Type, Start: del.End + 1, End: cur.End})
		}
	}

	return stack
}
