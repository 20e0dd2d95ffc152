package address

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"net"
	"strconv"
	"strings"
)

// IP is an IPv4 address in host byte order. It is ordered like the
// unsigned integer it represents.
type IP uint32

// FromNet converts a net.IP to its integer representation. ok is false
// if ip is not an IPv4 address.
func FromNet(ip net.IP) (IP, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}

	return IP(binary.BigEndian.Uint32(v4)), true
}

// ParseIP parses a dotted IPv4 address.
func ParseIP(s string) (IP, error) {
	ip, ok := FromNet(net.ParseIP(strings.TrimSpace(s)))
	if !ok {
		return 0, fmt.Errorf("invalid IPv4 address %q", s)
	}

	return ip, nil
}

// MustParseIP is like ParseIP but panics on error
func MustParseIP(s string) IP {
	ip, err := ParseIP(s)
	if err != nil {
		panic(err)
	}
	return ip
}

// Net returns the net.IP representation of ip
func (ip IP) Net() net.IP {
	r := make(net.IP, 4)
	binary.BigEndian.PutUint32(r, uint32(ip))
	return r
}

// Bytes returns ip in network byte order
func (ip IP) Bytes() [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(ip))
	return b
}

func (ip IP) String() string {
	b := ip.Bytes()
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3])
}

// MarshalText implements encoding.TextMarshaler
func (ip IP) MarshalText() ([]byte, error) {
	return []byte(ip.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (ip *IP) UnmarshalText(b []byte) error {
	v, err := ParseIP(string(b))
	if err != nil {
		return err
	}
	*ip = v
	return nil
}

// Mask is an IPv4 subnet mask
type Mask uint32

// MaskFromBits returns the mask with n leading one bits
func MaskFromBits(n int) Mask {
	if n <= 0 {
		return 0
	}
	if n >= 32 {
		return 0xFFFFFFFF
	}
	return Mask(^uint32(0) << (32 - n))
}

// ParseMask parses a mask either in dotted form (255.255.255.0) or
// as a prefix length with or without a leading slash (/24, 24).
func ParseMask(s string) (Mask, error) {
	s = strings.TrimSpace(s)

	if n, err := strconv.Atoi(strings.TrimPrefix(s, "/")); err == nil {
		if n < 0 || n > 32 {
			return 0, fmt.Errorf("invalid prefix length %d", n)
		}
		return MaskFromBits(n), nil
	}

	ip, err := ParseIP(s)
	if err != nil {
		return 0, fmt.Errorf("invalid subnet mask %q", s)
	}

	m := Mask(ip)
	if !m.Valid() {
		return 0, fmt.Errorf("non-contiguous subnet mask %s", ip)
	}

	return m, nil
}

// Valid reports whether all one bits of the mask are leading bits
func (m Mask) Valid() bool {
	inv := ^uint32(m)
	return inv&(inv+1) == 0
}

// SignificantBits returns the prefix length of the mask
func (m Mask) SignificantBits() int {
	return bits.LeadingZeros32(^uint32(m))
}

// Network returns the network address of the subnet ip belongs to
func (m Mask) Network(ip IP) IP {
	return IP(uint32(ip) & uint32(m))
}

// Broadcast returns the broadcast address of the subnet ip belongs to
func (m Mask) Broadcast(ip IP) IP {
	return IP(uint32(ip) | ^uint32(m))
}

// RangeFor returns the range spanning the whole subnet of base including
// the network and broadcast addresses. The range is of type Excluded.
func (m Mask) RangeFor(base IP) Range {
	return Range{
		Type:  Excluded,
		Start: m.Network(base),
		End:   m.Broadcast(base),
	}
}

// DhcpRangeFor returns the range of assignable host addresses of the
// subnet of base, i.e. without the network and broadcast addresses.
// Point-to-point /31 and single-host /32 subnets have neither, so the
// whole subnet is returned for them.
func (m Mask) DhcpRangeFor(base IP) Range {
	r := m.RangeFor(base)
	r.Type = ScopeDhcpOnly

	if m.SignificantBits() < 31 {
		r.Start++
		r.End--
	}

	return r
}

// IP returns the mask as an address, e.g. 255.255.255.0
func (m Mask) IP() IP {
	return IP(m)
}

func (m Mask) String() string {
	return IP(m).String()
}

// MarshalText implements encoding.TextMarshaler
func (m Mask) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mask) UnmarshalText(b []byte) error {
	v, err := ParseMask(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
