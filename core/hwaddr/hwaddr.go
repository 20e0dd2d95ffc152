// Package hwaddr implements the hardware address representation used by
// the DHCP management protocol. Up to 16 octets are stored big-endian in
// two 64 bit words.
package hwaddr

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
)

// MaxLength is the maximum number of octets a valid address can hold
const MaxLength = 16

// Type is the hardware type as assigned in RFC 1700
type Type uint8

// Common hardware types
const (
	Unknown  Type = 0
	Ethernet Type = 1
	IEEE802  Type = 6
)

// Address is a hardware (MAC) address. The zero value is an empty
// address of unknown type.
type Address struct {
	Type   Type `json:"type"`
	Length int  `json:"length"`

	// Word1 holds octets 0-7 and Word2 octets 8-15, both big-endian
	Word1 uint64 `json:"word1"`
	Word2 uint64 `json:"word2"`
}

// ErrInvalid is returned when an address that exceeds MaxLength
// should be encoded
var ErrInvalid = errors.New("invalid hardware address")

// ParseError is returned when a hardware address string cannot
// be decoded
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid hardware address %q: %s", e.Input, e.Reason)
}

// IsParseError returns true if err is a *ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Parse decodes an ethernet hardware address from s. Octets may be
// delimited by ':' or '-' or written as one contiguous hex string.
// The delimiter is detected from the character at index 2.
func Parse(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, &ParseError{Input: s, Reason: "empty"}
	}

	var octets []byte

	if len(s) < 3 || (s[2] != ':' && s[2] != '-') {
		if len(s)%2 != 0 {
			return Address{}, &ParseError{Input: s, Reason: "odd number of hex digits"}
		}
		if len(s)/2 > MaxLength {
			return Address{}, &ParseError{Input: s, Reason: "too long"}
		}

		b, err := hex.DecodeString(s)
		if err != nil {
			return Address{}, &ParseError{Input: s, Reason: "not a hex string"}
		}
		octets = b
	} else {
		sep := s[2]
		if len(s)%3 != 2 {
			return Address{}, &ParseError{Input: s, Reason: "malformed octet"}
		}
		if (len(s)+1)/3 > MaxLength {
			return Address{}, &ParseError{Input: s, Reason: "too long"}
		}

		octets = make([]byte, 0, (len(s)+1)/3)
		for i := 0; i < len(s); i += 3 {
			if i+2 < len(s) && s[i+2] != sep {
				return Address{}, &ParseError{Input: s, Reason: "inconsistent separator"}
			}

			b, err := hex.DecodeString(s[i : i+2])
			if err != nil {
				return Address{}, &ParseError{Input: s, Reason: "not a hex string"}
			}
			octets = append(octets, b[0])
		}
	}

	return FromBytes(Ethernet, octets)
}

// MustParse is like Parse but panics on error
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromBytes returns the address of type t holding b. It fails if b
// is longer than MaxLength.
func FromBytes(t Type, b []byte) (Address, error) {
	if len(b) > MaxLength {
		return Address{}, &ParseError{Input: hex.EncodeToString(b), Reason: "too long"}
	}

	return FromWire(t, b), nil
}

// FromWire decodes an address as reported by a server. Unlike FromBytes
// it accepts addresses longer than MaxLength and keeps the reported
// length so the result is marked invalid. Only the first MaxLength
// octets are stored.
func FromWire(t Type, b []byte) Address {
	a := Address{Type: t, Length: len(b)}

	for i := 0; i < len(b) && i < MaxLength; i++ {
		if i < 8 {
			a.Word1 |= uint64(b[i]) << ((7 - i) * 8)
		} else {
			a.Word2 |= uint64(b[i]) << ((15 - i) * 8)
		}
	}

	return a
}

// FromWords builds an address from its packed representation
func FromWords(t Type, length int, word1, word2 uint64) Address {
	return Address{Type: t, Length: length, Word1: word1, Word2: word2}
}

// FromNet converts a net.HardwareAddr into an ethernet Address
func FromNet(hw net.HardwareAddr) (Address, error) {
	return FromBytes(Ethernet, hw)
}

// Valid reports whether the address can be encoded
func (a Address) Valid() bool {
	return a.Length >= 0 && a.Length <= MaxLength
}

// Bytes returns the octets of the address. It fails for invalid
// addresses.
func (a Address) Bytes() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: length %d exceeds %d", ErrInvalid, a.Length, MaxLength)
	}

	return a.octets(a.Length), nil
}

// Net returns the address as a net.HardwareAddr
func (a Address) Net() (net.HardwareAddr, error) {
	b, err := a.Bytes()
	if err != nil {
		return nil, err
	}
	return net.HardwareAddr(b), nil
}

func (a Address) octets(n int) []byte {
	if n > MaxLength {
		n = MaxLength
	}
	if n < 0 {
		n = 0
	}

	b := make([]byte, n)
	for i := 0; i < n; i++ {
		if i < 8 {
			b[i] = byte(a.Word1 >> ((7 - i) * 8))
		} else {
			b[i] = byte(a.Word2 >> ((15 - i) * 8))
		}
	}
	return b
}

// Equal reports whether a and b are structurally equal
func (a Address) Equal(b Address) bool {
	return a == b
}

// IsZero reports whether the address holds no octets
func (a Address) IsZero() bool {
	return a.Length == 0
}

// String renders the address as colon separated hex octets. Invalid
// addresses get a trailing "..." and cannot be parsed again.
func (a Address) String() string {
	octets := a.octets(a.Length)

	parts := make([]string, len(octets))
	for i, o := range octets {
		parts[i] = fmt.Sprintf("%02x", o)
	}

	s := strings.Join(parts, ":")
	if a.Length > MaxLength {
		s += "..."
	}
	return s
}
