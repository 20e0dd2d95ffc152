package option

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/nextdhcp/dhcpadmin/core/address"
)

// ElementType is the data type of a single option element
type ElementType uint8

// Element types supported by the management protocol
const (
	ByteType ElementType = iota
	WordType
	DWordType
	DWordDWordType
	IPAddressType
	StringType
	BinaryType
	EncapsulatedBinaryType
	IPv6AddressType
)

var elementTypeNames = []string{
	"byte", "word", "dword", "dworddword", "ip", "string", "binary", "encapsulated", "ipv6",
}

func (t ElementType) String() string {
	if int(t) < len(elementTypeNames) {
		return elementTypeNames[t]
	}
	return fmt.Sprintf("ElementType(%d)", uint8(t))
}

// Element is a single typed value of an option. Which field is used
// depends on Type.
type Element struct {
	Type   ElementType `json:"type"`
	Number uint64      `json:"number,omitempty"`
	IP     address.IP  `json:"ip,omitempty"`
	Text   string      `json:"text,omitempty"`
	Data   []byte      `json:"data,omitempty"`
}

// Byte returns a byte element
func Byte(v uint8) Element { return Element{Type: ByteType, Number: uint64(v)} }

// Word returns a 16 bit element
func Word(v uint16) Element { return Element{Type: WordType, Number: uint64(v)} }

// DWord returns a 32 bit element
func DWord(v uint32) Element { return Element{Type: DWordType, Number: uint64(v)} }

// SignedDWord returns a 32 bit element holding the two's complement of v
func SignedDWord(v int32) Element { return DWord(uint32(v)) }

// DWordDWord returns a 64 bit element
func DWordDWord(v uint64) Element { return Element{Type: DWordDWordType, Number: v} }

// IPAddress returns an IPv4 address element
func IPAddress(ip address.IP) Element { return Element{Type: IPAddressType, IP: ip} }

// String returns a string element
func String(s string) Element { return Element{Type: StringType, Text: s} }

// Binary returns a binary element
func Binary(b []byte) Element { return Element{Type: BinaryType, Data: append([]byte{}, b...)} }

// EncapsulatedBinary returns an encapsulated binary element
func EncapsulatedBinary(b []byte) Element {
	return Element{Type: EncapsulatedBinaryType, Data: append([]byte{}, b...)}
}

// IPv6Address returns an element holding the 16 octets of an IPv6 address
func IPv6Address(b [16]byte) Element { return Element{Type: IPv6AddressType, Data: b[:]} }

// Int32 interprets a DWord element as a signed value
func (e Element) Int32() int32 {
	return int32(uint32(e.Number))
}

// Equal reports whether both elements have the same type and value
func (e Element) Equal(o Element) bool {
	return e.Type == o.Type &&
		e.Number == o.Number &&
		e.IP == o.IP &&
		e.Text == o.Text &&
		bytes.Equal(e.Data, o.Data)
}

// Bytes returns the on-the-wire DHCP representation of the element
func (e Element) Bytes() []byte {
	switch e.Type {
	case ByteType:
		return []byte{byte(e.Number)}
	case WordType:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(e.Number))
		return b
	case DWordType:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(e.Number))
		return b
	case DWordDWordType:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, e.Number)
		return b
	case IPAddressType:
		b := e.IP.Bytes()
		return b[:]
	case StringType:
		return []byte(e.Text)
	default:
		return append([]byte{}, e.Data...)
	}
}

func (e Element) String() string {
	switch e.Type {
	case ByteType, WordType, DWordType, DWordDWordType:
		return fmt.Sprintf("%d", e.Number)
	case IPAddressType:
		return e.IP.String()
	case StringType:
		return e.Text
	default:
		return fmt.Sprintf("%x", e.Data)
	}
}

// Elements is an ordered list of option elements
type Elements []Element

// Equal compares both lists element-wise
func (l Elements) Equal(o Elements) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if !l[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Value is the value of a single option as configured on a server
type Value struct {
	OptionID uint32   `json:"id"`
	Elements Elements `json:"elements"`
}

// Code returns the DHCPv4 option code of the value
func (v Value) Code() dhcpv4.OptionCode {
	return Code(v.OptionID)
}

// Equal reports whether both values describe the same option with
// element-wise equal lists
func (v Value) Equal(o Value) bool {
	return v.OptionID == o.OptionID && v.Elements.Equal(o.Elements)
}

// Clone returns a deep copy of v
func (v Value) Clone() Value {
	c := Value{OptionID: v.OptionID, Elements: make(Elements, len(v.Elements))}
	for i, e := range v.Elements {
		c.Elements[i] = e
		if e.Data != nil {
			c.Elements[i].Data = append([]byte{}, e.Data...)
		}
	}
	return c
}

// Bytes concatenates the wire representation of all elements
func (v Value) Bytes() []byte {
	var b []byte
	for _, e := range v.Elements {
		b = append(b, e.Bytes()...)
	}
	return b
}

func (v Value) String() string {
	if v.OptionID <= 0xFF {
		return fmt.Sprintf("%s: %s", Name(v.OptionID), ToString(v.Code(), v.Bytes(), nil))
	}

	parts := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		parts[i] = e.String()
	}
	return fmt.Sprintf("%s: %s", Name(v.OptionID), strings.Join(parts, ", "))
}

// Values maps option IDs to their values
type Values map[uint32]Value

// Index builds a Values map from a list
func Index(list []Value) Values {
	m := make(Values, len(list))
	for _, v := range list {
		m[v.OptionID] = v
	}
	return m
}
