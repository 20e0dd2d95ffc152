package admin

import (
	"fmt"
	"time"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/hwaddr"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// NoExpiry is the lease expiry of clients whose lease never ends
var NoExpiry = protocol.MaxTime

// ScopeState is the administrative state of a scope
type ScopeState uint8

// Scope states
const (
	ScopeDisabled ScopeState = iota
	ScopeEnabled
)

func (s ScopeState) String() string {
	if s == ScopeEnabled {
		return "enabled"
	}
	return "disabled"
}

func scopeStateFromWire(s protocol.SubnetState) ScopeState {
	switch s {
	case protocol.SubnetEnabled, protocol.SubnetEnabledSwitched:
		return ScopeEnabled
	default:
		return ScopeDisabled
	}
}

// AddressState is the state of a leased address
type AddressState uint8

// Address states. AddressStateUnknown is reported by servers that only
// support the basic client format.
const (
	AddressOffered      AddressState = 0
	AddressActive       AddressState = 1
	AddressDeclined     AddressState = 2
	AddressDoom         AddressState = 3
	AddressStateUnknown AddressState = 0xFF
)

func (s AddressState) String() string {
	switch s {
	case AddressOffered:
		return "offered"
	case AddressActive:
		return "active"
	case AddressDeclined:
		return "declined"
	case AddressDoom:
		return "doom"
	default:
		return "unknown"
	}
}

// NameProtectionState describes how DHCID records are handled for a client
type NameProtectionState uint8

// Name protection states
const (
	NoDHCID               NameProtectionState = 0
	DHCIDNoClient         NameProtectionState = 1
	DHCIDNoDirectUpdate   NameProtectionState = 2
	DHCIDClient           NameProtectionState = 3
	NameProtectionUnknown NameProtectionState = 0xFF
)

// DNSState is a set of flags describing the DNS registration of a client
type DNSState uint8

// DNS state flags
const (
	DNSCleanup      DNSState = 0x1
	DNSBothRecords  DNSState = 0x2
	DNSUnregistered DNSState = 0x4
	DNSDeleted      DNSState = 0x8
	DNSStateUnknown DNSState = 0xFF
)

// QuarantineStatus is the network access protection state of a client
type QuarantineStatus uint32

// Quarantine states
const (
	NoQuarantine            QuarantineStatus = 0
	RestrictedAccess        QuarantineStatus = 1
	DropPacket              QuarantineStatus = 2
	Probation               QuarantineStatus = 3
	Exempt                  QuarantineStatus = 4
	DefaultQuarSetting      QuarantineStatus = 5
	NoQuarantineInformation QuarantineStatus = 6
)

// ClientRecord is an immutable snapshot of a client lease
type ClientRecord struct {
	Address             address.IP          `json:"address"`
	SubnetMask          address.Mask        `json:"mask"`
	HardwareAddress     hwaddr.Address      `json:"hardwareAddress"`
	Name                string              `json:"name"`
	Comment             string              `json:"comment"`
	LeaseExpiresUTC     time.Time           `json:"leaseExpires"`
	OwnerHost           protocol.HostInfo   `json:"ownerHost"`
	Type                protocol.ClientType `json:"type"`
	AddressState        AddressState        `json:"addressState"`
	NameProtectionState NameProtectionState `json:"nameProtectionState"`
	DNSState            DNSState            `json:"dnsState"`
	QuarantineStatus    QuarantineStatus    `json:"quarantineStatus"`
	ProbationEnds       time.Time           `json:"probationEnds"`
	QuarantineCapable   bool                `json:"quarantineCapable"`
}

// Expires reports whether the lease of the client ever ends
func (c ClientRecord) Expires() bool {
	return c.LeaseExpiresUTC.Before(NoExpiry)
}

func (c ClientRecord) String() string {
	expires := "never"
	if c.Expires() {
		expires = c.LeaseExpiresUTC.Format(time.RFC3339)
	}
	return fmt.Sprintf("%s [%s] (%s) %s expires %s", c.Address, c.HardwareAddress, c.AddressState, c.Name, expires)
}

func clientFromV0(info protocol.ClientInfo) ClientRecord {
	return ClientRecord{
		Address:             info.Address,
		SubnetMask:          info.SubnetMask,
		HardwareAddress:     hwaddr.FromWire(hwaddr.Ethernet, info.HardwareAddress),
		Name:                info.Name,
		Comment:             info.Comment,
		LeaseExpiresUTC:     info.LeaseExpires.Time(),
		OwnerHost:           info.OwnerHost,
		Type:                protocol.ClientUnspecified,
		AddressState:        AddressStateUnknown,
		NameProtectionState: NameProtectionUnknown,
		DNSState:            DNSStateUnknown,
		QuarantineStatus:    NoQuarantineInformation,
		ProbationEnds:       NoExpiry,
		QuarantineCapable:   false,
	}
}

func clientFromVQ(info protocol.ClientInfoVQ) ClientRecord {
	c := clientFromV0(info.ClientInfo)
	c.Type = info.ClientType
	c.AddressState = AddressState(info.AddressState & 0x03)
	c.NameProtectionState = NameProtectionState((info.AddressState >> 2) & 0x03)
	c.DNSState = DNSState(info.AddressState >> 4)
	c.QuarantineStatus = QuarantineStatus(info.Status)
	c.ProbationEnds = info.ProbationEnds.Time()
	c.QuarantineCapable = info.QuarantineCapable
	return c
}

// toWire returns the basic wire format of the record
func (c ClientRecord) toWire() (protocol.ClientInfo, error) {
	hw, err := c.HardwareAddress.Bytes()
	if err != nil {
		return protocol.ClientInfo{}, invalid("hardware address", err.Error())
	}

	return protocol.ClientInfo{
		Address:         c.Address,
		SubnetMask:      c.SubnetMask,
		HardwareAddress: hw,
		Name:            c.Name,
		Comment:         c.Comment,
		LeaseExpires:    protocol.DateTimeFrom(c.LeaseExpiresUTC),
		OwnerHost:       c.OwnerHost,
	}, nil
}

// ScopeRecord is an immutable snapshot of the configuration of a scope
type ScopeRecord struct {
	SubnetAddress address.IP        `json:"subnet"`
	Mask          address.Mask      `json:"mask"`
	Name          string            `json:"name"`
	Comment       string            `json:"comment"`
	PrimaryHost   protocol.HostInfo `json:"primaryHost"`
	State         ScopeState        `json:"state"`
	IPRange       address.Range     `json:"range"`
	QuarantineOn  bool              `json:"quarantineOn"`
}

func (s ScopeRecord) String() string {
	return fmt.Sprintf("%s/%d %s %s %q", s.SubnetAddress, s.Mask.SignificantBits(), s.State, s.IPRange, s.Name)
}
