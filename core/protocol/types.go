package protocol

import (
	"math"
	"time"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/option"
)

type (
	// ResumeHandle is the opaque continuation token of a paged
	// enumeration. The zero value starts a new enumeration.
	ResumeHandle uint32

	// HostInfo identifies a DHCP server
	HostInfo struct {
		Address     address.IP `json:"address"`
		NetBIOSName string     `json:"netbiosName,omitempty"`
		ServerName  string     `json:"serverName,omitempty"`
	}

	// ServerEntry is a DHCP server registered in the directory
	ServerEntry struct {
		Address address.IP `json:"address"`
		Name    string     `json:"name"`
	}
)

// SubnetState is the wire representation of the scope state
type SubnetState uint32

// Known subnet states
const (
	SubnetEnabled SubnetState = iota
	SubnetDisabled
	SubnetEnabledSwitched
	SubnetDisabledSwitched
	SubnetInvalidState
)

type (
	// SubnetInfo is the basic subnet information format
	SubnetInfo struct {
		SubnetAddress address.IP   `json:"subnet"`
		SubnetMask    address.Mask `json:"mask"`
		Name          string       `json:"name"`
		Comment       string       `json:"comment"`
		PrimaryHost   HostInfo     `json:"primaryHost"`
		State         SubnetState  `json:"state"`
	}

	// SubnetInfoVQ is the quarantine aware subnet information format
	SubnetInfoVQ struct {
		SubnetInfo
		QuarantineOn uint32 `json:"quarantineOn"`
		Reserved1    uint32 `json:"reserved1"`
		Reserved2    uint32 `json:"reserved2"`
		Reserved3    uint64 `json:"reserved3"`
		Reserved4    uint64 `json:"reserved4"`
	}
)

// ElementType selects the kind of subnet element
type ElementType uint32

// Subnet element types
const (
	ElementIPRanges ElementType = iota
	ElementSecondaryHosts
	ElementReservedIPs
	ElementExcludedIPRanges
	ElementIPUsedClusters
	ElementIPRangesDhcpOnly
	ElementIPRangesDhcpBootp
	ElementIPRangesBootpOnly
)

// ElementTypeFor returns the subnet element type used to store ranges
// of type t
func ElementTypeFor(t address.RangeType) ElementType {
	switch t {
	case address.ScopeDhcpAndBootp:
		return ElementIPRangesDhcpBootp
	case address.ScopeBootpOnly:
		return ElementIPRangesBootpOnly
	case address.Excluded:
		return ElementExcludedIPRanges
	default:
		return ElementIPRangesDhcpOnly
	}
}

// RangeTypeFor is the inverse of ElementTypeFor. The basic ElementIPRanges
// type maps to ScopeDhcpOnly.
func RangeTypeFor(t ElementType) address.RangeType {
	switch t {
	case ElementIPRangesDhcpBootp:
		return address.ScopeDhcpAndBootp
	case ElementIPRangesBootpOnly:
		return address.ScopeBootpOnly
	case ElementExcludedIPRanges:
		return address.Excluded
	default:
		return address.ScopeDhcpOnly
	}
}

// IsRange reports whether elements of type t carry an address range
func (t ElementType) IsRange() bool {
	return t != ElementReservedIPs && t != ElementSecondaryHosts && t != ElementIPUsedClusters
}

type (
	// IPRange is the wire form of an address range
	IPRange struct {
		Start address.IP `json:"start"`
		End   address.IP `json:"end"`
	}

	// BootpIPRange is an address range with BOOTP accounting
	BootpIPRange struct {
		Start           address.IP `json:"start"`
		End             address.IP `json:"end"`
		BootpAllocated  uint32     `json:"bootpAllocated"`
		MaxBootpAllowed uint32     `json:"maxBootpAllowed"`
	}

	// IPReservation is the basic reservation format
	IPReservation struct {
		Address         address.IP `json:"address"`
		HardwareAddress []byte     `json:"hardwareAddress"`
	}

	// IPReservationV4 adds the client types allowed to use the
	// reservation
	IPReservationV4 struct {
		Address            address.IP `json:"address"`
		HardwareAddress    []byte     `json:"hardwareAddress"`
		AllowedClientTypes uint8      `json:"allowedClientTypes"`
	}

	// SubnetElement is the basic subnet element format. Exactly one of
	// Range and Reservation is set depending on Type.
	SubnetElement struct {
		Type        ElementType    `json:"type"`
		Range       *IPRange       `json:"range,omitempty"`
		Reservation *IPReservation `json:"reservation,omitempty"`
	}

	// SubnetElementV5 is the extended subnet element format
	SubnetElementV5 struct {
		Type        ElementType      `json:"type"`
		Range       *BootpIPRange    `json:"range,omitempty"`
		Reservation *IPReservationV4 `json:"reservation,omitempty"`
	}
)

// ForceFlag controls what happens to dependent state when an entity is
// removed
type ForceFlag uint32

// Force flags
const (
	// ForceFull removes the entity and all dependent records including
	// DNS registrations of clients
	ForceFull ForceFlag = iota
	// NoForce fails if the entity is in use
	NoForce
	// ForceFailover removes the entity but keeps client DNS records
	ForceFailover
)

// DateTime is a 64 bit FILETIME value (100ns ticks since 1601-01-01 UTC)
type DateTime int64

// filetime of the unix epoch
const epochTicks = 116444736000000000

var (
	// MinTime is the time represented by a DateTime of 0
	MinTime = time.Time{}

	// MaxTime is the time represented by the maximum DateTime. It is
	// used to express "never".
	MaxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999900, time.UTC)
)

// Time converts d into a time.Time in UTC
func (d DateTime) Time() time.Time {
	switch d {
	case 0:
		return MinTime
	case math.MaxInt64:
		return MaxTime
	}

	ticks := int64(d) - epochTicks
	return time.Unix(ticks/1e7, (ticks%1e7)*100).UTC()
}

// DateTimeFrom converts t into the wire representation
func DateTimeFrom(t time.Time) DateTime {
	if t.IsZero() {
		return 0
	}
	if !t.Before(MaxTime) {
		return math.MaxInt64
	}

	return DateTime(t.Unix()*1e7 + int64(t.Nanosecond())/100 + epochTicks)
}

// ClientType is a bitmask of the protocols a client uses
type ClientType uint8

// Client types
const (
	ClientUnspecified ClientType = 0x00
	ClientDHCP        ClientType = 0x01
	ClientBOOTP       ClientType = 0x02
	ClientBoth        ClientType = 0x03
	ClientReserved    ClientType = 0x04
	ClientNone        ClientType = 0x64
)

type (
	// ClientInfo is the basic client lease format
	ClientInfo struct {
		Address         address.IP   `json:"address"`
		SubnetMask      address.Mask `json:"mask"`
		HardwareAddress []byte       `json:"hardwareAddress"`
		Name            string       `json:"name"`
		Comment         string       `json:"comment"`
		LeaseExpires    DateTime     `json:"leaseExpires"`
		OwnerHost       HostInfo     `json:"ownerHost"`
	}

	// ClientInfoVQ is the quarantine aware client lease format. The
	// AddressState byte packs the address state (bits 0-1), the name
	// protection state (bits 2-3) and the DNS state (bits 4-7).
	ClientInfoVQ struct {
		ClientInfo
		ClientType        ClientType `json:"clientType"`
		AddressState      uint8      `json:"addressState"`
		Status            uint32     `json:"status"`
		ProbationEnds     DateTime   `json:"probationEnds"`
		QuarantineCapable bool       `json:"quarantineCapable"`
	}
)

// OptionScopeType selects where an option value is configured
type OptionScopeType uint32

// Option scope types
const (
	OptionScopeDefault OptionScopeType = iota
	OptionScopeGlobal
	OptionScopeSubnet
	OptionScopeReserved
)

// OptionScope addresses the owner of an option value
type OptionScope struct {
	Type     OptionScopeType `json:"type"`
	Subnet   address.IP      `json:"subnet,omitempty"`
	Reserved address.IP      `json:"reserved,omitempty"`
}

// GlobalOptions returns the server wide option scope
func GlobalOptions() OptionScope {
	return OptionScope{Type: OptionScopeGlobal}
}

// SubnetOptions returns the option scope of a subnet
func SubnetOptions(subnet address.IP) OptionScope {
	return OptionScope{Type: OptionScopeSubnet, Subnet: subnet}
}

// ReservationOptions returns the option scope of a reservation
func ReservationOptions(subnet, reserved address.IP) OptionScope {
	return OptionScope{Type: OptionScopeReserved, Subnet: subnet, Reserved: reserved}
}

// OptionValue is an option as transferred on the wire
type OptionValue = option.Value

type (
	// ScopeMibInfo holds utilization counters of a single scope
	ScopeMibInfo struct {
		Subnet        address.IP `json:"subnet"`
		InUse         uint32     `json:"inUse"`
		Free          uint32     `json:"free"`
		PendingOffers uint32     `json:"pendingOffers"`
	}

	// MibInfoV5 holds the IPv4 statistics of a server
	MibInfoV5 struct {
		Discovers               uint32         `json:"discovers"`
		Offers                  uint32         `json:"offers"`
		Requests                uint32         `json:"requests"`
		Acks                    uint32         `json:"acks"`
		Naks                    uint32         `json:"naks"`
		Declines                uint32         `json:"declines"`
		Releases                uint32         `json:"releases"`
		ServerStartTime         DateTime       `json:"serverStartTime"`
		QtnNumLeases            uint32         `json:"qtnNumLeases"`
		QtnPctQtnLeases         uint32         `json:"qtnPctQtnLeases"`
		QtnProbationLeases      uint32         `json:"qtnProbationLeases"`
		QtnNonQtnLeases         uint32         `json:"qtnNonQtnLeases"`
		QtnExemptLeases         uint32         `json:"qtnExemptLeases"`
		QtnCapableClients       uint32         `json:"qtnCapableClients"`
		QtnIASErrors            uint32         `json:"qtnIASErrors"`
		DelayedOffers           uint32         `json:"delayedOffers"`
		ScopesWithDelayedOffers uint32         `json:"scopesWithDelayedOffers"`
		Scopes                  uint32         `json:"scopes"`
		ScopeInfo               []ScopeMibInfo `json:"scopeInfo,omitempty"`
	}

	// MibInfoV6 holds the IPv6 statistics of a server
	MibInfoV6 struct {
		Solicits        uint32         `json:"solicits"`
		Advertises      uint32         `json:"advertises"`
		Requests        uint32         `json:"requests"`
		Renews          uint32         `json:"renews"`
		Rebinds         uint32         `json:"rebinds"`
		Replies         uint32         `json:"replies"`
		Confirms        uint32         `json:"confirms"`
		Declines        uint32         `json:"declines"`
		Releases        uint32         `json:"releases"`
		Informs         uint32         `json:"informs"`
		ServerStartTime DateTime       `json:"serverStartTime"`
		Scopes          uint32         `json:"scopes"`
		ScopeInfo       []ScopeMibInfo `json:"scopeInfo,omitempty"`
	}
)

// FailoverMode is the operation mode of a failover relationship
type FailoverMode uint32

// Failover modes
const (
	LoadBalance FailoverMode = iota
	HotStandby
)

// FailoverServerType is the role of the local server in a relationship
type FailoverServerType uint32

// Failover server roles
const (
	PrimaryServer FailoverServerType = iota
	SecondaryServer
)

// FailoverRelationship is the wire form of a failover relationship
type FailoverRelationship struct {
	Name                string             `json:"name"`
	PrimaryServer       address.IP         `json:"primaryServer"`
	SecondaryServer     address.IP         `json:"secondaryServer"`
	PrimaryServerName   string             `json:"primaryServerName"`
	SecondaryServerName string             `json:"secondaryServerName"`
	Mode                FailoverMode       `json:"mode"`
	ServerType          FailoverServerType `json:"serverType"`
	State               uint32             `json:"state"`
	Percentage          uint8              `json:"percentage"`
	SharedSecret        string             `json:"-"`
	Scopes              []address.IP       `json:"scopes"`
}
