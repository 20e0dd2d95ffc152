package option

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/nextdhcp/dhcpadmin/core/address"
)

type (
	single func(string) (Elements, error)
	list   func([]string) (Elements, error)
)

var (
	// ErrUnknownOption is returned from ParseKnown when the option name is not defined
	// in the list below
	ErrUnknownOption = errors.New("unknown option")

	options = map[string]dhcpv4.OptionCode{
		// IP list options
		"router":            dhcpv4.OptionRouter,
		"nameserver":        dhcpv4.OptionDomainNameServer,
		"ntp-server":        dhcpv4.OptionNTPServers,
		"server-identifier": dhcpv4.OptionServerIdentifier,

		// IP options
		"broadcast-address": dhcpv4.OptionBroadcastAddress,
		"requested-ip":      dhcpv4.OptionRequestedIPAddress,
		"netmask":           dhcpv4.OptionSubnetMask,

		// String options
		"hostname":         dhcpv4.OptionHostName,
		"domain-name":      dhcpv4.OptionDomainName,
		"root-path":        dhcpv4.OptionRootPath,
		"class-identifier": dhcpv4.OptionClassIdentifier,
		"tftp-server-name": dhcpv4.OptionTFTPServerName,
		"filename":         dhcpv4.OptionBootfileName,

		// durations
		"lease-time":   dhcpv4.OptionIPAddressLeaseTime,
		"renew-time":   dhcpv4.OptionRenewTimeValue,
		"rebind-time":  dhcpv4.OptionRebindingTimeValue,
		"max-msg-size": dhcpv4.OptionMaximumDHCPMessageSize,
	}

	optionParser = map[string]interface{}{
		"router":            list(IPListOption),
		"nameserver":        list(IPListOption),
		"ntp-server":        list(IPListOption),
		"server-identifier": list(IPListOption),

		"broadcast-address": single(IPOption),
		"requested-ip":      single(IPOption),
		"netmask":           single(IPOption),

		"hostname":         single(StringOption),
		"domain-name":      single(StringOption),
		"root-path":        single(StringOption),
		"class-identifier": single(StringOption),
		"tftp-server-name": single(StringOption),
		"filename":         single(StringOption),

		"lease-time":   single(DurationOption),
		"renew-time":   single(DurationOption),
		"rebind-time":  single(DurationOption),
		"max-msg-size": single(UInt16Option),
	}

	byCode = func() map[uint8]dhcpv4.OptionCode {
		m := make(map[uint8]dhcpv4.OptionCode, len(options))
		for _, c := range options {
			m[c.Code()] = c
		}
		return m
	}()

	byID = func() map[uint8]string {
		m := make(map[uint8]string, len(options))
		for name, c := range options {
			m[c.Code()] = name
		}
		return m
	}()
)

// LeaseTime is the option ID holding the lease duration of a scope
var LeaseTime = uint32(dhcpv4.OptionIPAddressLeaseTime.Code())

// Code returns the DHCPv4 option code for id. Known codes are returned
// as their dhcpv4 constants.
func Code(id uint32) dhcpv4.OptionCode {
	if c, ok := byCode[uint8(id)]; ok && id <= 0xFF {
		return c
	}
	return dhcpv4.GenericOptionCode(uint8(id))
}

// Name returns the configuration name of the option id
func Name(id uint32) string {
	if id <= 0xFF {
		if n, ok := byID[uint8(id)]; ok {
			return n
		}
	}
	return fmt.Sprintf("option-%d", id)
}

// ID returns the option ID for a configuration name. Besides the names
// known to ParseKnown it accepts "option-<n>" and plain numbers.
func ID(name string) (uint32, error) {
	if c, ok := options[name]; ok {
		return uint32(c.Code()), nil
	}

	n, err := strconv.ParseUint(strings.TrimPrefix(name, "option-"), 10, 32)
	if err != nil {
		return 0, ErrUnknownOption
	}
	return uint32(n), nil
}

// StringOption converts the given string into an option element
func StringOption(s string) (Elements, error) {
	return Elements{String(s)}, nil
}

// IPOption converts the given string into an option element
func IPOption(s string) (Elements, error) {
	ip, err := address.ParseIP(s)
	if err != nil {
		return nil, err
	}

	return Elements{IPAddress(ip)}, nil
}

// IPListOption converts the given string slice into option elements
func IPListOption(s []string) (Elements, error) {
	ips := make(Elements, 0, len(s))

	for _, i := range s {
		ip, err := address.ParseIP(i)
		if err != nil {
			return nil, err
		}

		ips = append(ips, IPAddress(ip))
	}

	return ips, nil
}

// UInt16Option converts the given string into an option element
func UInt16Option(s string) (Elements, error) {
	i64, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return nil, err
	}

	return Elements{Word(uint16(i64))}, nil
}

// DurationOption converts a duration like "8h" or "infinite" into a
// DWord holding seconds
func DurationOption(s string) (Elements, error) {
	if s == "infinite" {
		return Elements{SignedDWord(-1)}, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, err
	}
	if d < time.Second || d.Seconds() > float64(1<<31-1) {
		return nil, fmt.Errorf("duration %s out of range", d)
	}

	return Elements{DWord(uint32(d.Seconds()))}, nil
}

// ParseKnown parses the given name and string values
// and returns their option value if known
func ParseKnown(name string, values []string) (Value, error) {
	code, ok := options[name]
	if !ok {
		return Value{}, ErrUnknownOption
	}

	if len(values) == 0 {
		return Value{}, fmt.Errorf("option %s requires a value", name)
	}

	var (
		elements Elements
		err      error
	)

	switch fn := optionParser[name].(type) {
	case list:
		elements, err = fn(values)
	case single:
		if len(values) > 1 {
			return Value{}, fmt.Errorf("option %s only supports one value", name)
		}
		elements, err = fn(values[0])
	default:
		err = errors.New("unknown parser function")
	}

	if err != nil {
		return Value{}, err
	}

	return Value{OptionID: uint32(code.Code()), Elements: elements}, nil
}
