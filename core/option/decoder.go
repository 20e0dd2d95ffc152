package option

import (
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/iana"
	"github.com/insomniacslk/dhcp/rfc1035label"
)

// decoderFor returns a dhcpv4 decoder able to render the payload of code
// or nil if the option has no well-known representation
func decoderFor(code dhcpv4.OptionCode, data []byte, vendorDecoder dhcpv4.OptionDecoder) dhcpv4.OptionDecoder {
	switch code {
	case dhcpv4.OptionRouter, dhcpv4.OptionDomainNameServer, dhcpv4.OptionNTPServers, dhcpv4.OptionServerIdentifier:
		return &dhcpv4.IPs{}

	case dhcpv4.OptionBroadcastAddress, dhcpv4.OptionRequestedIPAddress:
		return &dhcpv4.IP{}

	case dhcpv4.OptionClientSystemArchitectureType:
		return &iana.Archs{}

	case dhcpv4.OptionSubnetMask:
		return &dhcpv4.IPMask{}

	case dhcpv4.OptionHostName, dhcpv4.OptionDomainName, dhcpv4.OptionRootPath,
		dhcpv4.OptionClassIdentifier, dhcpv4.OptionTFTPServerName, dhcpv4.OptionBootfileName:
		var s dhcpv4.String
		return &s

	case dhcpv4.OptionDNSDomainSearchList:
		return &rfc1035label.Labels{}

	case dhcpv4.OptionIPAddressLeaseTime, dhcpv4.OptionRenewTimeValue, dhcpv4.OptionRebindingTimeValue:
		// -1 (infinite) has no useful duration representation
		if len(data) == 4 && data[0] == 0xFF && data[1] == 0xFF && data[2] == 0xFF && data[3] == 0xFF {
			return nil
		}
		var dur dhcpv4.Duration
		return &dur

	case dhcpv4.OptionMaximumDHCPMessageSize:
		var u dhcpv4.Uint16
		return &u

	case dhcpv4.OptionVendorSpecificInformation:
		return vendorDecoder

	case dhcpv4.OptionClasslessStaticRoute:
		return &dhcpv4.Routes{}
	}

	return nil
}

// ToString returns the string represenation of data interpreted by code.
// Options without a known decoder are rendered as generic hex.
func ToString(code dhcpv4.OptionCode, data []byte, vendorDecoder dhcpv4.OptionDecoder) string {
	if d := decoderFor(code, data, vendorDecoder); d != nil && d.FromBytes(data) == nil {
		return d.String()
	}
	if code == dhcpv4.OptionIPAddressLeaseTime {
		return "infinite"
	}
	return dhcpv4.OptionGeneric{Data: data}.String()
}
