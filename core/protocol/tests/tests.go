// Package tests contains a test suite for protocol drivers.
package tests

import (
	"context"
	"testing"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/option"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	// ProtocolFactory should return a connection to an empty server that
	// supports the extended formats and failover
	ProtocolFactory func(ctx context.Context) protocol.Protocol

	// TeardownFunc is invoked after each test case
	TeardownFunc func(protocol.Protocol)
)

var (
	subnet = address.MustParseIP("10.1.0.0")
	mask   = address.MaskFromBits(24)
	first  = address.MustParseIP("10.1.0.10")
	last   = address.MustParseIP("10.1.0.200")
	hw     = []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
)

// Run executes a test suite to ensure protocol implementations behave
// like a DHCP server
func Run(t *testing.T, factory ProtocolFactory, teardown TeardownFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := factory(ctx)
	require.NotNil(t, p)
	defer teardown(p)

	subnets := func() []address.IP {
		c := paging.New("EnumSubnets", paging.MaxAll, p.EnumSubnets)
		res, err := paging.Collect(ctx, c)
		require.NoError(t, err)
		return res
	}

	elements := func(et protocol.ElementType) []protocol.SubnetElementV5 {
		step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]protocol.SubnetElementV5, protocol.Status, error) {
			return p.EnumSubnetElementsV5(ctx, subnet, et, resume, max)
		}
		res, err := paging.Collect(ctx, paging.New("EnumSubnetElementsV5", paging.MaxAll, step))
		require.NoError(t, err)
		return res
	}

	t.Run("GetVersion", func(t *testing.T) {
		major, minor, status, err := p.GetVersion(ctx)
		require.NoError(t, protocol.Check("GetVersion", status, err))
		assert.GreaterOrEqual(t, major<<16|minor, uint32(6<<16|2))
	})

	t.Run("CreateSubnet", func(t *testing.T) {
		assert.Empty(t, subnets())

		info := protocol.SubnetInfo{
			SubnetAddress: subnet,
			SubnetMask:    mask,
			Name:          "lab",
			State:         protocol.SubnetDisabled,
		}
		status, err := p.CreateSubnet(ctx, subnet, info)
		assert.NoError(t, protocol.Check("CreateSubnet", status, err))

		status, err = p.CreateSubnet(ctx, subnet, info)
		assert.NoError(t, err)
		assert.Equal(t, protocol.SubnetExists, status)

		assert.Equal(t, []address.IP{subnet}, subnets())
	})

	t.Run("SubnetInfo", func(t *testing.T) {
		info, status, err := p.GetSubnetInfoVQ(ctx, subnet)
		require.NoError(t, protocol.Check("GetSubnetInfoVQ", status, err))
		assert.Equal(t, "lab", info.Name)
		assert.Equal(t, mask, info.SubnetMask)

		info.Comment = "updated"
		info.QuarantineOn = 1
		status, err = p.SetSubnetInfoVQ(ctx, subnet, *info)
		require.NoError(t, protocol.Check("SetSubnetInfoVQ", status, err))

		basic, status, err := p.GetSubnetInfo(ctx, subnet)
		require.NoError(t, protocol.Check("GetSubnetInfo", status, err))
		assert.Equal(t, "updated", basic.Comment)

		_, status, err = p.GetSubnetInfo(ctx, address.MustParseIP("10.99.0.0"))
		assert.NoError(t, err)
		assert.Equal(t, protocol.SubnetNotPresent, status)
	})

	t.Run("Ranges", func(t *testing.T) {
		status, err := p.AddSubnetElementV5(ctx, subnet, protocol.SubnetElementV5{
			Type:  protocol.ElementIPRangesDhcpOnly,
			Range: &protocol.BootpIPRange{Start: first, End: last},
		})
		require.NoError(t, protocol.Check("AddSubnetElementV5", status, err))

		ranges := elements(protocol.ElementIPRangesDhcpBootp)
		require.Len(t, ranges, 1)
		assert.Equal(t, protocol.ElementIPRangesDhcpOnly, ranges[0].Type)
		assert.Equal(t, first, ranges[0].Range.Start)
		assert.Equal(t, last, ranges[0].Range.End)

		excl := protocol.IPRange{Start: address.MustParseIP("10.1.0.50"), End: address.MustParseIP("10.1.0.60")}
		status, err = p.AddSubnetElementV5(ctx, subnet, protocol.SubnetElementV5{
			Type:  protocol.ElementExcludedIPRanges,
			Range: &protocol.BootpIPRange{Start: excl.Start, End: excl.End},
		})
		require.NoError(t, protocol.Check("AddSubnetElementV5", status, err))
		assert.Len(t, elements(protocol.ElementExcludedIPRanges), 1)

		status, err = p.RemoveSubnetElement(ctx, subnet, protocol.SubnetElement{
			Type:  protocol.ElementExcludedIPRanges,
			Range: &excl,
		}, protocol.ForceFull)
		require.NoError(t, protocol.Check("RemoveSubnetElement", status, err))
		assert.Empty(t, elements(protocol.ElementExcludedIPRanges))
	})

	t.Run("Reservations", func(t *testing.T) {
		ip := address.MustParseIP("10.1.0.20")
		elem := protocol.SubnetElementV5{
			Type: protocol.ElementReservedIPs,
			Reservation: &protocol.IPReservationV4{
				Address:            ip,
				HardwareAddress:    hw,
				AllowedClientTypes: uint8(protocol.ClientDHCP),
			},
		}
		status, err := p.AddSubnetElementV5(ctx, subnet, elem)
		require.NoError(t, protocol.Check("AddSubnetElementV5", status, err))

		status, err = p.AddSubnetElementV5(ctx, subnet, elem)
		assert.NoError(t, err)
		assert.NotEqual(t, protocol.Success, status, "reserving an address twice must fail")

		res := elements(protocol.ElementReservedIPs)
		require.Len(t, res, 1)
		assert.Equal(t, hw, res[0].Reservation.HardwareAddress)
		assert.Equal(t, uint8(protocol.ClientDHCP), res[0].Reservation.AllowedClientTypes)

		value := option.Value{OptionID: 3, Elements: option.Elements{option.IPAddress(address.MustParseIP("10.1.0.1"))}}
		status, err = p.SetOptionValue(ctx, protocol.ReservationOptions(subnet, ip), value)
		require.NoError(t, protocol.Check("SetOptionValue", status, err))

		status, err = p.RemoveSubnetElement(ctx, subnet, protocol.SubnetElement{
			Type:        protocol.ElementReservedIPs,
			Reservation: &protocol.IPReservation{Address: ip, HardwareAddress: hw},
		}, protocol.ForceFull)
		require.NoError(t, protocol.Check("RemoveSubnetElement", status, err))
		assert.Empty(t, elements(protocol.ElementReservedIPs))
	})

	t.Run("Options", func(t *testing.T) {
		scope := protocol.SubnetOptions(subnet)

		_, status, err := p.GetOptionValue(ctx, 6, scope)
		assert.NoError(t, err)
		assert.Equal(t, protocol.OptionNotPresent, status)

		value := option.Value{OptionID: 6, Elements: option.Elements{
			option.IPAddress(address.MustParseIP("10.1.0.2")),
			option.IPAddress(address.MustParseIP("10.1.0.3")),
		}}
		status, err = p.SetOptionValue(ctx, scope, value)
		require.NoError(t, protocol.Check("SetOptionValue", status, err))

		got, status, err := p.GetOptionValue(ctx, 6, scope)
		require.NoError(t, protocol.Check("GetOptionValue", status, err))
		assert.True(t, value.Equal(*got))

		step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]protocol.OptionValue, protocol.Status, error) {
			return p.EnumOptionValues(ctx, scope, resume, max)
		}
		all, err := paging.Collect(ctx, paging.New("EnumOptionValues", paging.MaxAll, step))
		require.NoError(t, err)
		assert.Len(t, all, 1)

		status, err = p.RemoveOptionValue(ctx, 6, scope)
		require.NoError(t, protocol.Check("RemoveOptionValue", status, err))

		_, status, err = p.GetOptionValue(ctx, 6, scope)
		assert.NoError(t, err)
		assert.Equal(t, protocol.OptionNotPresent, status)
	})

	t.Run("Clients", func(t *testing.T) {
		ip := address.MustParseIP("10.1.0.30")

		_, status, err := p.GetClientInfo(ctx, ip)
		assert.NoError(t, err)
		assert.Equal(t, protocol.JetError, status)

		status, err = p.CreateClientInfoVQ(ctx, protocol.ClientInfoVQ{
			ClientInfo: protocol.ClientInfo{
				Address:         ip,
				SubnetMask:      mask,
				HardwareAddress: hw,
				Name:            "host-1",
			},
			ClientType: protocol.ClientDHCP,
		})
		require.NoError(t, protocol.Check("CreateClientInfoVQ", status, err))

		info, status, err := p.GetClientInfoVQ(ctx, ip)
		require.NoError(t, protocol.Check("GetClientInfoVQ", status, err))
		assert.Equal(t, "host-1", info.Name)

		info.Name = "host-2"
		status, err = p.SetClientInfo(ctx, info.ClientInfo)
		require.NoError(t, protocol.Check("SetClientInfo", status, err))

		step := func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]protocol.ClientInfo, protocol.Status, error) {
			return p.EnumSubnetClients(ctx, subnet, resume, max)
		}
		all, err := paging.Collect(ctx, paging.New("EnumSubnetClients", paging.MaxClients, step))
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "host-2", all[0].Name)

		status, err = p.DeleteClientInfo(ctx, ip)
		require.NoError(t, protocol.Check("DeleteClientInfo", status, err))

		status, err = p.DeleteClientInfo(ctx, ip)
		assert.NoError(t, err)
		assert.Equal(t, protocol.JetError, status)
	})

	t.Run("DelayOffer", func(t *testing.T) {
		status, err := p.SetSubnetDelayOffer(ctx, subnet, 250)
		require.NoError(t, protocol.Check("SetSubnetDelayOffer", status, err))

		ms, status, err := p.GetSubnetDelayOffer(ctx, subnet)
		require.NoError(t, protocol.Check("GetSubnetDelayOffer", status, err))
		assert.Equal(t, uint16(250), ms)
	})

	t.Run("Failover", func(t *testing.T) {
		_, status, err := p.GetFailoverRelationship(ctx, "does-not-exist")
		assert.NoError(t, err)
		assert.Equal(t, protocol.FailoverRelationshipDoesNotExist, status)

		_, status, err = p.GetSubnetFailoverRelationship(ctx, subnet)
		assert.NoError(t, err)
		assert.Equal(t, protocol.FailoverScopeNotInRelationship, status)
	})

	t.Run("DeleteSubnet", func(t *testing.T) {
		status, err := p.DeleteSubnet(ctx, subnet, protocol.ForceFull)
		require.NoError(t, protocol.Check("DeleteSubnet", status, err))
		assert.Empty(t, subnets())

		status, err = p.DeleteSubnet(ctx, subnet, protocol.ForceFull)
		assert.NoError(t, err)
		assert.Equal(t, protocol.SubnetNotPresent, status)
	})
}
