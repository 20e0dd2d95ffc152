package memory

import (
	"context"
	"testing"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/nextdhcp/dhcpadmin/core/protocol/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProtocol(t *testing.T) {
	factory := func(ctx context.Context) protocol.Protocol {
		return New(WithPageSize(1))
	}

	teardown := func(_ protocol.Protocol) {}

	tests.Run(t, factory, teardown)
}

func TestFactory(t *testing.T) {
	p, err := protocol.Open("memory", "test-factory", map[string][]string{
		"version":   {"5.2"},
		"page-size": {"3"},
	})
	require.NoError(t, err)

	s := p.(*Server)
	assert.Equal(t, uint32(5<<16|2), s.version())
	assert.Equal(t, 3, s.pageSize)

	again, err := protocol.Open("memory", "test-factory", nil)
	require.NoError(t, err)
	assert.Same(t, s, again, "connections to the same address must share the server")

	_, err = protocol.Open("memory", "test-factory-invalid", map[string][]string{"version": {"6"}})
	assert.Error(t, err)

	_, err = protocol.Open("memory", "test-factory-invalid", map[string][]string{"page-size": {"-1"}})
	assert.Error(t, err)
}

func TestPaging(t *testing.T) {
	ctx := context.Background()
	s := New(WithPageSize(2))

	for _, ip := range []string{"10.0.3.0", "10.0.1.0", "10.0.2.0", "10.0.4.0", "10.0.5.0"} {
		subnet := address.MustParseIP(ip)
		status, err := s.CreateSubnet(ctx, subnet, protocol.SubnetInfo{
			SubnetAddress: subnet,
			SubnetMask:    address.MaskFromBits(24),
		})
		require.NoError(t, protocol.Check("CreateSubnet", status, err))
	}

	var resume protocol.ResumeHandle
	page1, status, err := s.EnumSubnets(ctx, &resume, paging.MaxAll)
	require.NoError(t, err)
	assert.Equal(t, protocol.MoreData, status)
	assert.Equal(t, []address.IP{address.MustParseIP("10.0.1.0"), address.MustParseIP("10.0.2.0")}, page1)

	c := paging.New("EnumSubnets", paging.MaxAll, s.EnumSubnets)
	all, err := paging.Collect(ctx, c)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, 3, c.Calls())

	empty := New()
	resume = 0
	items, status, err := empty.EnumSubnets(ctx, &resume, paging.MaxAll)
	assert.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, protocol.NoMoreItems, status)
}

func TestVersionGating(t *testing.T) {
	ctx := context.Background()
	s := New(WithVersion(5, 0))

	subnet := address.MustParseIP("10.0.0.0")
	status, err := s.CreateSubnet(ctx, subnet, protocol.SubnetInfo{SubnetAddress: subnet, SubnetMask: address.MaskFromBits(24)})
	require.NoError(t, protocol.Check("CreateSubnet", status, err))

	_, status, _ = s.GetSubnetInfoVQ(ctx, subnet)
	assert.Equal(t, protocol.NotSupported, status)

	var resume protocol.ResumeHandle
	_, status, _ = s.EnumSubnetElementsV5(ctx, subnet, protocol.ElementReservedIPs, &resume, paging.MaxAll)
	assert.Equal(t, protocol.NotSupported, status)

	status, _ = s.AddSubnetElementV5(ctx, subnet, protocol.SubnetElementV5{})
	assert.Equal(t, protocol.NotSupported, status)

	_, status, _ = s.GetMibInfoV5(ctx)
	assert.Equal(t, protocol.NotSupported, status)

	_, status, _ = s.GetFailoverRelationship(ctx, "fo")
	assert.Equal(t, protocol.NotSupported, status)

	// the basic formats are always available
	_, status, err = s.GetSubnetInfo(ctx, subnet)
	assert.NoError(t, protocol.Check("GetSubnetInfo", status, err))
}

func TestScopeRangeIsReplaced(t *testing.T) {
	ctx := context.Background()
	s := New()

	subnet := address.MustParseIP("10.0.0.0")
	status, err := s.CreateSubnet(ctx, subnet, protocol.SubnetInfo{SubnetAddress: subnet, SubnetMask: address.MaskFromBits(24)})
	require.NoError(t, protocol.Check("CreateSubnet", status, err))

	add := func(et protocol.ElementType, start, end string) protocol.Status {
		status, err := s.AddSubnetElementV5(ctx, subnet, protocol.SubnetElementV5{
			Type:  et,
			Range: &protocol.BootpIPRange{Start: address.MustParseIP(start), End: address.MustParseIP(end)},
		})
		require.NoError(t, err)
		return status
	}

	assert.Equal(t, protocol.Success, add(protocol.ElementIPRangesDhcpOnly, "10.0.0.10", "10.0.0.20"))
	assert.Equal(t, protocol.Success, add(protocol.ElementIPRangesDhcpBootp, "10.0.0.5", "10.0.0.50"))
	assert.Equal(t, protocol.InvalidRange, add(protocol.ElementIPRangesDhcpOnly, "10.0.0.5", "10.0.1.50"))
	assert.Equal(t, protocol.InvalidRange, add(protocol.ElementExcludedIPRanges, "10.0.0.1", "10.0.0.2"))

	var resume protocol.ResumeHandle
	elems, status, err := s.EnumSubnetElementsV5(ctx, subnet, protocol.ElementIPRangesBootpOnly, &resume, paging.MaxAll)
	require.NoError(t, protocol.Check("EnumSubnetElementsV5", status, err))
	require.Len(t, elems, 1)
	assert.Equal(t, protocol.ElementIPRangesDhcpBootp, elems[0].Type)
	assert.Equal(t, address.MustParseIP("10.0.0.5"), elems[0].Range.Start)
}

func TestDeleteSubnetRemovesDependents(t *testing.T) {
	ctx := context.Background()
	s := New()

	subnet := address.MustParseIP("10.0.0.0")
	ip := address.MustParseIP("10.0.0.10")
	status, err := s.CreateSubnet(ctx, subnet, protocol.SubnetInfo{SubnetAddress: subnet, SubnetMask: address.MaskFromBits(24)})
	require.NoError(t, protocol.Check("CreateSubnet", status, err))

	status, err = s.CreateClientInfo(ctx, protocol.ClientInfo{Address: ip, HardwareAddress: []byte{1, 2, 3, 4, 5, 6}})
	require.NoError(t, protocol.Check("CreateClientInfo", status, err))

	status, _ = s.DeleteSubnet(ctx, subnet, protocol.NoForce)
	assert.Equal(t, protocol.ElementCantRemove, status)

	status, err = s.DeleteSubnet(ctx, subnet, protocol.ForceFull)
	require.NoError(t, protocol.Check("DeleteSubnet", status, err))

	_, status, _ = s.GetClientInfo(ctx, ip)
	assert.Equal(t, protocol.JetError, status)
}

func TestMibInfo(t *testing.T) {
	ctx := context.Background()
	s := New()

	subnet := address.MustParseIP("10.0.0.0")
	status, err := s.CreateSubnet(ctx, subnet, protocol.SubnetInfo{SubnetAddress: subnet, SubnetMask: address.MaskFromBits(24)})
	require.NoError(t, protocol.Check("CreateSubnet", status, err))

	status, err = s.AddSubnetElementV5(ctx, subnet, protocol.SubnetElementV5{
		Type:  protocol.ElementIPRangesDhcpOnly,
		Range: &protocol.BootpIPRange{Start: address.MustParseIP("10.0.0.1"), End: address.MustParseIP("10.0.0.10")},
	})
	require.NoError(t, protocol.Check("AddSubnetElementV5", status, err))

	status, err = s.CreateClientInfo(ctx, protocol.ClientInfo{Address: address.MustParseIP("10.0.0.2"), HardwareAddress: []byte{1, 2, 3, 4, 5, 6}})
	require.NoError(t, protocol.Check("CreateClientInfo", status, err))

	s.SetMibInfo(func(m *protocol.MibInfoV5) {
		m.Discovers = 42
	})

	info, status, err := s.GetMibInfoV5(ctx)
	require.NoError(t, protocol.Check("GetMibInfoV5", status, err))
	assert.Equal(t, uint32(42), info.Discovers)
	assert.Equal(t, uint32(1), info.Scopes)
	require.Len(t, info.ScopeInfo, 1)
	assert.Equal(t, uint32(1), info.ScopeInfo[0].InUse)
	assert.Equal(t, uint32(9), info.ScopeInfo[0].Free)
	assert.NotZero(t, info.ServerStartTime)
}

func TestMibInfo_overlappingExclusions(t *testing.T) {
	ctx := context.Background()
	s := New()

	subnet := address.MustParseIP("10.0.0.0")
	status, err := s.CreateSubnet(ctx, subnet, protocol.SubnetInfo{SubnetAddress: subnet, SubnetMask: address.MaskFromBits(24)})
	require.NoError(t, protocol.Check("CreateSubnet", status, err))

	add := func(et protocol.ElementType, start, end string) {
		status, err := s.AddSubnetElementV5(ctx, subnet, protocol.SubnetElementV5{
			Type:  et,
			Range: &protocol.BootpIPRange{Start: address.MustParseIP(start), End: address.MustParseIP(end)},
		})
		require.NoError(t, protocol.Check("AddSubnetElementV5", status, err))
	}

	add(protocol.ElementIPRangesDhcpOnly, "10.0.0.1", "10.0.0.100")
	add(protocol.ElementExcludedIPRanges, "10.0.0.1", "10.0.0.60")
	add(protocol.ElementExcludedIPRanges, "10.0.0.50", "10.0.0.90")

	// one lease inside an exclusion, one in the assignable part
	for _, ip := range []string{"10.0.0.5", "10.0.0.95"} {
		status, err = s.CreateClientInfo(ctx, protocol.ClientInfo{Address: address.MustParseIP(ip), HardwareAddress: []byte{1, 2, 3, 4, 5, 6}})
		require.NoError(t, protocol.Check("CreateClientInfo", status, err))
	}

	info, status, err := s.GetMibInfoV5(ctx)
	require.NoError(t, protocol.Check("GetMibInfoV5", status, err))
	require.Len(t, info.ScopeInfo, 1)
	assert.Equal(t, uint32(2), info.ScopeInfo[0].InUse)
	assert.Equal(t, uint32(9), info.ScopeInfo[0].Free)
}

func TestFailover(t *testing.T) {
	ctx := context.Background()
	s := New()

	subnet := address.MustParseIP("10.0.0.0")
	status, err := s.CreateSubnet(ctx, subnet, protocol.SubnetInfo{SubnetAddress: subnet, SubnetMask: address.MaskFromBits(24)})
	require.NoError(t, protocol.Check("CreateSubnet", status, err))

	rel := protocol.FailoverRelationship{
		Name:            "fo",
		PrimaryServer:   address.MustParseIP("192.168.0.1"),
		SecondaryServer: address.MustParseIP("192.168.0.2"),
		Scopes:          []address.IP{subnet},
	}
	require.NoError(t, s.AddFailoverRelationship(rel))
	assert.Error(t, s.AddFailoverRelationship(rel))

	got, status, err := s.GetSubnetFailoverRelationship(ctx, subnet)
	require.NoError(t, protocol.Check("GetSubnetFailoverRelationship", status, err))
	assert.Equal(t, "fo", got.Name)

	// returned values are copies
	got.Scopes[0] = 0
	again, _, _ := s.GetFailoverRelationship(ctx, "fo")
	assert.Equal(t, subnet, again.Scopes[0])
}

func TestCanceledContext(t *testing.T) {
	s := New()

	// hold the lock so TryLock has to wait for the context
	s.l.Lock()
	defer s.l.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, _, err := s.GetVersion(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
