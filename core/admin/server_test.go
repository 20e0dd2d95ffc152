package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/nextdhcp/dhcpadmin/core/protocol/memory"
	"github.com/nextdhcp/dhcpadmin/core/protocol/mockproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	serverIP = address.MustParseIP("192.168.0.1")
	subnet   = address.MustParseIP("10.0.0.0")
	first    = address.MustParseIP("10.0.0.10")
	last     = address.MustParseIP("10.0.0.200")
)

func newServer(t *testing.T, opts ...memory.Option) (*Server, *memory.Server) {
	mem := memory.New(opts...)
	s, err := Connect(context.Background(), mem, serverIP, "dhcp1")
	require.NoError(t, err)
	return s, mem
}

func newScope(t *testing.T, s *Server) *Scope {
	sc, err := CreateScope(context.Background(), s, NewScopeSpec("lab", first, last))
	require.NoError(t, err)
	return sc
}

func newMockServer(t *testing.T, major, minor uint32) (*Server, *mockproto.MockProtocol) {
	m := &mockproto.MockProtocol{}
	m.On("GetVersion").Return(major, minor, protocol.Success, nil)

	s, err := Connect(context.Background(), m, serverIP, "mock")
	require.NoError(t, err)
	return s, m
}

func TestConnect(t *testing.T) {
	s, _ := newServer(t, memory.WithVersion(6, 1))

	assert.Equal(t, Version2008R2, s.Version())
	assert.Equal(t, "6.1", s.Version().String())
	assert.Equal(t, serverIP, s.Address())
	assert.Equal(t, "dhcp1", s.Name())
	assert.Equal(t, "dhcp1 (192.168.0.1)", s.String())
	assert.True(t, s.IsCompatible(Version2008))
	assert.False(t, s.IsCompatible(Version2012))
}

func TestConnect_error(t *testing.T) {
	m := &mockproto.MockProtocol{}
	m.On("GetVersion").Return(uint32(0), uint32(0), protocol.Success, errors.New("connection refused"))

	_, err := Connect(context.Background(), m, serverIP, "")
	assert.Error(t, err)
	m.AssertExpectations(t)
}

func TestServers(t *testing.T) {
	dir := memory.Directory{
		{Address: address.MustParseIP("192.168.0.1"), Name: "dhcp1"},
		{Address: address.MustParseIP("192.168.0.2"), Name: "dhcp2"},
	}

	entries, err := Servers(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestScopes(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t, memory.WithPageSize(1))

	scopes, err := s.Scopes(ctx)
	require.NoError(t, err)
	assert.Empty(t, scopes)

	for _, base := range []string{"10.0.2.0", "10.0.1.0"} {
		ip := address.MustParseIP(base)
		_, err := CreateScope(ctx, s, NewScopeSpec("scope "+base, ip+1, ip+100))
		require.NoError(t, err)
	}

	scopes, err = s.Scopes(ctx)
	require.NoError(t, err)
	require.Len(t, scopes, 2)
	assert.Equal(t, address.MustParseIP("10.0.1.0"), scopes[0].Address())
	assert.Equal(t, "scope 10.0.1.0", scopes[0].Name())
	assert.Equal(t, address.MustParseIP("10.0.1.1"), scopes[0].IPRange().Start)
}

func TestScopes_endpointNotRegistered(t *testing.T) {
	s, m := newMockServer(t, 6, 3)
	m.On("EnumSubnets", mock.Anything, mock.Anything).Return(nil, protocol.EndpointNotRegistered, nil)

	scopes, err := s.Scopes(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, scopes)
	m.AssertExpectations(t)
}

func TestUnsupported(t *testing.T) {
	ctx := context.Background()

	old, mem := newServer(t, memory.WithVersion(4, 0))
	before := mem.TotalCalls()

	_, err := old.Clients()
	assert.True(t, IsUnsupported(err))

	_, err = old.Client(ctx, first)
	assert.True(t, IsUnsupported(err))

	_, err = old.MibInfoV4(ctx)
	assert.True(t, IsUnsupported(err))

	_, err = old.FailoverRelationships(ctx)
	assert.True(t, IsUnsupported(err))
	assert.EqualError(t, err, "DHCP server v4.0 does not support failover")

	assert.Equal(t, before, mem.TotalCalls(), "unsupported calls must not reach the server")
}

func TestMibInfo(t *testing.T) {
	ctx := context.Background()
	s, mem := newServer(t)
	sc := newScope(t, s)

	_, err := CreateClient(ctx, sc, ClientSpec{Address: first, HardwareAddress: mac("00:11:22:33:44:55")})
	require.NoError(t, err)

	mem.SetMibInfo(func(m *protocol.MibInfoV5) {
		m.Acks = 7
	})

	info, err := s.MibInfoV4(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), info.Acks)
	require.NotNil(t, info.NumAddressesInUse)
	assert.Equal(t, uint32(1), *info.NumAddressesInUse)
	assert.Equal(t, uint32(190), *info.NumAddressesFree)
	assert.False(t, info.ServerStarted.IsZero())

	v6, err := s.MibInfoV6(ctx)
	require.NoError(t, err)
	assert.Nil(t, v6.NumAddressesInUse, "no scope counters were reported")
}
