package admin

import (
	"context"
	"testing"
	"time"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/hwaddr"
	"github.com/nextdhcp/dhcpadmin/core/paging"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/nextdhcp/dhcpadmin/core/protocol/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mac(s string) hwaddr.Address {
	return hwaddr.MustParse(s)
}

func TestCreateClient(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t)
	sc := newScope(t, s)

	expires := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	c, err := CreateClient(ctx, sc, ClientSpec{
		Address:         first,
		HardwareAddress: mac("00:11:22:33:44:55"),
		Name:            "printer",
		Comment:         "2nd floor",
		LeaseExpires:    expires,
	})
	require.NoError(t, err)

	rec := c.Record()
	assert.Equal(t, first, rec.Address)
	assert.Equal(t, sc.Mask(), rec.SubnetMask)
	assert.Equal(t, "printer", rec.Name)
	assert.Equal(t, "2nd floor", rec.Comment)
	assert.True(t, expires.Equal(rec.LeaseExpiresUTC))
	assert.True(t, rec.Expires())
	assert.Equal(t, protocol.ClientDHCP, rec.Type)
	assert.Equal(t, AddressActive, rec.AddressState)
	assert.Equal(t, NoQuarantine, rec.QuarantineStatus)
	assert.Equal(t, serverIP, rec.OwnerHost.Address)

	_, err = CreateClient(ctx, sc, ClientSpec{Address: first, HardwareAddress: mac("00:11:22:33:44:66")})
	assert.True(t, protocol.IsStatus(err, protocol.ClientExists))
}

func TestCreateClient_noExpiry(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t)
	sc := newScope(t, s)

	c, err := CreateClient(ctx, sc, ClientSpec{Address: first, HardwareAddress: mac("00:11:22:33:44:55")})
	require.NoError(t, err)
	assert.False(t, c.Record().Expires())
	assert.Equal(t, NoExpiry, c.Record().LeaseExpiresUTC)
}

func TestCreateClient_outOfRange(t *testing.T) {
	ctx := context.Background()
	s, mem := newServer(t)
	sc := newScope(t, s)

	before := mem.TotalCalls()
	_, err := CreateClient(ctx, sc, ClientSpec{Address: address.MustParseIP("10.0.0.250"), HardwareAddress: mac("00:11:22:33:44:55")})
	assert.True(t, IsOutOfRange(err))
	assert.Equal(t, before, mem.TotalCalls())
}

func TestCreateClient_basicFormat(t *testing.T) {
	ctx := context.Background()
	s, mem := newServer(t, memory.WithVersion(5, 0))
	sc := newScope(t, s)

	c, err := CreateClient(ctx, sc, ClientSpec{Address: first, HardwareAddress: mac("00:11:22:33:44:55"), Name: "legacy"})
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Calls("CreateClientInfo"))

	rec := c.Record()
	assert.Equal(t, "legacy", rec.Name)
	assert.Equal(t, protocol.ClientUnspecified, rec.Type)
	assert.Equal(t, AddressStateUnknown, rec.AddressState)
	assert.Equal(t, NameProtectionUnknown, rec.NameProtectionState)
	assert.Equal(t, DNSStateUnknown, rec.DNSState)
	assert.Equal(t, NoQuarantineInformation, rec.QuarantineStatus)
	assert.Equal(t, NoExpiry, rec.ProbationEnds)
	assert.False(t, rec.QuarantineCapable)
}

func TestClient_notFound(t *testing.T) {
	s, _ := newServer(t)
	newScope(t, s)

	c, err := s.Client(context.Background(), address.MustParseIP("10.0.0.99"))
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestClientSetters(t *testing.T) {
	ctx := context.Background()
	s, mem := newServer(t)
	sc := newScope(t, s)

	c, err := CreateClient(ctx, sc, ClientSpec{Address: first, HardwareAddress: mac("00:11:22:33:44:55"), Name: "a"})
	require.NoError(t, err)

	require.NoError(t, c.SetName(ctx, "b"))
	require.NoError(t, c.SetComment(ctx, "comment"))
	require.NoError(t, c.SetHardwareAddress(ctx, mac("00:11:22:33:44:66")))
	assert.Equal(t, 3, mem.Calls("SetClientInfo"))

	require.NoError(t, c.SetName(ctx, "b"))
	require.NoError(t, c.SetComment(ctx, "comment"))
	require.NoError(t, c.SetHardwareAddress(ctx, mac("00:11:22:33:44:66")))
	assert.Equal(t, 3, mem.Calls("SetClientInfo"), "unchanged values must not be sent")

	tooLong := hwaddr.FromWire(hwaddr.Ethernet, make([]byte, hwaddr.MaxLength+1))
	assert.True(t, IsValidation(c.SetHardwareAddress(ctx, tooLong)))

	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, "b", c.Name())
	assert.Equal(t, "comment", c.Comment())
	assert.Equal(t, mac("00:11:22:33:44:66"), c.HardwareAddress())
}

func TestClientDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t)
	sc := newScope(t, s)

	c, err := CreateClient(ctx, sc, ClientSpec{Address: first, HardwareAddress: mac("00:11:22:33:44:55")})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx))
	assert.True(t, protocol.IsStatus(c.Refresh(ctx), protocol.JetError))

	found, err := s.Client(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestClients(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t, memory.WithPageSize(2))
	sc := newScope(t, s)

	for i := 0; i < 5; i++ {
		hw := mac("00:11:22:33:44:55")
		hw.Word1 += uint64(i) << 16
		_, err := CreateClient(ctx, sc, ClientSpec{Address: first + address.IP(i), HardwareAddress: hw})
		require.NoError(t, err)
	}

	cur, err := sc.Clients()
	require.NoError(t, err)
	clients, err := paging.Collect(ctx, cur)
	require.NoError(t, err)
	assert.Len(t, clients, 5)
	assert.Equal(t, 3, cur.Calls())

	all, err := s.Clients()
	require.NoError(t, err)
	n := 0
	require.NoError(t, paging.Each(ctx, all, func(*Client) error {
		n++
		return nil
	}))
	assert.Equal(t, 5, n)
}

func TestConvertToReservation(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t)
	sc := newScope(t, s)

	c, err := CreateClient(ctx, sc, ClientSpec{Address: first, HardwareAddress: mac("00:11:22:33:44:55")})
	require.NoError(t, err)

	r, err := c.ConvertToReservation(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, r.Address())
	assert.Equal(t, protocol.ClientBoth, r.AllowedClientTypes())

	found, err := sc.Reservation(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, c.HardwareAddress(), found.HardwareAddress())
}

func TestClientRecordAddressState(t *testing.T) {
	rec := clientFromVQ(protocol.ClientInfoVQ{
		AddressState: uint8(AddressDeclined) | uint8(DHCIDClient)<<2 | uint8(DNSUnregistered)<<4,
		Status:       uint32(Probation),
	})

	assert.Equal(t, AddressDeclined, rec.AddressState)
	assert.Equal(t, DHCIDClient, rec.NameProtectionState)
	assert.Equal(t, DNSUnregistered, rec.DNSState)
	assert.Equal(t, Probation, rec.QuarantineStatus)
}
