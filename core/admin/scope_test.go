package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/option"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/nextdhcp/dhcpadmin/core/protocol/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func TestCreateScope(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t)

	spec := NewScopeSpec("lab", first, last)
	spec.Comment = "test network"
	spec.TimeDelayOffer = 200 * time.Millisecond

	sc, err := CreateScope(ctx, s, spec)
	require.NoError(t, err)

	assert.Equal(t, subnet, sc.Address())
	assert.Equal(t, address.MaskFromBits(24), sc.Mask())
	assert.Equal(t, "lab", sc.Name())
	assert.Equal(t, "test network", sc.Comment())
	assert.Equal(t, ScopeDisabled, sc.State())
	assert.Equal(t, address.Range{Type: address.ScopeDhcpOnly, Start: first, End: last}, sc.IPRange())
	assert.Equal(t, serverIP, sc.Record().PrimaryHost.Address)

	delay, err := sc.TimeDelayOffer(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, delay)

	lease, err := sc.LeaseDuration(ctx)
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.Equal(t, DefaultLeaseDuration, *lease)

	_, err = CreateScope(ctx, s, spec)
	assert.True(t, protocol.IsStatus(err, protocol.SubnetExists))
}

func TestCreateScope_bootp(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t)

	spec := NewScopeSpec("bootp", first, last)
	spec.IPRange.Type = address.ScopeDhcpAndBootp
	spec.Mask = address.MaskFromBits(16)

	sc, err := CreateScope(ctx, s, spec)
	require.NoError(t, err)
	assert.Equal(t, address.MaskFromBits(16), sc.Mask())
	assert.Equal(t, address.ScopeDhcpAndBootp, sc.IPRange().Type)
}

func TestCreateScope_validation(t *testing.T) {
	ctx := context.Background()
	s, mem := newServer(t)

	cases := []struct {
		name     string
		modify   func(*ScopeSpec)
		validate func(error) bool
	}{
		{"empty name", func(s *ScopeSpec) { s.Name = " " }, IsValidation},
		{"short lease", func(s *ScopeSpec) { s.LeaseDuration = durationPtr(30 * time.Second) }, IsValidation},
		{"negative delay", func(s *ScopeSpec) { s.TimeDelayOffer = -time.Millisecond }, IsValidation},
		{"long delay", func(s *ScopeSpec) { s.TimeDelayOffer = 1001 * time.Millisecond }, IsValidation},
		{"excluded range", func(s *ScopeSpec) { s.IPRange.Type = address.Excluded }, IsValidation},
		{"reversed range", func(s *ScopeSpec) { s.IPRange.Start, s.IPRange.End = last, first }, IsValidation},
		{"non contiguous mask", func(s *ScopeSpec) { s.Mask = address.Mask(0xFF00FF00) }, IsValidation},
		{"network address", func(s *ScopeSpec) { s.IPRange.Start = subnet }, IsOutOfRange},
		{"broadcast address", func(s *ScopeSpec) { s.IPRange.End = address.MustParseIP("10.0.0.255") }, IsOutOfRange},
		{"exceeds mask", func(s *ScopeSpec) {
			s.IPRange.End = address.MustParseIP("10.0.1.20")
			s.Mask = address.MaskFromBits(24)
		}, IsOutOfRange},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			spec := NewScopeSpec("lab", first, last)
			c.modify(&spec)

			before := mem.TotalCalls()
			_, err := CreateScope(ctx, s, spec)
			require.Error(t, err)
			assert.True(t, c.validate(err), err.Error())
			assert.Equal(t, before, mem.TotalCalls(), "no remote call expected")
		})
	}
}

func TestCreateScope_unlimitedLease(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t)

	spec := NewScopeSpec("lab", first, last)
	spec.LeaseDuration = nil

	sc, err := CreateScope(ctx, s, spec)
	require.NoError(t, err)

	v, err := sc.Options().Get(ctx, option.LeaseTime)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, int32(-1), v.Elements[0].Int32())

	lease, err := sc.LeaseDuration(ctx)
	require.NoError(t, err)
	assert.Nil(t, lease)
}

func TestScopeSetters(t *testing.T) {
	ctx := context.Background()
	s, mem := newServer(t)
	sc := newScope(t, s)

	require.NoError(t, sc.SetName(ctx, "renamed"))
	require.NoError(t, sc.SetComment(ctx, "comment"))
	require.NoError(t, sc.Activate(ctx))
	assert.Equal(t, ScopeEnabled, sc.State())

	calls := mem.Calls("SetSubnetInfoVQ")
	assert.Equal(t, 3, calls)

	// unchanged values are not sent again
	require.NoError(t, sc.SetName(ctx, "renamed"))
	require.NoError(t, sc.SetComment(ctx, "comment"))
	require.NoError(t, sc.Activate(ctx))
	assert.Equal(t, calls, mem.Calls("SetSubnetInfoVQ"))

	assert.True(t, IsValidation(sc.SetName(ctx, "")))

	require.NoError(t, sc.Refresh(ctx))
	assert.Equal(t, "renamed", sc.Name())
	assert.Equal(t, "comment", sc.Comment())
	assert.Equal(t, ScopeEnabled, sc.State())

	require.NoError(t, sc.Deactivate(ctx))
	require.NoError(t, sc.Refresh(ctx))
	assert.Equal(t, ScopeDisabled, sc.State())
}

func TestScopeSetters_basicFormat(t *testing.T) {
	ctx := context.Background()
	s, mem := newServer(t, memory.WithVersion(5, 0))
	sc := newScope(t, s)

	require.NoError(t, sc.SetName(ctx, "renamed"))
	assert.Equal(t, 1, mem.Calls("SetSubnetInfo"))
	assert.Equal(t, 0, mem.Calls("SetSubnetInfoVQ"))
	assert.Equal(t, address.ScopeDhcpOnly, sc.IPRange().Type)
}

func TestSetIPRange(t *testing.T) {
	ctx := context.Background()
	s, mem := newServer(t)
	sc := newScope(t, s)

	calls := mem.Calls("AddSubnetElementV5")
	require.NoError(t, sc.SetIPRange(ctx, sc.IPRange()))
	assert.Equal(t, calls, mem.Calls("AddSubnetElementV5"))

	r := address.Range{Type: address.ScopeDhcpOnly, Start: address.MustParseIP("10.0.0.1"), End: address.MustParseIP("10.0.0.254")}
	require.NoError(t, sc.SetIPRange(ctx, r))
	require.NoError(t, sc.Refresh(ctx))
	assert.Equal(t, r, sc.IPRange())

	err := sc.SetIPRange(ctx, address.Range{Type: address.ScopeDhcpOnly, Start: subnet, End: address.MustParseIP("10.0.0.254")})
	assert.True(t, IsOutOfRange(err))

	err = sc.SetIPRange(ctx, address.Range{Type: address.Excluded, Start: first, End: last})
	assert.True(t, IsValidation(err))
}

func TestTimeDelayOffer(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t)
	sc := newScope(t, s)

	d, err := sc.TimeDelayOffer(ctx)
	require.NoError(t, err)
	assert.Zero(t, d)

	require.NoError(t, sc.SetTimeDelayOffer(ctx, MaxTimeDelayOffer))
	d, err = sc.TimeDelayOffer(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	assert.True(t, IsValidation(sc.SetTimeDelayOffer(ctx, 2*time.Second)))
}

func TestLeaseDuration(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t)
	sc := newScope(t, s)

	require.NoError(t, sc.SetLeaseDuration(ctx, durationPtr(time.Hour)))
	d, err := sc.LeaseDuration(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, *d)

	assert.True(t, IsValidation(sc.SetLeaseDuration(ctx, durationPtr(time.Second))))

	require.NoError(t, sc.Options().Remove(ctx, option.LeaseTime))
	d, err = sc.LeaseDuration(ctx)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestLeaseDuration_statuses(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		value   *option.Value
		status  protocol.Status
		err     error
		expect  *time.Duration
		isError bool
	}{
		{name: "file not found", status: protocol.FileNotFound},
		{name: "not present", status: protocol.OptionNotPresent},
		{name: "unlimited", value: &option.Value{OptionID: option.LeaseTime, Elements: option.Elements{option.SignedDWord(-1)}}},
		{name: "wrong type", value: &option.Value{OptionID: option.LeaseTime, Elements: option.Elements{option.String("1h")}}},
		{name: "one day", value: &option.Value{OptionID: option.LeaseTime, Elements: option.Elements{option.DWord(86400)}}, expect: durationPtr(24 * time.Hour)},
		{name: "other status", status: protocol.SubnetNotPresent, isError: true},
		{name: "transport", err: errors.New("broken pipe"), isError: true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, m := newMockServer(t, 6, 3)
			m.On("GetOptionValue", option.LeaseTime, protocol.SubnetOptions(subnet)).Return(c.value, c.status, c.err)

			sc := &Scope{server: s, record: ScopeRecord{SubnetAddress: subnet}, l: s.l}
			d, err := sc.LeaseDuration(ctx)
			if c.isError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expect, d)
			m.AssertExpectations(t)
		})
	}
}

func TestDeleteScope(t *testing.T) {
	ctx := context.Background()
	s, _ := newServer(t)
	sc := newScope(t, s)

	require.NoError(t, sc.Delete(ctx, true))

	_, err := s.Scope(ctx, subnet)
	assert.True(t, protocol.IsStatus(err, protocol.SubnetNotPresent))

	assert.True(t, protocol.IsStatus(sc.Delete(ctx, false), protocol.SubnetNotPresent))
}

func TestScopeWithoutRange(t *testing.T) {
	ctx := context.Background()
	s, mem := newServer(t)

	status, err := mem.CreateSubnet(ctx, subnet, protocol.SubnetInfo{SubnetAddress: subnet, SubnetMask: address.MaskFromBits(24), Name: "bare"})
	require.NoError(t, protocol.Check("CreateSubnet", status, err))

	sc, err := s.Scope(ctx, subnet)
	require.NoError(t, err)
	assert.Equal(t, "bare", sc.Name())
	assert.Equal(t, address.Range{}, sc.IPRange())
}
