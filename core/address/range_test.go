package address

import (
	"net"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_Range_Len(t *testing.T) {
	cases := []struct {
		I Range
		E int
	}{
		{Range{Start: MustParseIP("10.0.0.0"), End: MustParseIP("10.0.0.0")}, 1},
		{Range{Start: MustParseIP("10.0.0.0"), End: MustParseIP("10.0.0.100")}, 101},
		{Range{Start: MustParseIP("10.0.0.0"), End: MustParseIP("10.0.1.100")}, 357},
		// invalid ranges
		{Range{Start: MustParseIP("10.0.1.100"), End: MustParseIP("10.0.0.1")}, 0},
	}

	for i, c := range cases {
		assert.Equal(t, c.E, c.I.Len(), "Test case #%d failed", i)
	}
}

func Test_Range_Contains(t *testing.T) {
	r := Range{
		Start: MustParseIP("192.168.0.100"),
		End:   MustParseIP("192.168.2.10"),
	}

	cases := []struct {
		IP string
		E  bool
	}{
		{"192.168.0.100", true},
		{"192.168.2.10", true},
		{"192.168.1.1", true},
		{"192.168.3.100", false},
		{"192.168.0.99", false},
	}

	for i, c := range cases {
		assert.Equal(t, c.E, r.Contains(MustParseIP(c.IP)), "Test case #%d failed", i)
	}
}

func Test_Range_Equality(t *testing.T) {
	a := Range{Type: ScopeDhcpOnly, Start: 10, End: 20}
	b := Range{Type: Excluded, Start: 10, End: 20}

	assert.False(t, a.Equal(b))
	assert.True(t, a.SpanEqual(b))
	assert.True(t, a.Equal(a))
}

func Test_ParseRange(t *testing.T) {
	cases := []struct {
		I   string
		E   Range
		Err bool
	}{
		{"192.168.0.10-192.168.0.20", Range{Start: MustParseIP("192.168.0.10"), End: MustParseIP("192.168.0.20")}, false},
		{"192.168.0.0/24", Range{Start: MustParseIP("192.168.0.0"), End: MustParseIP("192.168.0.255")}, false},
		{"192.168.0.20-192.168.0.10", Range{}, true},
		{"192.168.0.20", Range{}, true},
		{"foo-bar", Range{}, true},
	}

	for i, c := range cases {
		r, err := ParseRange(ScopeDhcpOnly, c.I)
		if c.Err {
			assert.Error(t, err, "Test case #%d failed", i)
			continue
		}
		require.NoError(t, err, "Test case #%d failed", i)
		assert.True(t, c.E.SpanEqual(r), "Test case #%d failed", i)
	}
}

func Test_Mask(t *testing.T) {
	m, err := ParseMask("255.255.255.0")
	require.NoError(t, err)
	assert.Equal(t, 24, m.SignificantBits())
	assert.Equal(t, MaskFromBits(24), m)

	m2, err := ParseMask("/20")
	require.NoError(t, err)
	assert.Equal(t, "255.255.240.0", m2.String())

	_, err = ParseMask("255.0.255.0")
	assert.Error(t, err)

	base := MustParseIP("192.168.1.77")
	full := m.RangeFor(base)
	assert.Equal(t, Excluded, full.Type)
	assert.Equal(t, "192.168.1.0-192.168.1.255", full.String())

	hosts := m.DhcpRangeFor(base)
	assert.Equal(t, "192.168.1.1-192.168.1.254", hosts.String())
	assert.Equal(t, ScopeDhcpOnly, hosts.Type)
}

func Test_Range_SmallestMask(t *testing.T) {
	cases := []struct {
		I string
		E int
	}{
		{"192.168.1.1-192.168.1.254", 24},
		{"10.0.0.1-10.0.3.254", 22},
		{"10.0.0.5-10.0.0.5", 32},
	}

	for i, c := range cases {
		r, err := ParseRange(ScopeDhcpOnly, c.I)
		require.NoError(t, err, "Test case #%d failed", i)
		assert.Equal(t, c.E, r.SmallestMask().SignificantBits(), "Test case #%d failed", i)
	}
}

func Test_Merge(t *testing.T) {
	r := func(s string) Range {
		x, err := ParseRange(Excluded, s)
		require.NoError(t, err)
		return x
	}

	merged := Merge([]Range{
		r("10.0.0.50-10.0.0.60"),
		r("10.0.0.1-10.0.0.10"),
		r("10.0.0.5-10.0.0.20"),
		r("10.0.0.21-10.0.0.30"),
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "10.0.0.1-10.0.0.30", merged[0].String())
	assert.Equal(t, "10.0.0.50-10.0.0.60", merged[1].String())
}

func Test_DeleteFrom(t *testing.T) {
	r := func(s string) Range {
		x, err := ParseRange(ScopeDhcpOnly, s)
		require.NoError(t, err)
		return x
	}

	ranges := []Range{r("10.0.0.1-10.0.0.100"), r("10.0.1.1-10.0.1.100")}

	res := DeleteFrom(r("10.0.0.50-10.0.1.10"), ranges)
	require.Len(t, res, 2)
	assert.Equal(t, "10.0.0.1-10.0.0.49", res[0].String())
	assert.Equal(t, "10.0.1.11-10.0.1.100", res[1].String())

	res = DeleteFrom(r("10.0.0.1-10.0.0.100"), ranges)
	require.Len(t, res, 1)
	assert.Equal(t, "10.0.1.1-10.0.1.100", res[0].String())
}

func Test_Ranges_Sort(t *testing.T) {
	ranges := Ranges{{Start: 30, End: 40}, {Start: 1, End: 2}, {Start: 10, End: 20}}
	sort.Sort(ranges)
	assert.Equal(t, IP(1), ranges[0].Start)
	assert.Equal(t, IP(30), ranges[2].Start)
	assert.True(t, ranges.Contains(15))
	assert.False(t, ranges.Contains(25))
}

func Test_IP_NetRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ip := IP(rapid.Uint32().Draw(t, "ip"))

		back, ok := FromNet(ip.Net())
		if !ok || back != ip {
			t.Fatalf("%s did not survive net.IP conversion", ip)
		}

		parsed, err := ParseIP(ip.String())
		if err != nil || parsed != ip {
			t.Fatalf("%s did not survive string conversion", ip)
		}
	})
}

func Test_Mask_RangeForContainsBase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := IP(rapid.Uint32().Draw(t, "base"))
		m := MaskFromBits(rapid.IntRange(0, 32).Draw(t, "bits"))

		full := m.RangeFor(base)
		if !full.Contains(base) {
			t.Fatalf("%s/%d does not contain its base", base, m.SignificantBits())
		}
		if !full.ContainsRange(m.DhcpRangeFor(base)) {
			t.Fatalf("host range escapes subnet")
		}
		if !full.ContainsRange(full) {
			t.Fatalf("ContainsRange is not reflexive")
		}
	})
}

func Test_Mask_DhcpRangeExcludesNetworkAndBroadcast(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := IP(rapid.Uint32().Draw(t, "base"))
		n := rapid.IntRange(0, 30).Draw(t, "bits")
		m := MaskFromBits(n)

		if got := MaskFromBits(m.SignificantBits()); got != m || m.SignificantBits() != n {
			t.Fatalf("/%d did not round trip, got %s", n, got)
		}

		full := m.RangeFor(base)
		hosts := m.DhcpRangeFor(base)
		if hosts.Start != full.Start+1 || hosts.End != full.End-1 {
			t.Fatalf("host range of %s/%d is %s, subnet is %s", base, n, hosts, full)
		}
		if hosts.Contains(m.Network(base)) || hosts.Contains(m.Broadcast(base)) {
			t.Fatalf("host range of %s/%d contains network or broadcast", base, n)
		}
	})
}

func Test_Mask_SignificantBits(t *testing.T) {
	for n := 0; n <= 32; n++ {
		m := MaskFromBits(n)
		assert.Equal(t, n, m.SignificantBits(), "Test case #%d failed", n)
		assert.Equal(t, m, MaskFromBits(m.SignificantBits()), "Test case #%d failed", n)
	}
}

func Test_Mask_DhcpRangeForPointToPoint(t *testing.T) {
	base := MustParseIP("10.1.2.3")

	cases := []struct {
		Bits  int
		Start string
		End   string
	}{
		{30, "10.1.2.1", "10.1.2.2"},
		{31, "10.1.2.2", "10.1.2.3"},
		{32, "10.1.2.3", "10.1.2.3"},
	}

	for i, c := range cases {
		m := MaskFromBits(c.Bits)
		hosts := m.DhcpRangeFor(base)

		assert.Equal(t, ScopeDhcpOnly, hosts.Type, "Test case #%d failed", i)
		assert.Equal(t, MustParseIP(c.Start), hosts.Start, "Test case #%d failed", i)
		assert.Equal(t, MustParseIP(c.End), hosts.End, "Test case #%d failed", i)

		if c.Bits >= 31 {
			assert.True(t, hosts.SpanEqual(m.RangeFor(base)), "Test case #%d failed", i)
		}
	}
}

func Test_FromNet_RejectsIPv6(t *testing.T) {
	_, ok := FromNet(net.ParseIP("fe80::1"))
	assert.False(t, ok)
}
