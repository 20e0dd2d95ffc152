package hwaddr

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_Parse(t *testing.T) {
	cases := []struct {
		I   string
		E   string
		Len int
		Err bool
	}{
		{"AA:BB:CC:DD:EE:FF", "aa:bb:cc:dd:ee:ff", 6, false},
		{"aa-bb-cc-dd-ee-ff", "aa:bb:cc:dd:ee:ff", 6, false},
		{"AABBCCDDEEFF", "aa:bb:cc:dd:ee:ff", 6, false},
		{"00112233445566778899aabbccddeeff", "00:11:22:33:44:55:66:77:88:99:aa:bb:cc:dd:ee:ff", 16, false},
		{"01", "01", 1, false},
		// odd length contiguous
		{"AABBCCDDEEF", "", 0, true},
		// non-hex runs
		{"AA:BB:CC:DD:EE:GG", "", 0, true},
		{"zzbbccddeeff", "", 0, true},
		// malformed separators
		{"AA:BB-CC:DD:EE:FF", "", 0, true},
		{"AA:BB:CC:DD:EE:F", "", 0, true},
		// too long
		{"00112233445566778899aabbccddeeff00", "", 0, true},
		{"00:11:22:33:44:55:66:77:88:99:aa:bb:cc:dd:ee:ff:00", "", 0, true},
		{"", "", 0, true},
	}

	for i, c := range cases {
		a, err := Parse(c.I)
		if c.Err {
			assert.Error(t, err, "Test case #%d failed", i)
			assert.True(t, IsParseError(err), "Test case #%d failed", i)
			continue
		}

		require.NoError(t, err, "Test case #%d failed", i)
		assert.Equal(t, c.E, a.String(), "Test case #%d failed", i)
		assert.Equal(t, c.Len, a.Length, "Test case #%d failed", i)
		assert.Equal(t, Ethernet, a.Type, "Test case #%d failed", i)
	}
}

func Test_DelimitedAndContiguousAgree(t *testing.T) {
	a := MustParse("AA:BB:CC:DD:EE:FF")
	b := MustParse("AABBCCDDEEFF")

	assert.True(t, a.Equal(b))
	assert.Equal(t, uint64(0xAABBCCDDEEFF0000), a.Word1)
	assert.Equal(t, uint64(0), a.Word2)
}

func Test_InvalidLength(t *testing.T) {
	wire := make([]byte, 17)
	for i := range wire {
		wire[i] = byte(i)
	}

	a := FromWire(Ethernet, wire)
	assert.False(t, a.Valid())
	assert.Equal(t, 17, a.Length)
	assert.Equal(t, "00:01:02:03:04:05:06:07:08:09:0a:0b:0c:0d:0e:0f...", a.String())

	_, err := a.Bytes()
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = a.Net()
	assert.Error(t, err)

	_, err = FromBytes(Ethernet, wire)
	assert.Error(t, err)
}

func Test_NetInterop(t *testing.T) {
	hw, err := net.ParseMAC("00:1a:2b:3c:4d:5e")
	require.NoError(t, err)

	a, err := FromNet(hw)
	require.NoError(t, err)
	assert.Equal(t, hw.String(), a.String())

	back, err := a.Net()
	require.NoError(t, err)
	assert.Equal(t, hw, back)
}

func Test_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := rapid.SliceOfN(rapid.Byte(), 0, MaxLength).Draw(t, "octets")

		a, err := FromBytes(Ethernet, b)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		out, err := a.Bytes()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if string(out) != string(b) {
			t.Fatalf("expected %x got %x", b, out)
		}

		if len(b) == 0 {
			return
		}

		parsed, err := Parse(a.String())
		if err != nil {
			t.Fatalf("cannot parse %q: %s", a.String(), err)
		}
		if !parsed.Equal(a) {
			t.Fatalf("%s did not round trip", a)
		}
	})
}
