package option

import (
	"testing"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseKnown(t *testing.T) {
	cases := []struct {
		N   string
		V   []string
		E   Value
		Err bool
	}{
		{
			"router", []string{"10.0.0.1", "10.0.0.2"},
			Value{OptionID: 3, Elements: Elements{IPAddress(address.MustParseIP("10.0.0.1")), IPAddress(address.MustParseIP("10.0.0.2"))}},
			false,
		},
		{
			"domain-name", []string{"example.com"},
			Value{OptionID: 15, Elements: Elements{String("example.com")}},
			false,
		},
		{
			"lease-time", []string{"1h"},
			Value{OptionID: 51, Elements: Elements{DWord(3600)}},
			false,
		},
		{
			"lease-time", []string{"infinite"},
			Value{OptionID: 51, Elements: Elements{SignedDWord(-1)}},
			false,
		},
		{"domain-name", []string{"a", "b"}, Value{}, true},
		{"router", []string{"not-an-ip"}, Value{}, true},
		{"foobar", []string{"x"}, Value{}, true},
		{"hostname", nil, Value{}, true},
	}

	for i, c := range cases {
		v, err := ParseKnown(c.N, c.V)
		if c.Err {
			assert.Error(t, err, "Test case #%d failed", i)
			continue
		}
		require.NoError(t, err, "Test case #%d failed", i)
		assert.True(t, c.E.Equal(v), "Test case #%d failed: %v", i, v)
	}
}

func Test_NameAndID(t *testing.T) {
	assert.Equal(t, "lease-time", Name(51))
	assert.Equal(t, "option-250", Name(250))
	assert.Equal(t, uint32(51), LeaseTime)

	id, err := ID("router")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), id)

	id, err = ID("option-43")
	require.NoError(t, err)
	assert.Equal(t, uint32(43), id)

	_, err = ID("nope")
	assert.ErrorIs(t, err, ErrUnknownOption)

	assert.Equal(t, dhcpv4.OptionRouter, Code(3))
}

func Test_Elements_Equal(t *testing.T) {
	a := Elements{DWord(1), String("x"), Binary([]byte{1, 2})}
	b := Elements{DWord(1), String("x"), Binary([]byte{1, 2})}
	c := Elements{DWord(1), String("x"), Binary([]byte{1, 3})}
	d := Elements{String("x"), DWord(1), Binary([]byte{1, 2})}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d), "order matters")
	assert.False(t, a.Equal(a[:2]))

	// same number but different type
	assert.False(t, Byte(1).Equal(Word(1)))
}

func Test_SignedDWord(t *testing.T) {
	e := SignedDWord(-1)
	assert.Equal(t, int32(-1), e.Int32())
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, e.Bytes())
}

func Test_Value_String(t *testing.T) {
	v := Value{OptionID: 3, Elements: Elements{IPAddress(address.MustParseIP("10.0.0.1"))}}
	assert.Equal(t, "router: 10.0.0.1", v.String())

	inf := Value{OptionID: 51, Elements: Elements{SignedDWord(-1)}}
	assert.Equal(t, "lease-time: infinite", inf.String())
}

func Test_Value_Clone(t *testing.T) {
	v := Value{OptionID: 43, Elements: Elements{Binary([]byte{1, 2, 3})}}
	c := v.Clone()
	c.Elements[0].Data[0] = 9

	assert.Equal(t, byte(1), v.Elements[0].Data[0])
}
