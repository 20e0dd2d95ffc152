package paging

import (
	"context"
	"errors"
	"testing"

	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	items  []int
	status protocol.Status
	err    error
}

// scripted returns a step function that replays pages and records the
// resume handles it was called with
func scripted(pages []page, handles *[]protocol.ResumeHandle) StepFunc[int] {
	i := 0
	return func(ctx context.Context, resume *protocol.ResumeHandle, max uint32) ([]int, protocol.Status, error) {
		if i >= len(pages) {
			return nil, protocol.NoMoreItems, nil
		}
		p := pages[i]
		i++

		if handles != nil {
			*handles = append(*handles, *resume)
		}
		*resume += protocol.ResumeHandle(len(p.items))
		return p.items, p.status, p.err
	}
}

func Test_Cursor(t *testing.T) {
	cases := []struct {
		Pages []page
		E     []int
		Calls int
		Err   protocol.Status
	}{
		{
			Pages: []page{
				{[]int{1, 2}, protocol.MoreData, nil},
				{[]int{3}, protocol.MoreData, nil},
				{[]int{4, 5}, protocol.Success, nil},
			},
			E:     []int{1, 2, 3, 4, 5},
			Calls: 3,
		},
		{
			Pages: []page{{nil, protocol.NoMoreItems, nil}},
			E:     nil,
			Calls: 1,
		},
		{
			Pages: []page{
				{[]int{1}, protocol.MoreData, nil},
				{nil, protocol.NoMoreItems, nil},
			},
			E:     []int{1},
			Calls: 2,
		},
		{
			// empty partial pages are skipped
			Pages: []page{
				{nil, protocol.MoreData, nil},
				{[]int{7}, protocol.Success, nil},
			},
			E:     []int{7},
			Calls: 2,
		},
		{
			Pages: []page{
				{[]int{1}, protocol.MoreData, nil},
				{nil, protocol.JetError, nil},
			},
			E:     []int{1},
			Calls: 2,
			Err:   protocol.JetError,
		},
	}

	for i, c := range cases {
		var got []int
		cur := New("EnumTest", MaxAll, scripted(c.Pages, nil))
		for cur.Next(context.Background()) {
			got = append(got, cur.Item())
		}

		assert.Equal(t, c.E, got, "Test case #%d failed", i)
		assert.Equal(t, c.Calls, cur.Calls(), "Test case #%d failed", i)

		if c.Err != protocol.Success {
			require.Error(t, cur.Err(), "Test case #%d failed", i)
			assert.True(t, protocol.IsStatus(cur.Err(), c.Err), "Test case #%d failed", i)

			var pe *protocol.Error
			require.True(t, errors.As(cur.Err(), &pe))
			assert.Equal(t, "EnumTest", pe.Op, "Test case #%d failed", i)
		} else {
			assert.NoError(t, cur.Err(), "Test case #%d failed", i)
		}

		// exhausted cursors stay exhausted
		assert.False(t, cur.Next(context.Background()), "Test case #%d failed", i)
		assert.Equal(t, c.Calls, cur.Calls(), "Test case #%d failed", i)
	}
}

func Test_Cursor_ResumeHandle(t *testing.T) {
	var handles []protocol.ResumeHandle
	cur := New("EnumTest", MaxAll, scripted([]page{
		{[]int{1, 2}, protocol.MoreData, nil},
		{[]int{3, 4, 5}, protocol.MoreData, nil},
		{[]int{6}, protocol.Success, nil},
	}, &handles))

	items, err := Collect(context.Background(), cur)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, items)
	assert.Equal(t, []protocol.ResumeHandle{0, 2, 5}, handles)
}

func Test_Cursor_Lazy(t *testing.T) {
	cur := New("EnumTest", MaxAll, scripted([]page{
		{[]int{1, 2}, protocol.MoreData, nil},
		{[]int{3}, protocol.Success, nil},
	}, nil))

	assert.Equal(t, 0, cur.Calls())
	require.True(t, cur.Next(context.Background()))
	require.True(t, cur.Next(context.Background()))
	assert.Equal(t, 1, cur.Calls(), "second page must not be requested before the first is consumed")
	require.True(t, cur.Next(context.Background()))
	assert.Equal(t, 2, cur.Calls())
}

func Test_Cursor_Benign(t *testing.T) {
	step := scripted([]page{{nil, protocol.EndpointNotRegistered, nil}}, nil)
	items, err := Collect(context.Background(), New("EnumSubnets", MaxAll, step, WithBenign(protocol.EndpointNotRegistered)))
	assert.NoError(t, err)
	assert.Empty(t, items)

	// without the option it is a protocol error
	step = scripted([]page{{nil, protocol.EndpointNotRegistered, nil}}, nil)
	_, err = Collect(context.Background(), New("EnumSubnets", MaxAll, step))
	assert.True(t, protocol.IsStatus(err, protocol.EndpointNotRegistered))

	// benign statuses only count on the first call
	step = scripted([]page{
		{[]int{1}, protocol.MoreData, nil},
		{nil, protocol.EndpointNotRegistered, nil},
	}, nil)
	_, err = Collect(context.Background(), New("EnumSubnets", MaxAll, step, WithBenign(protocol.EndpointNotRegistered)))
	assert.Error(t, err)
}

func Test_Cursor_TransportError(t *testing.T) {
	boom := errors.New("connection reset")
	step := scripted([]page{{nil, protocol.Success, boom}}, nil)

	_, err := Collect(context.Background(), New("EnumTest", MaxAll, step))
	assert.ErrorIs(t, err, boom)
}

func Test_Cursor_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cur := New("EnumTest", MaxAll, scripted([]page{{[]int{1}, protocol.Success, nil}}, nil))
	assert.False(t, cur.Next(ctx))
	assert.ErrorIs(t, cur.Err(), context.Canceled)
	assert.Equal(t, 0, cur.Calls())
}

func Test_Each_StopsOnError(t *testing.T) {
	stop := errors.New("stop")
	cur := New("EnumTest", MaxAll, scripted([]page{{[]int{1, 2, 3}, protocol.Success, nil}}, nil))

	var seen []int
	err := Each(context.Background(), cur, func(i int) error {
		seen = append(seen, i)
		if i == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []int{1, 2}, seen)
}
