// Package paging drains paged management protocol enumerations.
package paging

import (
	"context"

	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// StepFunc requests the next page of an enumeration. It must update
// resume so the following call continues after the returned items.
type StepFunc[T any] func(ctx context.Context, resume *protocol.ResumeHandle, preferredMaximum uint32) ([]T, protocol.Status, error)

// Preferred maximums used for enumerations
const (
	MaxAll     uint32 = 0xFFFFFFFF
	MaxClients uint32 = 0x10000
)

// Option configures a Cursor
type Option func(*config)

type config struct {
	benign []protocol.Status
}

// WithBenign treats the given statuses like NoMoreItems when they are
// reported by the first call of the enumeration
func WithBenign(statuses ...protocol.Status) Option {
	return func(c *config) {
		c.benign = append(c.benign, statuses...)
	}
}

// Cursor is a lazy, forward-only sequence over the items of a paged
// enumeration. A Cursor must not be shared between goroutines and
// cannot be restarted.
//
//	c := paging.New("EnumSubnets", max, step)
//	for c.Next(ctx) {
//		use(c.Item())
//	}
//	if err := c.Err(); err != nil { ... }
type Cursor[T any] struct {
	op     string
	max    uint32
	step   StepFunc[T]
	cfg    config
	resume protocol.ResumeHandle
	calls  int
	page   []T
	idx    int
	item   T
	last   bool
	done   bool
	err    error
}

// New returns a cursor for the enumeration op driven by step
func New[T any](op string, preferredMaximum uint32, step StepFunc[T], opts ...Option) *Cursor[T] {
	c := &Cursor[T]{
		op:   op,
		max:  preferredMaximum,
		step: step,
		idx:  -1,
	}
	for _, o := range opts {
		o(&c.cfg)
	}
	return c
}

// Next advances the cursor and reports whether an item is available
func (c *Cursor[T]) Next(ctx context.Context) bool {
	if c.done {
		return false
	}

	c.idx++
	for c.idx >= len(c.page) {
		// release the consumed page before requesting the next one
		c.page = nil
		c.idx = 0

		if c.last {
			return c.finish(nil)
		}

		if err := ctx.Err(); err != nil {
			return c.finish(err)
		}

		items, status, err := c.step(ctx, &c.resume, c.max)
		c.calls++
		if err != nil {
			return c.finish(protocol.Check(c.op, status, err))
		}

		switch {
		case status == protocol.NoMoreItems:
			return c.finish(nil)
		case status == protocol.MoreData:
			c.page = items
		case status == protocol.Success:
			c.page = items
			c.last = true
		case c.calls == 1 && c.isBenign(status):
			return c.finish(nil)
		default:
			return c.finish(&protocol.Error{Op: c.op, Status: status})
		}
	}

	c.item = c.page[c.idx]
	return true
}

func (c *Cursor[T]) isBenign(status protocol.Status) bool {
	for _, s := range c.cfg.benign {
		if s == status {
			return true
		}
	}
	return false
}

func (c *Cursor[T]) finish(err error) bool {
	var zero T
	c.item = zero
	c.page = nil
	c.done = true
	c.err = err
	return false
}

// Item returns the current item
func (c *Cursor[T]) Item() T {
	return c.item
}

// Err returns the error that stopped the enumeration, if any
func (c *Cursor[T]) Err() error {
	return c.err
}

// Calls returns the number of protocol calls issued so far
func (c *Cursor[T]) Calls() int {
	return c.calls
}

// Each calls fn for each item of the cursor. Iteration stops at the
// first error returned by fn.
func Each[T any](ctx context.Context, c *Cursor[T], fn func(T) error) error {
	for c.Next(ctx) {
		if err := fn(c.Item()); err != nil {
			return err
		}
	}
	return c.Err()
}

// Collect drains the cursor into a slice
func Collect[T any](ctx context.Context, c *Cursor[T]) ([]T, error) {
	var res []T
	err := Each(ctx, c, func(item T) error {
		res = append(res, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Map converts every item of the cursor using fn
func Map[T, R any](ctx context.Context, c *Cursor[T], fn func(T) (R, error)) ([]R, error) {
	var res []R
	err := Each(ctx, c, func(item T) error {
		r, err := fn(item)
		if err != nil {
			return err
		}
		res = append(res, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
