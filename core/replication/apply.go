package replication

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/nextdhcp/dhcpadmin/core/address"
)

// Target is the destination of a replication
type Target interface {
	// ApplyOp performs a single operation
	ApplyOp(ctx context.Context, op Op) error
}

// TargetFunc is a function implementing Target
type TargetFunc func(ctx context.Context, op Op) error

// ApplyOp calls fn
func (fn TargetFunc) ApplyOp(ctx context.Context, op Op) error {
	return fn(ctx, op)
}

// OpError wraps the error of the operation that stopped Apply
type OpError struct {
	Index int
	Op    Op
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("replication step %d (%s): %s", e.Index, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Apply issues ops against target in order and stops at the first
// failure. It returns the number of operations that completed. Applied
// operations are not rolled back.
func Apply(ctx context.Context, ops []Op, target Target) (int, error) {
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return i, err
		}

		if err := target.ApplyOp(ctx, op); err != nil {
			return i, &OpError{Index: i, Op: op, Err: err}
		}
	}

	return len(ops), nil
}

// Report describes a single replication run
type Report struct {
	ID          string     `json:"id"`
	Subnet      address.IP `json:"subnet"`
	Source      string     `json:"source"`
	Destination string     `json:"destination"`
	DryRun      bool       `json:"dryRun"`
	Ops         []Op       `json:"ops"`
	Applied     int        `json:"applied"`
	Started     time.Time  `json:"started"`
	Finished    time.Time  `json:"finished"`
	Err         error      `json:"-"`
}

// Failed reports whether the run stopped with an error
func (r *Report) Failed() bool {
	return r.Err != nil
}

// Count returns the number of planned operations of kind k
func (r *Report) Count(k Kind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Duration returns how long the run took
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Run plans the replication of src onto dst and applies it to target
// unless dryRun is set. The returned report is never nil.
func Run(ctx context.Context, src, dst *ScopeGraph, target Target, dryRun bool) *Report {
	r := &Report{
		ID:      uuid.New().String(),
		Subnet:  src.SubnetAddress,
		DryRun:  dryRun,
		Started: time.Now(),
	}

	l := log.WithFields(log.Fields{
		"replication": r.ID,
		"subnet":      src.SubnetAddress.String(),
	})

	r.Ops, r.Err = Plan(src, dst)
	if r.Err == nil && !dryRun {
		r.Applied, r.Err = Apply(ctx, r.Ops, target)
	}
	r.Finished = time.Now()

	if r.Err != nil {
		l.Errorf("replication failed after %d of %d operations: %s", r.Applied, len(r.Ops), r.Err)
	} else {
		l.Infof("replication finished with %d operations in %s", len(r.Ops), r.Duration())
	}

	return r
}
