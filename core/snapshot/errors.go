package snapshot

import (
	"errors"
	"fmt"

	"github.com/nextdhcp/dhcpadmin/core/address"
)

// ErrNotFound is returned when no snapshot exists for a subnet
type ErrNotFound struct {
	Server string
	Subnet address.IP
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("no snapshot of %s on %q", e.Subnet, e.Server)
}

// IsNotFound returns true if err is or wraps an ErrNotFound
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}
