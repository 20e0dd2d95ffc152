package test

import (
	"bytes"
	"testing"

	"github.com/caddyserver/caddy/caddyfile"
	"github.com/stretchr/testify/require"
)

// Dispenser returns a dispenser for input positioned on the notifier
// name of a notify directive, the way setup functions receive it. Errors
// reference the file "Adminfile".
func Dispenser(t *testing.T, input string) *caddyfile.Dispenser {
	disp := caddyfile.NewDispenser("Adminfile", bytes.NewBufferString(input))
	require.True(t, disp.Next(), "missing directive")
	require.True(t, disp.NextArg(), "missing notifier name")
	return &disp
}
