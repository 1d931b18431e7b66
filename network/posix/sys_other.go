//go:build !linux

package posix

import (
	"fmt"
	"runtime"

	"github.com/shazow/netmgr/network"
)

// NewSys is only implemented on Linux.
func NewSys() (Sys, error) {
	return nil, fmt.Errorf("posix enumerator on %s: %w", runtime.GOOS, network.ErrNotSupported)
}
