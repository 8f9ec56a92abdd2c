//go:build !linux && !windows

package main

import (
	"fmt"
	"runtime"

	"github.com/1broseidon/perch/internal/platform"
)

func openBackend(platform.WindowID) (platform.Backend, func(), error) {
	return nil, nil, fmt.Errorf("no window system backend for %s", runtime.GOOS)
}
