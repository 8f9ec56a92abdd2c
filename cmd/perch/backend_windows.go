//go:build windows

package main

import "github.com/1broseidon/perch/internal/platform"

func openBackend(host platform.WindowID) (platform.Backend, func(), error) {
	return platform.NewWindowsBackend(host), func() {}, nil
}
