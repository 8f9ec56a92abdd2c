//go:build linux

package main

import "github.com/1broseidon/perch/internal/platform"

func openBackend(host platform.WindowID) (platform.Backend, func(), error) {
	b, err := platform.NewLinuxBackendFromDisplay(host)
	if err != nil {
		return nil, nil, err
	}
	return b, b.Disconnect, nil
}
