package config

import (
	"os"
	"sync"
)

var (
	dockerOnce   sync.Once
	insideDocker bool
)

// IsRunningInDocker reports whether the engine is running inside a Docker
// container, detected via the /.dockerenv marker. Cached after the first call.
func IsRunningInDocker() bool {
	dockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		insideDocker = err == nil
	})
	return insideDocker
}

// ResolveHostForDocker rewrites loopback hosts to host.docker.internal when
// the engine runs inside Docker, so SQL loaders can reach databases on the
// host machine. Any other host passes through unchanged.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}
