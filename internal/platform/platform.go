// Package platform maps the running GOOS/GOARCH pair onto the OS identifiers
// used to name install resources.
package platform

import (
	"runtime"
	"strings"
)

// GenericLinux is the fallback OS identifier consulted on Unix-like systems
// when no resource exists for the exact OS identifier.
const GenericLinux = "generic-linux"

// osNames maps GOOS values to the family prefix of an OS identifier.
var osNames = map[string]string{
	"linux":   "linux",
	"darwin":  "macosx",
	"windows": "windows",
	"freebsd": "freebsd",
}

// archNames maps GOARCH values to the architecture suffix of an OS identifier.
var archNames = map[string]string{
	"amd64":   "x86_64",
	"386":     "x86",
	"arm64":   "arm64",
	"arm":     "armhf",
	"ppc64le": "ppc64le",
}

// ID returns the OS identifier for the running process, e.g. "linux-x86_64".
func ID() string {
	return IDFor(runtime.GOOS, runtime.GOARCH)
}

// IDFor builds the OS identifier for goos/goarch. Unknown values are passed
// through unchanged so that a resource can still be authored for them.
func IDFor(goos, goarch string) string {
	name, ok := osNames[goos]
	if !ok {
		name = goos
	}
	arch, ok := archNames[goarch]
	if !ok {
		arch = goarch
	}
	return name + "-" + arch
}

// IsUnix reports whether the running OS is Unix-like.
func IsUnix() bool {
	return IsUnixOS(runtime.GOOS)
}

// IsUnixOS reports whether goos names a Unix-like system.
func IsUnixOS(goos string) bool {
	switch strings.ToLower(goos) {
	case "linux", "darwin", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos", "aix":
		return true
	}
	return false
}
