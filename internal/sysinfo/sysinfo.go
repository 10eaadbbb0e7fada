// Package sysinfo reports the host platform the bridge is running on.
package sysinfo

import "runtime"

// Info describes the host operating system and architecture.
type Info struct {
	OS     string `json:"os"`
	Arch   string `json:"arch"`
	Family string `json:"family"`
}

// Collect returns platform information for the current process. Family
// is "windows" on Windows and "unix" everywhere else.
func Collect() Info {
	family := "unix"
	if runtime.GOOS == "windows" {
		family = "windows"
	}
	return Info{
		OS:     runtime.GOOS,
		Arch:   runtime.GOARCH,
		Family: family,
	}
}
