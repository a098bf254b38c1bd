// Package version reports the messenger build version.
package version

import "fmt"

// Version is the messenger release version. Override at build time with:
//
//	-ldflags "-X github.com/transplant-bridge/messenger-go/pkg/version.Version=v1.2.3"
var Version = "0.3.0-dev"

// UserAgent returns a "name/version" string for diagnostics.
func UserAgent(name string) string {
	return fmt.Sprintf("%s/%s", name, Version)
}
