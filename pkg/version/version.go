// Package version holds the build version reported by the CLI and the API.
package version

// Version is overridden at build time with
// -ldflags "-X objmap/pkg/version.Version=...".
var Version = "v0.3.0"
