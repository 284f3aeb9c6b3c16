// Package version exposes the build-time version string injected via
// -ldflags by the mage build target.
package version

var version = "v0.0.0"

// Value returns the version the binary was built with.
func Value() string {
	return version
}
