package version

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Get returns the build version, falling back to "dev".
func Get() string {
	if Version == "" {
		return "dev"
	}
	return Version
}
