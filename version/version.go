package version

// Set at build time via -ldflags "-X frontpriority/version.Version=..."
var (
	Version = "dev"
	Date    = "unknown"
)
