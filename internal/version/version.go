package version

// Build information set by ldflags
var (
	Version = "dev"     // Set by goreleaser: -X dcmsort/internal/version.Version={{.Version}}
	Commit  = "unknown" // Set by goreleaser: -X dcmsort/internal/version.Commit={{.Commit}}
	Date    = "unknown" // Set by goreleaser: -X dcmsort/internal/version.Date={{.Date}}
)
