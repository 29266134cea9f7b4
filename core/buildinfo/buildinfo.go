package buildinfo

// Set via -ldflags at build time:
//
//	-X 'github.com/m3rciful/cowinbot/core/buildinfo.Version=v0.3.0'
//	-X 'github.com/m3rciful/cowinbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/cowinbot/core/buildinfo.Date=2025-08-30T12:00:00Z'
var (
	// Version reports the release tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)
