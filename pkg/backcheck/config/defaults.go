// Package config provides configuration management for the backcheck
// backup verifier.
package config

// Default configuration values for backcheck.
const (
	// DefaultManifestName is the manifest filename written to the
	// working directory by a build.
	DefaultManifestName = "backup_hashes.txt"

	// DefaultSummaryName is the plain-text report file written next to
	// the working directory by a verify.
	DefaultSummaryName = "backup_verification_summary.txt"

	// DefaultOutput is the report formatter used when none is selected.
	DefaultOutput = "pretty"

	// DefaultChunkSize is the digest read buffer size.
	DefaultChunkSize = "1MiB"

	// DefaultFollowSymlinks controls whether symbolic links are
	// followed during scans.
	DefaultFollowSymlinks = false
)
