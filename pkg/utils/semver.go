package utils

import (
	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
)

// ValidateVersion reports whether version is a complete semantic version
// (major.minor.patch with optional pre-release and build metadata), which is
// what cargo requires for a published crate.
func ValidateVersion(version string) bool {
	if _, err := semver.StrictNewVersion(version); err != nil {
		log.Debug().Str("version", version).Err(err).Msg("invalid semver version")
		return false
	}
	return true
}
