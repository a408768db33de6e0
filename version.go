package scheduleflows

import (
	"regexp"
	"strconv"
	"time"
)

// Version of schedule-flows binaries (set by linker).
var Version = "dev"

// Timestamp of schedule-flows binaries (set by linker).
var Timestamp = "0"

// FormattedVersion includes the build date for release builds.
var FormattedVersion = formatVersion(Version, Timestamp)

var releaseRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// IsRelease returns true if the version is a release version.
func IsRelease(v string) bool {
	return releaseRe.MatchString(v)
}

func formatVersion(version, timestamp string) string {
	if !IsRelease(version) {
		return version
	}
	seconds, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil || seconds == 0 {
		return version
	}
	return version + " (" + time.Unix(seconds, 0).UTC().Format(time.DateOnly) + ")"
}
