package testrail

import (
	"fmt"
	"strings"
	"time"
)

// ReleaseTagURL is linked from every milestone description.
const ReleaseTagURL = "https://github.com/mozilla-mobile/firefox-android/releases"

// MilestoneName names the sign-off milestone of a release.
func MilestoneName(product, releaseType, version string) string {
	return fmt.Sprintf("Build Validation sign-off - %s %s %s", product, releaseType, version)
}

// MilestoneDescription is the sign-off template QA completes by hand.
func MilestoneDescription(name string, date time.Time) string {
	lines := []string{
		"RELEASE: " + name,
		"",
		"RELEASE_TAG_URL: " + ReleaseTagURL,
		"",
		"RELEASE_DATE: " + date.Format("January 02, 2006"),
		"",
		"TESTING_STATUS: [ TBD ]",
		"",
		"QA_RECOMMENDATION:[ TBD ]",
		"",
		"QA_RECOMENTATION_VERBOSE: ",
		"",
		"TESTING_SUMMARY",
		"",
		"Known issues: n/a",
		"New issue: n/a",
		"Verified issue: ",
	}
	return strings.Join(lines, "\n")
}

// ReleaseType classifies a version string by its first alpha or beta
// marker. Anything else is a release candidate.
func ReleaseType(version string) string {
	for _, r := range version {
		switch r {
		case 'a':
			return "Alpha"
		case 'b':
			return "Beta"
		}
	}
	return "RC"
}
