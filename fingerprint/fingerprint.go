// Package fingerprint derives stable resume keys from local file paths.
package fingerprint

import (
	"regexp"
)

const separator = "-"

var nonWordRuns = regexp.MustCompile(`\W+`)

// Generate returns a deterministic fingerprint for the given file path.
// Every maximal run of non-word characters is collapsed into a single
// separator, so the same path always yields the same fingerprint. Paths
// that differ only in punctuation can collide; the fingerprint is a resume
// key, not a content hash.
func Generate(filePath string) string {
	return nonWordRuns.ReplaceAllString(filePath, separator)
}
