package driver

import "strings"

// sanitizeSegment normalises a package or target name so that "my-lib" and
// "my_lib" refer to the same thing.
func sanitizeSegment(seg string) string {
	seg = strings.TrimSpace(seg)
	return strings.ReplaceAll(seg, "-", "_")
}

// SanitizeName exposes the package name normalisation used by manifests and
// lockfiles.
func SanitizeName(name string) string {
	return sanitizeSegment(name)
}
