package runtime

import "strings"

// JoinURL joins base and path with exactly one slash between them.
// An empty base yields path unchanged, so relative fetches stay relative.
func JoinURL(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
