package utils

import "strings"

// ImageURL resolves a stored image asset key against the configured base
// URL. Keys that are already absolute URLs pass through unchanged.
func ImageURL(baseURL, key string) string {
	if key == "" || baseURL == "" {
		return key
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(key, "/")
}
