package httpapi

import (
	"path"
	"strings"
)

// NormalizeBasePath returns value as a rooted path without a trailing slash,
// or "" when it names the root.
func NormalizeBasePath(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	cleaned := path.Clean("/" + value)
	if cleaned == "/" {
		return ""
	}
	return cleaned
}

// shellBaseHref is the <base href> injected into the shell page. An empty
// result leaves the page relative to wherever it was served from.
func shellBaseHref(baseURL, basePath string) string {
	href := strings.TrimRight(strings.TrimSpace(baseURL), "/") + NormalizeBasePath(basePath)
	if href == "" {
		return ""
	}
	return href + "/"
}
