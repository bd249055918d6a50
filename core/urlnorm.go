package core

import (
	"strings"

	"pkt.systems/tabula/schema"
)

// NormalizeURL turns address bar input into a loadable URL.
// Input with an http or https scheme is returned unchanged. Host-like input
// (containing a dot or starting with localhost) gets the default scheme.
// Anything else becomes a search query.
func NormalizeURL(cfg schema.ServiceConfig, input string) string {
	if schema.HasTransferScheme(input) {
		return input
	}
	if strings.Contains(input, ".") || strings.HasPrefix(input, "localhost") {
		scheme := cfg.DefaultScheme
		if scheme == "" {
			scheme = schema.DefaultScheme
		}
		return scheme + input
	}
	template := cfg.SearchTemplate
	if template == "" {
		template = schema.DefaultSearchTemplate
	}
	return strings.ReplaceAll(template, "{query}", encodeURIComponent(input))
}

const upperhex = "0123456789ABCDEF"

// encodeURIComponent escapes everything except A-Z a-z 0-9 and -_.!~*'().
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if componentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func componentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
