package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key builds the cache key for a query from its parts, typically
// [resource, options, locale]. Parts are JSON-encoded so two option structs
// with equal fields produce the same key.
func Key(parts ...any) string {
	raw, err := json.Marshal(parts)
	if err != nil {
		return fmt.Sprint(parts...)
	}
	return string(raw)
}

// Prefix returns the string every key starting with parts begins with.
func Prefix(parts ...any) string {
	return strings.TrimSuffix(Key(parts...), "]") + ","
}

// HasResource reports whether key was built with resource as its first part.
func HasResource(key, resource string) bool {
	return key == Key(resource) || strings.HasPrefix(key, Prefix(resource))
}

// HasLocale reports whether key was built with locale as its last part.
func HasLocale(key, locale string) bool {
	raw, _ := json.Marshal(locale)
	return strings.HasSuffix(key, ","+string(raw)+"]")
}
