package cache

import (
	"sort"
	"strings"
)

// Key builds a cache key from a resource kind and its identifying parts,
// e.g. Key("player", "23") -> "player:23". Keys built this way pair with
// DeletePattern("player:*") for bulk invalidation.
func Key(kind string, parts ...string) string {
	if len(parts) == 0 {
		return kind
	}
	return kind + ":" + strings.Join(parts, ":")
}

// QueryKey builds a cache key for a list endpoint from its query
// parameters, sorted for a stable ordering.
func QueryKey(kind string, params map[string]string) string {
	if len(params) == 0 {
		return kind
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+params[name])
	}

	return kind + ":" + strings.Join(pairs, "&")
}

// SanitizeKey replaces characters that might cause issues in cache keys.
func SanitizeKey(key string) string {
	replacer := strings.NewReplacer(
		" ", "_",
		"\n", "",
		"\r", "",
		"\t", "",
	)
	return replacer.Replace(key)
}
