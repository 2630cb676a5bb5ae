package util

import (
	"strconv"
)

// MustParseUint converts a string to an unsigned integer, returning 0 on
// parse failure.
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseBoolQuery interprets a query-string flag; absent or malformed values
// return the fallback.
func ParseBoolQuery(s string, fallback bool) bool {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return v
}
