package prefixmap

import "fmt"

// MalformedPrefixMapError is reported when a map is constructed from
// inconsistent entries. This is a programming-contract violation by the
// producer of the map, not a user data error.
type MalformedPrefixMapError struct {
	// Entry is the offending entry.
	Entry Entry
	// Reason describes the violated invariant.
	Reason string
}

func (e *MalformedPrefixMapError) Error() string {
	return fmt.Sprintf("malformed prefix map (%s): %v", e.Reason, e.Entry)
}
