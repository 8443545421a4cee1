package util

import "sort"

// SameMembers reports whether two string slices hold the same elements,
// order ignored.
func SameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	aCopy := append([]string(nil), a...)
	bCopy := append([]string(nil), b...)
	sort.Strings(aCopy)
	sort.Strings(bCopy)

	for i := range aCopy {
		if aCopy[i] != bCopy[i] {
			return false
		}
	}
	return true
}

// Subset reports whether every element of sub occurs in super.
func Subset(sub, super []string) bool {
	seen := make(map[string]bool, len(super))
	for _, s := range super {
		seen[s] = true
	}
	for _, s := range sub {
		if !seen[s] {
			return false
		}
	}
	return true
}
