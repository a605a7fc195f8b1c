package missions

import "strings"

// FuzzyLocationMatch reports whether two location strings refer to the same
// place despite phrasing or casing drift between repeated log mentions:
// case-insensitive equality, or either string containing the other.
// Symmetric by construction.
func FuzzyLocationMatch(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == "" || lb == "" {
		return la == lb
	}
	return la == lb || strings.Contains(la, lb) || strings.Contains(lb, la)
}
