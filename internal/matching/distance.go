package matching

import "github.com/agnivade/levenshtein"

// Distance returns the Levenshtein edit distance between a and b, counted in
// runes. Insertion, deletion and substitution each cost 1.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}
