package analyzer

// Levenshtein computes the edit distance between two sequences
// using unit costs for insertion, deletion and substitution.
// Only two rows sized to the shorter sequence are kept.
func Levenshtein[T comparable](a, b []T) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// a is the row sequence, so keep it the shorter one
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		bj := b[j-1]
		for i := 1; i <= len(a); i++ {
			if a[i-1] == bj {
				curr[i] = prev[i-1]
				continue
			}
			curr[i] = 1 + min(
				prev[i],   // deletion
				curr[i-1], // insertion
				prev[i-1], // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(a)]
}
