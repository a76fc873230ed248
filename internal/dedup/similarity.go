package dedup

// Similarity returns the Ratcliff/Obershelp ratio 2*M/T of a and b, where M
// is the number of characters in matching blocks and T the combined length.
// Two empty strings are identical (1.0). Comparison is by rune.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingChars(ra, rb)) / float64(total)
}

// matchingChars sums the sizes of the matching blocks found by repeatedly
// taking the longest common run and recursing on both sides of it.
func matchingChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, k := longestMatch(a, b)
	if k == 0 {
		return 0
	}
	return k + matchingChars(a[:i], b[:j]) + matchingChars(a[i+k:], b[j+k:])
}

// longestMatch finds the longest common contiguous run of a and b. Ties go
// to the run that starts earliest in a, then earliest in b.
func longestMatch(a, b []rune) (besti, bestj, bestk int) {
	// prev[j+1] holds the length of the common run ending at a[i-1], b[j].
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := range a {
		for j := range b {
			if a[i] == b[j] {
				k := prev[j] + 1
				cur[j+1] = k
				if k > bestk {
					besti, bestj, bestk = i-k+1, j-k+1, k
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}
	return besti, bestj, bestk
}
