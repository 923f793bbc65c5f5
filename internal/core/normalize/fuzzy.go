package normalize

// similarity is the Ratcliff-Obershelp ratio between two strings:
// 2*M / (len(a)+len(b)), where M is the total length of matched
// characters found by recursively matching the longest common
// substring and then the pieces on either side of it.
// Returns a value in [0,1]; 1 means equal
func similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	m := matchedLen(a, b)
	return 2 * float64(m) / float64(len(a)+len(b))
}

func matchedLen(a, b string) int {
	ai, bi, n := longestCommon(a, b)
	if n == 0 {
		return 0
	}
	total := n
	total += matchedLen(a[:ai], b[:bi])
	total += matchedLen(a[ai+n:], b[bi+n:])
	return total
}

// longestCommon finds the longest common substring of a and b,
// returning its start offsets and length. Leftmost-in-a wins ties,
// matching the classic gestalt matcher
func longestCommon(a, b string) (ai, bi, n int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// prev[j] = length of common suffix ending at a[i-1], b[j-1]
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > n {
					n = cur[j]
					ai = i - n
					bi = j - n
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, n
}
