package quickcmd

// similarityRatio is a Ratcliff/Obershelp similarity in [0,1] over two already
// normalized (ASCII) strings: twice the total length of all recursively found
// longest matching blocks, divided by the combined length.
func similarityRatio(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 1.0
	}
	matched := matchingTotal(a, b, 0, len(a), 0, len(b))
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

func matchingTotal(a, b string, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	return size +
		matchingTotal(a, b, alo, i, blo, j) +
		matchingTotal(a, b, i+size, ahi, j+size, bhi)
}

// longestMatch finds the longest block a[i:i+size] == b[j:j+size] within the
// given bounds, preferring the earliest i and then the earliest j on ties.
func longestMatch(a, b string, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	runs := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := runs[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		runs = next
	}
	return besti, bestj, bestsize
}
