package search

// sequenceRatio computes a Ratcliff/Obershelp-style similarity between two
// strings in [0,1]: twice the number of matching characters (accumulated over
// recursively located longest common substrings) divided by the total length
// of both inputs. It operates on runes so multi-byte titles score correctly.
//
// This mirrors the classic difflib ratio (without junk heuristics), which is
// what the candidate scanner needs: 1.0 for identical strings, a smooth
// degradation for partial overlaps, and 0 when nothing matches.
func sequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	// Positions of each rune in b, for the longest-match scan.
	b2j := make(map[rune][]int, len(rb))
	for j, r := range rb {
		b2j[r] = append(b2j[r], j)
	}

	matched := 0
	type span struct{ alo, ahi, blo, bhi int }
	stack := []span{{0, len(ra), 0, len(rb)}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		besti, bestj, bestn := longestMatch(ra, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if bestn == 0 {
			continue
		}
		matched += bestn
		if s.alo < besti && s.blo < bestj {
			stack = append(stack, span{s.alo, besti, s.blo, bestj})
		}
		if besti+bestn < s.ahi && bestj+bestn < s.bhi {
			stack = append(stack, span{besti + bestn, s.ahi, bestj + bestn, s.bhi})
		}
	}

	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

// longestMatch finds the longest block where ra[alo:ahi] and b (via its rune
// position table) share a common substring within [blo,bhi). Ties resolve to
// the earliest block in a, then in b, which keeps scoring deterministic.
func longestMatch(ra []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestn int) {
	besti, bestj, bestn = alo, blo, 0
	// j2len[j] = length of the longest match ending at ra[i], b[j].
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[ra[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestn {
				besti, bestj, bestn = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestn
}
