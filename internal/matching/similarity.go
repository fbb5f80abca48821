package matching

import "math"

// Similarity returns the binary cosine similarity (Otsuka–Ochiai coefficient)
// of two token sequences.
//
// Each sequence is treated as a 0/1 presence vector over the union of both
// vocabularies, so repeated tokens add no weight. The result is in [0, 1]:
// 0 when the sequences share nothing or either one is empty, 1 when their
// token sets are identical.
func Similarity(a, b Vector) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	// Iterate the smaller set for the dot product.
	small, large := setA, setB
	if len(small) > len(large) {
		small, large = large, small
	}
	dot := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			dot++
		}
	}
	if dot == 0 {
		return 0
	}

	// sqrt(|A|*|B|) rather than sqrt(|A|)*sqrt(|B|) keeps identical sets at exactly 1.
	score := float64(dot) / math.Sqrt(float64(len(setA))*float64(len(setB)))
	if score > 1 {
		score = 1
	}
	return score
}

// SharedTokens returns the labels of a whose token also occurs in b under n,
// in the order they first appear in a and spelled as in a. Labels that
// compare equal under n are reported once.
func SharedTokens(a, b []string, n Normalizer) []string {
	key := n.keyFunc()
	setB := make(map[string]struct{}, len(b))
	for _, tok := range b {
		if k, ok := key(tok); ok {
			setB[k] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(a))
	shared := make([]string, 0)
	for _, tok := range a {
		k, ok := key(tok)
		if !ok {
			continue
		}
		if _, ok := setB[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		shared = append(shared, tok)
	}
	return shared
}

func tokenSet(v []string) map[string]struct{} {
	set := make(map[string]struct{}, len(v))
	for _, tok := range v {
		set[tok] = struct{}{}
	}
	return set
}
