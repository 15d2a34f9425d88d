package dedup

import (
	"math"
	"regexp"
	"strings"
)

// similarityEpsilon guards cosine similarity against division by zero for
// zero-norm vectors.
const similarityEpsilon = 1e-12

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// CosineSimilarity computes the cosine of the angle between two vectors.
// Zero-norm vectors produce a score of 0, never NaN.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, ErrVectorLengthMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom < similarityEpsilon {
		return 0, nil
	}
	return float32(dot / denom), nil
}

// TokenOverlap computes a lexical similarity between two texts as the size
// of the shared token set over the size of the larger token set. Used when
// vectors are not available for every item.
func TokenOverlap(a, b string) float32 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared++
		}
	}

	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	return float32(shared) / float32(larger)
}

func tokenSet(text string) map[string]struct{} {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}
