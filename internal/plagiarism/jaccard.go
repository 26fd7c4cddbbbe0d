package plagiarism

// Scorer computes a symmetric similarity coefficient in [0, 1] between two shingle sets
type Scorer func(a, b ShingleSet) float64

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty
func Jaccard(a, b ShingleSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	shared := 0
	for shingle := range small {
		if _, ok := large[shingle]; ok {
			shared++
		}
	}

	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
