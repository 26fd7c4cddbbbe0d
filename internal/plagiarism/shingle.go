package plagiarism

import (
	"sort"
	"strings"
)

// DefaultShingleSize is the number of consecutive tokens in a shingle.
const DefaultShingleSize = 3

// ShingleSet is the set of distinct shingles of one document
type ShingleSet map[string]struct{}

// Shingle returns every contiguous window of n tokens joined by a single space.
// Repeated phrases collapse to one member. Fewer than n tokens yields an empty set.
func Shingle(tokens []string, n int) ShingleSet {
	if n <= 0 {
		n = DefaultShingleSize
	}
	if len(tokens) < n {
		return ShingleSet{}
	}

	set := make(ShingleSet, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+n], " ")] = struct{}{}
	}
	return set
}

func (s ShingleSet) Contains(shingle string) bool {
	_, ok := s[shingle]
	return ok
}

// Sorted returns the members in lexical order
func (s ShingleSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for shingle := range s {
		out = append(out, shingle)
	}
	sort.Strings(out)
	return out
}
