package plagiarism

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShingle(t *testing.T) {
	tokens := []string{"quick", "brown", "jumps", "over", "lazy"}

	set := Shingle(tokens, 3)

	assert.Len(t, set, 3)
	assert.Equal(t, []string{"brown jumps over", "jumps over lazy", "quick brown jumps"}, set.Sorted())
	assert.True(t, set.Contains("quick brown jumps"))
	assert.False(t, set.Contains("quick jumps over"))
}

func TestShingle_TooFewTokens(t *testing.T) {
	assert.Empty(t, Shingle(nil, 3))
	assert.Empty(t, Shingle([]string{"alpha"}, 3))
	assert.Empty(t, Shingle([]string{"alpha", "bravo"}, 3))
	assert.NotNil(t, Shingle(nil, 3))
}

func TestShingle_ExactlyN(t *testing.T) {
	set := Shingle([]string{"alpha", "bravo", "charlie"}, 3)
	assert.Equal(t, []string{"alpha bravo charlie"}, set.Sorted())
}

func TestShingle_RepeatsCollapse(t *testing.T) {
	tokens := []string{"echo", "echo", "echo", "echo", "echo"}
	assert.Len(t, Shingle(tokens, 3), 1)
}

func TestShingle_NonPositiveSizeUsesDefault(t *testing.T) {
	tokens := []string{"alpha", "bravo", "charlie", "delta"}
	assert.Equal(t, Shingle(tokens, DefaultShingleSize), Shingle(tokens, 0))
	assert.Equal(t, Shingle(tokens, DefaultShingleSize), Shingle(tokens, -1))
}

func TestShingle_OtherSizes(t *testing.T) {
	tokens := []string{"alpha", "bravo", "charlie"}
	assert.Len(t, Shingle(tokens, 1), 3)
	assert.Equal(t, []string{"alpha bravo", "bravo charlie"}, Shingle(tokens, 2).Sorted())
}
