package assigner

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShuffleKeepsAllElements(t *testing.T) {
	r := NewRandomizer()
	values := []int{1, 2, 3, 4, 5}
	r.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	require.Equal(t, []int{1, 2, 3, 4, 5}, sorted)
}

func TestShuffleNoopForShortSlices(t *testing.T) {
	r := NewRandomizer()
	values := []int{1}
	r.Shuffle(len(values), func(i, j int) {
		t.Fatalf("unexpected swap(%d, %d)", i, j)
	})
	require.Equal(t, []int{1}, values)
}

func TestRandomizersAreIndependentlySeeded(t *testing.T) {
	draw := func() []int {
		values := make([]int, 32)
		for i := range values {
			values[i] = i
		}
		NewRandomizer().Shuffle(len(values), func(i, j int) {
			values[i], values[j] = values[j], values[i]
		})
		return values
	}

	require.NotEqual(t, draw(), draw())
}
