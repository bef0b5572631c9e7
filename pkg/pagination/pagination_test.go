package pagination

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromSlice(t *testing.T) {
	t.Parallel()

	p := FromSlice([]string{"a", "b"})
	assert.Equal(t, 2, p.Count())
	assert.Equal(t, []string{"a", "b"}, p.Items())
	assert.False(t, p.HasNext())
	assert.Empty(t, p.NextToken())
}

func TestFromOverfetched(t *testing.T) {
	t.Parallel()

	keyOf := func(s string) string { return s }

	// Fetched limit+1 rows to probe for a next page; the extra row is
	// dropped and its key becomes the cursor to resume from.
	p := FromOverfetched([]string{"a", "b", "c"}, 2, keyOf)
	assert.Equal(t, 2, p.Count())
	assert.Equal(t, []string{"a", "b"}, p.Items())
	assert.True(t, p.HasNext())
	assert.Equal(t, "c", p.NextToken())

	p2 := FromOverfetched([]string{"a", "b"}, 2, keyOf)
	assert.Equal(t, []string{"a", "b"}, p2.Items())
	assert.False(t, p2.HasNext())
	assert.Empty(t, p2.NextToken())
}

func TestWithToken(t *testing.T) {
	t.Parallel()

	p := WithToken([]int{1, 2}, "widgets:c")
	assert.Equal(t, []int{1, 2}, p.Items())
	assert.Equal(t, "widgets:c", p.NextToken())
	assert.True(t, p.HasNext())
}

func TestMapPage(t *testing.T) {
	t.Parallel()

	p := WithToken([]int{1, 2, 3}, "next")
	mapped := MapPage(p, func(i int) string { return strconv.Itoa(i * 2) })

	assert.Equal(t, []string{"2", "4", "6"}, mapped.Items())
	assert.Equal(t, p.Count(), mapped.Count())
	assert.Equal(t, p.NextToken(), mapped.NextToken())
}
