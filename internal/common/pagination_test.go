package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	posts := make([]int, 25)
	for i := range posts {
		posts[i] = i
	}

	// first page: the query fetched FetchLimit rows
	first := Paginate(posts[:FetchLimit])
	assert.Len(t, first.Items, PageSize)
	assert.True(t, first.AreMore)

	// second page with skip=20 sees the remaining 5
	second := Paginate(posts[PageSize:])
	assert.Len(t, second.Items, 5)
	assert.False(t, second.AreMore)
	assert.Equal(t, 20, second.Items[0])
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate[string](nil)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.False(t, page.AreMore)
}

func TestNormalizeSkip(t *testing.T) {
	assert.Equal(t, 0, NormalizeSkip(-3))
	assert.Equal(t, 40, NormalizeSkip(40))
}
