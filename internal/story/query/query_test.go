package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/model"
)

func stories(numbers ...string) []model.UserStory {
	out := make([]model.UserStory, len(numbers))
	for i, n := range numbers {
		out[i] = model.UserStory{ID: fmt.Sprintf("id-%d", i), Number: n}
	}
	return out
}

func numbers(in []model.UserStory) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.Number
	}
	return out
}

func TestFilterByNumber(t *testing.T) {
	all := stories("US-1", "US-10", "us-2", "BUG-1", "US-11")

	assert.Equal(t, numbers(all), numbers(FilterByNumber(all, "")))
	assert.Equal(t, []string{"US-1", "US-10", "US-11"}, numbers(FilterByNumber(all, "US-1")))
	assert.Equal(t, []string{"us-2"}, numbers(FilterByNumber(all, "us")))
	assert.Empty(t, FilterByNumber(all, "nothing"))
	assert.Empty(t, FilterByNumber(nil, ""))
}

func TestFilterByNumberIsIdempotent(t *testing.T) {
	all := stories("US-1", "US-10", "BUG-1", "US-11", "FEAT-US-1")
	for _, q := range []string{"", "US", "-1", "BUG", "zzz"} {
		once := FilterByNumber(all, q)
		assert.Equal(t, once, FilterByNumber(once, q), "query %q", q)
	}
}

func TestPaginate(t *testing.T) {
	all := stories("1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12")

	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, numbers(Paginate(all, 10, 1)))
	assert.Equal(t, []string{"11", "12"}, numbers(Paginate(all, 10, 2)))
	assert.Empty(t, Paginate(all, 10, 3))
	assert.Empty(t, Paginate(all, 10, 0))
	assert.Empty(t, Paginate(all, 0, 1))
	assert.NotNil(t, Paginate(nil, 10, 1))
}

func TestPageCountAndPastLastPage(t *testing.T) {
	for n := 0; n <= 45; n++ {
		want := n / 10
		if n%10 != 0 {
			want++
		}
		require.Equal(t, want, PageCount(n, 10), "n=%d", n)

		all := stories(make([]string, n)...)
		assert.Empty(t, Paginate(all, 10, PageCount(n, 10)+1), "n=%d", n)
	}
}

func TestPage(t *testing.T) {
	all := stories("US-1", "BUG-1", "US-2", "US-3")
	page := Page(all, "US", 2, 2)

	assert.Equal(t, []string{"US-3"}, numbers(page.Stories))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.PageCount)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, "US", page.Query)
}
