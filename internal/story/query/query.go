// Package query derives the visible page of stories from a local list.
package query

import (
	"strings"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/model"
)

// FilterByNumber keeps stories whose number contains q (case-sensitive),
// preserving input order. An empty q keeps everything.
func FilterByNumber(stories []model.UserStory, q string) []model.UserStory {
	out := make([]model.UserStory, 0, len(stories))
	for _, s := range stories {
		if strings.Contains(s.Number, q) {
			out = append(out, s)
		}
	}
	return out
}

// Paginate returns the 1-based page of the given size. Pages past the end,
// or a non-positive page or size, yield an empty slice.
func Paginate(stories []model.UserStory, pageSize, pageNumber int) []model.UserStory {
	if pageSize <= 0 || pageNumber <= 0 {
		return []model.UserStory{}
	}
	start := (pageNumber - 1) * pageSize
	if start >= len(stories) {
		return []model.UserStory{}
	}
	end := start + pageSize
	if end > len(stories) {
		end = len(stories)
	}
	return stories[start:end]
}

// PageCount is ceil(n / pageSize).
func PageCount(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}

// Page filters then paginates, reporting the totals the caller renders.
func Page(stories []model.UserStory, q string, pageSize, pageNumber int) model.StoryPage {
	filtered := FilterByNumber(stories, q)
	return model.StoryPage{
		Stories:   Paginate(filtered, pageSize, pageNumber),
		Query:     q,
		Page:      pageNumber,
		PageSize:  pageSize,
		PageCount: PageCount(len(filtered), pageSize),
		Total:     len(filtered),
	}
}
