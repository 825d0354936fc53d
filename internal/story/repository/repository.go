package repository

import (
	"context"
	"strings"
	"time"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/change"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/model"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/apperr"
)

// StoryRepository is the owner-scoped document store for stories. Every
// method filters by ownerID, so a story of another owner behaves as missing.
//
// ReplaceChanges overwrites the whole changes array. Paired with GetChanges
// it forms an unversioned read-modify-write: a concurrent writer's update
// made between the two calls is lost (last write wins).
type StoryRepository interface {
	List(ctx context.Context, ownerID string) ([]model.UserStory, error)
	Create(ctx context.Context, ownerID string, draft model.StoryDraft) (model.UserStory, error)
	Delete(ctx context.Context, ownerID, storyID string) error
	GetChanges(ctx context.Context, ownerID, storyID string) ([]change.Change, error)
	ReplaceChanges(ctx context.Context, ownerID, storyID string, changes []change.Change) error
}

// ValidateDraft requires number, title and a calendar date.
func ValidateDraft(draft model.StoryDraft) error {
	var fields []string
	if strings.TrimSpace(draft.Number) == "" {
		fields = append(fields, "number")
	}
	if strings.TrimSpace(draft.Title) == "" {
		fields = append(fields, "title")
	}
	if strings.TrimSpace(draft.Date) == "" {
		fields = append(fields, "date")
	} else if _, err := time.Parse(model.DateLayout, strings.TrimSpace(draft.Date)); err != nil {
		fields = append(fields, "date")
	}
	if len(fields) > 0 {
		return apperr.Validation("StoryRepository.Create", fields, nil)
	}
	return nil
}

func errStoryNotFound(op string) error {
	return apperr.NotFound(op, "story")
}
