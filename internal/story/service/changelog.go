package service

import (
	"context"
	"encoding/json"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/change"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/repository"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/apperr"
)

// Editor appends and removes changes in one story's change log with a
// whole-array read-modify-write: GetChanges, edit locally, ReplaceChanges.
//
// The sequence is not atomic and carries no version. Two calls against the
// same story that interleave will both read the same list and the later
// write discards the earlier one's edit. Callers must not start a second
// mutation of a story before the first has returned.
type Editor struct {
	Repo  repository.StoryRepository
	NewID func() string
}

func NewEditor(repo repository.StoryRepository) *Editor {
	return &Editor{Repo: repo, NewID: change.NewID}
}

// Append validates the draft, then adds it at the end of the story's change
// log. It returns the list as written. A draft that fails validation never
// reaches the repository.
func (e *Editor) Append(ctx context.Context, ownerID, storyID string, t change.Type, draft json.RawMessage) ([]change.Change, error) {
	const op = "ChangeLog.Append"
	details, err := change.Validate(t, draft)
	if err != nil {
		return nil, err
	}

	current, err := e.Repo.GetChanges(ctx, ownerID, storyID)
	if err != nil {
		return nil, readError(op, err)
	}

	next := make([]change.Change, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, change.New(e.NewID(), details))

	if err := e.Repo.ReplaceChanges(ctx, ownerID, storyID, next); err != nil {
		return nil, writeError(op, err)
	}
	return next, nil
}

// Remove drops the change with changeID. An unknown id leaves the list as
// it was, though it is still written back.
func (e *Editor) Remove(ctx context.Context, ownerID, storyID, changeID string) ([]change.Change, error) {
	const op = "ChangeLog.Remove"
	current, err := e.Repo.GetChanges(ctx, ownerID, storyID)
	if err != nil {
		return nil, readError(op, err)
	}

	next := make([]change.Change, 0, len(current))
	for _, c := range current {
		if c.ID != changeID {
			next = append(next, c)
		}
	}

	if err := e.Repo.ReplaceChanges(ctx, ownerID, storyID, next); err != nil {
		return nil, writeError(op, err)
	}
	return next, nil
}

// readError keeps NotFound as is and reports anything else as a fetch failure.
func readError(op string, err error) error {
	if apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	return apperr.Fetch(op, err)
}

func writeError(op string, err error) error {
	if apperr.Is(err, apperr.KindNotFound) || apperr.Is(err, apperr.KindValidation) {
		return err
	}
	return apperr.Update(op, err)
}
