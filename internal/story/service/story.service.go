package service

import (
	"context"
	"encoding/json"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/change"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/session"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/model"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/query"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/repository"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/apperr"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/socket"
)

// Notifier fans story events out to the owner's live connections.
type Notifier interface {
	Notify(ownerID, msgType string, payload interface{})
}

// StoryService binds a session's user to the repository. Every operation
// runs as the session user, and the session's story cache is reconciled
// only after the remote call succeeded.
type StoryService struct {
	Repo     repository.StoryRepository
	Editor   *Editor
	Notifier Notifier
	PageSize int
}

func NewStoryService(repo repository.StoryRepository, notifier Notifier, pageSize int) *StoryService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &StoryService{
		Repo:     repo,
		Editor:   NewEditor(repo),
		Notifier: notifier,
		PageSize: pageSize,
	}
}

func currentUser(op string, sess *session.Session) (auth.User, error) {
	if sess == nil {
		return auth.User{}, apperr.Unauthenticated(op, "no active session")
	}
	user, ok := sess.CurrentUser()
	if !ok {
		return auth.User{}, apperr.Unauthenticated(op, "not signed in")
	}
	return user, nil
}

// Load fetches the user's stories and replaces the session cache.
func (s *StoryService) Load(ctx context.Context, sess *session.Session) ([]model.UserStory, error) {
	const op = "StoryService.Load"
	user, err := currentUser(op, sess)
	if err != nil {
		return nil, err
	}

	stories, err := s.Repo.List(ctx, user.ID)
	if err != nil {
		logger.Sugar.Errorf("Service: failed to list stories for %s: %v", user.ID, err)
		return nil, apperr.Fetch(op, err)
	}
	if !sess.SetStories(user.ID, stories) {
		// Signed out (or switched user) while the list was in flight.
		return nil, apperr.Unauthenticated(op, "session changed during load")
	}
	return stories, nil
}

func (s *StoryService) Create(ctx context.Context, sess *session.Session, draft model.StoryDraft) (model.UserStory, error) {
	const op = "StoryService.Create"
	user, err := currentUser(op, sess)
	if err != nil {
		return model.UserStory{}, err
	}

	story, err := s.Repo.Create(ctx, user.ID, draft)
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			return model.UserStory{}, err
		}
		logger.Sugar.Errorf("Service: failed to create story for %s: %v", user.ID, err)
		return model.UserStory{}, apperr.Update(op, err)
	}

	sess.AddStory(user.ID, story)
	s.notify(user.ID, socket.StoryCreatedType, story)
	return story, nil
}

// Delete removes a story. Deleting a story that is already gone succeeds.
func (s *StoryService) Delete(ctx context.Context, sess *session.Session, storyID string) error {
	const op = "StoryService.Delete"
	user, err := currentUser(op, sess)
	if err != nil {
		return err
	}

	if err := s.Repo.Delete(ctx, user.ID, storyID); err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			logger.Sugar.Errorf("Service: failed to delete story %s: %v", storyID, err)
			return apperr.Update(op, err)
		}
		logger.Sugar.Warnf("Service: story %s already deleted", storyID)
	}

	sess.RemoveStory(user.ID, storyID)
	s.notify(user.ID, socket.StoryDeletedType, map[string]string{"storyId": storyID})
	return nil
}

// Changes reads one story's change log straight from the repository.
func (s *StoryService) Changes(ctx context.Context, sess *session.Session, storyID string) ([]change.Change, error) {
	const op = "StoryService.Changes"
	user, err := currentUser(op, sess)
	if err != nil {
		return nil, err
	}

	changes, err := s.Repo.GetChanges(ctx, user.ID, storyID)
	if err != nil {
		return nil, readError(op, err)
	}
	return changes, nil
}

func (s *StoryService) AppendChange(ctx context.Context, sess *session.Session, storyID string, t change.Type, draft json.RawMessage) ([]change.Change, error) {
	user, err := currentUser("StoryService.AppendChange", sess)
	if err != nil {
		return nil, err
	}

	changes, err := s.Editor.Append(ctx, user.ID, storyID, t, draft)
	if err != nil {
		return nil, err
	}
	s.changesUpdated(user.ID, sess, storyID, changes)
	return changes, nil
}

func (s *StoryService) RemoveChange(ctx context.Context, sess *session.Session, storyID, changeID string) ([]change.Change, error) {
	user, err := currentUser("StoryService.RemoveChange", sess)
	if err != nil {
		return nil, err
	}

	changes, err := s.Editor.Remove(ctx, user.ID, storyID, changeID)
	if err != nil {
		return nil, err
	}
	s.changesUpdated(user.ID, sess, storyID, changes)
	return changes, nil
}

// Page serves the Query View from the session cache, loading it first when
// it is empty or refresh is set.
func (s *StoryService) Page(ctx context.Context, sess *session.Session, q string, page int, refresh bool) (model.StoryPage, error) {
	const op = "StoryService.Page"
	if _, err := currentUser(op, sess); err != nil {
		return model.StoryPage{}, err
	}

	stories, loaded := sess.Stories()
	if refresh || !loaded {
		var err error
		if stories, err = s.Load(ctx, sess); err != nil {
			return model.StoryPage{}, err
		}
	}
	return query.Page(stories, q, s.PageSize, page), nil
}

func (s *StoryService) changesUpdated(ownerID string, sess *session.Session, storyID string, changes []change.Change) {
	sess.SetChanges(ownerID, storyID, changes)
	s.notify(ownerID, socket.ChangesUpdatedType, model.ChangesResponse{StoryID: storyID, Changes: changes})
}

func (s *StoryService) notify(ownerID, msgType string, payload interface{}) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ownerID, msgType, payload)
}
