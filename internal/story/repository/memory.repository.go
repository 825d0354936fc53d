package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/change"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/model"
)

// MemoryRepository keeps story documents in-process. Reads and writes copy
// the changes slice so callers never share state with the store.
type MemoryRepository struct {
	mu      sync.RWMutex
	stories map[string]model.UserStory
	order   []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{stories: make(map[string]model.UserStory)}
}

func (m *MemoryRepository) List(_ context.Context, ownerID string) ([]model.UserStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]model.UserStory, 0, len(m.order))
	for _, id := range m.order {
		if s, ok := m.stories[id]; ok && s.OwnerID == ownerID {
			s.Changes = cloneChanges(s.Changes)
			res = append(res, s)
		}
	}
	return res, nil
}

func (m *MemoryRepository) Create(_ context.Context, ownerID string, draft model.StoryDraft) (model.UserStory, error) {
	if err := ValidateDraft(draft); err != nil {
		return model.UserStory{}, err
	}
	story := model.UserStory{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Number:      draft.Number,
		Title:       draft.Title,
		Description: draft.Description,
		Date:        strings.TrimSpace(draft.Date),
		Changes:     []change.Change{},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[story.ID] = story
	m.order = append(m.order, story.ID)

	story.Changes = []change.Change{}
	return story, nil
}

func (m *MemoryRepository) Delete(_ context.Context, ownerID, storyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[storyID]
	if !ok || s.OwnerID != ownerID {
		return errStoryNotFound("StoryRepository.Delete")
	}
	delete(m.stories, storyID)
	filtered := m.order[:0]
	for _, id := range m.order {
		if id != storyID {
			filtered = append(filtered, id)
		}
	}
	m.order = filtered
	return nil
}

func (m *MemoryRepository) GetChanges(_ context.Context, ownerID, storyID string) ([]change.Change, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stories[storyID]
	if !ok || s.OwnerID != ownerID {
		return nil, errStoryNotFound("StoryRepository.GetChanges")
	}
	return cloneChanges(s.Changes), nil
}

func (m *MemoryRepository) ReplaceChanges(_ context.Context, ownerID, storyID string, changes []change.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[storyID]
	if !ok || s.OwnerID != ownerID {
		return errStoryNotFound("StoryRepository.ReplaceChanges")
	}
	s.Changes = cloneChanges(changes)
	m.stories[storyID] = s
	return nil
}

func cloneChanges(in []change.Change) []change.Change {
	out := make([]change.Change, len(in))
	copy(out, in)
	return out
}
