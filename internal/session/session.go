// Package session is the gate between identity and story data: a Session
// holds the current user and that user's cached stories, and is torn down
// when the user signs out or the session expires.
package session

import (
	"sync"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/change"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/model"
)

type Session struct {
	mu      sync.RWMutex
	user    *auth.User
	stories []model.UserStory
	loaded  bool
}

func New() *Session {
	return &Session{}
}

// CurrentUser returns the signed-in user, or false when anonymous.
func (s *Session) CurrentUser() (auth.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return auth.User{}, false
	}
	return *s.user, true
}

// SignIn makes the session authenticated. Switching to a different user
// discards the previous user's cache.
func (s *Session) SignIn(user auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil && s.user.ID == user.ID {
		s.user.Email = user.Email
		return
	}
	u := user
	s.user = &u
	s.stories = nil
	s.loaded = false
}

// SignOut makes the session anonymous and drops the cache.
func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.stories = nil
	s.loaded = false
}

// Stories returns a copy of the cache and whether it was loaded.
func (s *Session) Stories() ([]model.UserStory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UserStory, len(s.stories))
	copy(out, s.stories)
	return out, s.loaded
}

// SetStories replaces the cache, but only while ownerID is still signed in.
func (s *Session) SetStories(ownerID string, stories []model.UserStory) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownedBy(ownerID) {
		return false
	}
	s.stories = make([]model.UserStory, len(stories))
	copy(s.stories, stories)
	s.loaded = true
	return true
}

func (s *Session) AddStory(ownerID string, story model.UserStory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownedBy(ownerID) || !s.loaded {
		return
	}
	s.stories = append(s.stories, story)
}

func (s *Session) RemoveStory(ownerID, storyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownedBy(ownerID) {
		return
	}
	kept := make([]model.UserStory, 0, len(s.stories))
	for _, st := range s.stories {
		if st.ID != storyID {
			kept = append(kept, st)
		}
	}
	s.stories = kept
}

// SetChanges reconciles one cached story with the change list just written.
func (s *Session) SetChanges(ownerID, storyID string, changes []change.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownedBy(ownerID) {
		return
	}
	for i := range s.stories {
		if s.stories[i].ID == storyID {
			s.stories[i].Changes = append([]change.Change(nil), changes...)
			return
		}
	}
}

// ownedBy must be called with s.mu held.
func (s *Session) ownedBy(ownerID string) bool {
	return s.user != nil && s.user.ID == ownerID
}
