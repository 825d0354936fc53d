package model

import (
	"encoding/json"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/change"
)

// DateLayout is the calendar-date format used for stories and change details.
const DateLayout = "2006-01-02"

// UserStory is one persisted story document. Changes are embedded and
// ordered by append time.
type UserStory struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Number      string          `json:"number"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Changes     []change.Change `json:"changes"`
}

// StoryDraft is a story before the store assigns its id.
type StoryDraft struct {
	Number      string `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type AddChangeRequest struct {
	StoryID string          `json:"storyId"`
	Type    change.Type     `json:"type"`
	Details json.RawMessage `json:"details"`
}

type ChangesResponse struct {
	StoryID string          `json:"storyId"`
	Changes []change.Change `json:"changes"`
}

// StoryPage is one page of the owner's stories after filtering.
type StoryPage struct {
	Stories   []UserStory `json:"stories"`
	Query     string      `json:"query"`
	Page      int         `json:"page"`
	PageSize  int         `json:"pageSize"`
	PageCount int         `json:"pageCount"`
	Total     int         `json:"total"`
}
