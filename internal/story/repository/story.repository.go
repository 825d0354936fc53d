package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/change"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/model"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
)

// PostgresRepository keeps one row per story with the change log in a JSONB column.
type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) List(ctx context.Context, ownerID string) ([]model.UserStory, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, owner_id, number, title, description, to_char(story_date, 'YYYY-MM-DD'), changes
		FROM user_stories WHERE owner_id = $1`, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list stories for owner %s: %v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	stories := []model.UserStory{}
	for rows.Next() {
		var s model.UserStory
		var raw []byte
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Number, &s.Title, &s.Description, &s.Date, &raw); err != nil {
			logger.Sugar.Errorf("Failed to scan story row: %v", err)
			return nil, err
		}
		if s.Changes, err = decodeChanges(raw); err != nil {
			logger.Sugar.Errorf("Failed to decode changes of story %s: %v", s.ID, err)
			return nil, err
		}
		stories = append(stories, s)
	}
	if err := rows.Err(); err != nil {
		logger.Sugar.Errorf("Failed to iterate stories for owner %s: %v", ownerID, err)
		return nil, err
	}
	return stories, nil
}

func (r *PostgresRepository) Create(ctx context.Context, ownerID string, draft model.StoryDraft) (model.UserStory, error) {
	if err := ValidateDraft(draft); err != nil {
		return model.UserStory{}, err
	}
	story := model.UserStory{
		OwnerID:     ownerID,
		Number:      draft.Number,
		Title:       draft.Title,
		Description: draft.Description,
		Date:        strings.TrimSpace(draft.Date),
		Changes:     []change.Change{},
	}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO user_stories (owner_id, number, title, description, story_date, changes)
		VALUES ($1, $2, $3, $4, $5, '[]'::jsonb)
		RETURNING id`,
		story.OwnerID, story.Number, story.Title, story.Description, story.Date,
	).Scan(&story.ID)
	if err != nil {
		logger.Sugar.Errorf("Failed to create story for owner %s: %v", ownerID, err)
		return model.UserStory{}, err
	}
	return story, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, storyID string) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM user_stories WHERE id = $1 AND owner_id = $2", storyID, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete story %s: %v", storyID, err)
		return err
	}
	return requireRow(result, "StoryRepository.Delete")
}

func (r *PostgresRepository) GetChanges(ctx context.Context, ownerID, storyID string) ([]change.Change, error) {
	var raw []byte
	err := r.DB.QueryRowContext(ctx, "SELECT changes FROM user_stories WHERE id = $1 AND owner_id = $2", storyID, ownerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errStoryNotFound("StoryRepository.GetChanges")
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get changes for story %s: %v", storyID, err)
		return nil, err
	}
	changes, err := decodeChanges(raw)
	if err != nil {
		logger.Sugar.Errorf("Failed to decode changes of story %s: %v", storyID, err)
		return nil, err
	}
	return changes, nil
}

func (r *PostgresRepository) ReplaceChanges(ctx context.Context, ownerID, storyID string, changes []change.Change) error {
	if changes == nil {
		changes = []change.Change{}
	}
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}
	// lib/pq wants JSONB parameters as text, not []byte.
	result, err := r.DB.ExecContext(ctx, "UPDATE user_stories SET changes = $1::jsonb WHERE id = $2 AND owner_id = $3",
		string(payload), storyID, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to replace changes for story %s: %v", storyID, err)
		return err
	}
	return requireRow(result, "StoryRepository.ReplaceChanges")
}

func requireRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errStoryNotFound(op)
	}
	return nil
}

func decodeChanges(raw []byte) ([]change.Change, error) {
	changes := []change.Change{}
	if len(raw) == 0 {
		return changes, nil
	}
	if err := json.Unmarshal(raw, &changes); err != nil {
		return nil, err
	}
	if changes == nil {
		changes = []change.Change{}
	}
	return changes, nil
}
