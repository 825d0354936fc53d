package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/model"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/service"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/middleware"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/apperr"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
)

type StoryHandler struct {
	Service *service.StoryService
}

func NewStoryHandler(service *service.StoryService) *StoryHandler {
	return &StoryHandler{Service: service}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *StoryHandler) GetStories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid page parameter", http.StatusBadRequest)
			return
		}
		page = n
	}
	refresh, _ := strconv.ParseBool(q.Get("refresh"))

	res, err := h.Service.Page(r.Context(), middleware.SessionFrom(r.Context()), q.Get("q"), page, refresh)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list stories: %v", err)
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *StoryHandler) CreateStory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.StoryDraft
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	story, err := h.Service.Create(r.Context(), middleware.SessionFrom(r.Context()), req)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create story: %v", err)
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, story)
}

func (h *StoryHandler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	storyID := r.URL.Query().Get("storyId")
	if storyID == "" {
		http.Error(w, "Missing storyId parameter", http.StatusBadRequest)
		return
	}

	if err := h.Service.Delete(r.Context(), middleware.SessionFrom(r.Context()), storyID); err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete story %s: %v", storyID, err)
		apperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Story deleted successfully"))
}

func (h *StoryHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	storyID := r.URL.Query().Get("storyId")
	if storyID == "" {
		http.Error(w, "Missing storyId parameter", http.StatusBadRequest)
		return
	}

	changes, err := h.Service.Changes(r.Context(), middleware.SessionFrom(r.Context()), storyID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to fetch changes for story %s: %v", storyID, err)
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ChangesResponse{StoryID: storyID, Changes: changes})
}

func (h *StoryHandler) AddChange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.AddChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.StoryID == "" {
		http.Error(w, "Story ID is required", http.StatusBadRequest)
		return
	}

	changes, err := h.Service.AppendChange(r.Context(), middleware.SessionFrom(r.Context()), req.StoryID, req.Type, req.Details)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to add change to story %s: %v", req.StoryID, err)
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.ChangesResponse{StoryID: req.StoryID, Changes: changes})
}

func (h *StoryHandler) DeleteChange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	storyID, changeID := q.Get("storyId"), q.Get("changeId")
	if storyID == "" || changeID == "" {
		http.Error(w, "Missing storyId or changeId parameter", http.StatusBadRequest)
		return
	}

	changes, err := h.Service.RemoveChange(r.Context(), middleware.SessionFrom(r.Context()), storyID, changeID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to delete change %s: %v", changeID, err)
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ChangesResponse{StoryID: storyID, Changes: changes})
}
