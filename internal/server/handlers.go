package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/recall/internal/apperr"
	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/internal/storage"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, apperr.Validationf("invalid request body"))
		return
	}
	userID, err := resolveUser(r.Context(), req.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	req.UserID = userID
	s.logger.Debug("search request", zap.String("user_id", userID), zap.String("query", req.Query))

	payload, err := s.engine.Search(r.Context(), &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleIndexReminder(w http.ResponseWriter, r *http.Request) {
	var input models.ReminderInput
	if err := decodeBody(w, r, &input); err != nil {
		s.respondError(w, apperr.Validationf("invalid request body"))
		return
	}
	userID, err := resolveUser(r.Context(), input.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	input.UserID = userID
	s.logger.Debug("index reminder request", zap.String("id", input.ID), zap.String("user_id", userID))

	reminder, err := s.indexer.IndexReminder(r.Context(), &input)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, reminder)
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	id := models.ReminderID(chi.URLParam(r, "id"))
	reminder, err := s.store.GetReminder(r.Context(), userID, id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reminder)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUser(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	id := models.ReminderID(chi.URLParam(r, "id"))
	s.logger.Debug("delete reminder request", zap.String("id", string(id)), zap.String("user_id", userID))
	if err := s.indexer.DeleteReminder(r.Context(), userID, id); err != nil {
		s.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": string(id), "status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := s.store.CountReminders(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}
	resp := map[string]interface{}{
		"reminders": count,
	}
	if s.vectors != nil {
		resp["vector_index_size"] = s.vectors.Size()
	}
	if s.content != nil {
		if n, err := s.content.DocCount(); err == nil {
			resp["content_index_size"] = n
		}
	}

	cfg := s.config
	resp["config"] = map[string]interface{}{
		"embedding_provider":   cfg.Embedding.Provider,
		"embedding_dimensions": cfg.Embedding.Dimensions,
		"generation_provider":  cfg.Generation.Provider,
		"vector_index_type":    cfg.Vector.IndexType,
		"temporal_resolver":    cfg.Temporal.Resolver,
		"auth_enabled":         !cfg.Auth.Disabled,
	}
	if usage, total, err := storage.StorageUsage(
		cfg.Storage.DatabasePath,
		cfg.Storage.BleveIndexPath,
		cfg.Storage.VectorIndexPath,
	); err == nil {
		resp["disk_usage_bytes"] = total
		resp["disk_usage"] = usage
	}
	respondJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// respondError maps err to a status code. Internal details are logged, never returned.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "reminder not found"})
		return
	}
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("kind", kind.String()), zap.Error(err))
	}
	respondJSON(w, status, map[string]string{"error": apperr.PublicMessage(err)})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
