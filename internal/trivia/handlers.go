package trivia

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/triviaworks/trivia-api/pkg/http/errors"
)

// QuizSessionStore tracks served question ids per session token (implemented
// by the Redis-backed SessionStore).
type QuizSessionStore interface {
	Seen(ctx context.Context, token string) ([]int64, error)
	MarkSeen(ctx context.Context, token string, questionID int64) error
}

var _ QuizSessionStore = (*SessionStore)(nil)

// HTTPHandlers provides REST endpoints for the question bank and quizzes.
type HTTPHandlers struct {
	svc      *Service
	sessions QuizSessionStore
	logger   zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers over the trivia service. sessions may
// be nil, in which case quiz callers must track previous_questions themselves.
func NewHTTPHandlers(svc *Service, sessions QuizSessionStore, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:      svc,
		sessions: sessions,
		logger:   logger.With().Str("component", "http").Logger(),
	}
}

// ListCategories handles GET /categories
func (h *HTTPHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"categories":       categoryMap(categories),
		"total_categories": len(categories),
	})
}

// ListQuestions handles GET /questions
func (h *HTTPHandlers) ListQuestions(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)

	result, err := h.svc.ListQuestions(r.Context(), page)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"questions":        result.Questions,
		"total_questions":  result.TotalQuestions,
		"categories":       categoryMap(result.Categories),
		"current_category": result.PageCategories,
	})
}

// CreateQuestion handles POST /questions
func (h *HTTPHandlers) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question   string `json:"question"`
		Answer     string `json:"answer"`
		Category   int64  `json:"category"`
		Difficulty int    `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	created, err := h.svc.CreateQuestion(r.Context(), NewQuestion{
		Question:   req.Question,
		Answer:     req.Answer,
		Category:   req.Category,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"created": created.ID,
	})
}

// UpdateQuestion handles PUT /questions/{id}
func (h *HTTPHandlers) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "question id must be an integer")
		return
	}

	var req struct {
		Question   string `json:"question"`
		Answer     string `json:"answer"`
		Category   int64  `json:"category"`
		Difficulty int    `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	if err := h.svc.UpdateQuestion(r.Context(), Question{
		ID:         id,
		Question:   req.Question,
		Answer:     req.Answer,
		Category:   req.Category,
		Difficulty: req.Difficulty,
	}); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": id,
	})
}

// DeleteQuestion handles DELETE /questions/{id}
func (h *HTTPHandlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "question id must be an integer")
		return
	}

	if err := h.svc.DeleteQuestion(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": id,
	})
}

// SearchQuestions handles POST /questions/search
func (h *HTTPHandlers) SearchQuestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SearchTerm string `json:"searchTerm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	result, err := h.svc.SearchQuestions(r.Context(), req.SearchTerm, pageParam(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"questions":        result.Questions,
		"total_questions":  result.TotalQuestions,
		"current_category": nil,
	})
}

// QuestionsByCategory handles GET /categories/{id}/questions
func (h *HTTPHandlers) QuestionsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "category id must be an integer")
		return
	}

	result, err := h.svc.QuestionsByCategory(r.Context(), categoryID, pageParam(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"questions":        result.Questions,
		"total_questions":  result.TotalQuestions,
		"current_category": result.CategoryID,
	})
}

// NextQuizQuestion handles POST /quizzes
func (h *HTTPHandlers) NextQuizQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuizCategory *struct {
			ID   int64  `json:"id"`
			Type string `json:"type"`
		} `json:"quiz_category"`
		PreviousQuestions *[]int64 `json:"previous_questions"`
		QuizSession       *string  `json:"quiz_session"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.QuizCategory == nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "quiz_category is required", "quiz_category")
		return
	}
	if req.PreviousQuestions == nil || *req.PreviousQuestions == nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "previous_questions is required", "previous_questions")
		return
	}

	previous := *req.PreviousQuestions

	// Clients may delegate seen-question bookkeeping to a server-side
	// session: an empty quiz_session mints a token, a known token merges
	// its recorded ids into the exclusion set.
	var token string
	if req.QuizSession != nil && h.sessions != nil {
		token = *req.QuizSession
		if token == "" {
			token = uuid.NewString()
		} else {
			seen, err := h.sessions.Seen(r.Context(), token)
			if err != nil {
				h.respondServiceError(w, r, err)
				return
			}
			previous = append(previous, seen...)
		}
	}

	question, err := h.svc.NextQuizQuestion(r.Context(), req.QuizCategory.ID, previous)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	resp := map[string]interface{}{
		"success":  true,
		"question": question,
	}
	if token != "" {
		if err := h.sessions.MarkSeen(r.Context(), token, question.ID); err != nil {
			h.logger.Warn().Err(err).Str("session", token).Msg("quiz session write failed")
		}
		resp["quiz_session"] = token
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("encode response failed")
	}
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, ve.Reason, ve.Field)
	case errors.Is(err, ErrExhausted):
		httperrors.RespondUnprocessable(w, httperrors.ErrCodeQuizExhausted, "no unseen questions remain")
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "resource not found")
	case IsPersistence(err):
		h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("storage failure")
		httperrors.RespondInternalError(w, "internal error")
	default:
		h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		httperrors.RespondInternalError(w, "internal error")
	}
}

// pageParam reads the 1-indexed page query parameter, clamping anything
// unusable to the first page.
func pageParam(r *http.Request) int {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// categoryMap renders categories as the id->type object the original API
// shape uses.
func categoryMap(categories []Category) map[string]string {
	m := make(map[string]string, len(categories))
	for _, c := range categories {
		m[strconv.FormatInt(c.ID, 10)] = c.Type
	}
	return m
}
