package trivia

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(handlers *HTTPHandlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories", handlers.ListCategories)
	mux.HandleFunc("GET /categories/{id}/questions", handlers.QuestionsByCategory)
	mux.HandleFunc("GET /questions", handlers.ListQuestions)
	mux.HandleFunc("POST /questions", handlers.CreateQuestion)
	mux.HandleFunc("PUT /questions/{id}", handlers.UpdateQuestion)
	mux.HandleFunc("DELETE /questions/{id}", handlers.DeleteQuestion)
	mux.HandleFunc("POST /questions/search", handlers.SearchQuestions)
	mux.HandleFunc("POST /quizzes", handlers.NextQuizQuestion)
	return mux
}

func newTestHandlers(t *testing.T) (*HTTPHandlers, *memoryQuestionStore) {
	t.Helper()
	store := scienceAndArtQuestions()
	svc := newTestService(&memoryCategoryStore{categories: defaultCategories()}, store, ServiceOptions{})
	return NewHTTPHandlers(svc, newMemorySessionStore(), testLogger()), store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target string, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var payload map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestHandlerListCategories(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodGet, "/categories", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, float64(2), payload["total_categories"])
	categories := payload["categories"].(map[string]interface{})
	assert.Equal(t, "Science", categories["1"])
	assert.Equal(t, "Art", categories["2"])
}

func TestHandlerListQuestionsPastEndIs404(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, _ := doJSON(t, mux, http.MethodGet, "/questions?page=1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, payload := doJSON(t, mux, http.MethodGet, "/questions?page=9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", payload["error"])
}

func TestHandlerListQuestionsBadPageClampsToFirst(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodGet, "/questions?page=banana", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), payload["total_questions"])
}

func TestHandlerCreateQuestion(t *testing.T) {
	handlers, store := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodPost, "/questions",
		`{"question":"What is the largest ocean?","answer":"Pacific","category":1,"difficulty":2}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, float64(13), payload["created"])

	all, _ := store.List(t.Context())
	assert.Len(t, all, 4)
}

func TestHandlerCreateQuestionDuplicateIs422(t *testing.T) {
	handlers, store := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodPost, "/questions",
		`{"question":"Who painted the Mona Lisa?","answer":"x","category":2,"difficulty":1}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_failed", payload["error"])

	all, _ := store.List(t.Context())
	assert.Len(t, all, 3)
}

func TestHandlerCreateQuestionMissingFieldIs422(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodPost, "/questions",
		`{"question":"Only a question"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_failed", payload["error"])
	assert.Equal(t, "answer", payload["field"])
}

func TestHandlerDeleteQuestion(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodDelete, "/questions/10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(10), payload["deleted"])

	rec, payload = doJSON(t, mux, http.MethodDelete, "/questions/10", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", payload["error"])

	rec, _ = doJSON(t, mux, http.MethodDelete, "/questions/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdateQuestion(t *testing.T) {
	handlers, store := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodPut, "/questions/10",
		`{"question":"What is the chemical symbol for silver?","answer":"Ag","category":1,"difficulty":2}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(10), payload["updated"])

	got, err := store.GetByID(t.Context(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Ag", got.Answer)
}

func TestHandlerUpdateQuestionDuplicateIs422(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodPut, "/questions/11",
		`{"question":"Who painted the Mona Lisa?","answer":"Mercury","category":1,"difficulty":1}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_failed", payload["error"])
	assert.Equal(t, "question", payload["field"])
}

func TestHandlerSearchQuestions(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodPost, "/questions/search", `{"searchTerm":"planet"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	questions := payload["questions"].([]interface{})
	require.Len(t, questions, 1)
	text := questions[0].(map[string]interface{})["question"].(string)
	assert.True(t, strings.Contains(strings.ToLower(text), "planet"))

	rec, payload = doJSON(t, mux, http.MethodPost, "/questions/search", `{"searchTerm":"   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_failed", payload["error"])

	rec, _ = doJSON(t, mux, http.MethodPost, "/questions/search", `{"searchTerm":"zzzz"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerQuestionsByCategory(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodGet, "/categories/1/questions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), payload["current_category"])
	assert.Equal(t, float64(2), payload["total_questions"])

	rec, _ = doJSON(t, mux, http.MethodGet, "/categories/42/questions", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerQuizValidation(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodPost, "/quizzes", `{"previous_questions":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "missing_field", payload["error"])
	assert.Equal(t, "quiz_category", payload["field"])

	rec, payload = doJSON(t, mux, http.MethodPost, "/quizzes", `{"quiz_category":{"id":1,"type":"Science"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "missing_field", payload["error"])
	assert.Equal(t, "previous_questions", payload["field"])
}

func TestHandlerQuizScopedSelectionAndExhaustion(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodPost, "/quizzes",
		`{"quiz_category":{"id":1,"type":"Science"},"previous_questions":[10]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	question := payload["question"].(map[string]interface{})
	assert.Equal(t, float64(11), question["id"])

	rec, payload = doJSON(t, mux, http.MethodPost, "/quizzes",
		`{"quiz_category":{"id":1,"type":"Science"},"previous_questions":[10,11]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "quiz_exhausted", payload["error"])
}

func TestHandlerQuizSessionTracksSeenQuestions(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	// Empty quiz_session mints a token.
	rec, payload := doJSON(t, mux, http.MethodPost, "/quizzes",
		`{"quiz_category":{"id":1,"type":"Science"},"previous_questions":[],"quiz_session":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token, ok := payload["quiz_session"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	firstID := payload["question"].(map[string]interface{})["id"].(float64)

	// The same token must exclude the first question without the client
	// echoing it back.
	body, err := json.Marshal(map[string]interface{}{
		"quiz_category":      map[string]interface{}{"id": 1, "type": "Science"},
		"previous_questions": []int64{},
		"quiz_session":       token,
	})
	require.NoError(t, err)

	rec, payload = doJSON(t, mux, http.MethodPost, "/quizzes", string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	secondID := payload["question"].(map[string]interface{})["id"].(float64)
	assert.NotEqual(t, firstID, secondID)

	// Third call on the same scope is exhausted.
	rec, payload = doJSON(t, mux, http.MethodPost, "/quizzes", string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "quiz_exhausted", payload["error"])
}

func TestHandlerQuizUnknownCategoryFallsBackToAll(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	mux := testRouter(handlers)

	rec, payload := doJSON(t, mux, http.MethodPost, "/quizzes",
		`{"quiz_category":{"id":0,"type":"ALL"},"previous_questions":[10,11]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	question := payload["question"].(map[string]interface{})
	assert.Equal(t, float64(12), question["id"], "only the art question remains across all categories")
}
