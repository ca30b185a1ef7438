package trivia

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// CategoryStore provides read access to the category table.
type CategoryStore interface {
	List(ctx context.Context) ([]Category, error)
}

// QuestionStore provides access to the question table. All listings are
// ordered by id ascending. Lookups return ErrNotFound for missing rows and
// Delete must fail the same way on an already-removed id.
type QuestionStore interface {
	List(ctx context.Context) ([]Question, error)
	GetByID(ctx context.Context, id int64) (Question, error)
	ExistsByText(ctx context.Context, text string) (bool, error)
	Insert(ctx context.Context, q NewQuestion) (Question, error)
	Update(ctx context.Context, q Question) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, term string) ([]Question, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]Question, error)
	ListExcluding(ctx context.Context, excluded []int64, categoryID *int64) ([]Question, error)
}

// CategoryCache defines cache behavior (implemented by the Redis-backed Cache).
// A miss is (nil, nil).
type CategoryCache interface {
	Get(ctx context.Context) ([]Category, error)
	Set(ctx context.Context, categories []Category) error
}

// Service drives the question bank and quiz selection.
type Service struct {
	categories CategoryStore
	questions  QuestionStore
	cache      CategoryCache
	pageSize   int
	randIndex  func(n int) int
	logger     zerolog.Logger
}

// ServiceOptions tunes paging and randomness. RandIndex exists so tests can
// pin the selection; it must return a value in [0, n).
type ServiceOptions struct {
	PageSize  int
	RandIndex func(n int) int
}

func NewService(categories CategoryStore, questions QuestionStore, cache CategoryCache, opts ServiceOptions, logger zerolog.Logger) *Service {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	randIndex := opts.RandIndex
	if randIndex == nil {
		randIndex = rand.IntN
	}
	return &Service{
		categories: categories,
		questions:  questions,
		cache:      cache,
		pageSize:   pageSize,
		randIndex:  randIndex,
		logger:     logger.With().Str("component", "trivia").Logger(),
	}
}

// ListCategories returns all categories ordered by id, or ErrNotFound when
// the store is empty.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, ErrNotFound
	}
	return categories, nil
}

// ListQuestions returns one page of the full question listing together with
// the total count, the category map and the distinct category ids present on
// the page. An empty page is ErrNotFound.
func (s *Service) ListQuestions(ctx context.Context, page int) (QuestionPage, error) {
	categories, err := s.loadCategories(ctx)
	if err != nil {
		return QuestionPage{}, err
	}
	all, err := s.questions.List(ctx)
	if err != nil {
		return QuestionPage{}, err
	}

	paged := Paginate(all, page, s.pageSize)
	if len(paged) == 0 {
		return QuestionPage{}, ErrNotFound
	}

	return QuestionPage{
		Questions:      paged,
		TotalQuestions: len(all),
		Categories:     categories,
		PageCategories: distinctCategories(paged),
	}, nil
}

// CreateQuestion validates input, rejects duplicate question text, and
// inserts. Validation happens before any write.
func (s *Service) CreateQuestion(ctx context.Context, in NewQuestion) (Question, error) {
	if err := validateQuestionInput(in); err != nil {
		return Question{}, err
	}

	exists, err := s.questions.ExistsByText(ctx, in.Question)
	if err != nil {
		return Question{}, err
	}
	if exists {
		return Question{}, &ValidationError{Field: "question", Reason: "question text already exists"}
	}

	created, err := s.questions.Insert(ctx, in)
	if err != nil {
		// The unique index can still fire under concurrent inserts.
		if errors.Is(err, ErrDuplicateQuestion) {
			return Question{}, &ValidationError{Field: "question", Reason: "question text already exists"}
		}
		return Question{}, err
	}

	s.logger.Info().Int64("question_id", created.ID).Int64("category", created.Category).Msg("question created")
	return created, nil
}

// UpdateQuestion replaces all fields of an existing question.
func (s *Service) UpdateQuestion(ctx context.Context, q Question) error {
	if err := validateQuestionInput(NewQuestion{
		Question:   q.Question,
		Answer:     q.Answer,
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}); err != nil {
		return err
	}
	if err := s.questions.Update(ctx, q); err != nil {
		// Renaming onto existing text trips the same unique index as insert.
		if errors.Is(err, ErrDuplicateQuestion) {
			return &ValidationError{Field: "question", Reason: "question text already exists"}
		}
		return err
	}
	return nil
}

// GetQuestion returns a single question by id.
func (s *Service) GetQuestion(ctx context.Context, id int64) (Question, error) {
	return s.questions.GetByID(ctx, id)
}

// DeleteQuestion removes a question permanently. Deleting an absent id is
// ErrNotFound, never a silent no-op.
func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("question_id", id).Msg("question deleted")
	return nil
}

// SearchQuestions returns one page of case-insensitive substring matches.
// A blank term is a precondition violation; zero matches is ErrNotFound.
func (s *Service) SearchQuestions(ctx context.Context, term string, page int) (SearchResult, error) {
	if strings.TrimSpace(term) == "" {
		return SearchResult{}, &ValidationError{Field: "searchTerm", Reason: "search term must not be blank"}
	}

	matches, err := s.questions.Search(ctx, term)
	if err != nil {
		return SearchResult{}, err
	}
	if len(matches) == 0 {
		return SearchResult{}, ErrNotFound
	}

	return SearchResult{
		Questions:      Paginate(matches, page, s.pageSize),
		TotalQuestions: len(matches),
	}, nil
}

// QuestionsByCategory returns one page of a category's questions. A category
// with no questions is ErrNotFound.
func (s *Service) QuestionsByCategory(ctx context.Context, categoryID int64, page int) (CategoryQuestions, error) {
	questions, err := s.questions.ListByCategory(ctx, categoryID)
	if err != nil {
		return CategoryQuestions{}, err
	}
	if len(questions) == 0 {
		return CategoryQuestions{}, ErrNotFound
	}

	return CategoryQuestions{
		Questions:      Paginate(questions, page, s.pageSize),
		TotalQuestions: len(questions),
		CategoryID:     categoryID,
	}, nil
}

// NextQuizQuestion picks one unseen question uniformly at random. A category
// id that matches no known category broadens the scope to all categories
// rather than failing. When every candidate has been seen the session is
// over and ErrExhausted is returned; previous ids are never repeated and
// scoped picks never leave the category.
//
// The caller owns the previous-question bookkeeping: a nil slice means the
// field was never supplied, which is a precondition violation distinct from
// exhaustion.
func (s *Service) NextQuizQuestion(ctx context.Context, categoryID int64, previous []int64) (Question, error) {
	if previous == nil {
		return Question{}, &ValidationError{Field: "previous_questions", Reason: "previous_questions is required"}
	}

	categories, err := s.loadCategories(ctx)
	if err != nil {
		return Question{}, err
	}

	var scope *int64
	if slices.ContainsFunc(categories, func(c Category) bool { return c.ID == categoryID }) {
		scope = &categoryID
	}

	candidates, err := s.questions.ListExcluding(ctx, previous, scope)
	if err != nil {
		return Question{}, err
	}
	if len(candidates) == 0 {
		return Question{}, ErrExhausted
	}

	return candidates[s.randIndex(len(candidates))], nil
}

// loadCategories serves categories from cache when possible. Cache failures
// are logged and fall through to the store; the cache never fails a request.
func (s *Service) loadCategories(ctx context.Context) ([]Category, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("category cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(categories) > 0 {
		if err := s.cache.Set(ctx, categories); err != nil {
			s.logger.Warn().Err(err).Msg("category cache write failed")
		}
	}
	return categories, nil
}

func validateQuestionInput(in NewQuestion) error {
	switch {
	case strings.TrimSpace(in.Question) == "":
		return &ValidationError{Field: "question", Reason: "question is required"}
	case strings.TrimSpace(in.Answer) == "":
		return &ValidationError{Field: "answer", Reason: "answer is required"}
	case in.Category <= 0:
		return &ValidationError{Field: "category", Reason: "category is required"}
	case in.Difficulty <= 0:
		return &ValidationError{Field: "difficulty", Reason: "difficulty is required"}
	}
	return nil
}

func distinctCategories(questions []Question) []int64 {
	var ids []int64
	for _, q := range questions {
		if !slices.Contains(ids, q.Category) {
			ids = append(ids, q.Category)
		}
	}
	slices.Sort(ids)
	return ids
}
