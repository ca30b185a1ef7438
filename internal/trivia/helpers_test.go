package trivia

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// memoryCategoryStore is a CategoryStore test double.
type memoryCategoryStore struct {
	categories []Category
	calls      int
	err        error
}

func (s *memoryCategoryStore) List(ctx context.Context) ([]Category, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.categories), nil
}

// memoryQuestionStore is a QuestionStore test double with the same ordering
// and not-found semantics as the Postgres repository.
type memoryQuestionStore struct {
	questions []Question
	nextID    int64
}

func newMemoryQuestionStore(questions ...Question) *memoryQuestionStore {
	var maxID int64
	for _, q := range questions {
		if q.ID > maxID {
			maxID = q.ID
		}
	}
	s := &memoryQuestionStore{questions: questions, nextID: maxID}
	s.sort()
	return s
}

func (s *memoryQuestionStore) sort() {
	slices.SortFunc(s.questions, func(a, b Question) int { return int(a.ID - b.ID) })
}

func (s *memoryQuestionStore) List(ctx context.Context) ([]Question, error) {
	return slices.Clone(s.questions), nil
}

func (s *memoryQuestionStore) GetByID(ctx context.Context, id int64) (Question, error) {
	for _, q := range s.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return Question{}, ErrNotFound
}

func (s *memoryQuestionStore) ExistsByText(ctx context.Context, text string) (bool, error) {
	for _, q := range s.questions {
		if q.Question == text {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryQuestionStore) Insert(ctx context.Context, in NewQuestion) (Question, error) {
	if exists, _ := s.ExistsByText(ctx, in.Question); exists {
		return Question{}, ErrDuplicateQuestion
	}
	s.nextID++
	q := Question{
		ID:         s.nextID,
		Question:   in.Question,
		Answer:     in.Answer,
		Category:   in.Category,
		Difficulty: in.Difficulty,
	}
	s.questions = append(s.questions, q)
	s.sort()
	return q, nil
}

func (s *memoryQuestionStore) Update(ctx context.Context, q Question) error {
	for _, other := range s.questions {
		if other.ID != q.ID && other.Question == q.Question {
			return ErrDuplicateQuestion
		}
	}
	for i := range s.questions {
		if s.questions[i].ID == q.ID {
			s.questions[i] = q
			return nil
		}
	}
	return ErrNotFound
}

func (s *memoryQuestionStore) Delete(ctx context.Context, id int64) error {
	for i, q := range s.questions {
		if q.ID == id {
			s.questions = slices.Delete(s.questions, i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

func (s *memoryQuestionStore) Search(ctx context.Context, term string) ([]Question, error) {
	lower := strings.ToLower(term)
	var matches []Question
	for _, q := range s.questions {
		if strings.Contains(strings.ToLower(q.Question), lower) {
			matches = append(matches, q)
		}
	}
	return matches, nil
}

func (s *memoryQuestionStore) ListByCategory(ctx context.Context, categoryID int64) ([]Question, error) {
	var matches []Question
	for _, q := range s.questions {
		if q.Category == categoryID {
			matches = append(matches, q)
		}
	}
	return matches, nil
}

func (s *memoryQuestionStore) ListExcluding(ctx context.Context, excluded []int64, categoryID *int64) ([]Question, error) {
	var matches []Question
	for _, q := range s.questions {
		if slices.Contains(excluded, q.ID) {
			continue
		}
		if categoryID != nil && q.Category != *categoryID {
			continue
		}
		matches = append(matches, q)
	}
	return matches, nil
}

// memoryCategoryCache is a CategoryCache test double.
type memoryCategoryCache struct {
	categories []Category
	sets       int
}

func (c *memoryCategoryCache) Get(ctx context.Context) ([]Category, error) {
	return c.categories, nil
}

func (c *memoryCategoryCache) Set(ctx context.Context, categories []Category) error {
	c.categories = categories
	c.sets++
	return nil
}

// memorySessionStore is a QuizSessionStore test double.
type memorySessionStore struct {
	seen map[string][]int64
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{seen: map[string][]int64{}}
}

func (s *memorySessionStore) Seen(ctx context.Context, token string) ([]int64, error) {
	return slices.Clone(s.seen[token]), nil
}

func (s *memorySessionStore) MarkSeen(ctx context.Context, token string, questionID int64) error {
	s.seen[token] = append(s.seen[token], questionID)
	return nil
}

func defaultCategories() []Category {
	return []Category{
		{ID: 1, Type: "Science"},
		{ID: 2, Type: "Art"},
	}
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestService(categories *memoryCategoryStore, questions *memoryQuestionStore, opts ServiceOptions) *Service {
	return NewService(categories, questions, nil, opts, testLogger())
}
