package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triviaworks/trivia-api/internal/trivia"
)

const uniqueViolation = "23505"

const questionColumns = "id, question, answer, category, difficulty"

// QuestionRepository stores questions in Postgres. Listings are always
// ordered by id so pagination stays deterministic.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

var _ trivia.QuestionStore = (*QuestionRepository)(nil)

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// List returns every question ordered by id.
func (r *QuestionRepository) List(ctx context.Context) ([]trivia.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		ORDER BY id
	`)
	if err != nil {
		return nil, &trivia.PersistenceError{Op: "list questions", Err: err}
	}
	return scanQuestions(rows)
}

// GetByID returns a single question, or trivia.ErrNotFound.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (trivia.Question, error) {
	var q trivia.Question
	err := r.pool.QueryRow(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE id = $1
	`, id).Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trivia.Question{}, trivia.ErrNotFound
		}
		return trivia.Question{}, &trivia.PersistenceError{Op: "get question", Err: err}
	}
	return q, nil
}

// ExistsByText reports whether a question with exactly this text exists.
func (r *QuestionRepository) ExistsByText(ctx context.Context, text string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM questions WHERE question = $1)
	`, text).Scan(&exists)
	if err != nil {
		return false, &trivia.PersistenceError{Op: "check question text", Err: err}
	}
	return exists, nil
}

// Insert creates a question and returns it with its assigned id. A unique
// index on question text backs the duplicate check; a violation surfaces as
// trivia.ErrDuplicateQuestion.
func (r *QuestionRepository) Insert(ctx context.Context, in trivia.NewQuestion) (trivia.Question, error) {
	var q trivia.Question
	err := r.pool.QueryRow(ctx, `
		INSERT INTO questions (question, answer, category, difficulty)
		VALUES ($1, $2, $3, $4)
		RETURNING `+questionColumns+`
	`, in.Question, in.Answer, in.Category, in.Difficulty).
		Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return trivia.Question{}, trivia.ErrDuplicateQuestion
		}
		return trivia.Question{}, &trivia.PersistenceError{Op: "insert question", Err: err}
	}
	return q, nil
}

// Update replaces all fields of an existing question.
func (r *QuestionRepository) Update(ctx context.Context, q trivia.Question) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE questions
		SET question = $1, answer = $2, category = $3, difficulty = $4
		WHERE id = $5
	`, q.Question, q.Answer, q.Category, q.Difficulty, q.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return trivia.ErrDuplicateQuestion
		}
		return &trivia.PersistenceError{Op: "update question", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return trivia.ErrNotFound
	}
	return nil
}

// Delete removes a question. Deleting an id that no longer exists is
// trivia.ErrNotFound; the single-row DELETE keeps concurrent deletes of the
// same id from both reporting success.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return &trivia.PersistenceError{Op: "delete question", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return trivia.ErrNotFound
	}
	return nil
}

// Search returns questions whose text contains term, case-insensitively,
// ordered by id.
func (r *QuestionRepository) Search(ctx context.Context, term string) ([]trivia.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE question ILIKE '%' || $1 || '%'
		ORDER BY id
	`, term)
	if err != nil {
		return nil, &trivia.PersistenceError{Op: "search questions", Err: err}
	}
	return scanQuestions(rows)
}

// ListByCategory returns a category's questions ordered by id.
func (r *QuestionRepository) ListByCategory(ctx context.Context, categoryID int64) ([]trivia.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE category = $1
		ORDER BY id
	`, categoryID)
	if err != nil {
		return nil, &trivia.PersistenceError{Op: "list questions by category", Err: err}
	}
	return scanQuestions(rows)
}

// ListExcluding returns questions whose id is not in excluded, optionally
// restricted to one category, ordered by id.
func (r *QuestionRepository) ListExcluding(ctx context.Context, excluded []int64, categoryID *int64) ([]trivia.Question, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE NOT (id = ANY($1))
		  AND ($2::bigint IS NULL OR category = $2)
		ORDER BY id
	`, excluded, categoryID)
	if err != nil {
		return nil, &trivia.PersistenceError{Op: "list candidate questions", Err: err}
	}
	return scanQuestions(rows)
}

func scanQuestions(rows pgx.Rows) ([]trivia.Question, error) {
	defer rows.Close()

	var questions []trivia.Question
	for rows.Next() {
		var q trivia.Question
		if err := rows.Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty); err != nil {
			return nil, &trivia.PersistenceError{Op: "scan question", Err: err}
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &trivia.PersistenceError{Op: "iterate questions", Err: err}
	}
	return questions, nil
}
