package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/triviaworks/trivia-api/internal/trivia"
)

// CategoryRepository reads categories from Postgres. Categories are created
// administratively (seed migration) and never mutated here.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

var _ trivia.CategoryStore = (*CategoryRepository)(nil)

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns all categories ordered by id.
func (r *CategoryRepository) List(ctx context.Context) ([]trivia.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, type
		FROM categories
		ORDER BY id
	`)
	if err != nil {
		return nil, &trivia.PersistenceError{Op: "list categories", Err: err}
	}
	defer rows.Close()

	var categories []trivia.Category
	for rows.Next() {
		var c trivia.Category
		if err := rows.Scan(&c.ID, &c.Type); err != nil {
			return nil, &trivia.PersistenceError{Op: "scan category", Err: err}
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &trivia.PersistenceError{Op: "iterate categories", Err: err}
	}
	return categories, nil
}
