package articles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amanah-org/amanah/internal/platform/db"
	"github.com/amanah-org/amanah/internal/shared"
)

// Repository provides PostgreSQL backed persistence for articles and the
// authorized-department set.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const articleColumns = `id, title, content, author_id, COALESCE(published_at, 'epoch'::timestamptz), created_at, updated_at`

// Get fetches one article.
func (r *Repository) Get(ctx context.Context, id int64) (Article, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	article, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Article{}, fmt.Errorf("%w: article %d", shared.ErrNotFound, id)
		}
		return Article{}, err
	}
	return article, nil
}

// Count returns the number of articles.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&total)
	return total, err
}

// List returns one page of articles, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Article, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, article)
	}
	return out, rows.Err()
}

// Create inserts an article.
func (r *Repository) Create(ctx context.Context, article Article) (Article, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO articles (title, content, author_id, published_at, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW(), NOW())
		 RETURNING `+articleColumns,
		article.Title, article.Content, article.AuthorID)
	return scanArticle(row)
}

// Update rewrites title and content.
func (r *Repository) Update(ctx context.Context, article Article) (Article, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE articles SET title = $2, content = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+articleColumns,
		article.ID, article.Title, article.Content)
	updated, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Article{}, fmt.Errorf("%w: article %d", shared.ErrNotFound, article.ID)
		}
		return Article{}, err
	}
	return updated, nil
}

// Delete removes an article.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: article %d", shared.ErrNotFound, id)
	}
	return nil
}

// AuthorizedDepartmentIDs returns the current capability set.
func (r *Repository) AuthorizedDepartmentIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT department_id FROM article_departments ORDER BY department_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ReplaceAuthorizedDepartments swaps the capability set in one transaction so
// readers never observe a half-replaced set. Replace, not merge.
func (r *Repository) ReplaceAuthorizedDepartments(ctx context.Context, departmentIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM article_departments`); err != nil {
			return err
		}
		if len(departmentIDs) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO article_departments (department_id, granted_at)
			 SELECT did, NOW() FROM unnest($1::bigint[]) AS did`,
			departmentIDs)
		return err
	})
}

func scanArticle(row pgx.Row) (Article, error) {
	var article Article
	err := row.Scan(&article.ID, &article.Title, &article.Content, &article.AuthorID,
		&article.PublishedAt, &article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		return Article{}, err
	}
	if article.PublishedAt.Unix() == 0 {
		article.PublishedAt = time.Time{}
	}
	return article, nil
}

var _ RepositoryPort = (*Repository)(nil)
