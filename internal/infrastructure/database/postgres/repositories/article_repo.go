// Package repositories holds the PostgreSQL-backed replaced article store.
package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx the repository uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoredArticle is one row of replaced_articles.
type StoredArticle struct {
	RunID     string
	Seq       int
	PMID      string
	Year      string
	Text      string
	Spans     int
	CreatedAt time.Time
}

// ArticleRepository reads and writes replaced articles.
type ArticleRepository struct {
	db  DBTX
	log logging.Logger
}

// NewArticleRepository returns a repository over db.
func NewArticleRepository(db DBTX, log logging.Logger) *ArticleRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ArticleRepository{db: db, log: log}
}

// CreateRun registers a run. Registering the same run twice is a no-op.
func (r *ArticleRepository) CreateRun(ctx context.Context, runID, input string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO replacement_runs (run_id, input)
		VALUES ($1, $2)
		ON CONFLICT (run_id) DO NOTHING`, runID, input)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create run").WithDetail(runID)
	}
	return nil
}

// Insert stores a as the seq-th article of its run.
func (r *ArticleRepository) Insert(ctx context.Context, a StoredArticle) error {
	var year any
	if a.Year != "" {
		year = a.Year
	}
	tag, err := r.db.Exec(ctx, `
		INSERT INTO replaced_articles (run_id, seq, pmid, year, text, spans)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.RunID, a.Seq, a.PMID, year, a.Text, a.Spans)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert article").WithDetail(a.PMID)
	}
	if tag.RowsAffected() != 1 {
		return errors.Newf(errors.ErrCodeDatabaseError, "insert affected %d rows", tag.RowsAffected())
	}
	return nil
}

// CountByRun returns how many articles a run stored.
func (r *ArticleRepository) CountByRun(ctx context.Context, runID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM replaced_articles WHERE run_id = $1`, runID).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count articles")
	}
	return n, nil
}

// ListByRun returns a run's articles in output order.
func (r *ArticleRepository) ListByRun(ctx context.Context, runID string, limit, offset int) ([]StoredArticle, error) {
	rows, err := r.db.Query(ctx, `
		SELECT run_id, seq, pmid, COALESCE(year, ''), text, spans, created_at
		FROM replaced_articles
		WHERE run_id = $1
		ORDER BY seq
		LIMIT $2 OFFSET $3`, runID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list articles")
	}
	defer rows.Close()

	var out []StoredArticle
	for rows.Next() {
		var a StoredArticle
		if err := rows.Scan(&a.RunID, &a.Seq, &a.PMID, &a.Year, &a.Text, &a.Spans, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan article")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate articles")
	}
	return out, nil
}

//Personal.AI order the ending
