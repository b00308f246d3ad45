package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

// AnalysisRepo implements ports.AnalysisRepository. Request and result are
// stored as JSONB next to a few columns pulled out for listing.
type AnalysisRepo struct {
	db *DB
}

func NewAnalysisRepo(db *DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

const analysisColumns = `id::text, plant_type, request, status, result, COALESCE(error, ''), COALESCE(error_kind, ''), created_at, completed_at`

func (r *AnalysisRepo) Create(ctx context.Context, a *domain.Analysis) error {
	req, err := json.Marshal(a.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	var result []byte
	if a.Result != nil {
		if result, err = json.Marshal(a.Result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}

	_, err = r.db.Pool.Exec(ctx, `
        INSERT INTO analyses (id, plant_type, request, status, result, error, error_kind, created_at, completed_at)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
    `, a.ID, string(a.Request.PlantType), req, string(a.Status), result, a.Error, a.ErrorKind, a.CreatedAt, a.CompletedAt)
	return err
}

func (r *AnalysisRepo) MarkRunning(ctx context.Context, id string) error {
	return r.update(ctx, `
        UPDATE analyses
        SET status = 'running', error = NULL, error_kind = NULL, completed_at = NULL
        WHERE id = $1 AND status <> 'completed'
    `, id)
}

func (r *AnalysisRepo) Complete(ctx context.Context, id string, result *domain.SiteResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return r.update(ctx, `
        UPDATE analyses
        SET status = 'completed', result = $2, error = NULL, error_kind = NULL, completed_at = $3
        WHERE id = $1
    `, id, raw, time.Now().UTC())
}

func (r *AnalysisRepo) Fail(ctx context.Context, id, kind, message string) error {
	return r.update(ctx, `
        UPDATE analyses
        SET status = 'failed', error = $2, error_kind = $3, completed_at = $4
        WHERE id = $1
    `, id, message, kind, time.Now().UTC())
}

func (r *AnalysisRepo) update(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAnalysisNotFound
	}
	return nil
}

func (r *AnalysisRepo) GetByID(ctx context.Context, id string) (*domain.Analysis, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = $1`, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAnalysisNotFound
	}
	return a, err
}

func (r *AnalysisRepo) List(ctx context.Context, offset, limit int) ([]domain.Analysis, error) {
	rows, err := r.db.Pool.Query(ctx, `
        SELECT `+analysisColumns+`
        FROM analyses
        ORDER BY created_at DESC, id
        OFFSET $1 LIMIT $2
    `, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AnalysisRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM analyses`).Scan(&n)
	return n, err
}

func scanAnalysis(row pgx.Row) (*domain.Analysis, error) {
	var (
		a          domain.Analysis
		plant      string
		status     string
		reqRaw     []byte
		resultRaw  []byte
		completeAt *time.Time
	)
	if err := row.Scan(&a.ID, &plant, &reqRaw, &status, &resultRaw, &a.Error, &a.ErrorKind, &a.CreatedAt, &completeAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(reqRaw, &a.Request); err != nil {
		return nil, fmt.Errorf("decode request of %s: %w", a.ID, err)
	}
	if len(resultRaw) > 0 {
		a.Result = &domain.SiteResult{}
		if err := json.Unmarshal(resultRaw, a.Result); err != nil {
			return nil, fmt.Errorf("decode result of %s: %w", a.ID, err)
		}
	}
	a.Status = domain.AnalysisStatus(status)
	a.CompletedAt = completeAt
	return &a, nil
}
