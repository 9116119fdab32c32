package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/seatmap/internal/domain"
)

const insertVersionSQL = `INSERT INTO seating_chart_versions (id, chart_id, version_data, created_at)
	 VALUES ($1, $2, $3, now())`

// VersionRepo is the append-only snapshot log of seating charts.
type VersionRepo struct {
	pool *pgxpool.Pool
}

func NewVersionRepo(pool *pgxpool.Pool) *VersionRepo {
	return &VersionRepo{pool: pool}
}

func (r *VersionRepo) Snapshot(ctx context.Context, chartID uuid.UUID, state *domain.SeatingChart) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("versionRepo.Snapshot: new id: %w", err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return uuid.Nil, fmt.Errorf("versionRepo.Snapshot: marshal: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertVersionSQL, id, chartID, data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("versionRepo.Snapshot: %w", err)
	}

	return id, nil
}

func (r *VersionRepo) List(ctx context.Context, chartID uuid.UUID, page, limit int) (*domain.Page[*domain.ChartVersion], error) {
	page, limit = domain.NormalizePage(page, limit)

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM seating_chart_versions WHERE chart_id = $1`, chartID,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("versionRepo.List: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, chart_id, version_data, created_at
		 FROM seating_chart_versions WHERE chart_id = $1
		 ORDER BY created_at DESC, seq DESC
		 LIMIT $2 OFFSET $3`,
		chartID, limit, domain.Offset(page, limit),
	)
	if err != nil {
		return nil, fmt.Errorf("versionRepo.List: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.ChartVersion, 0, limit)
	for rows.Next() {
		v, scanErr := scanVersion(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("versionRepo.List: scan: %w", scanErr)
		}
		items = append(items, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("versionRepo.List: rows: %w", err)
	}

	return &domain.Page[*domain.ChartVersion]{Items: items, Page: page, Limit: limit, Total: total}, nil
}

// Get returns a snapshot only when it belongs to chartID.
func (r *VersionRepo) Get(ctx context.Context, chartID, versionID uuid.UUID) (*domain.ChartVersion, error) {
	v, err := scanVersion(r.pool.QueryRow(ctx,
		`SELECT id, chart_id, version_data, created_at
		 FROM seating_chart_versions WHERE chart_id = $1 AND id = $2`,
		chartID, versionID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("versionRepo.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("versionRepo.Get: %w", err)
	}

	return v, nil
}

// Prune keeps the newest keep snapshots of a chart and deletes the rest.
func (r *VersionRepo) Prune(ctx context.Context, chartID uuid.UUID, keep int) (int64, error) {
	if keep < 1 {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM seating_chart_versions
		 WHERE chart_id = $1 AND id NOT IN (
		     SELECT id FROM seating_chart_versions WHERE chart_id = $1
		     ORDER BY created_at DESC, seq DESC
		     LIMIT $2
		 )`,
		chartID, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("versionRepo.Prune: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanVersion(row pgx.Row) (*domain.ChartVersion, error) {
	var v domain.ChartVersion
	var data []byte

	if err := row.Scan(&v.ID, &v.ChartID, &data, &v.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &v.Data); err != nil {
		return nil, fmt.Errorf("unmarshal version data: %w", err)
	}

	return &v, nil
}
