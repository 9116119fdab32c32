package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/seatmap/internal/domain"
)

const chartColumns = `id, department, name, description, layout, metadata, is_active, deleted_at, revision, created_at, updated_at`

// Timestamps come from the database clock, as in Update.
const insertChartSQL = `INSERT INTO seating_charts (id, department, name, description, layout, metadata, is_active, deleted_at, revision, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, 1, now(), now())
	 RETURNING created_at, updated_at`

type ChartRepo struct {
	pool *pgxpool.Pool
}

func NewChartRepo(pool *pgxpool.Pool) *ChartRepo {
	return &ChartRepo{pool: pool}
}

func (r *ChartRepo) Create(ctx context.Context, c *domain.SeatingChart) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("chartRepo.Create: new id: %w", err)
	}

	layout, err := json.Marshal(c.Layout)
	if err != nil {
		return fmt.Errorf("chartRepo.Create: marshal layout: %w", err)
	}

	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("chartRepo.Create: marshal metadata: %w", err)
	}

	err = r.pool.QueryRow(ctx, insertChartSQL,
		id, c.Department, c.Name, c.Description, layout, metadata, c.IsActive,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("chartRepo.Create: %w", err)
	}

	c.ID = id
	c.Revision = 1
	c.DeletedAt = nil

	return nil
}

// GetByID returns an active chart. Soft-deleted charts report ErrNotFound.
func (r *ChartRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SeatingChart, error) {
	c, err := scanChart(r.pool.QueryRow(ctx,
		`SELECT `+chartColumns+` FROM seating_charts WHERE id = $1 AND is_active`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chartRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("chartRepo.GetByID: %w", err)
	}

	return c, nil
}

// GetByIDUnscoped returns a chart regardless of its active flag.
func (r *ChartRepo) GetByIDUnscoped(ctx context.Context, id uuid.UUID) (*domain.SeatingChart, error) {
	c, err := scanChart(r.pool.QueryRow(ctx,
		`SELECT `+chartColumns+` FROM seating_charts WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chartRepo.GetByIDUnscoped: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("chartRepo.GetByIDUnscoped: %w", err)
	}

	return c, nil
}

func (r *ChartRepo) List(ctx context.Context, f domain.ChartFilter) (*domain.Page[*domain.SeatingChart], error) {
	f = f.Normalize()
	where, args := chartFilterClause(f)

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM seating_charts`+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("chartRepo.List: count: %w", err)
	}

	n := len(args)
	args = append(args, f.Limit, domain.Offset(f.Page, f.Limit))
	rows, err := r.pool.Query(ctx,
		`SELECT `+chartColumns+` FROM seating_charts`+where+`
		 ORDER BY updated_at DESC, seq DESC
		 LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("chartRepo.List: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.SeatingChart, 0, f.Limit)
	for rows.Next() {
		c, scanErr := scanChart(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("chartRepo.List: scan: %w", scanErr)
		}
		items = append(items, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("chartRepo.List: rows: %w", err)
	}

	return &domain.Page[*domain.SeatingChart]{Items: items, Page: f.Page, Limit: f.Limit, Total: total}, nil
}

// Update merges the present fields of p, bumping updated_at and revision in
// the same statement. When the row is missing, inactive (without
// AllowInactive) or at a different revision than expected, nothing is written.
func (r *ChartRepo) Update(ctx context.Context, id uuid.UUID, p domain.ChartPatch, opts domain.UpdateOptions) (*domain.SeatingChart, error) {
	query, args, err := buildChartUpdate(id, p, opts)
	if err != nil {
		return nil, fmt.Errorf("chartRepo.Update: %w", err)
	}

	c, err := scanChart(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chartRepo.Update: %w", r.missReason(ctx, id, opts))
	}
	if err != nil {
		return nil, fmt.Errorf("chartRepo.Update: %w", err)
	}

	return c, nil
}

// missReason tells a missing chart apart from a stale revision after an
// update matched no row.
func (r *ChartRepo) missReason(ctx context.Context, id uuid.UUID, opts domain.UpdateOptions) error {
	var revision int64
	var active bool

	err := r.pool.QueryRow(ctx,
		`SELECT revision, is_active FROM seating_charts WHERE id = $1`, id,
	).Scan(&revision, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	return classifyMiss(revision, active, opts)
}

func classifyMiss(revision int64, active bool, opts domain.UpdateOptions) error {
	if !active && !opts.AllowInactive {
		return domain.ErrNotFound
	}
	if opts.ExpectedRevision > 0 && revision != opts.ExpectedRevision {
		return fmt.Errorf("%w: revision is %d, expected %d", domain.ErrConflict, revision, opts.ExpectedRevision)
	}
	// The row changed between the update and this probe.
	return domain.ErrConflict
}

// SoftDelete marks a chart inactive. Deleting an already deleted chart keeps
// its original deleted_at.
func (r *ChartRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE seating_charts
		 SET is_active = FALSE, deleted_at = COALESCE(deleted_at, now())
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("chartRepo.SoftDelete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chartRepo.SoftDelete: %w", domain.ErrNotFound)
	}

	return nil
}

func buildChartUpdate(id uuid.UUID, p domain.ChartPatch, opts domain.UpdateOptions) (string, []any, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if p.Department != nil {
		set("department", *p.Department)
	}
	if p.Name != nil {
		set("name", *p.Name)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Layout != nil {
		layout, err := json.Marshal(p.Layout)
		if err != nil {
			return "", nil, fmt.Errorf("marshal layout: %w", err)
		}
		set("layout", layout)
	}
	if p.Metadata != nil {
		metadata, err := json.Marshal(p.Metadata)
		if err != nil {
			return "", nil, fmt.Errorf("marshal metadata: %w", err)
		}
		set("metadata", metadata)
	}
	if p.IsActive != nil {
		set("is_active", *p.IsActive)
		if *p.IsActive {
			sets = append(sets, "deleted_at = NULL")
		} else {
			sets = append(sets, "deleted_at = COALESCE(deleted_at, now())")
		}
	}
	sets = append(sets, "updated_at = now()", "revision = revision + 1")

	args = append(args, id)
	where := []string{"id = $" + strconv.Itoa(len(args))}
	if !opts.AllowInactive {
		where = append(where, "is_active")
	}
	if opts.ExpectedRevision > 0 {
		args = append(args, opts.ExpectedRevision)
		where = append(where, "revision = $"+strconv.Itoa(len(args)))
	}

	query := `UPDATE seating_charts SET ` + strings.Join(sets, ", ") +
		` WHERE ` + strings.Join(where, " AND ") +
		` RETURNING ` + chartColumns

	return query, args, nil
}

func chartFilterClause(f domain.ChartFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Department != "" {
		args = append(args, f.Department)
		conds = append(conds, "department = $"+strconv.Itoa(len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, "is_active = $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanChart(row pgx.Row) (*domain.SeatingChart, error) {
	var c domain.SeatingChart
	var layout, metadata []byte

	err := row.Scan(
		&c.ID, &c.Department, &c.Name, &c.Description, &layout, &metadata,
		&c.IsActive, &c.DeletedAt, &c.Revision, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(layout, &c.Layout); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if c.Layout.Seats == nil {
		c.Layout.Seats = []domain.Seat{}
	}

	return &c, nil
}
