package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/seatmap/internal/domain"
)

// ChartService abstracts chart operations for handler testing.
// *chart.Service satisfies this interface.
type ChartService interface {
	Create(ctx context.Context, in domain.ChartInput) (*domain.SeatingChart, error)
	List(ctx context.Context, f domain.ChartFilter) (*domain.Page[*domain.SeatingChart], error)
	Get(ctx context.Context, id uuid.UUID) (*domain.SeatingChart, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.ChartPatch, ifRevision int64) (*domain.SeatingChart, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PatchSeat(ctx context.Context, chartID uuid.UUID, seatID string, patch domain.SeatPatch) (*domain.SeatingChart, error)
	ListVersions(ctx context.Context, chartID uuid.UUID, page, limit int) (*domain.Page[*domain.ChartVersion], error)
	GetVersion(ctx context.Context, chartID, versionID uuid.UUID) (*domain.ChartVersion, error)
	Rollback(ctx context.Context, chartID, versionID uuid.UUID) (*domain.SeatingChart, error)
}
