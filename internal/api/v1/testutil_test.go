package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/seatmap/internal/domain"
	"github.com/gosuda/seatmap/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject user/role into context for the *Ctx request methods
// ---------------------------------------------------------------------------

func userCtx(userID, role string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, role)
	return ctx
}

func editorCtx() context.Context { return userCtx("erin", middleware.RoleEditor) }
func viewerCtx() context.Context { return userCtx("vic", middleware.RoleViewer) }

// ---------------------------------------------------------------------------
// Mock ChartService
// ---------------------------------------------------------------------------

type mockChartService struct {
	createFunc       func(ctx context.Context, in domain.ChartInput) (*domain.SeatingChart, error)
	listFunc         func(ctx context.Context, f domain.ChartFilter) (*domain.Page[*domain.SeatingChart], error)
	getFunc          func(ctx context.Context, id uuid.UUID) (*domain.SeatingChart, error)
	updateFunc       func(ctx context.Context, id uuid.UUID, patch domain.ChartPatch, ifRevision int64) (*domain.SeatingChart, error)
	deleteFunc       func(ctx context.Context, id uuid.UUID) error
	patchSeatFunc    func(ctx context.Context, chartID uuid.UUID, seatID string, patch domain.SeatPatch) (*domain.SeatingChart, error)
	listVersionsFunc func(ctx context.Context, chartID uuid.UUID, page, limit int) (*domain.Page[*domain.ChartVersion], error)
	getVersionFunc   func(ctx context.Context, chartID, versionID uuid.UUID) (*domain.ChartVersion, error)
	rollbackFunc     func(ctx context.Context, chartID, versionID uuid.UUID) (*domain.SeatingChart, error)
}

func (m *mockChartService) Create(ctx context.Context, in domain.ChartInput) (*domain.SeatingChart, error) {
	return m.createFunc(ctx, in)
}

func (m *mockChartService) List(ctx context.Context, f domain.ChartFilter) (*domain.Page[*domain.SeatingChart], error) {
	return m.listFunc(ctx, f)
}

func (m *mockChartService) Get(ctx context.Context, id uuid.UUID) (*domain.SeatingChart, error) {
	return m.getFunc(ctx, id)
}

func (m *mockChartService) Update(ctx context.Context, id uuid.UUID, patch domain.ChartPatch, ifRevision int64) (*domain.SeatingChart, error) {
	return m.updateFunc(ctx, id, patch, ifRevision)
}

func (m *mockChartService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockChartService) PatchSeat(ctx context.Context, chartID uuid.UUID, seatID string, patch domain.SeatPatch) (*domain.SeatingChart, error) {
	return m.patchSeatFunc(ctx, chartID, seatID, patch)
}

func (m *mockChartService) ListVersions(ctx context.Context, chartID uuid.UUID, page, limit int) (*domain.Page[*domain.ChartVersion], error) {
	return m.listVersionsFunc(ctx, chartID, page, limit)
}

func (m *mockChartService) GetVersion(ctx context.Context, chartID, versionID uuid.UUID) (*domain.ChartVersion, error) {
	return m.getVersionFunc(ctx, chartID, versionID)
}

func (m *mockChartService) Rollback(ctx context.Context, chartID, versionID uuid.UUID) (*domain.SeatingChart, error) {
	return m.rollbackFunc(ctx, chartID, versionID)
}
