package v1

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/seatmap/internal/domain"
	"github.com/gosuda/seatmap/internal/server/middleware"
)

type CreateChartInput struct {
	Body CreateChartBody
}

type ChartOutput struct {
	ETag string `header:"ETag"`
	Body *domain.SeatingChart
}

type ListChartsInput struct {
	Department string `query:"department" doc:"Only charts of this department"`
	Active     string `query:"active" doc:"true for active charts, false for soft-deleted ones; omit for both"`
	Page       int    `query:"page" default:"1" doc:"1-based page number"`
	Limit      int    `query:"limit" default:"20" doc:"Page size, clamped to 1-100"`
}

type ListChartsOutput struct {
	Body *domain.Page[*domain.SeatingChart]
}

type GetChartInput struct {
	ID uuid.UUID `path:"id" doc:"Chart ID"`
}

type UpdateChartInput struct {
	ID      uuid.UUID `path:"id" doc:"Chart ID"`
	IfMatch string    `header:"If-Match" doc:"Revision the client last read; a mismatch is rejected with 409"`
	Body    UpdateChartBody
}

type DeleteChartInput struct {
	ID uuid.UUID `path:"id" doc:"Chart ID"`
}

type PatchSeatInput struct {
	ID     uuid.UUID `path:"id" doc:"Chart ID"`
	SeatID string    `path:"seatId" doc:"Seat ID"`
	Body   domain.SeatPatch
}

type ListVersionsInput struct {
	ID    uuid.UUID `path:"id" doc:"Chart ID"`
	Page  int       `query:"page" default:"1"`
	Limit int       `query:"limit" default:"20"`
}

type ListVersionsOutput struct {
	Body *domain.Page[*domain.ChartVersion]
}

type VersionInput struct {
	ID        uuid.UUID `path:"id" doc:"Chart ID"`
	VersionID uuid.UUID `path:"versionId" doc:"Version ID"`
}

type VersionOutput struct {
	Body *domain.ChartVersion
}

// requireWriter returns the caller's user id, or 403 unless the caller may
// mutate charts.
func requireWriter(ctx context.Context) (string, error) {
	role, _ := middleware.RoleFromContext(ctx)
	if !middleware.CanWrite(role) {
		return "", huma.Error403Forbidden("chart writes require the admin or editor role")
	}
	userID, _ := middleware.UserIDFromContext(ctx)
	return userID, nil
}

func etag(c *domain.SeatingChart) string {
	return strconv.Quote(strconv.FormatInt(c.Revision, 10))
}

// parseIfMatch accepts a bare or quoted revision, optionally weak. Empty and
// "*" mean no precondition.
func parseIfMatch(h string) (int64, error) {
	h = strings.TrimSpace(h)
	if h == "" || h == "*" {
		return 0, nil
	}
	h = strings.TrimPrefix(h, "W/")
	h = strings.Trim(h, `"`)
	rev, err := strconv.ParseInt(h, 10, 64)
	if err != nil || rev < 1 {
		return 0, invalidParam("header.If-Match", "must be a positive revision number")
	}
	return rev, nil
}

func parseActive(v string) (*bool, error) {
	if v == "" {
		return nil, nil //nolint:nilnil // absent filter
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, invalidParam("query.active", "must be true or false")
	}
	return &b, nil
}

func chartOutput(c *domain.SeatingChart) *ChartOutput {
	return &ChartOutput{ETag: etag(c), Body: c}
}

func RegisterChartRoutes(api huma.API, svc ChartService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-chart",
		Method:        http.MethodPost,
		Path:          "/charts",
		Summary:       "Create a seating chart",
		Tags:          []string{"Charts"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateChartInput) (*ChartOutput, error) {
		userID, err := requireWriter(ctx)
		if err != nil {
			return nil, err
		}

		c, err := svc.Create(ctx, input.Body.input(userID))
		if err != nil {
			return nil, chartError("create chart", err)
		}

		return chartOutput(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-charts",
		Method:      http.MethodGet,
		Path:        "/charts",
		Summary:     "List seating charts, most recently updated first",
		Tags:        []string{"Charts"},
	}, func(ctx context.Context, input *ListChartsInput) (*ListChartsOutput, error) {
		active, err := parseActive(input.Active)
		if err != nil {
			return nil, err
		}

		page, err := svc.List(ctx, domain.ChartFilter{
			Department: input.Department,
			Active:     active,
			Page:       input.Page,
			Limit:      input.Limit,
		})
		if err != nil {
			return nil, chartError("list charts", err)
		}

		return &ListChartsOutput{Body: page}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-chart",
		Method:      http.MethodGet,
		Path:        "/charts/{id}",
		Summary:     "Get an active seating chart",
		Tags:        []string{"Charts"},
	}, func(ctx context.Context, input *GetChartInput) (*ChartOutput, error) {
		c, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, chartError("get chart", err)
		}

		return chartOutput(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-chart",
		Method:      http.MethodPatch,
		Path:        "/charts/{id}",
		Summary:     "Partially update a seating chart",
		Description: "The replaced state is recorded as a version before the update is applied. " +
			"A metadata object replaces the stored metadata as a whole; createdBy is kept when omitted.",
		Tags:        []string{"Charts"},
	}, func(ctx context.Context, input *UpdateChartInput) (*ChartOutput, error) {
		userID, err := requireWriter(ctx)
		if err != nil {
			return nil, err
		}

		rev, err := parseIfMatch(input.IfMatch)
		if err != nil {
			return nil, err
		}

		c, err := svc.Update(ctx, input.ID, input.Body.patch(userID), rev)
		if err != nil {
			return nil, chartError("update chart", err)
		}

		return chartOutput(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-chart",
		Method:        http.MethodDelete,
		Path:          "/charts/{id}",
		Summary:       "Soft-delete a seating chart",
		Tags:          []string{"Charts"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteChartInput) (*struct{}, error) {
		if _, err := requireWriter(ctx); err != nil {
			return nil, err
		}

		if err := svc.Delete(ctx, input.ID); err != nil {
			return nil, chartError("delete chart", err)
		}

		return nil, nil //nolint:nilnil // 204 No Content
	})

	huma.Register(api, huma.Operation{
		OperationID: "patch-seat",
		Method:      http.MethodPatch,
		Path:        "/charts/{id}/seats/{seatId}",
		Summary:     "Update a single seat",
		Tags:        []string{"Charts"},
	}, func(ctx context.Context, input *PatchSeatInput) (*ChartOutput, error) {
		if _, err := requireWriter(ctx); err != nil {
			return nil, err
		}

		c, err := svc.PatchSeat(ctx, input.ID, input.SeatID, input.Body)
		if err != nil {
			return nil, chartError("update seat", err)
		}

		return chartOutput(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-chart-versions",
		Method:      http.MethodGet,
		Path:        "/charts/{id}/versions",
		Summary:     "List a chart's versions, newest first",
		Tags:        []string{"Versions"},
	}, func(ctx context.Context, input *ListVersionsInput) (*ListVersionsOutput, error) {
		page, err := svc.ListVersions(ctx, input.ID, input.Page, input.Limit)
		if err != nil {
			return nil, chartError("list versions", err)
		}

		return &ListVersionsOutput{Body: page}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-chart-version",
		Method:      http.MethodGet,
		Path:        "/charts/{id}/versions/{versionId}",
		Summary:     "Get one stored version of a chart",
		Tags:        []string{"Versions"},
	}, func(ctx context.Context, input *VersionInput) (*VersionOutput, error) {
		v, err := svc.GetVersion(ctx, input.ID, input.VersionID)
		if err != nil {
			return nil, chartError("get version", err)
		}

		return &VersionOutput{Body: v}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rollback-chart",
		Method:      http.MethodPost,
		Path:        "/charts/{id}/versions/{versionId}/rollback",
		Summary:     "Restore a chart to a stored version",
		Tags:        []string{"Versions"},
	}, func(ctx context.Context, input *VersionInput) (*ChartOutput, error) {
		if _, err := requireWriter(ctx); err != nil {
			return nil, err
		}

		c, err := svc.Rollback(ctx, input.ID, input.VersionID)
		if err != nil {
			return nil, chartError("roll back chart", err)
		}

		return chartOutput(c), nil
	})
}
