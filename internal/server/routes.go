package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/seatmap/internal/api/v1"
	"github.com/gosuda/seatmap/internal/api/ws"
)

func registerAPIRoutes(api huma.API, charts v1.ChartService) {
	v1.RegisterChartRoutes(api, charts)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/charts/{department}", hub.ServeDepartment)
}
