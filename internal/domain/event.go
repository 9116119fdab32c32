package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChartEventType string

const (
	ChartEventCreated     ChartEventType = "chart.created"
	ChartEventUpdated     ChartEventType = "chart.updated"
	ChartEventDeleted     ChartEventType = "chart.deleted"
	ChartEventSeatPatched ChartEventType = "chart.seat_patched"
	ChartEventRolledBack  ChartEventType = "chart.rolled_back"
)

// ChartEvent is broadcast to department subscribers after a chart mutation.
// PreviousDepartment is set when the mutation moved the chart out of another
// department.
type ChartEvent struct {
	Type               ChartEventType `json:"type"`
	ChartID            uuid.UUID      `json:"chartId"`
	Department         string         `json:"department"`
	PreviousDepartment string         `json:"previousDepartment,omitempty"`
	Revision           int64          `json:"revision"`
	SeatID             string         `json:"seatId,omitempty"`
	VersionID          *uuid.UUID     `json:"versionId,omitempty"`
	At                 time.Time      `json:"at"`
}
