package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatStatusAvailable   SeatStatus = "available"
	SeatStatusOccupied    SeatStatus = "occupied"
	SeatStatusMaintenance SeatStatus = "maintenance"
	SeatStatusReserved    SeatStatus = "reserved"
)

// ValidSeatStatuses is the canonical set of known seat statuses.
var ValidSeatStatuses = []SeatStatus{ //nolint:gochecknoglobals // canonical enum list
	SeatStatusAvailable,
	SeatStatusOccupied,
	SeatStatusMaintenance,
	SeatStatusReserved,
}

// ValidateSeatStatus returns true if the given status is a known seat status.
func ValidateSeatStatus(s SeatStatus) bool {
	return slices.Contains(ValidSeatStatuses, s)
}

type Seat struct {
	ID           string     `json:"id"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Width        float64    `json:"width"`
	Height       float64    `json:"height"`
	Type         string     `json:"type"`
	Color        string     `json:"color"`
	Label        string     `json:"label"`
	Rotation     float64    `json:"rotation"`
	AssignedUser *string    `json:"assignedUser,omitempty"`
	Status       SeatStatus `json:"status"`
}

// Apply merges the present fields of p into the seat. An empty
// AssignedUser unassigns the seat.
func (s *Seat) Apply(p SeatPatch) {
	if p.X != nil {
		s.X = *p.X
	}
	if p.Y != nil {
		s.Y = *p.Y
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.Label != nil {
		s.Label = *p.Label
	}
	if p.Rotation != nil {
		s.Rotation = *p.Rotation
	}
	if p.AssignedUser != nil {
		if *p.AssignedUser == "" {
			s.AssignedUser = nil
		} else {
			u := *p.AssignedUser
			s.AssignedUser = &u
		}
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
}

type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Seats  []Seat  `json:"seats"`
}

// Clone returns a deep copy so callers can mutate seats without aliasing.
func (l Layout) Clone() Layout {
	out := Layout{Width: l.Width, Height: l.Height, Seats: make([]Seat, len(l.Seats))}
	for i, s := range l.Seats {
		if s.AssignedUser != nil {
			u := *s.AssignedUser
			s.AssignedUser = &u
		}
		out.Seats[i] = s
	}
	return out
}

// SeatIndex returns the position of the seat with the given id, or -1.
func (l Layout) SeatIndex(seatID string) int {
	return slices.IndexFunc(l.Seats, func(s Seat) bool { return s.ID == seatID })
}

type ChartMetadata struct {
	CreatedBy   string  `json:"createdBy"`
	UpdatedBy   string  `json:"updatedBy"`
	Version     string  `json:"version"` // free-form label
	FigmaFileID *string `json:"figmaFileId,omitempty"`
	FigmaNodeID *string `json:"figmaNodeId,omitempty"`
}

type SeatingChart struct {
	ID          uuid.UUID     `json:"id"`
	Department  string        `json:"department"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Layout      Layout        `json:"layout"`
	Metadata    ChartMetadata `json:"metadata"`
	IsActive    bool          `json:"isActive"`
	DeletedAt   *time.Time    `json:"deletedAt,omitempty"`
	Revision    int64         `json:"revision"` // optimistic concurrency token
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// RestorePatch returns a patch that overwrites every content field with the
// values held by c. Used to roll a chart back to a snapshot.
func (c *SeatingChart) RestorePatch() ChartPatch {
	layout := c.Layout.Clone()
	metadata := c.Metadata
	return ChartPatch{
		Department:  &c.Department,
		Name:        &c.Name,
		Description: &c.Description,
		Layout:      &layout,
		Metadata:    &metadata,
		IsActive:    &c.IsActive,
	}
}

// ChartInput is the payload accepted when creating a chart.
type ChartInput struct {
	Department  string        `json:"department"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Layout      Layout        `json:"layout"`
	Metadata    ChartMetadata `json:"metadata"`
	IsActive    *bool         `json:"isActive,omitempty"`
}

// Chart converts the input into a chart with defaults applied. Identity,
// revision and timestamps are left for the repository to assign.
func (in ChartInput) Chart() *SeatingChart {
	layout := in.Layout.Clone()
	for i := range layout.Seats {
		if layout.Seats[i].Status == "" {
			layout.Seats[i].Status = SeatStatusAvailable
		}
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &SeatingChart{
		Department:  in.Department,
		Name:        in.Name,
		Description: in.Description,
		Layout:      layout,
		Metadata:    in.Metadata,
		IsActive:    active,
	}
}

// ChartPatch carries the top-level fields of a partial update. Nil fields
// are left untouched.
type ChartPatch struct {
	Department  *string        `json:"department,omitempty"`
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Layout      *Layout        `json:"layout,omitempty"`
	Metadata    *ChartMetadata `json:"metadata,omitempty"`
	IsActive    *bool          `json:"isActive,omitempty"`
}

// Apply merges the present fields of p into c. Timestamps and revision are
// the repository's concern and are not touched here.
func (c *SeatingChart) Apply(p ChartPatch) {
	if p.Department != nil {
		c.Department = *p.Department
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Layout != nil {
		c.Layout = p.Layout.Clone()
	}
	if p.Metadata != nil {
		c.Metadata = *p.Metadata
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
}

// SeatPatch carries the fields of a single-seat partial update.
type SeatPatch struct {
	X            *float64    `json:"x,omitempty"`
	Y            *float64    `json:"y,omitempty"`
	Width        *float64    `json:"width,omitempty"`
	Height       *float64    `json:"height,omitempty"`
	Type         *string     `json:"type,omitempty"`
	Color        *string     `json:"color,omitempty"`
	Label        *string     `json:"label,omitempty"`
	Rotation     *float64    `json:"rotation,omitempty"`
	AssignedUser *string     `json:"assignedUser,omitempty"`
	Status       *SeatStatus `json:"status,omitempty"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ChartFilter selects a page of charts. An empty Department matches every
// department; a nil Active matches both active and soft-deleted charts.
type ChartFilter struct {
	Department string
	Active     *bool
	Page       int
	Limit      int
}

// Normalize clamps page and limit into their accepted ranges.
func (f ChartFilter) Normalize() ChartFilter {
	f.Page, f.Limit = NormalizePage(f.Page, f.Limit)
	return f
}

// NormalizePage clamps a 1-based page number and page size.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// Offset returns the row offset for a normalized page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ChartVersion is an immutable snapshot of a chart taken before a mutation.
type ChartVersion struct {
	ID        uuid.UUID    `json:"id"`
	ChartID   uuid.UUID    `json:"chartId"`
	Data      SeatingChart `json:"versionData"`
	CreatedAt time.Time    `json:"createdAt"`
}

// UpdateOptions tunes ChartRepository.Update.
type UpdateOptions struct {
	// ExpectedRevision, when positive, must equal the stored revision or the
	// update fails with ErrConflict.
	ExpectedRevision int64
	// AllowInactive lets the update reach soft-deleted charts (rollback).
	AllowInactive bool
}

type ChartRepository interface {
	Create(ctx context.Context, c *SeatingChart) error
	GetByID(ctx context.Context, id uuid.UUID) (*SeatingChart, error)
	GetByIDUnscoped(ctx context.Context, id uuid.UUID) (*SeatingChart, error)
	List(ctx context.Context, f ChartFilter) (*Page[*SeatingChart], error)
	Update(ctx context.Context, id uuid.UUID, p ChartPatch, opts UpdateOptions) (*SeatingChart, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type ChartVersionRepository interface {
	Snapshot(ctx context.Context, chartID uuid.UUID, state *SeatingChart) (uuid.UUID, error)
	List(ctx context.Context, chartID uuid.UUID, page, limit int) (*Page[*ChartVersion], error)
	Get(ctx context.Context, chartID, versionID uuid.UUID) (*ChartVersion, error)
	Prune(ctx context.Context, chartID uuid.UUID, keep int) (int64, error)
}
