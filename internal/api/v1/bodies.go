package v1

import "github.com/gosuda/seatmap/internal/domain"

// Request bodies mirror the domain documents with every field optional so
// that missing or out-of-range values reach domain validation and come back
// as field-level 400s.

type SeatBody struct {
	ID           string  `json:"id,omitempty" doc:"Seat ID, unique within the layout"`
	X            float64 `json:"x,omitempty"`
	Y            float64 `json:"y,omitempty"`
	Width        float64 `json:"width,omitempty"`
	Height       float64 `json:"height,omitempty"`
	Type         string  `json:"type,omitempty"`
	Color        string  `json:"color,omitempty"`
	Label        string  `json:"label,omitempty"`
	Rotation     float64 `json:"rotation,omitempty"`
	AssignedUser *string `json:"assignedUser,omitempty"`
	Status       string  `json:"status,omitempty" doc:"available, occupied, reserved or maintenance; defaults to available"`
}

type LayoutBody struct {
	Width  float64    `json:"width,omitempty"`
	Height float64    `json:"height,omitempty"`
	Seats  []SeatBody `json:"seats,omitempty"`
}

type MetadataBody struct {
	CreatedBy   string  `json:"createdBy,omitempty"`
	UpdatedBy   string  `json:"updatedBy,omitempty"`
	Version     string  `json:"version,omitempty"`
	FigmaFileID *string `json:"figmaFileId,omitempty"`
	FigmaNodeID *string `json:"figmaNodeId,omitempty"`
}

type CreateChartBody struct {
	Department  string        `json:"department,omitempty"`
	Name        string        `json:"name,omitempty"`
	Description string        `json:"description,omitempty"`
	Layout      LayoutBody    `json:"layout,omitempty"`
	Metadata    *MetadataBody `json:"metadata,omitempty"`
	IsActive    *bool         `json:"isActive,omitempty"`
}

type UpdateChartBody struct {
	Department  *string       `json:"department,omitempty"`
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	Layout      *LayoutBody   `json:"layout,omitempty"`
	Metadata    *MetadataBody `json:"metadata,omitempty"`
	IsActive    *bool         `json:"isActive,omitempty"`
}

func (b SeatBody) seat() domain.Seat {
	return domain.Seat{
		ID:           b.ID,
		X:            b.X,
		Y:            b.Y,
		Width:        b.Width,
		Height:       b.Height,
		Type:         b.Type,
		Color:        b.Color,
		Label:        b.Label,
		Rotation:     b.Rotation,
		AssignedUser: b.AssignedUser,
		Status:       domain.SeatStatus(b.Status),
	}
}

func (b LayoutBody) layout() domain.Layout {
	seats := make([]domain.Seat, 0, len(b.Seats))
	for _, s := range b.Seats {
		seats = append(seats, s.seat())
	}
	return domain.Layout{Width: b.Width, Height: b.Height, Seats: seats}
}

func (b *MetadataBody) metadata() domain.ChartMetadata {
	if b == nil {
		return domain.ChartMetadata{}
	}
	return domain.ChartMetadata{
		CreatedBy:   b.CreatedBy,
		UpdatedBy:   b.UpdatedBy,
		Version:     b.Version,
		FigmaFileID: b.FigmaFileID,
		FigmaNodeID: b.FigmaNodeID,
	}
}

// input converts the body, stamping the caller as author where the client
// left authorship blank.
func (b CreateChartBody) input(userID string) domain.ChartInput {
	md := b.Metadata.metadata()
	if md.CreatedBy == "" {
		md.CreatedBy = userID
	}
	if md.UpdatedBy == "" {
		md.UpdatedBy = md.CreatedBy
	}
	return domain.ChartInput{
		Department:  b.Department,
		Name:        b.Name,
		Description: b.Description,
		Layout:      b.Layout.layout(),
		Metadata:    md,
		IsActive:    b.IsActive,
	}
}

func (b UpdateChartBody) patch(userID string) domain.ChartPatch {
	p := domain.ChartPatch{
		Department:  b.Department,
		Name:        b.Name,
		Description: b.Description,
		IsActive:    b.IsActive,
	}
	if b.Layout != nil {
		l := b.Layout.layout()
		p.Layout = &l
	}
	if b.Metadata != nil {
		md := b.Metadata.metadata()
		if md.UpdatedBy == "" {
			md.UpdatedBy = userID
		}
		p.Metadata = &md
	}
	return p
}
