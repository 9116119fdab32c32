package domain

import (
	"fmt"
	"strings"
)

// Layout and seat bounds, inclusive.
const (
	MinLayoutWidth  = 100
	MaxLayoutWidth  = 2000
	MinLayoutHeight = 100
	MaxLayoutHeight = 1500
	MinSeatWidth    = 20
	MaxSeatWidth    = 200
	MinSeatHeight   = 20
	MaxSeatHeight   = 150
	MinRotation     = 0
	MaxRotation     = 360
)

// ValidateChartInput checks a full chart document. It returns nil or a
// ValidationErrors value listing every violated field.
func ValidateChartInput(in ChartInput) error {
	var errs ValidationErrors
	errs = requireText(errs, "department", in.Department)
	errs = requireText(errs, "name", in.Name)
	errs = validateLayout(errs, "layout", in.Layout)
	return errs.orNil()
}

// ValidateChartPatch checks only the fields present in p.
func ValidateChartPatch(p ChartPatch) error {
	var errs ValidationErrors
	if p.Department != nil {
		errs = requireText(errs, "department", *p.Department)
	}
	if p.Name != nil {
		errs = requireText(errs, "name", *p.Name)
	}
	if p.Layout != nil {
		errs = validateLayout(errs, "layout", *p.Layout)
	}
	return errs.orNil()
}

// ValidateSeatPatch checks only the fields present in p.
func ValidateSeatPatch(p SeatPatch) error {
	var errs ValidationErrors
	if p.Width != nil {
		errs = checkRange(errs, "width", *p.Width, MinSeatWidth, MaxSeatWidth)
	}
	if p.Height != nil {
		errs = checkRange(errs, "height", *p.Height, MinSeatHeight, MaxSeatHeight)
	}
	if p.Rotation != nil {
		errs = checkRange(errs, "rotation", *p.Rotation, MinRotation, MaxRotation)
	}
	if p.Status != nil && !ValidateSeatStatus(*p.Status) {
		errs = append(errs, ValidationError{Field: "status", Reason: unknownStatus(*p.Status)})
	}
	return errs.orNil()
}

func validateLayout(errs ValidationErrors, field string, l Layout) ValidationErrors {
	errs = checkRange(errs, field+".width", l.Width, MinLayoutWidth, MaxLayoutWidth)
	errs = checkRange(errs, field+".height", l.Height, MinLayoutHeight, MaxLayoutHeight)

	seen := make(map[string]struct{}, len(l.Seats))
	for i, s := range l.Seats {
		prefix := fmt.Sprintf("%s.seats[%d]", field, i)
		if strings.TrimSpace(s.ID) == "" {
			errs = append(errs, ValidationError{Field: prefix + ".id", Reason: "is required"})
		} else if _, dup := seen[s.ID]; dup {
			errs = append(errs, ValidationError{Field: prefix + ".id", Reason: fmt.Sprintf("duplicate seat id %q", s.ID)})
		} else {
			seen[s.ID] = struct{}{}
		}
		errs = checkRange(errs, prefix+".width", s.Width, MinSeatWidth, MaxSeatWidth)
		errs = checkRange(errs, prefix+".height", s.Height, MinSeatHeight, MaxSeatHeight)
		errs = checkRange(errs, prefix+".rotation", s.Rotation, MinRotation, MaxRotation)
		// Empty status defaults to available.
		if s.Status != "" && !ValidateSeatStatus(s.Status) {
			errs = append(errs, ValidationError{Field: prefix + ".status", Reason: unknownStatus(s.Status)})
		}
	}
	return errs
}

func requireText(errs ValidationErrors, field, v string) ValidationErrors {
	if strings.TrimSpace(v) == "" {
		return append(errs, ValidationError{Field: field, Reason: "must not be empty"})
	}
	return errs
}

func checkRange(errs ValidationErrors, field string, v, lo, hi float64) ValidationErrors {
	if v < lo || v > hi {
		return append(errs, ValidationError{Field: field, Reason: fmt.Sprintf("must be between %g and %g, got %g", lo, hi, v)})
	}
	return errs
}

func unknownStatus(s SeatStatus) string {
	return fmt.Sprintf("unknown status %q", s)
}
