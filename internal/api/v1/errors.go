package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/seatmap/internal/domain"
)

// chartError maps service errors onto HTTP problems. action names the failed
// operation for the 500 message.
func chartError(action string, err error) error {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		details := make([]error, 0, len(verrs))
		for _, v := range verrs {
			details = append(details, &huma.ErrorDetail{
				Message:  v.Reason,
				Location: "body." + v.Field,
			})
		}
		return huma.Error400BadRequest("validation failed", details...)
	case errors.Is(err, domain.ErrValidation):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, domain.ErrSeatNotFound):
		return huma.Error404NotFound("seat not found")
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("chart not found")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict("chart was modified concurrently; reload and retry")
	default:
		log.Error().Err(err).Str("action", action).Msg("api: chart operation failed")
		return huma.Error500InternalServerError("failed to " + action)
	}
}

func invalidParam(location, reason string) error {
	return huma.Error400BadRequest("validation failed", &huma.ErrorDetail{
		Message:  reason,
		Location: location,
	})
}
