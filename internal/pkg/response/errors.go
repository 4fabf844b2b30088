package response

import (
	"errors"

	"cottage-ledger/internal/domain"
	"cottage-ledger/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var statusBySentinel = []struct {
	err  error
	code int
}{
	{domain.ErrInvalidDateRange, fiber.StatusBadRequest},
	{domain.ErrReasonRequired, fiber.StatusBadRequest},
	{domain.ErrInvalidAmount, fiber.StatusBadRequest},
	{domain.ErrEmptyAdjustment, fiber.StatusBadRequest},
	{domain.ErrInvalidDecision, fiber.StatusBadRequest},
	{domain.ErrForbidden, fiber.StatusForbidden},
	{domain.ErrUnknownBooking, fiber.StatusNotFound},
	{domain.ErrUnknownOwner, fiber.StatusNotFound},
	{domain.ErrUnknownCottage, fiber.StatusNotFound},
	{domain.ErrUnknownMaintenanceBlock, fiber.StatusNotFound},
	{domain.ErrCottageUnavailable, fiber.StatusConflict},
	{domain.ErrInvalidTransition, fiber.StatusConflict},
	{domain.ErrAlreadyReleased, fiber.StatusConflict},
	{domain.ErrAccountExists, fiber.StatusConflict},
	{domain.ErrEscrowHeld, fiber.StatusConflict},
	{domain.ErrImmutableTransaction, fiber.StatusConflict},
	{domain.ErrInsufficientCredits, fiber.StatusUnprocessableEntity},
	{domain.ErrOwnerInactive, fiber.StatusUnprocessableEntity},
}

// StatusFor maps a domain error to its HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return fiber.StatusInternalServerError
}

// FromError renders err in the standard error format. Typed domain errors
// carry their amounts or conflicts in details.
func FromError(c *fiber.Ctx, err error) error {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return Error(c, fe.Error(), fiber.StatusBadRequest, fe)
	}

	code := StatusFor(err)
	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
		return Error(c, "Internal Server Error", code, nil)
	}

	var details interface{}
	var ice *domain.InsufficientCreditsError
	var ue *domain.UnavailableError
	var te *domain.TransitionError
	switch {
	case errors.As(err, &ice):
		details = ice
	case errors.As(err, &ue):
		details = ue
	case errors.As(err, &te):
		details = te
	}
	return Error(c, err.Error(), code, details)
}
