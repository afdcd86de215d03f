package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/database"
	"github.com/charlesng35/authcore/internal/services"
	apperrors "github.com/charlesng35/authcore/pkg/errors"
	"github.com/charlesng35/authcore/pkg/response"
)

// translateError maps domain failures onto the HTTP error catalogue. Unknown errors
// become a generic 500 that keeps the cause for logging.
func translateError(err error) *apperrors.AppError {
	var validation *services.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &validation):
		return apperrors.NewBadRequest(validation.Message)
	case errors.Is(err, services.ErrConflict):
		return apperrors.ErrConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return apperrors.ErrInvalidCredentials
	case errors.Is(err, services.ErrInvalidToken):
		return apperrors.ErrInvalidToken
	case errors.Is(err, services.ErrEmailUnverified):
		return apperrors.ErrEmailUnverified
	case errors.Is(err, services.ErrRateLimited):
		return apperrors.ErrRateLimit
	case errors.Is(err, services.ErrAccountNotFound):
		return apperrors.ErrNotFound
	case errors.Is(err, iauth.ErrExternalAuth):
		return apperrors.ErrExternalAuth.WithInternal(err)
	case errors.Is(err, database.ErrStoreUnavailable):
		return apperrors.ErrInternalServer.WithInternal(err)
	}
	return apperrors.FromError(err)
}

func respondError(c *gin.Context, err error) {
	appErr := translateError(err)
	if appErr.Internal != nil {
		_ = c.Error(appErr.Internal)
	}
	response.Error(c, appErr)
}
