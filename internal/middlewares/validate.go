package middlewares

import (
	"context"
	"encoding/json"
	"net/http"

	apierrors "riskgate/internal/errors"
	"riskgate/internal/helpers"
	"riskgate/internal/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate decodes and validates the request body, rejecting unknown fields,
// and parks the typed value in the context for CreateHandler.
func Validate[T any](next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		var body T

		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&body); err != nil {
			zap.L().Debug("Rejected malformed body",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			helpers.RespondWithError(w, http.StatusBadRequest,
				[]string{apierrors.ErrValidation})
			return
		}

		if err := validate.Struct(body); err != nil {
			zap.L().Debug("Rejected invalid body",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			helpers.RespondWithError(w, http.StatusBadRequest,
				[]string{apierrors.ErrValidation})
			return
		}

		ctx := context.WithValue(r.Context(), models.BodyKey{}, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}
