package handlers

import (
	"errors"
	"net"
	"net/http"
	"strings"

	apierrors "riskgate/internal/errors"
	"riskgate/internal/helpers"
	"riskgate/internal/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// StatusCoder lets a response type pick its own success status; anything
// else is a 200.
type StatusCoder interface {
	StatusCode() int
}

// CreateHandler adapts a typed service method to http.HandlerFunc. The body
// has already been validated and parked in the context by the Validate
// middleware.
func CreateHandler[B any, R any](
	handler func(*zap.Logger, models.RequestContext, B) (R, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := r.Context().Value(models.BodyKey{}).(B)
		if !ok {
			helpers.RespondWithError(w, http.StatusInternalServerError,
				[]string{apierrors.ErrInternal})
			return
		}

		logger := requestLogger(r)
		response, err := handler(logger, extractRequestContext(r), body)
		if err != nil {
			respondError(w, logger, err)
			return
		}

		helpers.RespondWithJSON(w, successStatus(response), response)
	}
}

// GetHandler adapts a bodyless service method, for GETs and DELETEs.
func GetHandler[R any](
	handler func(*zap.Logger, models.RequestContext) (R, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(r)
		response, err := handler(logger, extractRequestContext(r))
		if err != nil {
			respondError(w, logger, err)
			return
		}

		helpers.RespondWithJSON(w, successStatus(response), response)
	}
}

// NoContentHandler is GetHandler for endpoints that answer 204 when there is
// nothing to report; a nil response suppresses the body.
func NoContentHandler[R any](
	handler func(*zap.Logger, models.RequestContext) (*R, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(r)
		response, err := handler(logger, extractRequestContext(r))
		if err != nil {
			respondError(w, logger, err)
			return
		}
		if response == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		helpers.RespondWithJSON(w, http.StatusOK, response)
	}
}

func requestLogger(r *http.Request) *zap.Logger {
	return zap.L().With(
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func extractRequestContext(r *http.Request) models.RequestContext {
	claims, _ := r.Context().Value(models.UserClaimKey{}).(models.UserClaims)

	params := map[string]string{}
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		for i, key := range routeCtx.URLParams.Keys {
			params[key] = routeCtx.URLParams.Values[i]
		}
	}

	return models.RequestContext{
		Claims:     claims,
		ClientIP:   clientIP(r),
		UserAgent:  r.UserAgent(),
		Bearer:     helpers.StripBearer(r.Header.Get("Authorization")),
		PathParams: params,
	}
}

// clientIP prefers the first X-Forwarded-For hop, set by the fronting proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func successStatus(response any) int {
	if coder, ok := response.(StatusCoder); ok {
		return coder.StatusCode()
	}
	return http.StatusOK
}

func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		helpers.RespondWithError(w, apiErr.Status, []string{apiErr.Code})
		return
	}

	logger.Error("Unhandled error", zap.Error(err))
	helpers.RespondWithError(w, http.StatusInternalServerError,
		[]string{apierrors.ErrInternal})
}
