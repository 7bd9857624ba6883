package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apierrors "riskgate/internal/errors"
	"riskgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runValidated(t *testing.T, payload string) (*httptest.ResponseRecorder, *models.LoginBody) {
	t.Helper()

	var seen *models.LoginBody
	inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		body, ok := r.Context().Value(models.BodyKey{}).(models.LoginBody)
		if ok {
			seen = &body
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	Validate[models.LoginBody](inner).ServeHTTP(rec, req)
	return rec, seen
}

func TestValidatePassesWellFormedBody(t *testing.T) {
	rec, body := runValidated(t,
		`{"email":"user@example.com","password":"hunter2!","device_id":"device-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, body)
	assert.Equal(t, "user@example.com", body.Email)
	assert.Equal(t, "device-1", body.DeviceID)
}

func TestValidateRejectsUnknownFields(t *testing.T) {
	rec, body := runValidated(t,
		`{"email":"user@example.com","password":"hunter2!","device_id":"d","admin":true}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, body)
	assert.Contains(t, rec.Body.String(), apierrors.ErrValidation)
}

func TestValidateRejectsMissingFields(t *testing.T) {
	rec, body := runValidated(t, `{"email":"user@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, body)
}

func TestValidateRejectsMalformedEmail(t *testing.T) {
	rec, _ := runValidated(t,
		`{"email":"not-an-email","password":"hunter2!","device_id":"device-1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateRejectsGarbage(t *testing.T) {
	rec, _ := runValidated(t, `{"email": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
