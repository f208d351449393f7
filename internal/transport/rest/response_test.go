package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleError_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", domain.NewValidationError("text", "required"), http.StatusBadRequest, "VALIDATION"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, ""},
		{"forbidden", fmt.Errorf("wrap: %w", domain.ErrForbidden), http.StatusForbidden, ""},
		{"not found", fmt.Errorf("session x: %w", domain.ErrNotFound), http.StatusNotFound, ""},
		{"already exists", domain.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"conflict kind", fmt.Errorf("create: %w", domain.ErrPatientAtCapacity), http.StatusConflict, "PATIENT_AT_CAPACITY"},
		{"bare conflict", domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"upstream", domain.NewUpstreamError("scorer", errors.New("503")), http.StatusBadGateway, "UPSTREAM"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			handleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), discardLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHandleError_ValidationFields(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := domain.NewValidationErrors([]domain.FieldError{
		{Field: "image_ids", Message: "must contain exactly 3 images"},
		{Field: "patient_id", Message: "required"},
	})
	handleError(rec, httptest.NewRequest(http.MethodPost, "/sessions", nil), discardLogger(), err)

	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Fields, 2)
	assert.Equal(t, "image_ids", body.Fields[0].Field)
}

func TestPathUUID_Invalid(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/sessions/abc", nil)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()

	_, ok := pathUUID(rec, req, "id")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x?limit=20&bad=-1&nan=abc", nil)
	assert.Equal(t, 20, queryInt(req, "limit", 50))
	assert.Equal(t, 50, queryInt(req, "bad", 50))
	assert.Equal(t, 50, queryInt(req, "nan", 50))
	assert.Equal(t, 50, queryInt(req, "missing", 50))
}
