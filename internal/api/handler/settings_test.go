package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/mailcycle/internal/zimbra"
)

func TestSettingsUpdateSyncInterval_MissingValue(t *testing.T) {
	h := NewSettings(nil, nil, nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPut, "/settings/sync-interval", map[string]any{})

	h.UpdateSyncInterval(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestSettingsUpdateSyncInterval_OutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		hours int
	}{
		{"negative", -1},
		{"over a week", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSettings(nil, nil, nil)
			rec := httptest.NewRecorder()
			r := newRequest(http.MethodPut, "/settings/sync-interval",
				map[string]any{"interval_hours": tt.hours})

			h.UpdateSyncInterval(rec, r)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSettingsTestConnection_OK(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("TestConnection", mock.Anything).Return(nil)

	h := NewSettings(nil, nil, dir)
	rec := httptest.NewRecorder()
	h.TestConnection(rec, newRequest(http.MethodPost, "/settings/test-connection", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Equal(t, "ok", body["status"])
	dir.AssertExpectations(t)
}

func TestSettingsTestConnection_Unreachable(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("TestConnection", mock.Anything).
		Return(&zimbra.ConnectionError{Err: errors.New("connection refused")})

	h := NewSettings(nil, nil, dir)
	rec := httptest.NewRecorder()
	h.TestConnection(rec, newRequest(http.MethodPost, "/settings/test-connection", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "cannot reach directory")
}

func TestSettingsTestConnection_BadCredentials(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("TestConnection", mock.Anything).
		Return(&zimbra.AuthError{Message: "authentication failed"})

	h := NewSettings(nil, nil, dir)
	rec := httptest.NewRecorder()
	h.TestConnection(rec, newRequest(http.MethodPost, "/settings/test-connection", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
