package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_ShapeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteBadRequest(rec, "invalid request detected")

	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid request detected", body["error"])
	// retryAfter must be omitted when not set
	_, present := body["retryAfter"]
	assert.False(t, present)
}

func TestWriteRateLimited_IncludesRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRateLimited(rec, "too many requests", 42)

	assert.Equal(t, 429, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "too many requests", body.Error)
	assert.Equal(t, 42, body.RetryAfter)
}
