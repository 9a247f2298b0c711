package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrinelabs/vitrine/internal/models"
)

const webhookSecret = "whsec_test_secret"

func signBody(body string) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookSignature_ValidSignaturePasses(t *testing.T) {
	ts := newTestSink(t)
	handler := WebhookSignature(webhookSecret, ts.sink, ts.metrics)(okHandler())

	body := `{"type":"payment","data":{"id":"12345"}}`
	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(body))
	req.Header.Set(SignatureHeader, signBody(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookSignature_PrefixedSignaturePasses(t *testing.T) {
	ts := newTestSink(t)
	handler := WebhookSignature(webhookSecret, ts.sink, ts.metrics)(okHandler())

	body := `{"type":"payment","data":{"id":"12345"}}`
	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(body))
	req.Header.Set(SignatureHeader, "sha256="+signBody(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookSignature_TamperedBodyRejected(t *testing.T) {
	ts := newTestSink(t)
	handler := WebhookSignature(webhookSecret, ts.sink, ts.metrics)(okHandler())

	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(`{"type":"payment","data":{"id":"99999"}}`))
	req.Header.Set(SignatureHeader, signBody(`{"type":"payment","data":{"id":"12345"}}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.Len(t, ts.eventRepo.Created, 1)
	assert.Equal(t, models.SecurityEventSuspiciousRequest, ts.eventRepo.Created[0].EventType)
}

func TestWebhookSignature_MissingHeaderRejected(t *testing.T) {
	ts := newTestSink(t)
	handler := WebhookSignature(webhookSecret, ts.sink, ts.metrics)(okHandler())

	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignature_BodyRestoredForHandler(t *testing.T) {
	ts := newTestSink(t)
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seen = string(data)
		w.WriteHeader(http.StatusOK)
	})
	handler := WebhookSignature(webhookSecret, ts.sink, ts.metrics)(inner)

	body := `{"type":"payment","data":{"id":"12345"}}`
	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(body))
	req.Header.Set(SignatureHeader, signBody(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, seen)
}

func TestWebhookSignature_EmptySecretSkipsVerification(t *testing.T) {
	ts := newTestSink(t)
	handler := WebhookSignature("", ts.sink, ts.metrics)(okHandler())

	req := httptest.NewRequest("POST", "/api/payment/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// the open mode is loud about itself
	require.Len(t, ts.logRepo.Created, 1)
	assert.Equal(t, models.LogLevelWarning, ts.logRepo.Created[0].Level)
}
