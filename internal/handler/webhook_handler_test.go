package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invoicer/internal/request"
)

func webhookRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(nil, nil, request.Deps{}, secret, zerolog.Nop())
	r := gin.New()
	r.POST("/api/v1/webhooks/payment", h.Handle)
	return r
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	r := webhookRouter("whsec_test")
	body := `{"event":"payment.completed","transaction_id":"txn_1"}`

	tests := []struct {
		name      string
		signature string
	}{
		{"missing signature", ""},
		{"wrong signature", sign("other-secret", body)},
		{"garbage signature", "deadbeef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
			if tt.signature != "" {
				req.Header.Set("X-Signature", tt.signature)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestWebhookRejectsEverythingWhenUnconfigured(t *testing.T) {
	r := webhookRouter("")
	body := `{"event":"payment.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
	req.Header.Set("X-Signature", sign("", body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 when no secret configured", w.Code)
	}
}

func TestWebhookAcknowledgesUnknownEvents(t *testing.T) {
	r := webhookRouter("whsec_test")
	body := `{"event":"payout.created","transaction_id":"txn_1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
	req.Header.Set("X-Signature", sign("whsec_test", body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ignored") {
		t.Errorf("body = %s, want ignored ack", w.Body.String())
	}
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	r := webhookRouter("whsec_test")
	body := `{"event":`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
	req.Header.Set("X-Signature", sign("whsec_test", body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
