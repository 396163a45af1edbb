package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codesync/backend/internal/config"
	"github.com/codesync/backend/internal/models"
)

func postEnvelope(t *testing.T, h *SentryTunnelHandler, envelope string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/sentry-tunnel", strings.NewReader(envelope))
	rec := httptest.NewRecorder()
	h.Tunnel(rec, req)
	return rec
}

func TestTunnelDisabledWithoutFrontendDSN(t *testing.T) {
	h := NewSentryTunnelHandler(&config.Config{})

	rec := postEnvelope(t, h, `{"dsn":"https://key@example.com/1"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTunnelRejectsMismatchedDSN(t *testing.T) {
	h := NewSentryTunnelHandler(&config.Config{SentryDSNFrontend: "https://key@example.com/1"})

	rec := postEnvelope(t, h, `{"dsn":"https://other@evil.example/2"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTunnelUpstreamFailureReturnsJSONError(t *testing.T) {
	// Port 1 refuses connections, so forwarding fails immediately.
	dsn := "https://key@127.0.0.1:1/42"
	h := NewSentryTunnelHandler(&config.Config{SentryDSNFrontend: dsn})

	rec := postEnvelope(t, h, `{"dsn":"`+dsn+`"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Error == "" {
		t.Fatal("error response should carry a message")
	}
}
