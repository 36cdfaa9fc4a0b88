// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package api

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/config"
	"github.com/tomtom215/easyflix/internal/dispatch"
	"github.com/tomtom215/easyflix/internal/models"
	"github.com/tomtom215/easyflix/internal/transport"
)

// stubStore answers the few store calls these tests make.
type stubStore struct {
	dispatch.Store
	pingErr error
}

func (s *stubStore) Genres(context.Context) ([]string, error) {
	return []string{"Comedy", "Drama"}, nil
}

func (s *stubStore) GetAccount(_ context.Context, id int64) (*models.Account, error) {
	return nil, apperr.NotFound("account %d not found", id)
}

func (s *stubStore) Ping(context.Context) error {
	return s.pingErr
}

func newTestRouter(t *testing.T, store *stubStore, opts ...dispatch.Option) http.Handler {
	t.Helper()
	d := dispatch.New(store, opts...)
	cfg := &config.ServerConfig{RateLimitDisabled: true}
	return NewRouter(d, store, cfg).Handler()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.Envelope {
	t.Helper()
	var env models.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestCommandEndpoint(t *testing.T) {
	h := newTestRouter(t, &stubStore{})

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "success",
			body:        `{"command":"get_genres","parameters":{}}`,
			wantStatus:  http.StatusOK,
			wantSuccess: true,
			wantMessage: "Retrieved 2 genres",
		},
		{
			name:        "not found is still 200",
			body:        `{"command":"get_user_info","parameters":{"user_id":42}}`,
			wantStatus:  http.StatusOK,
			wantMessage: "NotFound: account 42 not found",
		},
		{
			name:        "unknown command",
			body:        `{"command":"nope"}`,
			wantStatus:  http.StatusOK,
			wantMessage: `UnknownCommand: unknown command "nope"`,
		},
		{
			name:        "malformed body",
			body:        `{"command":`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "TransportError: request body is not a valid command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/command", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			env := decodeEnvelope(t, rec)
			if env.Success != tt.wantSuccess || env.Message != tt.wantMessage {
				t.Errorf("envelope = %+v", env)
			}
			if _, err := time.Parse(models.TimestampLayout, env.Timestamp); err != nil {
				t.Errorf("timestamp %q: %v", env.Timestamp, err)
			}
		})
	}
}

func TestCommandEndpointRejectsGet(t *testing.T) {
	h := newTestRouter(t, &stubStore{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/command", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestCommandEndpointBodyLimit(t *testing.T) {
	h := newTestRouter(t, &stubStore{})
	body := `{"command":"get_genres","parameters":{"pad":"` + strings.Repeat("x", maxBodyBytes) + `"}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/command", strings.NewReader(body)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestEncryptedEndpoint(t *testing.T) {
	codec, err := transport.NewCodec(transport.Config{
		Passphrase: "api-test",
		Salt:       "api-salt",
		Iterations: transport.MinIterations,
	})
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	h := newTestRouter(t, &stubStore{}, dispatch.WithCodec(codec))

	token, err := codec.Encrypt(`{"command":"get_genres","parameters":{}}`)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	for name, body := range map[string]string{
		"wrapped": `{"data":"` + token + `"}`,
		"bare":    token,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/command/encrypted", strings.NewReader(body)))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var wrapper models.EncryptedEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &wrapper); err != nil {
				t.Fatalf("decode wrapper: %v", err)
			}
			if !wrapper.Encrypted || wrapper.Data == "" {
				t.Fatalf("wrapper = %+v", wrapper)
			}
			plain, err := codec.Decrypt(wrapper.Data)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			var env models.Envelope
			if err := json.Unmarshal([]byte(plain), &env); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if !env.Success || env.Message != "Retrieved 2 genres" {
				t.Errorf("envelope = %+v", env)
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	store := &stubStore{}
	h := newTestRouter(t, store)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Commands == 0 {
		t.Errorf("health = %+v", resp)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}

	store.pingErr = errors.New("database is closed")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, &stubStore{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/command",
		strings.NewReader(`{"command":"get_genres"}`)))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"easyflix_commands_total", "easyflix_api_requests_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestCommandEndpointCompression(t *testing.T) {
	h := newTestRouter(t, &stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/command", strings.NewReader(`{"command":"get_genres"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	var env models.Envelope
	if err := json.NewDecoder(zr).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Message != "Retrieved 2 genres" {
		t.Errorf("envelope = %+v", env)
	}
}
