// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/logging"
	"github.com/tomtom215/easyflix/internal/models"
)

// Command handles POST /api/v1/command.
func (router *Router) Command(w http.ResponseWriter, r *http.Request) {
	body, status, err := readBody(w, r)
	if err != nil {
		router.respondEnvelope(w, r, status, router.rejected(err))
		return
	}

	var req models.CommandRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		router.respondEnvelope(w, r, http.StatusBadRequest,
			router.rejected(apperr.Wrap(apperr.KindTransport, err, "request body is not a valid command")))
		return
	}

	router.respondEnvelope(w, r, http.StatusOK, router.dispatcher.Handle(r.Context(), req))
}

// encryptedRequest is the JSON form of an encrypted command.
type encryptedRequest struct {
	Data string `json:"data"`
}

// CommandEncrypted handles POST /api/v1/command/encrypted. The body is either
// {"data": token} or the bare token.
func (router *Router) CommandEncrypted(w http.ResponseWriter, r *http.Request) {
	body, status, err := readBody(w, r)
	if err != nil {
		router.respondEnvelope(w, r, status, router.rejected(err))
		return
	}

	token := string(bytes.TrimSpace(body))
	if strings.HasPrefix(token, "{") {
		var req encryptedRequest
		if err := json.Unmarshal(body, &req); err != nil {
			router.respondEnvelope(w, r, http.StatusBadRequest,
				router.rejected(apperr.Wrap(apperr.KindTransport, err, "request body is not a valid token wrapper")))
			return
		}
		token = strings.TrimSpace(req.Data)
	}

	reply := router.dispatcher.DispatchEncrypted(r.Context(), token, r.RemoteAddr)
	writeJSON(r.Context(), w, http.StatusOK, reply.Body())
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Commands  int    `json:"commands"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// Health handles GET /api/v1/health.
func (router *Router) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Database:  "connected",
		Commands:  router.dispatcher.Commands(),
		Uptime:    time.Since(router.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(models.TimestampLayout),
	}
	status := http.StatusOK
	if router.store != nil {
		if err := router.store.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check: database unreachable")
			resp.Status = "unhealthy"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(r.Context(), w, status, resp)
}

// readBody reads a size-limited request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge,
				apperr.New(apperr.KindTransport, "request body exceeds %d bytes", maxBodyBytes)
		}
		return nil, http.StatusBadRequest, apperr.Wrap(apperr.KindTransport, err, "failed to read request body")
	}
	return body, http.StatusOK, nil
}

// rejected renders a pre-dispatch failure as an envelope.
func (router *Router) rejected(err error) models.Envelope {
	msg := apperr.KindOf(err).String()
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		msg += ": " + e.Message
	}
	return models.NewEnvelope(false, msg, nil, time.Now().UTC())
}

func (router *Router) respondEnvelope(w http.ResponseWriter, r *http.Request, status int, env models.Envelope) {
	writeJSON(r.Context(), w, status, env)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Failed to write JSON response")
	}
}
