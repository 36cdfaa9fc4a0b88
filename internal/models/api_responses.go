// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package models

import "time"

// TimestampLayout is the envelope timestamp layout (ISO-8601 with milliseconds).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the uniform response wrapper produced for every command,
// successful or not.
//
// Example successful response:
//
//	{
//	  "success": true,
//	  "message": "Retrieved 12 genres",
//	  "data": ["Action", "Adventure", ...],
//	  "timestamp": "2026-03-01T12:00:00.000Z"
//	}
//
// Example error response:
//
//	{
//	  "success": false,
//	  "message": "NotFound: account 42 not found",
//	  "data": null,
//	  "timestamp": "2026-03-01T12:00:00.000Z"
//	}
type Envelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// NewEnvelope stamps an envelope with now.
func NewEnvelope(success bool, message string, data interface{}, now time.Time) Envelope {
	return Envelope{
		Success:   success,
		Message:   message,
		Data:      data,
		Timestamp: now.Format(TimestampLayout),
	}
}

// EncryptedEnvelope wraps an encrypted envelope token.
type EncryptedEnvelope struct {
	Encrypted bool   `json:"encrypted"`
	Data      string `json:"data"`
}

// CommandRequest is the decoded form of a plain or encrypted request.
type CommandRequest struct {
	Command    string                 `json:"command"`
	Parameters map[string]interface{} `json:"parameters"`
}
