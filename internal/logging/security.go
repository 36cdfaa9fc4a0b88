// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// Security event names.
const (
	EventAccountLogin   = "account_login"
	EventAdminLogin     = "admin_login"
	EventSecretChanged  = "secret_changed"
	EventAccountDeleted = "account_deleted"
	EventTransportFault = "transport_rejected"
)

// SecurityEvent is one authentication-relevant outcome.
type SecurityEvent struct {
	Event     string
	AccountID int64
	Username  string
	Transport string
	Success   bool
	Reason    string
}

// SecurityLogger records authentication outcomes with masked usernames.
// Secrets and digests are never passed to it.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on top of the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("security")}
}

// NewSecurityLoggerWithLogger creates a security logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "security").Logger()}
}

// LogEvent writes event. Failures are logged at warn level.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info()
	status := "success"
	if !event.Success {
		e = l.logger.Warn()
		status = "failed"
	}
	e = e.Str("event", event.Event).Str("status", status)
	if event.AccountID > 0 {
		e = e.Int64("account_id", event.AccountID)
	}
	if event.Username != "" {
		e = e.Str("username", SanitizeUsername(event.Username))
	}
	if event.Transport != "" {
		e = e.Str("transport", event.Transport)
	}
	if !event.Success && event.Reason != "" {
		e = e.Str("reason", SanitizeError(event.Reason))
	}
	e.Msg("security event")
}

// LogLogin records an account or admin authentication attempt.
func (l *SecurityLogger) LogLogin(admin bool, username string, accountID int64, success bool, reason string) {
	name := EventAccountLogin
	if admin {
		name = EventAdminLogin
	}
	l.LogEvent(&SecurityEvent{
		Event:     name,
		AccountID: accountID,
		Username:  username,
		Success:   success,
		Reason:    reason,
	})
}

// LogSecretChanged records a successful secret rotation.
func (l *SecurityLogger) LogSecretChanged(accountID int64) {
	l.LogEvent(&SecurityEvent{Event: EventSecretChanged, AccountID: accountID, Success: true})
}

// LogAccountDeleted records an account removal.
func (l *SecurityLogger) LogAccountDeleted(accountID int64) {
	l.LogEvent(&SecurityEvent{Event: EventAccountDeleted, AccountID: accountID, Success: true})
}

// LogTransportRejected records an encrypted request that failed to decode.
func (l *SecurityLogger) LogTransportRejected(remote string, reason string) {
	l.LogEvent(&SecurityEvent{Event: EventTransportFault, Transport: remote, Reason: reason})
}

// SanitizeUsername keeps the first 2 characters.
// Example: "johndoe" -> "jo***"
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}
	if len(username) <= 2 {
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeEmail masks the local part of an address.
// Example: "john.doe@example.com" -> "jo***@example.com"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

var sensitivePatterns = []string{"password", "secret", "digest", "salt", "passphrase", "token"}

// SanitizeError replaces messages mentioning credential material with a
// generic one and truncates the rest to 200 bytes.
func SanitizeError(msg string) string {
	lower := strings.ToLower(msg)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lower, pattern) {
			return "credential error"
		}
	}
	return truncateString(msg, 200)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
