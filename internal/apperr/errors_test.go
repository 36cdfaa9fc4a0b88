// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want string
	}{
		{KindInternal, "InternalError"},
		{KindNotFound, "NotFound"},
		{KindConflict, "Conflict"},
		{KindInvalidCredential, "InvalidCredential"},
		{KindTransport, "TransportError"},
		{KindUnknownCommand, "UnknownCommand"},
		{KindValidation, "ValidationError"},
		{Kind(99), "InternalError"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	t.Parallel()

	err := NotFound("account %d not found", 7)
	wrapped := fmt.Errorf("change tier: %w", err)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("expected wrapped NotFound to match ErrNotFound")
	}
	if errors.Is(wrapped, ErrConflict) {
		t.Error("NotFound must not match ErrConflict")
	}
	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("KindOf() = %v, want NotFound", got)
	}
	if got := err.Error(); got != "account 7 not found" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindOfUnclassified(t *testing.T) {
	t.Parallel()

	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Errorf("KindOf(plain) = %v, want InternalError", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := Internal(cause, "insert purchase")

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if got := err.Error(); got != "insert purchase: disk full" {
		t.Errorf("Error() = %q", got)
	}
}
