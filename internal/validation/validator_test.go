// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/easyflix/internal/apperr"
)

type signupRequest struct {
	Username string `param:"username" validate:"required,max=16"`
	Email    string `param:"email" validate:"omitempty,email"`
	Tier     string `param:"subscription_level" validate:"required,tier"`
	Page     int    `param:"page" validate:"gte=1"`
	Group    string `param:"access_group" validate:"tierfilter"`
}

func valid() signupRequest {
	return signupRequest{Username: "alice", Email: "a@example.com", Tier: "basic", Page: 1}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *signupRequest)
		wantMsg string
	}{
		{name: "valid", mutate: func(r *signupRequest) {}},
		{name: "premium any case", mutate: func(r *signupRequest) { r.Tier = "PREMIUM" }},
		{name: "all groups", mutate: func(r *signupRequest) { r.Group = "All" }},
		{name: "premium group", mutate: func(r *signupRequest) { r.Group = "premium" }},
		{
			name:    "missing username",
			mutate:  func(r *signupRequest) { r.Username = "" },
			wantMsg: "username is required",
		},
		{
			name:    "long username",
			mutate:  func(r *signupRequest) { r.Username = strings.Repeat("a", 17) },
			wantMsg: "username must be at most 16 characters",
		},
		{
			name:    "bad email",
			mutate:  func(r *signupRequest) { r.Email = "not-an-email" },
			wantMsg: "email must be a valid email address",
		},
		{
			name:    "unknown tier",
			mutate:  func(r *signupRequest) { r.Tier = "gold" },
			wantMsg: "subscription_level must be Basic or Premium",
		},
		{
			name:    "page below one",
			mutate:  func(r *signupRequest) { r.Page = 0 },
			wantMsg: "page must be greater than or equal to 1",
		},
		{
			name:    "unknown access group",
			mutate:  func(r *signupRequest) { r.Group = "vip" },
			wantMsg: "access_group must be Basic, Premium or all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := ValidateStruct(&req)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want %q", tt.wantMsg)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("ValidateStruct() = %q, want containing %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStructCollectsAllFailures(t *testing.T) {
	err := ValidateStruct(&signupRequest{})
	if err == nil {
		t.Fatal("expected errors")
	}
	fields := map[string]bool{}
	for _, fe := range err.Errors() {
		fields[fe.Field()] = true
	}
	for _, want := range []string{"username", "subscription_level", "page"} {
		if !fields[want] {
			t.Errorf("missing failure for %s in %v", want, err.Errors())
		}
	}
}

func TestToAppError(t *testing.T) {
	req := valid()
	req.Tier = "gold"
	appErr := ValidateStruct(&req).ToAppError()
	if !errors.Is(appErr, apperr.ErrValidation) {
		t.Errorf("ToAppError() kind = %v, want ValidationError", appErr.Kind)
	}
}
