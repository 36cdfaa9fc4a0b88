// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/easyflix/internal/apperr"
	"github.com/tomtom215/easyflix/internal/models"
	"github.com/tomtom215/easyflix/internal/transport"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// stubStore implements only what a test needs; any other call panics on
// the nil embedded interface.
type stubStore struct {
	Store

	getAccount   func(ctx context.Context, id int64) (*models.Account, error)
	deleteTitle  func(ctx context.Context, id int64) error
	genres       func(ctx context.Context) ([]string, error)
	authenticate func(ctx context.Context, username, secret string) (*models.Account, error)
}

func (s *stubStore) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	return s.getAccount(ctx, id)
}

func (s *stubStore) DeleteTitle(ctx context.Context, id int64) error {
	return s.deleteTitle(ctx, id)
}

func (s *stubStore) Genres(ctx context.Context) ([]string, error) {
	return s.genres(ctx)
}

func (s *stubStore) Authenticate(ctx context.Context, username, secret string) (*models.Account, error) {
	return s.authenticate(ctx, username, secret)
}

type recordingTrigger struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recordingTrigger) Notify(_ context.Context, reason string) {
	r.mu.Lock()
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
}

func (r *recordingTrigger) Reasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

func TestDispatchUnknownCommand(t *testing.T) {
	d := New(&stubStore{}, WithClock(fixedClock))

	env := d.Dispatch(context.Background(), "launch_rockets", nil)
	if env.Success {
		t.Fatal("unknown command succeeded")
	}
	if !strings.HasPrefix(env.Message, "UnknownCommand: ") {
		t.Errorf("Message = %q", env.Message)
	}
	if env.Data != nil {
		t.Errorf("Data = %v, want nil", env.Data)
	}
	if env.Timestamp != "2026-03-01T12:00:00.000Z" {
		t.Errorf("Timestamp = %q", env.Timestamp)
	}
}

func TestDispatchNormalizesName(t *testing.T) {
	store := &stubStore{genres: func(context.Context) ([]string, error) {
		return []string{"Action", "Drama"}, nil
	}}
	d := New(store, WithClock(fixedClock))

	env := d.Dispatch(context.Background(), "  GET_Genres ", nil)
	if !env.Success {
		t.Fatalf("Dispatch() failed: %s", env.Message)
	}
	if env.Message != "Retrieved 2 genres" {
		t.Errorf("Message = %q", env.Message)
	}
}

func TestDispatchErrorMessages(t *testing.T) {
	store := &stubStore{getAccount: func(_ context.Context, id int64) (*models.Account, error) {
		switch id {
		case 42:
			return nil, apperr.NotFound("account %d not found", id)
		default:
			return nil, apperr.Internal(errors.New("IO Error: disk on fire"), "get_account failed")
		}
	}}
	d := New(store, WithClock(fixedClock))

	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"not found", Params{"user_id": "42"}, "NotFound: account 42 not found"},
		{"internal hides cause", Params{"user_id": 7}, "InternalError: get_account failed"},
		{"malformed id", Params{"user_id": "forty"}, "ValidationError: user_id must be an integer"},
		{"missing id", Params{}, "ValidationError: user_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := d.Dispatch(context.Background(), "get_user_info", tt.params)
			if env.Success {
				t.Fatal("expected failure")
			}
			if env.Message != tt.want {
				t.Errorf("Message = %q, want %q", env.Message, tt.want)
			}
		})
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	// ListAccounts is not stubbed, so the handler panics.
	d := New(&stubStore{}, WithClock(fixedClock))

	env := d.Dispatch(context.Background(), "get_all_users", nil)
	if env.Success {
		t.Fatal("panicking handler reported success")
	}
	if env.Message != "InternalError: get_all_users failed unexpectedly" {
		t.Errorf("Message = %q", env.Message)
	}
}

func TestHandlerErrorKinds(t *testing.T) {
	store := &stubStore{
		getAccount: func(_ context.Context, id int64) (*models.Account, error) {
			if id == 42 {
				return nil, apperr.NotFound("account %d not found", id)
			}
			return nil, apperr.Internal(errors.New("IO Error: disk on fire"), "get_account failed")
		},
		deleteTitle: func(context.Context, int64) error {
			return apperr.Conflict("show is busy")
		},
		authenticate: func(context.Context, string, string) (*models.Account, error) {
			return nil, apperr.InvalidCredential("invalid password")
		},
	}
	d := New(store, WithClock(fixedClock))
	ctx := context.Background()

	if _, err := d.lookup("launch_rockets"); !errors.Is(err, apperr.ErrUnknownCommand) {
		t.Errorf("lookup(launch_rockets) error = %v, want ErrUnknownCommand", err)
	}

	tests := []struct {
		name    string
		command string
		params  Params
		want    error
	}{
		{"missing account", "get_user_info", Params{"user_id": 42}, apperr.ErrNotFound},
		{"store failure", "get_user_info", Params{"user_id": 7}, apperr.ErrInternal},
		{"bad id", "get_user_info", Params{"user_id": "x"}, apperr.ErrValidation},
		{"conflict", "delete_show", Params{"show_id": 1}, apperr.ErrConflict},
		{"wrong secret", "authenticate_user", Params{"username": "a", "password": "b"}, apperr.ErrInvalidCredential},
		{"handler panic", "get_all_users", nil, apperr.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := d.lookup(tt.command)
			if err != nil {
				t.Fatalf("lookup(%s) error = %v", tt.command, err)
			}
			_, _, err = d.invoke(ctx, cmd, tt.params)
			if !errors.Is(err, tt.want) {
				t.Errorf("%s error = %v, want %v", tt.command, err, tt.want)
			}
		})
	}
}

func TestDispatchNotifiesAfterMutation(t *testing.T) {
	calls := 0
	store := &stubStore{
		deleteTitle: func(context.Context, int64) error {
			calls++
			if calls > 1 {
				return apperr.NotFound("show 1 not found")
			}
			return nil
		},
		genres: func(context.Context) ([]string, error) { return nil, nil },
	}
	trigger := &recordingTrigger{}
	d := New(store, WithTrigger(trigger), WithClock(fixedClock))
	ctx := context.Background()

	if env := d.Dispatch(ctx, "delete_show", Params{"show_id": "1"}); !env.Success {
		t.Fatalf("delete_show failed: %s", env.Message)
	}
	if env := d.Dispatch(ctx, "delete_show", Params{"show_id": "1"}); env.Success {
		t.Fatal("second delete should fail")
	}
	d.Dispatch(ctx, "get_genres", nil)

	got := trigger.Reasons()
	if len(got) != 1 || got[0] != "delete_title" {
		t.Errorf("trigger reasons = %v, want [delete_title]", got)
	}
}

type panickingTrigger struct{}

func (panickingTrigger) Notify(context.Context, string) { panic("boom") }

func TestDispatchSurvivesTriggerPanic(t *testing.T) {
	store := &stubStore{deleteTitle: func(context.Context, int64) error { return nil }}
	d := New(store, WithTrigger(panickingTrigger{}), WithClock(fixedClock))

	env := d.Dispatch(context.Background(), "delete_title", Params{"title_id": 3})
	if !env.Success {
		t.Errorf("mutation should still succeed, got %q", env.Message)
	}
}

func TestCommandAliases(t *testing.T) {
	table := commandTable()
	aliases := map[string]string{
		"create_user":             "register",
		"authenticate_user":       "authenticate",
		"update_subscription":     "change_tier",
		"add_show_to_user":        "acquire_title",
		"create_rental":           "acquire_title",
		"remove_show_from_user":   "release_title",
		"change_password":         "change_secret",
		"update_marketing_opt_in": "change_marketing_consent",
		"delete_user_account":     "delete_account",
		"delete_user":             "delete_account",
		"add_show":                "add_title",
		"update_show_access":      "update_access_tier",
		"update_show_cost":        "update_price",
		"delete_show":             "delete_title",
		"get_user_rentals":        "get_user_shows",
		"get_shows_paginated":     "list_titles",
		"get_available_genres":    "get_genres",
		"update_statistics":       "recompute_snapshot",
	}
	for alias, canonical := range aliases {
		cmd, ok := table[alias]
		if !ok {
			t.Errorf("alias %q missing", alias)
			continue
		}
		if cmd.name != canonical {
			t.Errorf("%q maps to %q, want %q", alias, cmd.name, canonical)
		}
	}

	for name, cmd := range table {
		if name != strings.ToLower(name) {
			t.Errorf("command %q is not lower case", name)
		}
		if cmd.handle == nil {
			t.Errorf("command %q has no handler", name)
		}
	}
}

func TestRecomputeWithoutEngine(t *testing.T) {
	d := New(&stubStore{}, WithClock(fixedClock))
	env := d.Dispatch(context.Background(), "update_statistics", nil)
	if env.Success || !strings.HasPrefix(env.Message, "InternalError: ") {
		t.Errorf("envelope = %+v", env)
	}
}

func TestAuthenticateMapsCredentialFailure(t *testing.T) {
	store := &stubStore{authenticate: func(_ context.Context, username, secret string) (*models.Account, error) {
		if secret != "s3cret" {
			return nil, apperr.InvalidCredential("invalid password")
		}
		return &models.Account{ID: 11, Username: username}, nil
	}}
	d := New(store, WithClock(fixedClock))
	ctx := context.Background()

	env := d.Dispatch(ctx, "authenticate_user", Params{"username": "alice", "password": "nope"})
	if env.Success || env.Message != "InvalidCredential: invalid password" {
		t.Errorf("wrong secret envelope = %+v", env)
	}

	env = d.Dispatch(ctx, "authenticate", Params{"username": "alice", "secret": "s3cret"})
	if !env.Success {
		t.Fatalf("authenticate failed: %s", env.Message)
	}
	if acct, ok := env.Data.(*models.Account); !ok || acct.ID != 11 {
		t.Errorf("Data = %#v", env.Data)
	}
}

func newTestCodec(t *testing.T) *transport.Codec {
	t.Helper()
	c, err := transport.NewCodec(transport.Config{
		Passphrase: "dispatch-test",
		Salt:       "dispatch-salt",
		Iterations: transport.MinIterations,
	})
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	return c
}

func decryptEnvelope(t *testing.T, c *transport.Codec, reply Reply) models.Envelope {
	t.Helper()
	if reply.Encrypted == nil {
		t.Fatalf("reply was not encrypted: %+v", reply.Envelope)
	}
	if !reply.Encrypted.Encrypted {
		t.Error("Encrypted flag not set")
	}
	plain, err := c.Decrypt(reply.Encrypted.Data)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	var env models.Envelope
	if err := json.Unmarshal([]byte(plain), &env); err != nil {
		t.Fatalf("response is not an envelope: %v", err)
	}
	return env
}

func TestDispatchEncrypted(t *testing.T) {
	codec := newTestCodec(t)
	store := &stubStore{genres: func(context.Context) ([]string, error) {
		return []string{"Comedy"}, nil
	}}
	d := New(store, WithCodec(codec), WithClock(fixedClock))
	ctx := context.Background()

	token, err := codec.Encrypt(`{"command":"get_genres","parameters":{}}`)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	env := decryptEnvelope(t, codec, d.DispatchEncrypted(ctx, token, "test"))
	if !env.Success || env.Message != "Retrieved 1 genres" {
		t.Errorf("envelope = %+v", env)
	}

	tampered := token[:len(token)-4] + "AAAA"
	if tampered == token {
		tampered = "A" + token[1:]
	}
	env = decryptEnvelope(t, codec, d.DispatchEncrypted(ctx, tampered, "test"))
	if env.Success || !strings.HasPrefix(env.Message, "TransportError: ") {
		t.Errorf("tampered envelope = %+v", env)
	}

	notJSON, _ := codec.Encrypt("get_genres please")
	env = decryptEnvelope(t, codec, d.DispatchEncrypted(ctx, notJSON, "test"))
	if env.Success || !strings.HasPrefix(env.Message, "TransportError: ") {
		t.Errorf("non-JSON envelope = %+v", env)
	}
}

func TestDispatchEncryptedNumbers(t *testing.T) {
	codec := newTestCodec(t)
	var gotID int64
	store := &stubStore{getAccount: func(_ context.Context, id int64) (*models.Account, error) {
		gotID = id
		return &models.Account{ID: id}, nil
	}}
	d := New(store, WithCodec(codec), WithClock(fixedClock))

	token, _ := codec.Encrypt(`{"command":"get_user_info","parameters":{"user_id":9007199254740993}}`)
	env := decryptEnvelope(t, codec, d.DispatchEncrypted(context.Background(), token, "test"))
	if !env.Success {
		t.Fatalf("envelope = %+v", env)
	}
	if gotID != 9007199254740993 {
		t.Errorf("user_id = %d, want exact integer", gotID)
	}
}

func TestDispatchEncryptedWithoutCodec(t *testing.T) {
	d := New(&stubStore{}, WithClock(fixedClock))
	reply := d.DispatchEncrypted(context.Background(), "anything", "test")
	if reply.Encrypted != nil {
		t.Fatal("reply should be plain without a codec")
	}
	if reply.Envelope.Success || !strings.HasPrefix(reply.Envelope.Message, "TransportError: ") {
		t.Errorf("envelope = %+v", reply.Envelope)
	}
	if _, ok := reply.Body().(models.Envelope); !ok {
		t.Errorf("Body() = %T, want models.Envelope", reply.Body())
	}
}
