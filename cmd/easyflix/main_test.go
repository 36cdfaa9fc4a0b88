// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/easyflix/internal/config"
	"github.com/tomtom215/easyflix/internal/transport"
)

func TestParamFlag(t *testing.T) {
	var p paramFlag

	for _, arg := range []string{"username=alice", "password=a=b=c", " tier =Premium", "search="} {
		if err := p.Set(arg); err != nil {
			t.Fatalf("Set(%q) error = %v", arg, err)
		}
	}

	want := map[string]string{"username": "alice", "password": "a=b=c", "tier": "Premium", "search": ""}
	for k, v := range want {
		if got := p.params[k]; got != v {
			t.Errorf("params[%q] = %v, want %q", k, got, v)
		}
	}
	if got := p.String(); got != "password=a=b=c,search=,tier=Premium,username=alice" {
		t.Errorf("String() = %q", got)
	}

	for _, bad := range []string{"noequals", "=value", "  =x"} {
		if err := p.Set(bad); err == nil {
			t.Errorf("Set(%q) = nil, want error", bad)
		}
	}
}

func TestDecodeAndMergeParams(t *testing.T) {
	params, err := decodeParams(`{"user_id": 9007199254740993, "marketing_opt_in": true}`)
	if err != nil {
		t.Fatalf("decodeParams() error = %v", err)
	}
	if n, ok := params["user_id"].(json.Number); !ok || n.String() != "9007199254740993" {
		t.Errorf("user_id = %#v, want json.Number 9007199254740993", params["user_id"])
	}

	merged := mergeParams(params, map[string]interface{}{"marketing_opt_in": "no"})
	if merged["marketing_opt_in"] != "no" {
		t.Errorf("override lost: %v", merged["marketing_opt_in"])
	}

	if _, err := decodeParams(`[1,2]`); err == nil {
		t.Error("decodeParams(array) = nil error, want error")
	}
	empty, err := decodeParams("  ")
	if err != nil || len(empty) != 0 {
		t.Errorf("decodeParams(blank) = %v, %v", empty, err)
	}
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no subcommand", nil, 2},
		{"unknown", []string{"frobnicate"}, 2},
		{"help", []string{"help"}, 0},
		{"exec help", []string{"exec", "-h"}, 0},
		{"exec without command", []string{"exec"}, 2},
		{"exec with both", []string{"exec", "-command", "get_genres", "-token", "abc"}, 2},
		{"exec bad param", []string{"exec", "-command", "get_genres", "-p", "nope"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.code {
				t.Errorf("run(%v) = %d, want %d (stderr: %s)", tt.args, code, tt.code, stderr.String())
			}
		})
	}
}

// memoryEnv points configuration at an in-memory database with no config file.
func memoryEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("DUCKDB_CHECKPOINT_INTERVAL", "0s")
	t.Setenv("SEED_CATALOG", "false")
	t.Setenv("TRANSPORT_ENABLED", "false")
	t.Setenv("AGGREGATION_MODE", "sync")
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("LOG_LEVEL", "error")
}

func TestRunExec(t *testing.T) {
	memoryEnv(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"exec", "-command", "get_genres"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exec get_genres = %d, stdout: %s stderr: %s", code, stdout.String(), stderr.String())
	}

	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		t.Fatalf("stdout is not an envelope: %v (%s)", err, stdout.String())
	}
	if !env.Success || env.Message != "Retrieved 0 genres" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestRunExecFailureExitCode(t *testing.T) {
	memoryEnv(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"exec", "-command", "get_user_info", "-p", "user_id=42"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exec get_user_info = %d, want 1", code)
	}
	if !strings.Contains(stdout.String(), `"success":false`) || !strings.Contains(stdout.String(), "NotFound") {
		t.Errorf("stdout = %s", stdout.String())
	}
}

func TestRunExecTokenWithoutTransport(t *testing.T) {
	memoryEnv(t)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"exec", "-token", "bm90LWEtdG9rZW4="}, &stdout, &stderr); code != 1 {
		t.Fatalf("exec -token = %d, want 1", code)
	}
	if !strings.Contains(stdout.String(), "TransportError") {
		t.Errorf("stdout = %s, want TransportError", stdout.String())
	}
}

func TestRunSeed(t *testing.T) {
	memoryEnv(t)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"seed"}, &stdout, &stderr); code != 0 {
		t.Fatalf("seed = %d, stderr: %s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "seeded ") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunExecMissingDatabase(t *testing.T) {
	memoryEnv(t)
	path := filepath.Join(t.TempDir(), "data", "typo.duckdb")
	t.Setenv("DUCKDB_PATH", path)
	t.Setenv("SEED_CATALOG", "true")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"exec", "-command", "get_genres"}, &stdout, &stderr); code != 1 {
		t.Fatalf("exec against a missing store = %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want no envelope", stdout.String())
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("exec created %s (stat err: %v)", path, err)
	}
}

func TestRunSeedThenExec(t *testing.T) {
	memoryEnv(t)
	t.Setenv("DUCKDB_PATH", filepath.Join(t.TempDir(), "data", "easyflix.duckdb"))

	var stdout, stderr bytes.Buffer
	if code := run([]string{"seed"}, &stdout, &stderr); code != 0 {
		t.Fatalf("seed = %d, stderr: %s", code, stderr.String())
	}

	stdout.Reset()
	if code := run([]string{"exec", "-command", "get_genres"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exec after seed = %d, stdout: %s", code, stdout.String())
	}
	if strings.Contains(stdout.String(), "Retrieved 0 genres") {
		t.Errorf("seeded store reported no genres: %s", stdout.String())
	}
}

func TestNewTransportCodec(t *testing.T) {
	cfg := &config.Config{Transport: config.TransportConfig{
		Enabled:    true,
		Passphrase: "correct horse",
		Salt:       config.DefaultTransportSalt,
		Iterations: transport.MinIterations,
	}}
	codec, err := newTransportCodec(cfg)
	if err != nil {
		t.Fatalf("newTransportCodec() error = %v", err)
	}
	token, err := codec.Encrypt("ping")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if got, err := codec.Decrypt(token); err != nil || got != "ping" {
		t.Errorf("Decrypt() = %q, %v", got, err)
	}

	cfg.Transport.Passphrase = ""
	if _, err := newTransportCodec(cfg); !errors.Is(err, transport.ErrEmptyPassphrase) {
		t.Errorf("newTransportCodec(empty passphrase) error = %v", err)
	}
}

func TestRunExecEncrypted(t *testing.T) {
	memoryEnv(t)
	t.Setenv("TRANSPORT_ENABLED", "true")
	t.Setenv("TRANSPORT_PASSPHRASE", "correct horse")
	t.Setenv("TRANSPORT_ITERATIONS", "10000")

	codec, err := transport.NewCodec(transport.Config{
		Passphrase: "correct horse",
		Salt:       config.DefaultTransportSalt,
		Iterations: 10000,
	})
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	token, err := codec.Encrypt(`{"command":"get_genres","parameters":{}}`)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"exec", "-token", token}, &stdout, &stderr); code != 0 {
		t.Fatalf("exec -token = %d, stdout: %s stderr: %s", code, stdout.String(), stderr.String())
	}
	var sealed struct {
		Encrypted bool   `json:"encrypted"`
		Data      string `json:"data"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &sealed); err != nil || !sealed.Encrypted {
		t.Fatalf("stdout = %s, want an encrypted envelope", stdout.String())
	}
	plain, err := codec.Decrypt(sealed.Data)
	if err != nil {
		t.Fatalf("Decrypt(reply) error = %v", err)
	}
	if !strings.Contains(plain, "Retrieved 0 genres") {
		t.Errorf("reply = %s", plain)
	}
}
