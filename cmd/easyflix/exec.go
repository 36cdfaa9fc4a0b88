// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/easyflix/internal/aggregate"
	"github.com/tomtom215/easyflix/internal/config"
	"github.com/tomtom215/easyflix/internal/dispatch"
	"github.com/tomtom215/easyflix/internal/logging"
)

// cliRemote identifies exec callers in the security log.
const cliRemote = "cli"

// paramFlag collects repeated -p key=value arguments.
type paramFlag struct {
	params dispatch.Params
}

func (p *paramFlag) String() string {
	if p == nil || len(p.params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p.params))
	for k := range p.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, p.params[k]))
	}
	return strings.Join(pairs, ",")
}

// Set parses key=value. The value may be empty or contain further '='.
func (p *paramFlag) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("parameter %q must be key=value", v)
	}
	if p.params == nil {
		p.params = dispatch.Params{}
	}
	p.params[key] = value
	return nil
}

// decodeParams parses a JSON object of parameters. Numbers stay json.Number
// so large IDs survive intact.
func decodeParams(raw string) (dispatch.Params, error) {
	params := dispatch.Params{}
	if strings.TrimSpace(raw) == "" {
		return params, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("-params must be a JSON object: %w", err)
	}
	return params, nil
}

// mergeParams overlays the -p pairs on the JSON parameters.
func mergeParams(base, overrides dispatch.Params) dispatch.Params {
	if base == nil {
		base = dispatch.Params{}
	}
	for k, v := range overrides {
		base[k] = v
	}
	return base
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("easyflix "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// newDispatcher wires the dispatcher used by exec. Snapshots recompute
// inline since there is no worker to hand them to.
func newDispatcher(cfg *config.Config, store dispatch.Store, engine *aggregate.Engine) (*dispatch.Dispatcher, error) {
	var trigger aggregate.Trigger = aggregate.NopTrigger{}
	if cfg.Aggregation.Mode != config.AggregationModeOff {
		trigger = aggregate.NewSyncTrigger(engine, cfg.Aggregation.Timeout)
	}

	opts := []dispatch.Option{
		dispatch.WithRecomputer(engine),
		dispatch.WithTrigger(trigger),
		dispatch.WithSecurityLogger(logging.NewSecurityLogger()),
	}
	if cfg.Transport.Enabled {
		codec, err := newTransportCodec(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dispatch.WithCodec(codec))
	}
	return dispatch.New(store, opts...), nil
}

// writeJSON prints v followed by a newline.
func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// runExec returns 0 when the envelope reports success, 1 when it does not
// or when the command could not be run, and 2 on usage errors.
func runExec(args []string, stdout, stderr io.Writer) int {
	var (
		fs      = newFlagSet("exec", stderr)
		pairs   paramFlag
		command = fs.String("command", "", "command name (e.g. register, get_shows)")
		rawJSON = fs.String("params", "", "parameters as a JSON object")
		token   = fs.String("token", "", "encrypted request token")
		pretty  = fs.Bool("pretty", false, "indent the JSON output")
	)
	fs.Var(&pairs, "p", "parameter as key=value (repeatable)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *command == "" && *token == "" {
		fmt.Fprintln(stderr, "exec requires -command or -token")
		fs.Usage()
		return 2
	}
	if *command != "" && *token != "" {
		fmt.Fprintln(stderr, "-command and -token are mutually exclusive")
		return 2
	}

	params, err := decodeParams(*rawJSON)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	params = mergeParams(params, pairs.params)

	cfg, err := loadConfig(stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	ctx := context.Background()
	// exec never creates a store; a missing file aborts before any envelope.
	db, err := openDatabase(ctx, cfg, false)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to open database")
		return 1
	}
	defer closeDatabase(db)

	engine := aggregate.NewEngine(db, aggregate.WithLocation(cfg.Aggregation.Location()))
	d, err := newDispatcher(cfg, db, engine)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to build dispatcher")
		return 1
	}

	var (
		body    interface{}
		success bool
	)
	if *token != "" {
		reply := d.DispatchEncrypted(ctx, strings.TrimSpace(*token), cliRemote)
		body, success = reply.Body(), reply.Envelope.Success
	} else {
		env := d.Dispatch(ctx, *command, params)
		body, success = env, env.Success
	}

	if err := writeJSON(stdout, body, *pretty); err != nil {
		logging.Error().Err(err).Msg("Failed to write response")
		return 1
	}
	if !success {
		return 1
	}
	return 0
}
