// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

/*
Package dispatch is the command boundary every front-end calls into.

A request is a command name plus a flat parameter map. The Dispatcher looks
the name up in a static table (legacy front-end names are aliases of the
canonical ones), binds and validates the parameters, runs the store or
aggregation operation and wraps the outcome in a models.Envelope:

	env := d.Dispatch(ctx, "get_shows_paginated", dispatch.Params{
		"page":         "1",
		"access_group": "all",
	})

Failures never escape as Go errors. They are rendered as "Kind: message"
with success=false; panics inside handlers become InternalError.

Mutating commands (registration, tier changes, library changes, account and
title deletion, consent changes) notify the configured aggregate.Trigger
after they succeed.

DispatchEncrypted accepts a transport token that decodes to
{"command", "parameters"} and returns the envelope encrypted with the same
codec, or the plain envelope if encryption fails.
*/
package dispatch
