// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

/*
Package api exposes the command dispatcher over HTTP using the Chi router.

Routes:

	POST /api/v1/command            {"command": "...", "parameters": {...}}
	POST /api/v1/command/encrypted  {"data": "<token>"} or the bare token
	GET  /api/v1/health             store reachability
	GET  /metrics                   Prometheus exposition

Dispatched commands always answer 200 with the envelope; success is carried
in the envelope itself. Only requests that never reach the dispatcher
(unreadable bodies, oversized payloads, rate limiting) use other status codes.

Middleware, outermost first: request ID with logging context, real IP,
panic recovery and CORS on every route; security headers, request metrics
and gzip for JSON under /api/v1; rate limiting on the command routes.
*/
package api
