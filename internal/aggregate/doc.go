// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

/*
Package aggregate recomputes the daily statistics and financials snapshot and
infers each consenting account's favourite genre.

A recompute is idempotent: it reads the current populations, derives today's
rows with Compute, and hands them to the store, which upserts them and only
advances updated_at when a value changed.

Mutating commands notify a Trigger after they succeed. Three triggers exist:

  - SyncTrigger recomputes inline and logs failures
  - Queue publishes a request onto an in-process watermill channel consumed by
    Worker, which coalesces bursts through a rate limiter, stops calling a
    failing store through a circuit breaker, and also runs on a cron schedule
  - NopTrigger does nothing

A trigger never reports failure to the command that fired it.
*/
package aggregate
