// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

/*
Package models defines the data structures shared by the store, the aggregation
engine and the command dispatcher.

Key Components:

  - Account, Title, Purchase, Admin: catalog and account entities
  - Statistics, Financials, SnapshotResult: daily aggregation rows
  - Envelope, EncryptedEnvelope: the uniform response wrapper
  - Pagination, TitlePage: listing metadata

Money is carried as integer cents (Money) and serialized as a decimal number
with two fraction digits, so arithmetic on spend and revenue is exact.

JSON field names follow the snake_case names the EasyFlix front-ends consume
(user_id, subscription_level, show_id, access_group). Pagination metadata uses
camelCase keys (totalCount, hasNext) as part of the listing contract.
*/
package models
