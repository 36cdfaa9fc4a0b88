// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

// Package services adapts EasyFlix components to suture.Service:
// HTTPServerService (ListenAndServe/Shutdown), SnapshotWorkerService
// (aggregate.Worker.Run) and CheckpointService (periodic DuckDB checkpoints).
package services
