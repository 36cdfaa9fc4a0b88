// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

/*
Package supervisor runs the long-lived parts of `easyflix serve` under a
suture v4 supervisor tree:

	RootSupervisor ("easyflix")
	├── DataSupervisor ("data-layer")
	│   └── CheckpointService (if database.checkpoint_interval > 0)
	├── AggregationSupervisor ("aggregation-layer")
	│   └── SnapshotWorkerService (if aggregation.mode is async)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services restart with suture's backoff. Supervisor events are logged
through sutureslog into the zerolog-backed slog handler from the logging
package.

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"),
	    supervisor.TreeConfigFrom(cfg.Supervisor))
	tree.AddAggregationService(services.NewSnapshotWorkerService(worker))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
