// Package database provides a lifecycle-managed PostgreSQL connection pool
// with automatic schema migration.
//
// # Architecture
//
// The Component sequences startup in two strict stages: pending schema
// migrations are applied first (and fully), then the partitioned connection
// pool is constructed. A migration failure aborts Start entirely; the pool
// is never built. Start and Stop are idempotent and detect the presence of
// a live pool handle, so an orchestrator can invoke them blindly.
//
// # Quick start
//
//	cfg := database.Config{
//	    Subprotocol: "postgresql",
//	    Subname:     "//localhost:5432/app",
//	    User:        "app",
//	    Password:    "secret",
//	}
//	comp := database.NewComponent(cfg, log)
//	if err := comp.Start(ctx); err != nil {
//	    // CONFIG_INVALID, MIGRATION_FAILED or POOL_UNAVAILABLE
//	}
//	defer comp.Stop(ctx)
//
//	conn, err := comp.Pool().Acquire(ctx)
//	defer conn.Close() // returns the connection to the pool
//
// The package manages only the lifecycle and resilience envelope around the
// pool; query execution and transaction semantics belong to the caller.
package database
