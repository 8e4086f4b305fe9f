// Package component defines the lifecycle contract for managed resources.
//
// A Component owns an underlying resource (a database connection pool, a
// scheduled-job pool) and exposes explicit Start/Stop transitions. Start and
// Stop are idempotent: implementations detect an already-live resource handle
// and skip the transition, so a supervising orchestrator can call them
// without tracking external state. Concurrent Start/Stop races are out of
// scope; callers serialize lifecycle transitions externally.
//
// The Registry starts components in registration order and stops them in
// reverse, which is how dependency ordering (migrate-then-connect resources
// before their consumers) is expressed.
package component
