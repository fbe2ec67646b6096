// Package jobs persists clip job records.
//
// A job is inserted as "processing" when a request is accepted and moves
// exactly once to a terminal state ("ready" or "error"). Store
// implementations enforce that transition: Update against a terminal job
// returns ErrTerminal and leaves the record untouched.
//
// SQLiteStore is the default backend. RedisStore keeps the same records in
// Redis hashes for deployments that share job state across hosts.
package jobs
