// Package server wires configuration, stores, the clip pipeline, and the HTTP
// API into one long-running process.
//
// Only one server may own a data directory at a time; a flock on
// <data_dir>/clippa.lock enforces it. At startup, jobs left processing by a
// previous process are marked failed, since in-flight work is never resumed.
// On shutdown the HTTP listener closes first, then in-flight jobs get up to
// workflow.shutdown_timeout_seconds to reach a terminal state.
package server
