// Package services defines shared utilities consumed by the clip pipeline
// stages and their external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that give every pipeline
//     failure a stable taxonomy (extraction, transcode, upload, ...).
//   - ExitError, the shared description of how an external tool process
//     ended (exit code, signal, or spawn failure).
//
// Use these helpers when wiring new stage logic so failure reporting stays
// uniform across the pipeline.
package services
