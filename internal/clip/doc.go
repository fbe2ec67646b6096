// Package clip runs the clip production pipeline.
//
// Submit validates a request, persists a processing job record and returns
// the job id before any subprocess starts. The job then runs on its own
// goroutine through extraction, optional subtitle re-timing, and transcoding.
// Finalization always runs: it removes the job's temporary files, uploads the
// finished clip, and writes exactly one terminal outcome to the job store.
//
// Every temporary file is named after the job id under the configured work
// directory, so concurrent jobs never share a path.
package clip
