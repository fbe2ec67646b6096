// Package media runs the external media tools (downloader, transcoder) as
// subprocesses.
//
// Runner is the narrow capability the pipeline depends on: start a binary
// with an argument list, stream its output lines, and report how it exited.
// ExecRunner is the os/exec implementation; tests substitute fakes that write
// the files a real tool would have produced.
package media
