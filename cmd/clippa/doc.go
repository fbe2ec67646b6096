// Command clippa runs the clip server and offers local tooling around it:
// one-shot clip runs, job inspection, environment checks, and config
// helpers.
package main
