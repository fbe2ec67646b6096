// Package preflight provides readiness checks for the executables,
// directories, credentials, and collaborators clippa depends on.
//
// The serve command runs RunAll at startup and logs failures as warnings;
// the doctor command renders every result as a table. A failed check never
// blocks startup, because a job that cannot run still resolves to an error
// record rather than hanging.
package preflight
