// Package flags provides per-user flag storage for tabulist.
// Each user owns a set of namespaced documents whose keys are written and
// removed individually, so concurrent writers touching distinct keys never
// clobber each other. Backends include SQLite with WAL mode and embedded
// migrations, and an in-memory store for tests and ephemeral runs.
package flags
