// Package ledger persists per-run stage outcomes to SQLite so `seqmart
// status` can show what happened across pipeline invocations. The ledger is
// purely observational: file presence in the data directory remains the only
// idempotence signal, and a wiped ledger never changes pipeline behavior.
package ledger
