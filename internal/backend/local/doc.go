// Package local is the single-session fallback backend. All state lives in
// one SQLite key/value table as three JSON-encoded lists (users, records,
// notifications) that are rewritten whole on every change. Calls are
// serialised within the process; writers in different processes are not
// coordinated.
//
// No access policy is enforced: any signed-in caller may read or mutate any
// record. This is a best-effort offline mode, not a security boundary.
package local
