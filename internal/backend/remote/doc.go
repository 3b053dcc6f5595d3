// Package remote is the backend variant for the managed service: Postgres
// with row-level security for users, records and notifications, and an
// S3-compatible bucket for generated documents.
//
// Identity is an HS256 session token persisted through a TokenStore. Every
// data call runs in a transaction that assumes the po_authenticated role and
// exposes the token's user id to the policies as app.user_id, so the
// database decides what each identity may read or change.
package remote
