// Package backend defines the persistence contract shared by the remote and
// local variants. A variant is selected once at startup (see package app) and
// injected into every store; stores never branch on which variant is active.
//
// Data methods take the acting identity explicitly. The remote variant
// additionally derives its row-level policy identity from its own session
// and rejects calls made without one with common.ErrAuthRequired. The local
// variant enforces no policy at all and never returns common.ErrPolicyDenied.
package backend
