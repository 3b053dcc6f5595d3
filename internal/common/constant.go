// Package common contains shared constants, sentinel errors and small helpers
// used across the poreview components.
package common

// Reserved credential pair that always resolves against the local user set,
// whichever backend is active.
const (
	GuestEmail       = "guest"
	GuestPassword    = "guest"
	GuestDisplayName = "Guest"
)
