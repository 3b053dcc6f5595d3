// Package models defines the records, notifications and identities shared by
// every backend. Field tags describe the JSON form used by the local store.
package models
