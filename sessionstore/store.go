// Package sessionstore persists the fingerprint to upload URL mapping that
// makes uploads resumable across process restarts.
package sessionstore

import "context"

// Store maps file fingerprints to previously negotiated upload URLs.
// Implementations must be safe for concurrent use across distinct
// fingerprints; per-fingerprint writes are last-write-wins.
type Store interface {
	// Get returns the upload URL stored for the fingerprint, and whether one exists.
	Get(ctx context.Context, fingerprint string) (string, bool, error)

	// Set stores the upload URL for the fingerprint, replacing any previous value.
	Set(ctx context.Context, fingerprint string, uploadURL string) error

	// Remove deletes the mapping for the fingerprint. Removing a missing
	// fingerprint is not an error.
	Remove(ctx context.Context, fingerprint string) error
}
