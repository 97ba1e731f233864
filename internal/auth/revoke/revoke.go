// Package revoke tracks revoked token IDs (jtis) until their natural expiry.
//
// Revocation is a denylist, not a session table: verifying a token never
// touches the store, only the request gate consults it. Entries carry a TTL
// matching the token's remaining lifetime so the set stays bounded.
package revoke

import (
	"context"
	"time"
)

// Store is the revocation set. Implementations must be safe for concurrent
// use.
type Store interface {
	// Add marks a jti as revoked for the given duration. Adding an already
	// revoked jti is a no-op.
	Add(ctx context.Context, jti string, ttl time.Duration) error

	// Contains reports whether the jti is currently revoked.
	Contains(ctx context.Context, jti string) (bool, error)
}
