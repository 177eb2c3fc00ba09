// Package session provides the Redis-backed refresh-token registry.
//
// # Data model
//
// The registry holds exactly one entry per user: the SHA-256 fingerprint of the
// most recently issued refresh token, stored under "<prefix>:<userID>" with the
// refresh lifetime as its expiry. Issuing a new token overwrites the entry, which
// revokes every earlier refresh token for that user. There is no sliding renewal.
//
// # Architecture boundaries
//
// This package owns the [Registry] (Redis operations) only. It does NOT parse JWTs
// or look users up; the Engine decides when to call Put, Rotate and Delete.
//
// # What this package must NOT do
//
//   - Import goShop, jwt or middleware (no upward imports).
//   - Store raw refresh tokens. Only fingerprints reach Redis.
package session
