// Package jwt issues and verifies the access/refresh token pair.
//
// # Architecture boundaries
//
// Access and refresh tokens are signed with independent key material, so a
// token of one kind never verifies as the other. Verification distinguishes
// expiry from every other failure because the auth middleware reports the two
// differently.
//
// # What this package must NOT do
//
//   - Touch Redis or any user store.
//   - Decide whether a refresh token has been revoked.
package jwt
