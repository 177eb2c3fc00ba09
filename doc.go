// Package goShop is the account and session core of the shop backend: signup,
// login, refresh-token rotation, logout, and the access-token gate used by
// protected routes.
//
// Access and refresh tokens are stateless JWTs signed with separate keys. Each
// user has at most one live refresh token, recorded in Redis as a SHA-256
// fingerprint; issuing a new pair overwrites the entry and so revokes the
// previous refresh token. Engine methods are safe to call from multiple
// goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// goShop is the public surface. It exposes [Engine], [Builder], [Config], the
// [UserStore] contract and value types ([Identity], [SessionResult],
// [MetricsSnapshot]). Flow orchestration, login rate limiting and audit
// dispatch live under internal/ and are never exported. The product catalog
// lives in the catalog package and does not depend on the Engine.
//
// # What this package must NOT do
//
//   - Expose Redis clients, registry keys or fingerprints in its public API.
//   - Return the password hash through any Identity or SessionResult.
//   - Report a user-store failure as a token problem.
//   - Import any sub-package that re-imports goShop (no import cycles).
package goShop
