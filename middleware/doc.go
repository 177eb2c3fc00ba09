// Package middleware adapts goShop.Engine to net/http: the access-token gate,
// the role gate, and the token cookies.
//
// # Gates
//
//   - [ProtectRoute] authenticates the accessToken cookie and attaches the
//     identity to the request context.
//   - [AdminRoute] / [RequireRole] reject identities without the role. Compose
//     them after ProtectRoute.
//
// Gate failures end the chain with a JSON body {"message": "..."}: 401 for
// token problems, 403 for the role gate, 500 when the user store failed.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis or the user store.
//   - Make authorization decisions beyond pass/reject from the Engine.
package middleware
