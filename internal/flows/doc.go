// Package flows contains the orchestration for every Engine operation.
//
// Each Run* function accepts a typed dependency struct of funcs and returns a
// result without side effects beyond those funcs. The Engine builds the
// dependency structs once; tests substitute in-memory fakes.
//
// # Architecture boundaries
//
// Flow functions coordinate the token issuer, registry, credential store,
// limiter, audit and metrics. They own none of these resources.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goShop (to avoid import cycles).
//   - Perform I/O directly. All I/O goes through dependency funcs.
package flows
