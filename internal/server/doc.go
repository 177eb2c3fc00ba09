// Package server is the HTTP surface of the shop: auth routes backed by the
// goShop engine, product routes backed by the catalog service, and the admin
// analytics summary.
//
// # Architecture boundaries
//
// Handlers decode JSON, call one engine or catalog operation and map its
// sentinel errors to a status and a fixed {"message": ...} body. Data-layer
// failures become 500 with the cause in "error". Access gates come from the
// middleware package; the request chain is rescue, logging, client IP, mux.
//
// # What this package must NOT do
//
//   - Talk to Redis or MongoDB directly.
//   - Keep session state in process.
package server
