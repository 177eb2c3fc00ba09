// Package catalog serves products and keeps the featured-product set in a
// cache in front of the document store.
//
// Reads of the featured set are cache-aside: a hit that decodes as a product
// array is returned as the exact cached bytes, a miss (or an undecodable
// entry) queries the store and populates the single fixed key with no expiry. Every mutation that can change the set (toggle, create a
// featured product, delete a featured product) recomputes it from the store
// and overwrites the entry. A failed overwrite is logged and reported through
// Config.OnCacheRefreshFailure but never fails the mutation; [Reconciler]
// optionally repairs such an entry on a timer.
//
// # What this package must NOT do
//
//   - Delete the cache entry and wait for a lazy repopulate.
//   - Depend on the auth chain or the goShop Engine.
package catalog
