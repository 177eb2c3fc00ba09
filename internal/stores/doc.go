// Package stores holds the MongoDB adapters: the credential store behind
// goShop.UserStore, the product store behind catalog.Store, and the analytics
// summary.
//
// # Design
//
// Each adapter wraps one *mongo.Collection (the analytics reader wraps three)
// and converts between BSON documents and the domain records. Ids are
// ObjectIDs in the database and hex strings everywhere else; a malformed id is
// reported as not found. Duplicate-key write errors (code 11000) on the users
// collection map to goShop.ErrUserExists, which relies on the unique email
// index created by EnsureIndexes.
//
// # What this package must NOT do
//
//   - Return a password hash from FindUserByID.
//   - Retry or time out calls on its own; context deadlines come from callers.
//   - Touch Redis.
package stores
