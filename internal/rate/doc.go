// Package rate implements the Redis-backed failed-login limiter.
//
// # Window semantics
//
// Fixed-window counters: INCR plus EXPIRE on the first hit of a window. Keys:
//   - <prefix>:<email>     failed logins per account
//   - <prefix>:ip:<addr>   failed logins per client IP (optional)
//
// # What this package must NOT do
//
//   - Be imported outside the goShop module.
//   - Count successful logins.
package rate
