package internaldefs

import (
	goShop "github.com/MrEthical07/goShop"
)

// CounterDef maps one engine counter to its exported name.
type CounterDef struct {
	ID   goShop.MetricID
	Name string
	Help string
}

// HistogramDef maps the engine histogram to its exported name.
type HistogramDef struct {
	ID   goShop.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goShop.MetricSignupSuccess, Name: "goshop_signup_success_total", Help: "Successful signups."},
	{ID: goShop.MetricSignupDuplicate, Name: "goshop_signup_duplicate_total", Help: "Signups rejected because the email is registered."},
	{ID: goShop.MetricSignupFailure, Name: "goshop_signup_failure_total", Help: "Failed signups other than duplicates."},
	{ID: goShop.MetricLoginSuccess, Name: "goshop_login_success_total", Help: "Successful login attempts."},
	{ID: goShop.MetricLoginFailure, Name: "goshop_login_failure_total", Help: "Failed login attempts."},
	{ID: goShop.MetricLoginRateLimited, Name: "goshop_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: goShop.MetricRefreshSuccess, Name: "goshop_refresh_success_total", Help: "Successful refresh operations."},
	{ID: goShop.MetricRefreshFailure, Name: "goshop_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: goShop.MetricRefreshRevoked, Name: "goshop_refresh_revoked_total", Help: "Refresh tokens rejected as no longer current."},
	{ID: goShop.MetricLogout, Name: "goshop_logout_total", Help: "Logout operations."},
	{ID: goShop.MetricSessionCreated, Name: "goshop_session_created_total", Help: "Refresh fingerprints recorded."},
	{ID: goShop.MetricPasswordUpgraded, Name: "goshop_password_upgraded_total", Help: "Password hashes upgraded on login."},
	{ID: goShop.MetricAuthSuccess, Name: "goshop_auth_success_total", Help: "Authenticated requests."},
	{ID: goShop.MetricAuthNoToken, Name: "goshop_auth_no_token_total", Help: "Requests rejected without an access token."},
	{ID: goShop.MetricAuthExpired, Name: "goshop_auth_expired_total", Help: "Requests rejected with an expired access token."},
	{ID: goShop.MetricAuthInvalid, Name: "goshop_auth_invalid_total", Help: "Requests rejected with an invalid access token."},
	{ID: goShop.MetricAuthUpstreamFailure, Name: "goshop_auth_upstream_failure_total", Help: "Authentication attempts failed by the user store."},
	{ID: goShop.MetricForbidden, Name: "goshop_forbidden_total", Help: "Requests denied by a role gate."},
	{ID: goShop.MetricFeaturedCacheHit, Name: "goshop_featured_cache_hit_total", Help: "Featured list served from cache."},
	{ID: goShop.MetricFeaturedCacheMiss, Name: "goshop_featured_cache_miss_total", Help: "Featured list loaded from the store."},
	{ID: goShop.MetricFeaturedCacheRefreshFailure, Name: "goshop_featured_cache_refresh_failure_total", Help: "Featured cache rebuilds that failed after a product write."},
	{ID: goShop.MetricFeaturedCacheReconciled, Name: "goshop_featured_cache_reconciled_total", Help: "Periodic featured cache rebuilds."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goShop.MetricAuthenticateLatency, Name: "goshop_authenticate_latency_seconds", Help: "Access token authentication latency."},
}

// HistogramBounds are the upper bounds of the engine's latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in instrument-name form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling
// missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
