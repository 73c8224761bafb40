// Package retry absorbs transient provider failures with bounded retries.
// Delays grow exponentially with full jitter; terminal errors (bad
// credentials, 4xx responses) short-circuit without consuming a retry.
package retry
