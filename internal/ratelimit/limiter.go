package ratelimit

import "context"

// RateLimiter bounds request throughput per scope key. The webhook path
// uses a fixed instance-wide scope; the export API scopes per caller IP.
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
}
