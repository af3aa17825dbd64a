package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines timeout values for the application's timeout hierarchy.
//
// Each layer must complete before its parent times out:
//
//	HTTP Handler (60s) > Service Layer (50s) > Provider API (30s) > Database Query (2s/5s)
type TimeoutConfig struct {
	// Handler layer timeouts
	HTTPHandler time.Duration // Overall request timeout (default: 60s)
	Worker      time.Duration // Background worker tick timeout (default: 5 minutes)

	// Service layer timeouts
	Service time.Duration // Service operation timeout (default: 50s)

	// External API timeouts (adapters)
	ProviderAPI time.Duration // Payment provider calls (default: 30s)
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 60 * time.Second,
		Worker:      5 * time.Minute,
		Service:     50 * time.Second,
		ProviderAPI: 30 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 5 * time.Second,
		Worker:      30 * time.Second,
		Service:     4 * time.Second,
		ProviderAPI: 2 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// WorkerContext creates a context with timeout for one worker tick
func (tc *TimeoutConfig) WorkerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Worker)
}

// ServiceContext creates a context with timeout for service layer operations
func (tc *TimeoutConfig) ServiceContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Service)
}

// ProviderContext creates a context for external provider calls. A provider
// call in flight runs to completion or timeout; there is no mid-flight abort.
func (tc *TimeoutConfig) ProviderContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ProviderAPI)
}
