package api

import (
	"log/slog"
	"time"
)

// HTTPServerConfig contains all configuration parameters for the HTTP server.
type HTTPServerConfig struct {
	// ListenAddr is the address and port the API listens on.
	ListenAddr string

	// MetricsAddr is the address and port for the metrics server.
	// If empty, metrics server will not be started.
	MetricsAddr string

	// EnablePprof enables the pprof debugging API when true.
	EnablePprof bool

	// EnableFunding exposes the development funding endpoint.
	EnableFunding bool

	// ReadOnly serves only the query routes. The mutating routes take the
	// acting address from the request body and do not authenticate it.
	ReadOnly bool

	// RateLimit is the number of API requests per second allowed per client
	// IP, with bursts of up to RateBurst. Zero disables rate limiting.
	RateLimit float64
	RateBurst int

	Log *slog.Logger

	// DrainDuration is the time to wait after marking server not ready
	// before shutting down, allowing load balancers to detect the change.
	DrainDuration time.Duration

	// GracefulShutdownDuration is the maximum time to wait for in-flight
	// requests to complete during shutdown.
	GracefulShutdownDuration time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}
