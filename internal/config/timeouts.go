package config

import "time"

// TimeoutConfig holds timeout settings for various operations.
// These can be configured via CLI flags to tune behavior for different networks.
type TimeoutConfig struct {
	// HTTPClient is the timeout for HTTP requests to the media server.
	// Default: 30s
	HTTPClient time.Duration

	// WebSocketKeepAlive is the interval between keep-alive frames on the
	// remote control socket. Default: 30s
	WebSocketKeepAlive time.Duration
}

// DefaultTimeoutConfig returns the default timeout configuration
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPClient:         30 * time.Second,
		WebSocketKeepAlive: 30 * time.Second,
	}
}

// global instance that can be set at startup
var globalTimeouts = DefaultTimeoutConfig()

// SetGlobalTimeouts sets the global timeout configuration
func SetGlobalTimeouts(cfg *TimeoutConfig) {
	globalTimeouts = cfg
}

// GetTimeouts returns the global timeout configuration
func GetTimeouts() *TimeoutConfig {
	return globalTimeouts
}
