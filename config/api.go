package config

import "time"

// APIConfig holds the HTTP status API settings. An empty Listen disables it.
type APIConfig struct {
	Listen         string `json:"listen"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// Token, when set, is required as a bearer token by every route.
	Token string `json:"token"`
	// ProgressIntervalSeconds paces progress publication while a plan runs.
	ProgressIntervalSeconds int `json:"progress_interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 3
	}
	if c.ProgressIntervalSeconds <= 0 {
		c.ProgressIntervalSeconds = 1
	}
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c APIConfig) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalSeconds) * time.Second
}
