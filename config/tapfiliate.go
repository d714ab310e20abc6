// config/tapfiliate.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTapfiliateBaseURL is the Tapfiliate REST API root
const DefaultTapfiliateBaseURL = "https://api.tapfiliate.com/1.6/"

// TapfiliateConfig holds everything needed to talk to Tapfiliate
type TapfiliateConfig struct {
	APIKey          string
	BaseURL         string
	HTTPTimeout     time.Duration
	CustomFieldsTTL time.Duration
	ProgramsFile    string
}

// LoadTapfiliateConfig reads the Tapfiliate configuration from the environment.
// A missing API key is not fatal here: requests fail individually until it is set.
func LoadTapfiliateConfig() TapfiliateConfig {
	cfg := TapfiliateConfig{
		APIKey:          strings.TrimSpace(os.Getenv("TAPFILIATE_API_KEY")),
		BaseURL:         strings.TrimSpace(os.Getenv("TAPFILIATE_BASE_URL")),
		HTTPTimeout:     durationEnv("TAPFILIATE_HTTP_TIMEOUT", 0),
		CustomFieldsTTL: durationEnv("CUSTOM_FIELDS_CACHE_TTL", 0),
		ProgramsFile:    strings.TrimSpace(os.Getenv("TAPFILIATE_PROGRAMS_FILE")),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTapfiliateBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}

	log.Printf("Tapfiliate Configuration:")
	log.Printf("  Base URL: %s", cfg.BaseURL)
	log.Printf("  API Key: %s", map[bool]string{true: "[CONFIGURED]", false: "[MISSING]"}[cfg.HasAPIKey()])
	log.Printf("  HTTP timeout: %s", cfg.HTTPTimeout)
	log.Printf("  Custom fields cache TTL: %s", cfg.CustomFieldsTTL)
	if !cfg.HasAPIKey() {
		log.Printf("WARNING: TAPFILIATE_API_KEY is missing, every signup request will fail until it is set")
	}
	return cfg
}

// HasAPIKey reports whether a Tapfiliate API key is configured
func (c TapfiliateConfig) HasAPIKey() bool {
	return c.APIKey != ""
}

// Port returns the HTTP port to listen on
func Port() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return port
}

// RateLimitConfig returns the per-IP requests per second and burst for the
// signup endpoint.
func RateLimitConfig() (float64, int) {
	perSecond := 2.0
	burst := 10
	if v := os.Getenv("RATE_LIMIT_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			perSecond = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}
	return perSecond, burst
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("Warning: invalid %s %q, using %s", name, raw, fallback)
		return fallback
	}
	return d
}
