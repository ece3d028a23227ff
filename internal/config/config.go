package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTP    HTTPConfig
	YouTube YouTubeConfig
}

type HTTPConfig struct {
	Addr        string
	AdminAddr   string
	CORSOrigins []string
	RateRPS     int
	RateBurst   int
	Metrics     bool
	AccessLog   bool
}

type YouTubeConfig struct {
	// Source selects how transcripts are acquired: "api" forces the Data
	// API, "innertube" forces the web scraper, "auto" picks the Data API
	// when a key is configured.
	Source          string
	APIKey          string
	APIKeyFile      string
	LegacyAPIKeyEnv string
}

const (
	defaultHTTPAddr  = ":8080"
	defaultRateRPS   = 20
	defaultRateBurst = 40
	defaultSource    = "auto"
)

func Load() Config {
	cfg := Config{}

	cfg.HTTP.Addr = strings.TrimSpace(os.Getenv("CHATSCRIBE_HTTP_ADDR"))
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = defaultHTTPAddr
	}
	cfg.HTTP.AdminAddr = strings.TrimSpace(os.Getenv("CHATSCRIBE_ADMIN_ADDR"))
	cfg.HTTP.CORSOrigins = splitList(os.Getenv("CHATSCRIBE_HTTP_CORS_ORIGINS"))
	cfg.HTTP.RateRPS = readInt("CHATSCRIBE_HTTP_RATE_RPS", defaultRateRPS)
	cfg.HTTP.RateBurst = readInt("CHATSCRIBE_HTTP_RATE_BURST", defaultRateBurst)
	cfg.HTTP.Metrics = readBool("CHATSCRIBE_HTTP_METRICS", true)
	cfg.HTTP.AccessLog = readBool("CHATSCRIBE_HTTP_ACCESS_LOG", true)

	cfg.YouTube.APIKey = strings.TrimSpace(os.Getenv("CHATSCRIBE_YT_API_KEY"))
	if cfg.YouTube.APIKey == "" {
		legacy := strings.TrimSpace(os.Getenv("YOUTUBE_API_KEY"))
		if legacy != "" {
			cfg.YouTube.APIKey = legacy
			cfg.YouTube.LegacyAPIKeyEnv = "YOUTUBE_API_KEY"
		}
	}
	cfg.YouTube.APIKeyFile = strings.TrimSpace(os.Getenv("CHATSCRIBE_YT_API_KEY_FILE"))

	source := strings.ToLower(strings.TrimSpace(os.Getenv("CHATSCRIBE_YT_SOURCE")))
	switch source {
	case "api", "innertube", "auto":
		cfg.YouTube.Source = source
	default:
		cfg.YouTube.Source = defaultSource
	}

	return cfg
}

// UseDataAPI reports whether the Data API should acquire transcripts given
// the configured source and key material.
func (c Config) UseDataAPI() bool {
	switch c.YouTube.Source {
	case "api":
		return true
	case "innertube":
		return false
	default:
		return c.YouTube.APIKey != "" || c.YouTube.APIKeyFile != ""
	}
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t', '\n':
			return true
		}
		return false
	})
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func readInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n <= 0 {
		return def
	}
	return n
}

func readBool(name string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func (c Config) Redacted() map[string]any {
	return map[string]any{
		"http": map[string]any{
			"addr":         c.HTTP.Addr,
			"admin_addr":   c.HTTP.AdminAddr,
			"cors_origins": append([]string(nil), c.HTTP.CORSOrigins...),
			"rate_rps":     c.HTTP.RateRPS,
			"rate_burst":   c.HTTP.RateBurst,
			"metrics":      c.HTTP.Metrics,
			"access_log":   c.HTTP.AccessLog,
		},
		"youtube": map[string]any{
			"source":       c.YouTube.Source,
			"api_key":      redactString(c.YouTube.APIKey),
			"api_key_file": c.YouTube.APIKeyFile,
			"legacy_env":   c.YouTube.LegacyAPIKeyEnv,
			"use_data_api": c.UseDataAPI(),
		},
	}
}

func (c Config) SummaryJSON() []byte {
	summary := struct {
		Config map[string]any `json:"config_summary"`
	}{Config: c.Redacted()}
	data, _ := json.Marshal(summary)
	return data
}

func redactString(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return "***REDACTED*** (len=" + strconv.Itoa(len(value)) + ")"
}
