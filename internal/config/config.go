// Package config loads the process configuration: .env for local runs, the
// environment for everything else, plus optional YAML tunables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/peterostrander2/ai-betting-backend/internal/providers"
)

// Config is the resolved process configuration.
type Config struct {
	Port        string
	VolumeMount string
	DemoMode    bool

	Endpoints providers.Endpoints

	RequestBudget  time.Duration
	PrefetchShare  float64 // fraction of the request budget prefetch may use
	WorkerPoolSize int

	// ShadowProviders run and log normally but contribute zero to scores.
	ShadowProviders []string

	Tunables Tunables
}

// Tunables are the YAML-overridable knobs. Engine weights are not here: the
// contract owns those.
type Tunables struct {
	CacheTTLMinutes map[string]int `yaml:"cache_ttl_minutes"`
	QuotaDaily      map[string]int `yaml:"quota_daily"`
	QuotaMonthly    map[string]int `yaml:"quota_monthly"`
	ProviderTimeout map[string]int `yaml:"provider_timeout_ms"`
}

// Load reads .env when present, then the environment, then the optional
// tunables file named by CONFIG_FILE.
func Load() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		Port:        envOr("PORT", "8080"),
		VolumeMount: os.Getenv("VOLUME_MOUNT"),
		DemoMode:    envBool("DEMO_MODE"),
		Endpoints: providers.Endpoints{
			OddsURL:     envOr("ODDS_API_URL", "https://api.the-odds-api.com/v4"),
			OddsKey:     envAlias("ODDS_API_KEY", "THE_ODDS_API_KEY"),
			PlaybookURL: envOr("PLAYBOOK_API_URL", "https://api.playbook.com/v1"),
			PlaybookKey: os.Getenv("PLAYBOOK_API_KEY"),
			StatsURL:    envOr("STATS_API_URL", "https://api.balldontlie.io/v1"),
			StatsKey:    envAlias("STATS_API_KEY", "BALLDONTLIE_API_KEY"),
			WeatherURL:  envOr("WEATHER_API_URL", "https://api.openweathermap.org/data/2.5"),
			WeatherKey:  envAlias("WEATHER_API_KEY", "OPENWEATHER_API_KEY"),
			SpaceURL:    envOr("SPACE_WEATHER_URL", "https://services.swpc.noaa.gov"),
			AstroURL:    os.Getenv("ASTRO_API_URL"),
			TrendsURL:   envOr("TRENDS_API_URL", "https://trends.googleapis.com"),
			TrendsKey:   os.Getenv("TRENDS_API_KEY"),
			SERPURL:     envOr("SERP_API_URL", "https://serpapi.com"),
			SERPKey:     envAlias("SERP_API_KEY", "SERPAPI_KEY"),
			NewsURL:     envOr("NEWS_API_URL", "https://newsapi.org/v2"),
			NewsKey:     os.Getenv("NEWS_API_KEY"),
			FinanceURL:  envOr("FINANCE_API_URL", "https://www.alphavantage.co"),
			FinanceKey:  envAlias("FINANCE_API_KEY", "ALPHAVANTAGE_API_KEY"),
		},
		RequestBudget:   envDuration("REQUEST_BUDGET", 45*time.Second),
		PrefetchShare:   0.5,
		WorkerPoolSize:  envInt("WORKER_POOL_SIZE", 16),
		ShadowProviders: envList("SHADOW_PROVIDERS"),
	}

	if cfg.VolumeMount == "" {
		return cfg, fmt.Errorf("config: VOLUME_MOUNT is required")
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg.Tunables); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envAlias(primary, alias string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(alias)
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}
