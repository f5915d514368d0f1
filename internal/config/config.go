package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"JobScraper/internal/site"
)

// Config contains runtime settings for the scraper server
type Config struct {
	LogLevel string
	Host     string // default 0.0.0.0
	Port     string // default 8080

	// DispatcherURL is the only origin allowed to call the API cross-origin
	DispatcherURL string

	SelectorsFile     string
	ScreenshotDir     string
	MaxConcurrentJobs int
	SearchLimit       int
	CallbackTimeout   time.Duration
	Timeouts          site.Timeouts

	Neo4j struct {
		URI      string
		Username string
		Password string
	}
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Load populates config from environment variables. Every invalid value is reported.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:          "info",
		Host:              "0.0.0.0",
		Port:              "8080",
		ScreenshotDir:     "screenshots",
		MaxConcurrentJobs: 4,
		SearchLimit:       100,
		CallbackTimeout:   30 * time.Second,
		Timeouts:          site.DefaultTimeouts(),
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("SCREENSHOT_DIR"); v != "" {
		cfg.ScreenshotDir = v
	}
	cfg.DispatcherURL = strings.TrimSuffix(os.Getenv("DISPATCHER_SERVICE_URL"), "/")
	cfg.SelectorsFile = os.Getenv("SELECTORS_FILE")

	var errs []error
	intVar(&errs, "MAX_CONCURRENT_JOBS", &cfg.MaxConcurrentJobs)
	intVar(&errs, "SEARCH_LIMIT", &cfg.SearchLimit)
	durationVar(&errs, "CALLBACK_TIMEOUT", &cfg.CallbackTimeout)
	durationVar(&errs, "SETTLE_DELAY", &cfg.Timeouts.Settle)
	durationVar(&errs, "ELEMENT_WAIT", &cfg.Timeouts.ElementWait)
	durationVar(&errs, "ARBITRARY_SETTLE_DELAY", &cfg.Timeouts.ArbitrarySettle)

	cfg.Neo4j.URI = os.Getenv("NEO4J_URI")
	cfg.Neo4j.Username = os.Getenv("NEO4J_USERNAME")
	cfg.Neo4j.Password = os.Getenv("NEO4J_PASSWORD")

	// neo4j is optional, but a partial configuration is a mistake
	if cfg.Neo4j.URI != "" || cfg.Neo4j.Username != "" || cfg.Neo4j.Password != "" {
		var missingVars []string
		if cfg.Neo4j.URI == "" {
			missingVars = append(missingVars, "NEO4J_URI")
		}
		if cfg.Neo4j.Username == "" {
			missingVars = append(missingVars, "NEO4J_USERNAME")
		}
		if cfg.Neo4j.Password == "" {
			missingVars = append(missingVars, "NEO4J_PASSWORD")
		}
		if len(missingVars) > 0 {
			errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", ")))
		}
	}

	return cfg, errors.Join(errs...)
}

func intVar(errs *[]error, key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		*errs = append(*errs, fmt.Errorf("%s: expected a positive integer, got %q", key, v))
		return
	}
	*dst = n
}

func durationVar(errs *[]error, key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		*errs = append(*errs, fmt.Errorf("%s: expected a duration like 5s, got %q", key, v))
		return
	}
	*dst = d
}
