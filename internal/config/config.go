package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultChains = "eth,bsc,ftm,avax,cro,arbi,poly,base,sol,sonic"

// Config holds every runtime setting, populated from the environment.
type Config struct {
	Port        string
	DatabaseDSN string

	RedisEnabled    bool
	RedisAddr       string
	RedisDB         int
	CacheTTL        time.Duration
	ScreenshotCache bool

	BubblemapsAPIURL string
	IframeBaseURL    string
	CoingeckoAPIURL  string

	SupportedChains   []string
	RenderConcurrency int
}

// Load reads .env (when present) and builds the config with defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port:        getenv("PORT", "8080"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		RedisEnabled:    getbool("REDIS_ENABLED", false),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getint("REDIS_DB", 0),
		CacheTTL:        time.Duration(getint("REDIS_TTL", 600)) * time.Second,
		ScreenshotCache: getbool("SCREENSHOT_CACHE_ENABLED", true),

		BubblemapsAPIURL: getenv("BUBBLEMAPS_API_URL", "https://api-legacy.bubblemaps.io"),
		IframeBaseURL:    getenv("IFRAME_BASE_URL", "https://app.bubblemaps.io"),
		CoingeckoAPIURL:  getenv("COINGECKO_API_URL", "https://api.coingecko.com/api/v3"),

		SupportedChains:   splitChains(getenv("SUPPORTED_CHAINS", defaultChains)),
		RenderConcurrency: getint("RENDER_CONCURRENCY", 5),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getbool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func splitChains(s string) []string {
	parts := strings.Split(s, ",")
	chains := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			chains = append(chains, p)
		}
	}
	return chains
}
