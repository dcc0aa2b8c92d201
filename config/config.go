package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all the configurable parameters for a mirror run.
type Config struct {
	EntryURL    string // page to mirror
	OutputDir   string // mirror root on disk
	StorageHost string // remote-storage host rewritten inside bundled JS
	BadgeMatch  string // substring identifying the promotional script tag to strip
	UserAgent   string
	RatePerSec  float64 // asset fetch rate limit, requests per second
	TimeoutSec  int     // whole-run deadline
	Render      bool    // render the entry page in a headless browser
}

// InitFlags initializes and parses command-line flags. Defaults come from
// the environment (a .env file is loaded if present), so a deployment can
// pin the entry URL without passing flags.
func InitFlags() *Config {
	godotenv.Load()

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cfg := &Config{}

	fs.StringVar(&cfg.EntryURL, "url", getEnv("MIRROR_URL", ""), "Entry page URL to mirror")
	fs.StringVar(&cfg.OutputDir, "P", getEnv("MIRROR_DIR", "site"), "Save the mirror in a specific directory")
	fs.StringVar(&cfg.StorageHost, "storage-host", getEnv("MIRROR_STORAGE_HOST", "storage.googleapis.com"), "Remote storage host whose URLs are localized inside scripts")
	fs.StringVar(&cfg.BadgeMatch, "badge", getEnv("MIRROR_BADGE", "gptengineer"), "Substring identifying the promotional script tag to remove")
	fs.StringVar(&cfg.UserAgent, "user-agent", getEnv("MIRROR_USER_AGENT", defaultUserAgent), "User-Agent header for asset requests")
	fs.Float64Var(&cfg.RatePerSec, "rate-limit", getEnvFloat("MIRROR_RATE", 8), "Limit asset fetches (requests per second)")
	fs.IntVar(&cfg.TimeoutSec, "timeout", getEnvInt("MIRROR_TIMEOUT", 120), "Whole-run timeout in seconds")
	fs.BoolVar(&cfg.Render, "dynamic", getEnvBool("MIRROR_DYNAMIC", true), "Render the entry page with a headless browser before mirroring")

	fs.Parse(os.Args[1:]) // ExitOnError: a parse failure never returns

	// A bare positional argument also works: sitemirror https://example.com
	if cfg.EntryURL == "" && len(fs.Args()) > 0 {
		cfg.EntryURL = fs.Args()[0]
	}
	if cfg.EntryURL == "" {
		fmt.Println("no URL specified")
		return nil
	}

	return cfg
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
