package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend selects how the engine reads the page.
const (
	BackendRod  = "rod"  // live browser over CDP
	BackendHTML = "html" // static HTML capture file
)

type Config struct {
	ListenPort      string        // ex: ":8765"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	RulesFile  string // optional YAML rule overrides (empty = built-ins only)
	WatchRules bool   // reload RulesFile on change

	// Engine tuning
	DebounceWindow    time.Duration // mutation coalescing window (default: 500ms)
	RetryDelay        time.Duration // container resolution retry delay (default: 3s)
	MaxRetries        int           // container resolution attempt ceiling (default: 5)
	NavPollInterval   time.Duration // navigation poll interval (default: 1s)
	IdentityPrefixLen int           // identity-key content prefix length (default: 100)

	// Page backend
	Backend         string        // "rod" | "html"
	PageURL         string        // page to attach to (rod backend)
	CaptureFile     string        // HTML capture path (html backend)
	Headless        bool          // launch the browser headless (rod backend)
	DOMPollInterval time.Duration // subtree sampling interval (rod backend)

	// Redis (empty addr = in-memory persistence only)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries (grows exponentially)
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedCIDRS []string // optional, restrict panel API access to specific IPs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	return &Config{
		// Server settings
		ListenPort:      getenv("THREADLY_LISTEN_PORT", ":8765"),
		ShutdownTimeout: mustDuration("THREADLY_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("THREADLY_LOG_LEVEL", "info"),
		PrettyLog: mustBool("THREADLY_PRETTY_LOG", true),

		// Rules
		RulesFile:  getenv("THREADLY_RULES_FILE", ""),
		WatchRules: mustBool("THREADLY_WATCH_RULES", true),

		// Engine tuning
		DebounceWindow:    mustDuration("THREADLY_DEBOUNCE_WINDOW", 500*time.Millisecond),
		RetryDelay:        mustDuration("THREADLY_RETRY_DELAY", 3*time.Second),
		MaxRetries:        getenvInt("THREADLY_MAX_RETRIES", 5),
		NavPollInterval:   mustDuration("THREADLY_NAV_POLL_INTERVAL", time.Second),
		IdentityPrefixLen: getenvInt("THREADLY_IDENTITY_PREFIX", 100),

		// Page backend
		Backend:         getenv("THREADLY_BACKEND", BackendRod),
		PageURL:         getenv("THREADLY_PAGE_URL", ""),
		CaptureFile:     getenv("THREADLY_CAPTURE_FILE", ""),
		Headless:        mustBool("THREADLY_HEADLESS", false),
		DOMPollInterval: mustDuration("THREADLY_DOM_POLL_INTERVAL", 250*time.Millisecond),

		// Redis settings
		RedisAddr:           getenv("THREADLY_REDIS_ADDR", ""),
		RedisUser:           getenv("THREADLY_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("THREADLY_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("THREADLY_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedCIDRS: splitAndTrim(getenv("THREADLY_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("THREADLY_TRUST_PROXY", false),
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
