package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type HTTP struct {
	Addr           string
	AllowedOrigins []string
}

type Session struct {
	// TTL bounds server-side session lifetime; the connect.sid cookie
	// MaxAge mirrors it.
	TTL    time.Duration
	Secure bool // Secure cookie flag (behind HTTPS/proxy)
}

type Store struct {
	Path string
	// SeedDemo fills the positions collection with demo rows on first
	// start so the dashboard has something to render.
	SeedDemo bool
}

type Config struct {
	HTTP    HTTP
	Session Session
	Store   Store
	LogFile string
}

func Default() Config {
	return Config{
		HTTP: HTTP{
			Addr:           ":3002",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		Session: Session{
			TTL:    7 * 24 * time.Hour,
			Secure: false,
		},
		Store: Store{
			Path:     "data/stockfolio.db",
			SeedDemo: true,
		},
		LogFile: "data/server.log",
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if addr := os.Getenv("API_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		// Comma-separated, e.g. "http://localhost:3000,https://app.example.com"
		cfg.HTTP.AllowedOrigins = strings.Split(origins, ",")
	}
	if ttl := os.Getenv("SESSION_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			cfg.Session.TTL = time.Duration(h) * time.Hour
		}
	}
	if secure := os.Getenv("SESSION_SECURE"); secure != "" {
		cfg.Session.Secure = secure == "true"
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.Store.Path = path
	}
	if seed := os.Getenv("SEED_DEMO"); seed != "" {
		cfg.Store.SeedDemo = seed == "true"
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		cfg.LogFile = logFile
	}

	return cfg
}
