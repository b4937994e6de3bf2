package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	Keywords           []string
	SearchURL          string
	FetchMode          string
	MaxConcurrency     int
	RateLimitMs        int
	MaxRetries         int
	KeywordPauseMinSec int
	KeywordPauseMaxSec int
	ChromeBin          string

	DataLakeDir  string
	ProcessedDir string

	// UnknownBatteryHealth is assigned when a whole batch has no listing
	// with a readable battery health.
	UnknownBatteryHealth float64
	// SentimentLexicon optionally points at a pattern en-sentiment.xml
	// file that replaces the bundled lexicon.
	SentimentLexicon string

	PriceWeight     float64
	BatteryWeight   float64
	StorageWeight   float64
	SentimentWeight float64
	WindowDays      int
	RetailPrices    map[string]float64

	ListenAddr string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "tracker"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "tracker123"),
		PostgresDB:       getEnv("POSTGRES_DB", "phones"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		Keywords:  getEnvList("KEYWORDS", []string{"iphone-11", "iphone-12", "iphone-12-mini"}),
		SearchURL: getEnv("SEARCH_URL",
			"https://www.kijiji.ca/b-cell-phone/ottawa/{keyword}/page-{page}/k0c760l1700185"+
				"?rb=true&ll=45.421530%2C-75.697193&address=Ottawa%2C+ON&radius=50.0"),
		FetchMode:          getEnv("FETCH_MODE", "http"),
		MaxConcurrency:     getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitMs:        getEnvInt("RATE_LIMIT_MS", 0),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		KeywordPauseMinSec: getEnvInt("KEYWORD_PAUSE_MIN_SEC", 30),
		KeywordPauseMaxSec: getEnvInt("KEYWORD_PAUSE_MAX_SEC", 60),
		ChromeBin:          getEnv("CHROME_BIN", ""),

		DataLakeDir:  getEnv("DATA_LAKE_DIR", "./data-lake"),
		ProcessedDir: getEnv("PROCESSED_DIR", "./processed-data"),

		UnknownBatteryHealth: getEnvFloat("UNKNOWN_BATTERY_HEALTH", 0),
		SentimentLexicon:     getEnv("SENTIMENT_LEXICON", ""),

		PriceWeight:     getEnvFloat("WEIGHT_PRICE", 0.5),
		BatteryWeight:   getEnvFloat("WEIGHT_BATTERY", 0.5),
		StorageWeight:   getEnvFloat("WEIGHT_STORAGE", 0.5),
		SentimentWeight: getEnvFloat("WEIGHT_SENTIMENT", 0.5),
		WindowDays:      getEnvInt("WINDOW_DAYS", 7),
		RetailPrices: getEnvPrices("RETAIL_PRICES", map[string]float64{
			"iphone-11":      550.0,
			"iphone-12":      849.0,
			"iphone-12-mini": 625.0,
		}),

		ListenAddr: getEnv("LISTEN_ADDR", ":8050"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, e.g. "iphone-11,iphone-12".
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// getEnvPrices parses "iphone-11=550,iphone-12=849". Malformed pairs are skipped.
func getEnvPrices(key string, fallback map[string]float64) map[string]float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(val, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(k)] = f
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
