package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jengzang/crash-records-backend-go/internal/database"
	"github.com/jengzang/crash-records-backend-go/internal/spatial"
)

// Config holds all application configuration loaded from environment variables
type Config struct {
	Port string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	GeoPointLimit  int
	TopFactors     int
	DensityRadius  float64 // Degrees
	DensityIndex   string  // kdtree, grid or brute
	StatsCacheSize int
	SampleLimit    int // Max rows for GET /api/data

	RateLimitRequests int
	RateLimitWindow   time.Duration

	WatchData       bool
	RefreshInterval time.Duration

	CSVPath          string
	ImportSampleRows int // 0 imports every row
	ImportBatchSize  int
}

// Load reads the .env file and returns a populated Config struct
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Port: listenAddr(getEnv("PORT", ":8080")),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", database.DriverSQLite)),
		DBPath:      getEnv("DB_PATH", "./data/crashes.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		GeoPointLimit:  getEnvInt("GEO_POINT_LIMIT", spatial.DefaultPointLimit),
		TopFactors:     getEnvInt("TOP_FACTORS", 10),
		DensityRadius:  getEnvFloat("DENSITY_RADIUS", spatial.DefaultDensityRadius),
		DensityIndex:   strings.ToLower(getEnv("DENSITY_INDEX", spatial.CounterKDTree)),
		StatsCacheSize: getEnvInt("STATS_CACHE_SIZE", 256),
		SampleLimit:    getEnvInt("SAMPLE_LIMIT", 1000),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		WatchData:       getEnvBool("WATCH_DATA", true),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 0),

		CSVPath:          getEnv("CSV_PATH", "./data/cleaned_crashes.csv"),
		ImportSampleRows: getEnvInt("IMPORT_SAMPLE_ROWS", 0),
		ImportBatchSize:  getEnvInt("IMPORT_BATCH_SIZE", 5000),
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch c.DBDriver {
	case database.DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case database.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}

	if _, err := spatial.NewCounter(c.DensityIndex); err != nil {
		return fmt.Errorf("DENSITY_INDEX: %w", err)
	}
	if c.DensityRadius <= 0 {
		return fmt.Errorf("DENSITY_RADIUS must be positive, got %v", c.DensityRadius)
	}
	if c.GeoPointLimit <= 0 || c.TopFactors <= 0 || c.SampleLimit <= 0 {
		return fmt.Errorf("GEO_POINT_LIMIT, TOP_FACTORS and SAMPLE_LIMIT must be positive")
	}
	if c.ImportBatchSize <= 0 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be positive, got %d", c.ImportBatchSize)
	}

	return nil
}

// Database returns the database connection settings
func (c *Config) Database() database.Config {
	return database.Config{
		Driver: c.DBDriver,
		Path:   c.DBPath,
		URL:    c.DatabaseURL,
	}
}

// WatchPath returns the file whose changes trigger a reload, or "" when
// file watching does not apply
func (c *Config) WatchPath() string {
	if !c.WatchData || c.DBDriver != database.DriverSQLite {
		return ""
	}
	return c.DBPath
}

// listenAddr accepts a bare port ("8080") as well as host:port
func listenAddr(port string) string {
	port = strings.TrimSpace(port)
	if port != "" && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
