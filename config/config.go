package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	FFmpegPath string
	Engine     string // "ffmpeg" or "exec"
	EngineBin  string // external engine binary used when Engine is "exec"

	ProjectBase   string // must already exist; the project folder is created inside it
	ProjectFolder string
	MasterFile    string
	MasterSeconds int
	InboxDir      string // watched for dropped .wav files, disabled when empty

	PixelsPerSecond float64
	TrackWidth      int
	TrackHeight     int
	DefaultTracks   int
	TickInterval    time.Duration

	DBDriver   string // "sqlite" or "mysql"
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioPrefix    string // object key prefix for uploaded exports

	HTTPAddr string

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}
	return fromEnv()
}

func fromEnv() *Config {
	projectBase := expandHome(getEnv("PROJECT_BASE", "~/Desktop"))

	return &Config{
		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),
		Engine:     strings.ToLower(getEnv("ENGINE", "ffmpeg")),
		EngineBin:  getEnv("ENGINE_BIN", ""),

		ProjectBase:   projectBase,
		ProjectFolder: getEnv("PROJECT_FOLDER", "ProjectFiles"),
		MasterFile:    getEnv("MASTER_FILE", "finalFile.wav"),
		MasterSeconds: getEnvInt("MASTER_SECONDS", 900),
		InboxDir:      expandHome(getEnv("INBOX_DIR", "")),

		PixelsPerSecond: getEnvFloat("PIXELS_PER_SECOND", 100),
		TrackWidth:      getEnvInt("TRACK_WIDTH", 1600),
		TrackHeight:     getEnvInt("TRACK_HEIGHT", 100),
		DefaultTracks:   getEnvInt("DEFAULT_TRACKS", 7),
		TickInterval:    getEnvDuration("TICK_INTERVAL", time.Second),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:     expandHome(getEnv("DB_PATH", filepath.Join(projectBase, "tracksmith.db"))),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "tracksmith"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""), // 默认无密码
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisTTL:      getEnvDuration("REDIS_TTL", 24*time.Hour),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "tracksmith"),
		MinioRegion:    getEnv("MINIO_REGION", ""),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPrefix:    getEnv("MINIO_PREFIX", "exports"),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:       expandHome(getEnv("LOG_FILE", "")),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 14),
	}
}

// ProjectDir is the folder holding the master file and other session scratch files.
func (c *Config) ProjectDir() string {
	return filepath.Join(c.ProjectBase, c.ProjectFolder)
}

// MinioEnabled reports whether exports should be published to object storage.
func (c *Config) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}
