package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AuthMode 选择凭证校验方式
type AuthMode string

const (
	AuthModeStatic AuthMode = "static" // 单用户，用户名密码来自环境变量
	AuthModeLogin  AuthMode = "login"  // 转发到外部 /api/login
	AuthModeDB     AuthMode = "db"     // MySQL users 表 + bcrypt
)

// Config stores the application configuration.
type Config struct {
	Port      string
	PublicURL string // used for cover fallback when the request carries no Host
	StaticDir string // Root directory for logo.png

	LogLevel string
	LogFile  string

	// 认证
	AuthMode             AuthMode
	SubsonicUsername     string
	SubsonicPassword     string
	SubsonicPasswordHash string // bcrypt, takes precedence over SubsonicPassword
	LoginURL             string

	// 上游音乐源
	MiguAPIURL          string
	MiguDetailAPIURL    string
	NeteaseAPIURL       string
	NeteaseDetailAPIURL string
	SayqzAPIURL         string
	FangpiURL           string
	EnabledSources      string // comma separated, empty = all
	SearchTimeout       time.Duration
	DetailTimeout       time.Duration

	// 歌曲元数据缓存
	SongCacheTTL time.Duration
	SongCacheMax int

	// Redis配置，RedisHost 为空时不启用二级缓存
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MySQL，仅 AUTH_MODE=db 使用
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
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

// getEnvDuration accepts Go duration strings ("8s", "10m").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
		StaticDir: getEnv("STATIC_DIR", "static"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		AuthMode:             AuthMode(strings.ToLower(getEnv("AUTH_MODE", string(AuthModeStatic)))),
		SubsonicUsername:     getEnv("SUBSONIC_USERNAME", "admin"),
		SubsonicPassword:     os.Getenv("SUBSONIC_PASSWORD"),
		SubsonicPasswordHash: os.Getenv("SUBSONIC_PASSWORD_HASH"),
		LoginURL:             getEnv("LOGIN_URL", ""),

		MiguAPIURL:          getEnv("MIGU_API_URL", "https://api-v1.cenguigui.cn"),
		MiguDetailAPIURL:    getEnv("MIGU_DETAIL_API_URL", "https://api-v1.cenguigui.cn"),
		NeteaseAPIURL:       getEnv("NETEASE_API_URL", "https://api-v1.cenguigui.cn"),
		NeteaseDetailAPIURL: getEnv("NETEASE_DETAIL_API_URL", "https://api.cenguigui.cn"),
		SayqzAPIURL:         getEnv("SAYQZ_API_URL", "https://music-dl.sayqz.com"),
		FangpiURL:           getEnv("FANGPI_URL", "https://www.fangpi.net"),
		EnabledSources:      getEnv("ENABLED_SOURCES", ""),
		SearchTimeout:       getEnvDuration("SEARCH_TIMEOUT", 8*time.Second),
		DetailTimeout:       getEnvDuration("DETAIL_TIMEOUT", 12*time.Second),

		SongCacheTTL: getEnvDuration("SONG_CACHE_TTL", 10*time.Minute),
		SongCacheMax: getEnvInt("SONG_CACHE_MAX", 2000),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "aginmusic"),
	}
}

// RedisEnabled 是否配置了 Redis 二级缓存
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port number, got %q", c.Port))
	}
	if c.PublicURL != "" {
		if u, err := url.Parse(c.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("PUBLIC_URL must be an absolute URL, got %q", c.PublicURL))
		}
	}

	switch c.AuthMode {
	case AuthModeStatic:
		if c.SubsonicUsername == "" {
			errs = append(errs, errors.New("SUBSONIC_USERNAME is required when AUTH_MODE=static"))
		}
		if c.SubsonicPassword == "" && c.SubsonicPasswordHash == "" {
			errs = append(errs, errors.New("SUBSONIC_PASSWORD or SUBSONIC_PASSWORD_HASH is required when AUTH_MODE=static"))
		}
	case AuthModeLogin:
		if c.LoginURL == "" {
			errs = append(errs, errors.New("LOGIN_URL is required when AUTH_MODE=login"))
		}
	case AuthModeDB:
		if c.DBHost == "" || c.DBName == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required when AUTH_MODE=db"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE must be one of static, login, db, got %q", c.AuthMode))
	}

	for name, raw := range map[string]string{
		"MIGU_API_URL":           c.MiguAPIURL,
		"MIGU_DETAIL_API_URL":    c.MiguDetailAPIURL,
		"NETEASE_API_URL":        c.NeteaseAPIURL,
		"NETEASE_DETAIL_API_URL": c.NeteaseDetailAPIURL,
		"SAYQZ_API_URL":          c.SayqzAPIURL,
		"FANGPI_URL":             c.FangpiURL,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}

	if c.SearchTimeout <= 0 || c.DetailTimeout <= 0 {
		errs = append(errs, errors.New("SEARCH_TIMEOUT and DETAIL_TIMEOUT must be positive"))
	}
	if c.SongCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("SONG_CACHE_TTL must be positive, got %s", c.SongCacheTTL))
	}
	if c.SongCacheMax <= 0 {
		errs = append(errs, fmt.Errorf("SONG_CACHE_MAX must be positive, got %d", c.SongCacheMax))
	}

	return errors.Join(errs...)
}
