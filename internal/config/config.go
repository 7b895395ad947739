package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（3001）
	GoEnv string // development/production

	StoreDriver string // postgres / memory
	DatabaseURL string // あればPOSTGRES_*より優先

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret          string        // JWT署名シークレット
	AccessTokenTTL     time.Duration // JWT_EXPIRATION
	RefreshTokenTTL    time.Duration // JWT_REFRESH_EXPIRATION_DAYS
	DeviceSessionTTL   time.Duration // SESSION_TTL_DAYS
	BcryptCost         int
	GeneratedPasswordN int // 承認時に発行するパスワード長

	CORSOrigin string

	LogLevel  string
	LogFormat string // json / console
}

// .envがあれば読み込んでから環境変数を組み立てる
func Load() (Config, error) {
	for _, p := range []string{".env", "../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}
	return FromEnv()
}

// FromEnvは環境変数だけから組み立てる（テスト用にLoadと分けている）
func FromEnv() (Config, error) {
	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	accessTTL, err := durationDefault("JWT_EXPIRATION", time.Hour)
	if err != nil {
		return Config{}, err
	}
	refreshDays, err := atoiDefault("JWT_REFRESH_EXPIRATION_DAYS", 7)
	if err != nil {
		return Config{}, err
	}
	sessionDays, err := atoiDefault("SESSION_TTL_DAYS", 30)
	if err != nil {
		return Config{}, err
	}
	cost, err := atoiDefault("BCRYPT_COST", 10)
	if err != nil {
		return Config{}, err
	}
	pwLen, err := atoiDefault("GENERATED_PASSWORD_LENGTH", 12)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:  getenv("PORT", "3001"),
		GoEnv: getenv("GO_ENV", "development"),

		StoreDriver: getenv("STORE_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "sekolah"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    time.Duration(refreshDays) * 24 * time.Hour,
		DeviceSessionTTL:   time.Duration(sessionDays) * 24 * time.Hour,
		BcryptCost:         cost,
		GeneratedPasswordN: pwLen,

		CORSOrigin: getenv("CORS_ORIGIN", "http://localhost:3000"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	switch cfg.StoreDriver {
	case "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("STORE_DRIVER must be postgres or memory: %q", cfg.StoreDriver)
	}
	if cfg.BcryptCost < 10 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between 10 and 31")
	}
	if cfg.GeneratedPasswordN < 12 {
		return Config{}, fmt.Errorf("GENERATED_PASSWORD_LENGTH must be >= 12")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// CORS_ORIGINはカンマ区切りで複数指定できる
func (c Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// DSNはgorm.Openに渡す接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

// "15m" / "1h" のほか秒数だけも受け付ける
func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
