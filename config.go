package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Config is read from the environment at start-up.
type Config struct {
	Port                     string        `env:"PORT" envDefault:"8080"`
	DatabasePath             string        `env:"DATABASE_PATH" envDefault:"./taskboard.db"`
	JWTSecret                string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenExpireMinutes int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	BcryptCost               int           `env:"BCRYPT_COST" envDefault:"10"`
	RedisConnectionString    string        `env:"REDIS_CONNECTION_STRING"`
	UserCacheTTL             time.Duration `env:"USER_CACHE_TTL" envDefault:"10m"`
	CORSOrigins              []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	StrictDueDates           bool          `env:"STRICT_DUE_DATES" envDefault:"false"`
	Debug                    bool          `env:"DEBUG" envDefault:"false"`
	LogFormat                string        `env:"LOG_FORMAT" envDefault:"text"`
	EnablePprof              bool          `env:"ENABLE_PPROF" envDefault:"false"`
	OTelEnabled              bool          `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint             string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func parseConfig(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return errors.New("DATABASE_PATH must not be empty")
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE_MINUTES: %d", c.AccessTokenExpireMinutes)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("invalid BCRYPT_COST: %d", c.BcryptCost)
	}
	if c.UserCacheTTL < 0 {
		return fmt.Errorf("invalid USER_CACHE_TTL: %s", c.UserCacheTTL)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %q", c.LogFormat)
	}
	return nil
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func (c Config) ListenAddr() string {
	return ":" + c.Port
}

// redisOptions accepts a redis:// URL or the "host:port,password=...,ssl=true" form.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(kv[1]), "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	return opts
}
