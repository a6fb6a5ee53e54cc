package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration loaded from the environment.
// A .env file, when present, is loaded by the entrypoint before Load is called.
type Config struct {
	HTTPAddr        string
	DatabaseURL     string
	RedisURL        string
	ShutdownTimeout time.Duration

	JWT       JWTConfig
	Socket    SocketConfig
	Push      PushConfig
	Queue     QueueConfig
	UserCache time.Duration

	AllowedOrigins []string
	PublicBaseURL  string

	LogLevel  string
	LogFormat string
}

// JWTConfig configures verification of bearer credentials.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// SocketConfig bounds per-connection resources.
type SocketConfig struct {
	SendBuffer      int
	ReadTimeout     time.Duration
	MaxMessageBytes int64
}

// PushConfig carries the VAPID identity used for web push.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
	TTL             int
}

// Enabled reports whether web push can be sent at all.
func (p PushConfig) Enabled() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != ""
}

// QueueConfig configures the asynq worker.
type QueueConfig struct {
	Concurrency int
	Queues      map[string]int
}

// Default returns a Config populated with defaults for every optional setting.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		ShutdownTimeout: 10 * time.Second,
		JWT: JWTConfig{
			TTL: 24 * time.Hour,
		},
		Socket: SocketConfig{
			SendBuffer:      128,
			ReadTimeout:     60 * time.Second,
			MaxMessageBytes: 1 << 20,
		},
		Push: PushConfig{
			Subject: "mailto:admin@localhost",
			TTL:     60,
		},
		Queue: QueueConfig{
			Concurrency: 10,
			Queues:      map[string]int{"push": 1},
		},
		UserCache:      5 * time.Minute,
		AllowedOrigins: []string{"http://localhost:3000"},
		PublicBaseURL:  "http://localhost:8080",
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load reads the configuration from environment variables.
// DB_URL and JWT_SECRET are required; everything else falls back to defaults.
func Load() (Config, error) {
	cfg := Default()

	if v := env("PORT"); v != "" {
		if !strings.Contains(v, ":") {
			v = ":" + v
		}
		cfg.HTTPAddr = v
	}
	cfg.DatabaseURL = env("DB_URL")
	cfg.RedisURL = env("REDIS_URL")
	cfg.ShutdownTimeout = seconds("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeout)

	cfg.JWT.Secret = env("JWT_SECRET")
	cfg.JWT.Issuer = env("JWT_ISSUER")
	cfg.JWT.TTL = seconds("JWT_TTL_SECONDS", cfg.JWT.TTL)

	cfg.Socket.SendBuffer = positiveInt("WS_SEND_BUFFER", cfg.Socket.SendBuffer)
	cfg.Socket.ReadTimeout = seconds("WS_READ_TIMEOUT_SECONDS", cfg.Socket.ReadTimeout)
	cfg.Socket.MaxMessageBytes = int64(positiveInt("WS_MAX_MESSAGE_BYTES", int(cfg.Socket.MaxMessageBytes)))

	cfg.Push.VAPIDPublicKey = env("VAPID_PUBLIC_KEY")
	cfg.Push.VAPIDPrivateKey = env("VAPID_PRIVATE_KEY")
	if v := env("VAPID_SUBJECT"); v != "" {
		cfg.Push.Subject = v
	}
	cfg.Push.TTL = positiveInt("PUSH_TTL_SECONDS", cfg.Push.TTL)

	cfg.Queue.Concurrency = positiveInt("ASYNQ_CONCURRENCY", cfg.Queue.Concurrency)
	if v := env("ASYNQ_QUEUES"); v != "" {
		if parsed := ParseQueueWeights(v); len(parsed) > 0 {
			cfg.Queue.Queues = parsed
		}
	}
	cfg.UserCache = seconds("USER_CACHE_TTL_SECONDS", cfg.UserCache)

	if v := env("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := env("PUBLIC_BASE_URL"); v != "" {
		cfg.PublicBaseURL = strings.TrimRight(v, "/")
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	return cfg, cfg.Validate()
}

// Validate checks that required settings are present.
func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("config: DB_URL environment variable is not set"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("config: JWT_SECRET environment variable is not set"))
	}
	return errors.Join(errs...)
}

// ParseQueueWeights parses strings like "critical=6,default=3,low=1" into a map.
func ParseQueueWeights(s string) map[string]int {
	res := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		name := strings.TrimSpace(kv[0])
		if name == "" {
			continue
		}
		w := 1
		if len(kv) == 2 {
			if i, err := strconv.Atoi(strings.TrimSpace(kv[1])); err == nil && i > 0 {
				w = i
			}
		}
		res[name] = w
	}
	return res
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func positiveInt(key string, def int) int {
	if v := env(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

func seconds(key string, def time.Duration) time.Duration {
	if v := env(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return time.Duration(i) * time.Second
		}
	}
	return def
}
