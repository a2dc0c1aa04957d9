package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	BlobBackendGridFS = "gridfs"
	BlobBackendS3     = "s3"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// BodyLimit uses echo's size notation (e.g. 25M).
	BodyLimit          string `env:"BODY_LIMIT,           default=25M"`
	MaxAttachmentBytes int    `env:"MAX_ATTACHMENT_BYTES, default=10485760"`

	SessionTTL           time.Duration `env:"SESSION_TTL,            default=24h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL, default=15m"`
	IdempotencyTTL       time.Duration `env:"IDEMPOTENCY_TTL,        default=24h"`

	Database DatabaseConfig
	Redis    RedisConfig
	Blob     BlobConfig
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL, required"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,    default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,    default=10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=15m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE,      default=true"`
}

// RedisConfig is optional; an empty address disables Idempotency-Key replays.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type BlobConfig struct {
	Backend string `env:"BLOB_BACKEND, default=gridfs"`

	MongoURI    string `env:"MONGO_URI,    default=mongodb://localhost:27017"`
	MongoDB     string `env:"MONGO_DB,     default=vanguard_escrow"`
	MongoBucket string `env:"MONGO_BUCKET, default=attachments"`

	S3Region    string `env:"S3_REGION, default=us-east-1"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads a .env file when present, then environment variables. It panics
// on invalid configuration since the process cannot start without it.
func Load() *Config {
	_ = godotenv.Load()
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom resolves configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Blob.Backend {
	case BlobBackendGridFS:
	case BlobBackendS3:
		if c.Blob.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when BLOB_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unsupported BLOB_BACKEND %q", c.Blob.Backend)
	}
	if c.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("MAX_ATTACHMENT_BYTES must be positive")
	}
	return nil
}
