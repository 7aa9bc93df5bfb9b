// Package config loads process settings from the environment (and a .env file when present).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

// Supported DB_DRIVER values
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Supported UPLOAD_BACKEND values
const (
	UploadDisk = "disk"
	UploadGCS  = "gcs"
	UploadS3   = "s3"
)

// Config is the complete runtime configuration
type Config struct {
	Port         int
	Env          string
	AllowOrigins []string

	DBDriver         string
	DBHost           string
	DBPort           string
	DBUsername       string
	DBPassword       string
	DBDatabase       string
	UseConnectionStr bool
	DBConnectionStr  string
	DBSSLMode        string
	DBMaxOpenConns   int
	DBMaxIdleConns   int
	DBConnLifetime   time.Duration
	MongoURI         string
	MongoDatabase    string

	SecretKey string
	TokenTTL  time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailFromName string

	UploadBackend  string
	UploadDir      string
	UploadMaxBytes int64
	GCSBucket      string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitPerSecond int
	OTPTTL             time.Duration
	OTPSendLimit       int
	OTPSendWindow      time.Duration
	WithdrawWindow     time.Duration

	AuthAuditLog bool
}

// Production reports whether APP_ENV is production
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("ALLOW_ORIGIN", "http://localhost:3000")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("USE_CONNECTION_STR", false)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "senior_junior")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("MAIL_FROM_NAME", "Senior-Junior Collab")
	v.SetDefault("UPLOAD_BACKEND", UploadDisk)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", 5<<20)
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_REQUESTS_PER_SECOND", 5)
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("OTP_SEND_LIMIT", 5)
	v.SetDefault("OTP_SEND_WINDOW", "1h")
	v.SetDefault("WITHDRAW_WINDOW", "24h")
	v.SetDefault("LOGGING", false)
}

// Load reads the environment
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:         v.GetInt("PORT"),
		Env:          v.GetString("APP_ENV"),
		AllowOrigins: splitList(v.GetString("ALLOW_ORIGIN")),

		DBDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:           v.GetString("DB_HOST"),
		DBPort:           v.GetString("DB_PORT"),
		DBUsername:       v.GetString("DB_USERNAME"),
		DBPassword:       v.GetString("DB_PASSWORD"),
		DBDatabase:       v.GetString("DB_DATABASE"),
		UseConnectionStr: v.GetBool("USE_CONNECTION_STR"),
		DBConnectionStr:  v.GetString("DB_CONNECTION_STR"),
		DBSSLMode:        v.GetString("DB_SSLMODE"),
		DBMaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnLifetime:   v.GetDuration("DB_CONN_MAX_LIFETIME"),
		MongoURI:         v.GetString("MONGO_URI"),
		MongoDatabase:    v.GetString("MONGO_DATABASE"),

		SecretKey: v.GetString("SECRET_KEY"),
		TokenTTL:  v.GetDuration("TOKEN_TTL"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUsername: v.GetString("SMTP_USERNAME"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		MailFrom:     v.GetString("MAIL_FROM"),
		MailFromName: v.GetString("MAIL_FROM_NAME"),

		UploadBackend:  strings.ToLower(v.GetString("UPLOAD_BACKEND")),
		UploadDir:      v.GetString("UPLOAD_DIR"),
		UploadMaxBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		GCSBucket:      v.GetString("GCS_BUCKET"),
		S3Bucket:       v.GetString("S3_BUCKET"),
		S3Region:       v.GetString("S3_REGION"),
		S3Endpoint:     v.GetString("S3_ENDPOINT"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		RateLimitPerSecond: v.GetInt("RATE_LIMIT_REQUESTS_PER_SECOND"),
		OTPTTL:             v.GetDuration("OTP_TTL"),
		OTPSendLimit:       v.GetInt("OTP_SEND_LIMIT"),
		OTPSendWindow:      v.GetDuration("OTP_SEND_WINDOW"),
		WithdrawWindow:     v.GetDuration("WITHDRAW_WINDOW"),

		AuthAuditLog: v.GetBool("LOGGING"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.UseConnectionStr && c.DBConnectionStr == "" {
			errs = append(errs, errors.New("DB_CONNECTION_STR is required when USE_CONNECTION_STR is set"))
		}
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	switch c.UploadBackend {
	case UploadDisk:
	case UploadGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required for the gcs upload backend"))
		}
	case UploadS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 upload backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown UPLOAD_BACKEND %q", c.UploadBackend))
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.TokenTTL <= 0 || c.OTPTTL <= 0 || c.WithdrawWindow <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL, OTP_TTL and WITHDRAW_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
