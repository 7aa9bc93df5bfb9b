// Package server wires configuration, storage and services into the gin HTTP server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/auth"
	"SeniorJunior-backend/internal/config"
	"SeniorJunior-backend/internal/database"
	"SeniorJunior-backend/internal/mailer"
	"SeniorJunior-backend/internal/otp"
	"SeniorJunior-backend/internal/service"
	"SeniorJunior-backend/internal/storage"
	"SeniorJunior-backend/internal/store"
	"SeniorJunior-backend/internal/store/mongostore"
	"SeniorJunior-backend/internal/store/pgstore"
	"SeniorJunior-backend/internal/upload"
)

// AuditLogPath is where authentication attempts are appended when LOGGING is on
const AuditLogPath = "log/auth.log"

// Server holds every long lived dependency of the API
type Server struct {
	Config    *config.Config
	Log       *zap.Logger
	Store     store.Store
	Uploads   *upload.Handler
	Cleaner   *service.FileCleaner
	Tokens    *auth.JWTManager
	Blacklist auth.JwtBlacklistStore
	Throttle  otp.Throttle
	Mailer    mailer.Mailer
	Audit     *auth.AuditLog
	// Redis is nil when REDIS_ADDR is empty, every consumer then falls back to process memory
	Redis *redis.Client

	closers []func() error
}

// New connects to the configured backends. The returned server owns them until Close.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{Config: cfg, Log: log}
	if err := s.init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) init(ctx context.Context) error {
	cfg, log := s.Config, s.Log
	if err := s.openStore(ctx); err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := backend.(interface{ Close() error }); ok {
		s.closers = append(s.closers, closer.Close)
	}
	s.Uploads, err = upload.NewHandler(backend, upload.DefaultRules(cfg.UploadMaxBytes), log)
	if err != nil {
		return err
	}
	s.Cleaner = service.NewFileCleaner(s.Uploads, log, service.CleanerOptions{})
	s.Cleaner.Start()
	s.closers = append(s.closers, func() error {
		s.Cleaner.Stop()
		return nil
	})

	s.Tokens, err = auth.NewJWTManager(cfg.SecretKey, cfg.TokenTTL)
	if err != nil {
		return err
	}

	if cfg.RedisAddr != "" {
		s.Redis, err = database.ConnectRedis(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, s.Redis.Close)
		s.Blacklist = auth.NewRedisBlacklistStore(s.Redis)
		s.Throttle = otp.NewRedisThrottle(s.Redis, cfg.OTPSendLimit, cfg.OTPSendWindow)
	} else {
		bl := auth.NewInMemoryBlacklistStore(5 * time.Minute)
		s.closers = append(s.closers, func() error {
			bl.Close()
			return nil
		})
		s.Blacklist = bl
		s.Throttle = otp.NewMemoryThrottle(cfg.OTPSendLimit, cfg.OTPSendWindow)
	}

	if cfg.SMTPHost != "" {
		s.Mailer = mailer.NewBreaker(mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		}), mailer.BreakerSettings{}, log)
	} else {
		log.Warn("SMTP_HOST is empty, emails are only logged")
		s.Mailer = mailer.NewLog(log)
	}

	s.Audit, err = auth.NewAuditLog(cfg.AuthAuditLog, AuditLogPath)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, s.Audit.Sync)

	return nil
}

func (s *Server) openStore(ctx context.Context) error {
	cfg := s.Config
	switch cfg.DBDriver {
	case config.DriverMongo:
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, s.Log)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		s.Store = st
	default:
		inst, err := database.NewDBInstance(&database.DBConfig{
			Host:      cfg.DBHost,
			Port:      cfg.DBPort,
			User:      cfg.DBUsername,
			Password:  cfg.DBPassword,
			DBName:    cfg.DBDatabase,
			Constr:    cfg.DBConnectionStr,
			UseConstr: cfg.UseConnectionStr,
			SSLMode:   cfg.DBSSLMode,

			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
		}, s.Log)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		s.Store = pgstore.New(inst)
	}
	s.closers = append(s.closers, s.Store.Close)
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.UploadBackend {
	case config.UploadGCS:
		return storage.NewGCS(ctx, cfg.GCSBucket)
	case config.UploadS3:
		return storage.NewS3(ctx, storage.S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
	default:
		return storage.NewDisk(cfg.UploadDir)
	}
}

// HTTPServer returns the net/http server for the configured port
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Config.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Close releases backends in reverse order of opening
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
