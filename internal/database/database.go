// Package database opens the postgres store used when DB_DRIVER=postgres and owns its schema.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	// pgx registers the "pgx" database/sql driver used by gorm's postgres dialector
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"SeniorJunior-backend/internal/model"
)

// Pool health thresholds reported by Health
const (
	busyOpenConns = 40
	busyWaitCount = 1000
)

// DBinstanceStruct embeds the gorm handle the pgstore queries through
type DBinstanceStruct struct {
	*gorm.DB
	Config *DBConfig
	log    *zap.Logger
	sqlDB  *sql.DB
}

// DBConfig holds the configuration parameters for connecting to a database.
type DBConfig struct {
	Host      string
	Port      string
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Constr    string
	UseConstr bool

	// zero values fall back to database/sql defaults
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d *DBConfig) getDsn() (string, error) {
	if d.UseConstr {
		if d.Constr == "" {
			return "", errors.New("DB_CONNECTION_STR is empty")
		}
		return d.Constr, nil
	}
	if d.Host == "" || d.Port == "" || d.User == "" || d.Password == "" || d.DBName == "" {
		return "", errors.New("database configuration is incomplete")
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String(), nil
}

// NewDBInstance connects, applies the pool settings, waits for the first ping and migrates every table.
func NewDBInstance(config *DBConfig, log *zap.Logger) (*DBinstanceStruct, error) {
	if log == nil {
		log = zap.NewNop()
	}

	connStr, err := config.getDsn()
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if gin.IsDebugging() {
		level = gormlogger.Info
	}
	gdb, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	inst := &DBinstanceStruct{DB: gdb, Config: config, log: log, sqlDB: sqlDB}
	if err := inst.Migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("connected to postgres", zap.String("database", config.DBName))
	return inst, nil
}

// tables are migrated in order and dropped in reverse, applications reference projects and users
func tables() []interface{} {
	return []interface{}{&model.User{}, &model.Project{}, &model.Application{}}
}

// Migrate database
func (d *DBinstanceStruct) Migrate() error {
	return d.AutoMigrate(tables()...)
}

// DropAll drops every application table
func (d *DBinstanceStruct) DropAll() error {
	t := tables()
	for i, j := 0, len(t)-1; i < j; i, j = i+1, j-1 {
		t[i], t[j] = t[j], t[i]
	}
	return d.Migrator().DropTable(t...)
}

// Health pings postgres and reports connection pool statistics.
// "status" is "up" or "down"; "message" describes pool pressure.
func (d *DBinstanceStruct) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := d.sqlDB.PingContext(ctx); err != nil {
		d.log.Error("db down", zap.Error(err))
		return map[string]string{"status": "down", "error": fmt.Sprintf("db down: %v", err)}
	}

	s := d.sqlDB.Stats()
	stats := map[string]string{
		"status":              "up",
		"message":             poolMessage(s),
		"open_connections":    strconv.Itoa(s.OpenConnections),
		"in_use":              strconv.Itoa(s.InUse),
		"idle":                strconv.Itoa(s.Idle),
		"wait_count":          strconv.FormatInt(s.WaitCount, 10),
		"wait_duration":       s.WaitDuration.String(),
		"max_idle_closed":     strconv.FormatInt(s.MaxIdleClosed, 10),
		"max_lifetime_closed": strconv.FormatInt(s.MaxLifetimeClosed, 10),
	}
	return stats
}

func poolMessage(s sql.DBStats) string {
	switch {
	case s.MaxIdleClosed > int64(s.OpenConnections)/2:
		return "Many idle connections are being closed, consider revising the connection pool settings."
	case s.WaitCount > busyWaitCount:
		return "The database has a high number of wait events, indicating potential bottlenecks."
	case s.OpenConnections > busyOpenConns:
		return "The database is experiencing heavy load."
	default:
		return "It's healthy"
	}
}

// Close closes the database connection.
func (d *DBinstanceStruct) Close() error {
	d.log.Info("disconnected from postgres", zap.String("database", d.Config.DBName))
	return d.sqlDB.Close()
}
