package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(env map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range env {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{"SECRET_KEY": "s"}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, UploadDisk, cfg.UploadBackend)
	assert.Equal(t, int64(5<<20), cfg.UploadMaxBytes)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 24*time.Hour, cfg.WithdrawWindow)
	assert.Equal(t, "Senior-Junior Collab", cfg.MailFromName)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, 30*time.Minute, cfg.DBConnLifetime)
	assert.False(t, cfg.Production())
}

func TestAllowOriginList(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"SECRET_KEY":   "s",
		"ALLOW_ORIGIN": "http://a.test, http://b.test,,",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowOrigins)
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]any{
		"missing secret":  {},
		"unknown driver":  {"SECRET_KEY": "s", "DB_DRIVER": "sqlite"},
		"unknown backend": {"SECRET_KEY": "s", "UPLOAD_BACKEND": "ftp"},
		"gcs bucket":      {"SECRET_KEY": "s", "UPLOAD_BACKEND": "gcs"},
		"s3 bucket":       {"SECRET_KEY": "s", "UPLOAD_BACKEND": "s3"},
		"conn str":        {"SECRET_KEY": "s", "USE_CONNECTION_STR": true},
	}
	for name, env := range cases {
		_, err := fromViper(newViper(env))
		assert.Error(t, err, name)
	}

	cfg, err := fromViper(newViper(map[string]any{"SECRET_KEY": "s", "DB_DRIVER": "MONGO"}))
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, cfg.DBDriver)
}
