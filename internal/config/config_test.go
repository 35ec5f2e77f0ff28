package config

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, value := range overrides {
		v.Set(key, value)
	}
	return v
}

func TestFromViper(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := fromViper(newViper(map[string]interface{}{"JWT_SECRET": "secret"}))
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.AppEnv)
		assert.Equal(t, "5000", cfg.Port)
		assert.Equal(t, "mysql", cfg.DBDriver)
		assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
		assert.Equal(t, 10*time.Second, cfg.WebhookTimeout)
		assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
		assert.True(t, cfg.IsDevelopment())
	})

	t.Run("requires a signing secret", func(t *testing.T) {
		_, err := fromViper(newViper(nil))
		assert.Error(t, err)
	})

	t.Run("rejects unknown drivers", func(t *testing.T) {
		_, err := fromViper(newViper(map[string]interface{}{"JWT_SECRET": "s", "DB_DRIVER": "oracle"}))
		assert.Error(t, err)
	})

	t.Run("splits origins", func(t *testing.T) {
		cfg, err := fromViper(newViper(map[string]interface{}{
			"JWT_SECRET":           "s",
			"CORS_ALLOWED_ORIGINS": "http://a.test, http://b.test",
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	})
}

func TestParseExpiry(t *testing.T) {
	d, err := ParseExpiry("7d")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	d, err = ParseExpiry("90m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	_, err = ParseExpiry("xd")
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p@ss/w:rd", DBHost: "h", DBPort: "3306", DBName: "n"}
	parsed, err := mysql.ParseDSN(cfg.DSN())
	require.NoError(t, err)
	assert.Equal(t, "u", parsed.User)
	assert.Equal(t, "p@ss/w:rd", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "h:3306", parsed.Addr)
	assert.Equal(t, "n", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.UTC, parsed.Loc)

	cfg = &Config{DBDriver: "sqlite3", DBPath: "dev.db"}
	assert.Equal(t, "file:dev.db?_foreign_keys=on", cfg.DSN())
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("abc"))
	assert.Equal(t, "se****", maskSecret("secret"))
}
