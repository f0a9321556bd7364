package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crptapi/internal/config"
)

func baseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host: "db",
		Port: "5432",
		User: "crpt",
		Name: "submissions",
	}
}

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.DatabaseConfig)
		want    string
		wantErr bool
	}{
		{
			name: "minimal",
			want: "postgres://crpt@db:5432/submissions",
		},
		{
			name: "password and query options",
			mutate: func(c *config.DatabaseConfig) {
				c.Password = "p@ss"
				c.SSLMode = "require"
				c.ApplicationName = "crptapi"
				c.ConnectTimeoutSec = 5
			},
			want: "postgres://crpt:p%40ss@db:5432/submissions?application_name=crptapi&connect_timeout=5&sslmode=require",
		},
		{name: "missing host", mutate: func(c *config.DatabaseConfig) { c.Host = "" }, wantErr: true},
		{name: "missing user", mutate: func(c *config.DatabaseConfig) { c.User = "" }, wantErr: true},
		{name: "missing name", mutate: func(c *config.DatabaseConfig) { c.Name = "" }, wantErr: true},
		{name: "non-numeric port", mutate: func(c *config.DatabaseConfig) { c.Port = "pg" }, wantErr: true},
		{name: "unknown sslmode", mutate: func(c *config.DatabaseConfig) { c.SSLMode = "sometimes" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseConfig()
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			got, err := BuildPostgresDSN(c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// stubOpen makes NewPostgres use db instead of dialing, recording the DSN.
func stubOpen(t *testing.T, db *sql.DB, openErr error) *string {
	t.Helper()
	var dsn string
	orig := sqlOpen
	sqlOpen = func(_, dataSourceName string) (*sql.DB, error) {
		dsn = dataSourceName
		return db, openErr
	}
	t.Cleanup(func() { sqlOpen = orig })
	return &dsn
}

func TestNewPostgres(t *testing.T) {
	conf := baseConfig()
	conf.MaxOpenConns = 4
	conf.ConnMaxLifetimeSec = 60

	t.Run("connects and logs", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dsn := stubOpen(t, db, nil)
		mock.ExpectPing()

		var buf bytes.Buffer
		got, err := NewPostgres(context.Background(), conf, slog.New(slog.NewJSONHandler(&buf, nil)))
		require.NoError(t, err)
		assert.Same(t, db, got)
		assert.Equal(t, "postgres://crpt@db:5432/submissions", *dsn)
		assert.Equal(t, 4, got.Stats().MaxOpenConnections)
		assert.Contains(t, buf.String(), `"msg":"db_connected"`)
		assert.Contains(t, buf.String(), `"db_name":"submissions"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open failure", func(t *testing.T) {
		stubOpen(t, nil, errors.New("open error"))

		got, err := NewPostgres(context.Background(), conf, nil)
		assert.ErrorContains(t, err, "sql open: open error")
		assert.Nil(t, got)
	})

	t.Run("ping failure closes the pool", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)
		mock.ExpectPing().WillReturnError(errors.New("ping failed"))
		mock.ExpectClose()

		got, err := NewPostgres(context.Background(), conf, nil)
		assert.ErrorContains(t, err, "db ping: ping failed")
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid config never opens", func(t *testing.T) {
		dsn := stubOpen(t, nil, errors.New("must not be called"))

		got, err := NewPostgres(context.Background(), config.DatabaseConfig{}, nil)
		assert.ErrorContains(t, err, "DatabaseConfig")
		assert.Nil(t, got)
		assert.Empty(t, *dsn)
	})
}
