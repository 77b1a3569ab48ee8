package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/lesson-planner-api/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client holding the planner tables.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}

	return db, nil
}

// DSN renders cfg as a lib/pq keyword/value connection string.
func DSN(cfg config.DatabaseConfig) string {
	pairs := []string{
		"host=" + quoteValue(cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		"user=" + quoteValue(cfg.User),
		"password=" + quoteValue(cfg.Password),
		"dbname=" + quoteValue(cfg.Name),
		"sslmode=" + quoteValue(cfg.SSLMode),
	}
	if cfg.AppName != "" {
		pairs = append(pairs, "application_name="+quoteValue(cfg.AppName))
	}
	return strings.Join(pairs, " ")
}

// quoteValue quotes empty values and values holding spaces, quotes or backslashes.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
