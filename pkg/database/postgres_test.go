package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/lesson-planner-api/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "planner",
		Password: "pa ss'word",
		Name:     "lesson_planner",
		SSLMode:  "disable",
		AppName:  "lesson-planner-api",
	}

	assert.Equal(t,
		`host=db.internal port=5432 user=planner password='pa ss\'word' dbname=lesson_planner sslmode=disable application_name=lesson-planner-api`,
		DSN(cfg))

	cfg.AppName = ""
	cfg.Password = ""
	assert.Equal(t, `host=db.internal port=5432 user=planner password='' dbname=lesson_planner sslmode=disable`, DSN(cfg))
}
