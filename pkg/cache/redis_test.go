package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/lesson-planner-api/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: 6380, DB: 2, ClientName: "lesson-planner-api", PoolSize: 20})

	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "lesson-planner-api", opts.ClientName)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, 20, opts.PoolSize)

	opts = Options(config.RedisConfig{Host: "cache", Port: 6379, DialTimeout: time.Second})
	assert.Equal(t, time.Second, opts.DialTimeout)
}
