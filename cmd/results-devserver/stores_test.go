package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/pkg/config"
)

func TestOpenStoresMemory(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: config.DriverMemory}}
	s, err := openStores(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.cache)
	assert.Nil(t, s.db)

	ctx := context.Background()
	require.NoError(t, s.accounts.Create(ctx, &models.Account{ID: "u1", Email: "a@b.c"}))
	got, err := s.accounts.FindByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestOpenStoresUnknownDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "sqlite"}}
	_, err := openStores(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "sqlite")
}

func TestOpenStoresRedisOutageDisablesCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Cache:    config.CacheConfig{Enabled: true},
		Redis:    config.RedisConfig{Host: "127.0.0.1", Port: 1},
	}
	s, err := openStores(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, s.cache)
}
