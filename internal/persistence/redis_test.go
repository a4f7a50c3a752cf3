package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/config"
)

func TestNewRedisDisabledWithoutAddr(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())

	assert.False(t, r.Enabled())
	assert.ErrorIs(t, r.Ping(context.Background()), ErrRedisDisabled)
	r.Close()
}

func TestNewRedisConnects(t *testing.T) {
	server := miniredis.RunT(t)

	r := NewRedis(context.Background(), config.RedisConfig{Addr: server.Addr()}, zap.NewNop())
	defer r.Close()

	require.True(t, r.Enabled())
	assert.NoError(t, r.Ping(context.Background()))

	server.Close()
	assert.Error(t, r.Ping(context.Background()))
}

func TestPostgresDisabledWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, pg.Enabled())
	assert.Nil(t, pg.PoolHandle())
	assert.ErrorIs(t, pg.Ping(context.Background()), ErrPostgresDisabled)
	pg.Close()
}
