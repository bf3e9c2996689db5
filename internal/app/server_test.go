// internal/app/server_test.go
package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShutdown_ClosesBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := &Server{
		httpSrv: &http.Server{},
		redis:   client,
		logger:  zap.NewNop(),
	}
	require.NoError(t, s.Shutdown(context.Background()))

	err := client.Ping(context.Background()).Err()
	assert.Error(t, err, "redis client must be unusable after shutdown")
}

func TestShutdown_BeforeStartIsSafe(t *testing.T) {
	assert.NoError(t, (&Server{}).Shutdown(context.Background()))
}
