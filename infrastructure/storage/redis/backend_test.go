package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/felixgeelhaar/pathfinder/domain/store"
)

var (
	testRedisAddr      string
	testRedisContainer testcontainers.Container
	skipIntegration    bool
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	var containerErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				containerErr = fmt.Errorf("docker not available: %v", r)
			}
		}()
		testRedisContainer, containerErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections"),
			},
			Started: true,
		})
	}()

	if containerErr != nil {
		fmt.Printf("Docker not available, redis backend tests will be skipped: %v\n", containerErr)
		skipIntegration = true
	} else if testRedisAddr, containerErr = containerAddr(ctx); containerErr != nil {
		fmt.Printf("Failed to resolve redis container: %v\n", containerErr)
		skipIntegration = true
	}

	code := m.Run()

	if testRedisContainer != nil {
		_ = testRedisContainer.Terminate(ctx)
	}
	os.Exit(code)
}

func containerAddr(ctx context.Context) (string, error) {
	host, err := testRedisContainer.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := testRedisContainer.MappedPort(ctx, "6379")
	if err != nil {
		return "", err
	}
	return host + ":" + port.Port(), nil
}

func newTestBackend(t *testing.T, prefix string) *Backend {
	t.Helper()
	if skipIntegration {
		t.Skip("Docker not available, skipping integration test")
	}

	b, err := NewBackend(DefaultConfig(), WithAddress(testRedisAddr), WithKeyPrefix(prefix))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_Integration(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, "it:")

	require.NoError(t, b.Ping(ctx))

	_, found, err := b.Get(ctx, "robot_id")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, b.Put(ctx, "robot_id", []byte(`{"move_count":1}`)))
	require.NoError(t, b.Put(ctx, "robot_id", []byte(`{"move_count":2}`)))

	value, found, err := b.Get(ctx, "robot_id")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `{"move_count":2}`, string(value))

	raw, err := b.Client().Get(ctx, "it:robot_id").Result()
	require.NoError(t, err)
	require.Equal(t, `{"move_count":2}`, raw)

	ttl, err := b.Client().TTL(ctx, "it:robot_id").Result()
	require.NoError(t, err)
	require.Equal(t, time.Duration(-1), ttl, "state must not expire")

	stats := b.Stats()
	require.Equal(t, int64(2), stats.Gets)
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(2), stats.Puts)

	require.ErrorIs(t, b.Put(ctx, "", nil), store.ErrInvalidKey)
}

func TestNewBackend_ConnectionFailed(t *testing.T) {
	t.Parallel()

	_, err := NewBackend(DefaultConfig(),
		WithAddress("127.0.0.1:1"),
		WithDialTimeout(200*time.Millisecond))
	require.ErrorIs(t, err, store.ErrConnectionFailed)
}

func TestBackend_ClosedClient(t *testing.T) {
	if skipIntegration {
		t.Skip("Docker not available, skipping integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	require.NoError(t, client.Close())

	b := NewBackendFromClient(client, "")
	_, _, err := b.Get(context.Background(), "k")
	require.ErrorIs(t, err, store.ErrClosed)
}
