package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/monitoring"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemory(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, map[string]any{
				"geminiApiKey":  "k",
				"geminiModels":  []string{"a", "b"},
				"popupWidth":    480,
				"promptOptions": []map[string]string{{"id": "x", "label": "X", "text": "t"}},
			}))

			got, err := s.Get(ctx, []string{"geminiApiKey", "geminiModels", "popupWidth", "missing"})
			require.NoError(t, err)

			assert.Equal(t, "k", got["geminiApiKey"])
			assert.Equal(t, []any{"a", "b"}, got["geminiModels"])
			assert.Equal(t, float64(480), got["popupWidth"])
			assert.NotContains(t, got, "missing")
			assert.NotContains(t, got, "promptOptions")

			all, err := s.Get(ctx, nil)
			require.NoError(t, err)
			assert.Len(t, all, 4)

			none, err := s.Get(ctx, []string{})
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStoreOverwriteRemoveClear(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, map[string]any{"theme": "light", "lang": "auto"}))
			require.NoError(t, s.Set(ctx, map[string]any{"theme": "dark"}))

			got, err := s.Get(ctx, []string{"theme"})
			require.NoError(t, err)
			assert.Equal(t, "dark", got["theme"])

			require.NoError(t, s.Remove(ctx, []string{"theme", "never-set"}))
			got, err = s.Get(ctx, nil)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"lang": "auto"}, got)

			require.NoError(t, s.Clear(ctx))
			got, err = s.Get(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestMemorySetRejectsUnencodable(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.Set(ctx, map[string]any{"ok": "v", "bad": make(chan int)})
	require.Error(t, err)

	got, err := m.Get(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, map[string]any{"selectedModel": "gemini-pro"}))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, []string{"selectedModel"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-pro", got["selectedModel"])
}

func TestOpen(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	s, err := Open(config.StorageConfig{Driver: DriverMemory}, nil, metrics)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), map[string]any{"a": 1}))
	_, err = s.Get(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StorageOps.WithLabelValues("memory", "set", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StorageOps.WithLabelValues("memory", "get", "ok")))

	_, err = Open(config.StorageConfig{Driver: "etcd"}, nil, nil)
	assert.EqualError(t, err, `unknown storage driver "etcd"`)

	s, err = Open(config.StorageConfig{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "s.db")}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	s.Close()
}

func TestNewRedisUnreachable(t *testing.T) {
	_, err := NewRedis(RedisOptions{})
	assert.EqualError(t, err, "redis address cannot be empty")

	_, err = NewRedis(RedisOptions{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}
