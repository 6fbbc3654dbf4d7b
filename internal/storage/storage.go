// Package storage provides the durable key/value area behind the extension's
// storage.local facility.
//
// Values are stored as JSON so every backend hands back the same generic
// shapes (strings, float64, []any, map[string]any) that an extension
// storage area would.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagebrief/internal/infrastructure/monitoring"
)

// Store is a key/value storage area.
type Store interface {
	// Get returns the stored values for keys. Missing keys are absent from
	// the result. A nil keys slice returns everything.
	Get(ctx context.Context, keys []string) (map[string]any, error)
	// Set writes every item; existing keys are overwritten.
	Set(ctx context.Context, items map[string]any) error
	// Remove deletes keys. Missing keys are ignored.
	Remove(ctx context.Context, keys []string) error
	// Clear deletes everything.
	Clear(ctx context.Context) error
	Close() error
}

// Drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Open creates the store selected by cfg.Driver, instrumented with metrics
// when non-nil.
func Open(cfg config.StorageConfig, logger *logging.Logger, metrics *monitoring.Metrics) (Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		s, err = NewSQLite(cfg.Path)
	case DriverMemory:
		s = NewMemory()
	case DriverRedis:
		s, err = NewRedis(RedisOptions{Addr: cfg.RedisAddr, Prefix: cfg.RedisPrefix, DialTimeout: 5 * time.Second})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	logger.Named("storage").Info("Storage opened", zap.String("driver", driver))
	if metrics == nil {
		return s, nil
	}
	return &instrumented{Store: s, backend: driver, metrics: metrics}, nil
}

func encode(v any) ([]byte, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (any, error) {
	var v any
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}

// instrumented records every operation.
type instrumented struct {
	Store
	backend string
	metrics *monitoring.Metrics
}

func (i *instrumented) Get(ctx context.Context, keys []string) (map[string]any, error) {
	items, err := i.Store.Get(ctx, keys)
	i.metrics.RecordStorageOp(i.backend, "get", err)
	return items, err
}

func (i *instrumented) Set(ctx context.Context, items map[string]any) error {
	err := i.Store.Set(ctx, items)
	i.metrics.RecordStorageOp(i.backend, "set", err)
	return err
}

func (i *instrumented) Remove(ctx context.Context, keys []string) error {
	err := i.Store.Remove(ctx, keys)
	i.metrics.RecordStorageOp(i.backend, "remove", err)
	return err
}

func (i *instrumented) Clear(ctx context.Context) error {
	err := i.Store.Clear(ctx)
	i.metrics.RecordStorageOp(i.backend, "clear", err)
	return err
}
