// Package app is the composition root shared by the CLI and the SDK: it opens the
// configured record store and wires the gateway decorators and use cases around it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/patentdex/internal/config"
	"github.com/kailas-cloud/patentdex/internal/db"
	dbRedis "github.com/kailas-cloud/patentdex/internal/db/redis"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
	"github.com/kailas-cloud/patentdex/internal/repository/memory"
	"github.com/kailas-cloud/patentdex/internal/repository/record"
	"github.com/kailas-cloud/patentdex/internal/repository/sqlstore"
)

// RecordStore is everything the use cases need from the three-store backend.
type RecordStore interface {
	Ping(ctx context.Context) error
	Close() error

	InsertDocument(ctx context.Context, doc patent.Document) error
	GetDocument(ctx context.Context, id string) (patent.Document, error)
	GetDocuments(ctx context.Context, ids []string) (map[string]patent.Document, error)
	GetSummary(ctx context.Context, id string) (patent.Summary, error)
	GetEmbedding(ctx context.Context, id string) (patent.Embedding, error)
	UnenrichedIDs(ctx context.Context, limit int) ([]string, error)
	UnembeddedIDs(ctx context.Context, limit int) ([]string, error)
	InsertSummary(ctx context.Context, s patent.Summary) error
	InsertEmbedding(ctx context.Context, e patent.Embedding) error
	ScanEmbeddings(ctx context.Context, fn func(patent.StoredVector) error) error
	Counts(ctx context.Context) (patent.Counts, error)
	EstablishDimensions(ctx context.Context, n int) (int, error)
}

var (
	_ RecordStore = (*memory.Store)(nil)
	_ RecordStore = (*sqlstore.Store)(nil)
	_ RecordStore = (*record.Repo)(nil)
)

// Backend is an opened record store. KV is the raw Redis-protocol store for the
// redis and valkey drivers (budget counters, query cache) and nil otherwise.
type Backend struct {
	Records RecordStore
	KV      db.Store
	Driver  string
}

// Close closes the record store (and with it the KV client).
func (b *Backend) Close() error {
	if err := b.Records.Close(); err != nil {
		return fmt.Errorf("close %s store: %w", b.Driver, err)
	}
	return nil
}

// OpenBackend connects to the configured driver and waits for it to answer.
func OpenBackend(ctx context.Context, cfg config.DatabaseConfig, keyPrefix string) (*Backend, error) {
	switch {
	case cfg.UsesKV():
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		timeout := time.Duration(cfg.ReadinessTimeout) * time.Second
		if err := kv.WaitForReady(ctx, timeout); err != nil {
			kv.Close()
			return nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
		}
		repo := record.New(kv, record.WithPrefix(keyPrefix), record.WithCloser(kv.Close))
		return &Backend{Records: repo, KV: kv, Driver: cfg.Driver}, nil
	case cfg.Driver == config.DriverSQLite:
		s, err := sqlstore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return &Backend{Records: s, Driver: cfg.Driver}, nil
	case cfg.Driver == config.DriverMemory:
		return &Backend{Records: memory.New(), Driver: cfg.Driver}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
