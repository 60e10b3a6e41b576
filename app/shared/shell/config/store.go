package config

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine"
)

// OpenStore connects to the configured database with the configured adapter and returns the store
// together with a function releasing its connections.
func OpenStore(ctx context.Context, cfg DatabaseConfig, options ...postgresengine.Option) (*postgresengine.Store, func(), error) {
	options = append([]postgresengine.Option{postgresengine.WithLockTimeout(cfg.LockTimeout)}, options...)

	switch cfg.Adapter {
	case AdapterSQLDB:
		db, err := NewSQLDB(cfg.URL)
		if err != nil {
			return nil, nil, err
		}

		store, err := postgresengine.NewStoreFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return store, func() { _ = db.Close() }, nil

	case AdapterSQLX:
		db, err := NewSQLX(cfg.URL)
		if err != nil {
			return nil, nil, err
		}

		store, err := postgresengine.NewStoreFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		return store, func() { _ = db.Close() }, nil

	case AdapterPGXPool:
		return openPGXStore(ctx, cfg, options)

	default:
		return nil, nil, errors.Join(ErrUnknownAdapterType, errors.New(cfg.Adapter))
	}
}

func openPGXStore(ctx context.Context, cfg DatabaseConfig, options []postgresengine.Option) (*postgresengine.Store, func(), error) {
	primary, err := NewPGXPool(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}

	if cfg.ReplicaURL == "" {
		store, storeErr := postgresengine.NewStoreFromPGXPool(primary, options...)
		if storeErr != nil {
			primary.Close()
			return nil, nil, storeErr
		}

		return store, primary.Close, nil
	}

	replica, err := NewPGXPool(ctx, cfg.ReplicaURL)
	if err != nil {
		primary.Close()
		return nil, nil, err
	}

	store, err := postgresengine.NewStoreFromPGXPoolAndReplica(primary, replica, options...)
	if err != nil {
		primary.Close()
		replica.Close()

		return nil, nil, err
	}

	return store, func() {
		replica.Close()
		primary.Close()
	}, nil
}
