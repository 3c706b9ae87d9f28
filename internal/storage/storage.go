package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/marcelsud/leadhub/config"
	internalpg "github.com/marcelsud/leadhub/internal/postgres"
	"github.com/marcelsud/leadhub/lead"
	leadmemory "github.com/marcelsud/leadhub/lead/memory"
	leadpg "github.com/marcelsud/leadhub/lead/postgres"
	"github.com/marcelsud/leadhub/webhook"
	webhookmemory "github.com/marcelsud/leadhub/webhook/memory"
	webhookpg "github.com/marcelsud/leadhub/webhook/postgres"
	webhookredis "github.com/marcelsud/leadhub/webhook/redis"
	"github.com/rs/zerolog"
)

/* Backends picks the lead and webhook stores for STORAGE_DRIVER
 *   memory   - everything in process memory
 *   postgres - leads, destinations and logs in PostgreSQL
 *   redis    - destinations and logs in Redis; leads in PostgreSQL when
 *              POSTGRES_DSN is set, in memory otherwise
 */
type Backends struct {
	Leads    lead.Repository
	Webhooks webhook.Repository

	db     *sql.DB
	closer func(ctx context.Context) error
}

// Open connects the configured stores and runs PostgreSQL migrations
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Backends, error) {
	b := &Backends{}

	if cfg.StorageDriver == config.DriverPostgres || (cfg.StorageDriver == config.DriverRedis && cfg.PostgresDSN != "") {
		db, err := internalpg.Open(ctx, cfg.PostgresDSN, internalpg.PoolConfig{
			MaxOpenConns:   cfg.PostgresMaxOpenConns,
			MaxIdleConns:   cfg.PostgresMaxIdleConns,
			MaxLifeMinutes: cfg.PostgresConnMaxLifeMinutes,
		})
		if err != nil {
			return nil, err
		}
		b.db = db

		leads := leadpg.NewRepository(db)
		if err := leads.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		b.Leads = leads
	} else {
		b.Leads = leadmemory.NewRepository()
	}

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		webhooks := webhookpg.NewRepository(b.db)
		if err := webhooks.Migrate(ctx); err != nil {
			b.db.Close()
			return nil, err
		}
		b.Webhooks = webhooks
	case config.DriverRedis:
		webhooks, err := webhookredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			if b.db != nil {
				b.db.Close()
			}
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		b.Webhooks = webhooks
		b.closer = webhooks.Close
	default:
		b.Webhooks = webhookmemory.NewRepository()
	}

	logger.Info().
		Str("driver", cfg.StorageDriver).
		Bool("postgres_leads", b.db != nil).
		Msg("storage ready")
	return b, nil
}

// Close releases the Redis client and the PostgreSQL pool
func (b *Backends) Close(ctx context.Context) error {
	var errs []error
	if b.closer != nil {
		errs = append(errs, b.closer(ctx))
	}
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	return errors.Join(errs...)
}
