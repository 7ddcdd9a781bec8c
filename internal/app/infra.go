package app

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/formora_backend/config"
	"github.com/Alijeyrad/formora_backend/internal/repo"
	"github.com/Alijeyrad/formora_backend/pkg/authorize"
	"github.com/Alijeyrad/formora_backend/pkg/crypto"
	"github.com/Alijeyrad/formora_backend/pkg/database"
	"github.com/Alijeyrad/formora_backend/pkg/email"
	"github.com/Alijeyrad/formora_backend/pkg/gemini"
	"github.com/Alijeyrad/formora_backend/pkg/observability"
	redispkg "github.com/Alijeyrad/formora_backend/pkg/redis"
	s3pkg "github.com/Alijeyrad/formora_backend/pkg/s3"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideRepoClient),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideFormMetrics),
	fx.Provide(ProvideS3Client),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvideGenerator),
	fx.Provide(ProvideBox),
)

func ProvideRepoClient(lc fx.Lifecycle, cfg *config.Config) (*repo.Client, error) {
	client, err := database.NewRepoClient(cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrations.AutoMigrate {
		if err := database.Migrate(context.Background(), client); err != nil {
			client.Close()
			return nil, err
		}
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return client.Close()
		},
	})
	return client, nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rdb, err := redispkg.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

// OpenAuthorization keeps policies in the casbin postgres database, or in a
// CSV file next to the sqlite database in development.
func OpenAuthorization(cfg *config.Config) (*authorize.Authorization, authorize.CleanupFunc, error) {
	acfg := authorize.FromCentralConfig(cfg.Authorization)

	if cfg.Database.Driver == database.DriverSQLite {
		path := filepath.Join(filepath.Dir(cmp.Or(cfg.Database.Path, "formora.db")), "policy.csv")
		enforcer, err := authorize.NewFileEnforcer(acfg, path)
		if err != nil {
			return nil, nil, err
		}
		auth, err := authorize.NewAuthorization(enforcer, authorize.WithSaveOnChange())
		if err != nil {
			return nil, nil, err
		}
		return auth, func(context.Context) {}, nil
	}

	enforcer, cleanup, err := authorize.NewEnforcer(acfg, database.NewDSN(cfg.CasbinDatabase))
	if err != nil {
		return nil, nil, err
	}
	auth, err := authorize.NewAuthorization(enforcer)
	if err != nil {
		cleanup(context.Background())
		return nil, nil, err
	}
	return auth, cleanup, nil
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	baseAuth, cleanup, err := OpenAuthorization(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("cleaning up Casbin enforcer")
			cleanup(ctx)
			return nil
		},
	})

	// Seeding is idempotent; a fresh sqlite setup has no migrate step.
	if err := authorize.SeedDefaultPolicies(context.Background(), baseAuth); err != nil {
		return nil, err
	}
	if !cfg.Authorization.EnableAudit {
		return baseAuth, nil
	}
	return authorize.NewAuditedAuthorization(baseAuth, slog.Default()), nil
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

// ProvideS3Client returns a nil client when no bucket is configured; file
// uploads then answer 503.
func ProvideS3Client(cfg *config.Config) (*s3pkg.Client, error) {
	cli, err := s3pkg.New(context.Background(), cfg.S3)
	if errors.Is(err, s3pkg.ErrNoBucket) {
		slog.Warn("s3 bucket not configured, file uploads are disabled")
		return nil, nil
	}
	return cli, err
}

func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name(cfg.Observability.ServiceName),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

// ProvideGenerator returns gemini.Disabled when the AI features are off.
func ProvideGenerator(cfg *config.Config) (gemini.Generator, error) {
	if !cfg.AI.Enabled {
		return gemini.Disabled{}, nil
	}
	cli, err := gemini.New(context.Background(), gemini.FromCentralConfig(cfg.AI))
	if err != nil {
		return nil, err
	}
	slog.Info("AI assistant enabled", "model", cli.Model())
	return cli, nil
}

// ProvideBox returns nil without an encryption key; source addresses are
// then dropped instead of stored.
func ProvideBox(cfg *config.Config) (*crypto.Box, error) {
	if cfg.Authentication.EncryptionKey == "" {
		slog.Warn("encryption key not configured, respondent addresses will not be stored")
		return nil, nil
	}
	return crypto.NewBoxFromHex(cfg.Authentication.EncryptionKey)
}

func ProvideFormMetrics(_ *observability.Provider) *observability.FormMetrics {
	return observability.NewFormMetrics()
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(),
		observability.FromCentralConfig(cfg.Observability, cfg.Server.Environment))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
