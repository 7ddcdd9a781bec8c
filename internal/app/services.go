package app

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/formora_backend/config"
	"github.com/Alijeyrad/formora_backend/internal/repo"
	"github.com/Alijeyrad/formora_backend/internal/service/analytics"
	"github.com/Alijeyrad/formora_backend/internal/service/assistant"
	"github.com/Alijeyrad/formora_backend/internal/service/auth"
	svcfile "github.com/Alijeyrad/formora_backend/internal/service/file"
	formsvc "github.com/Alijeyrad/formora_backend/internal/service/form"
	"github.com/Alijeyrad/formora_backend/internal/service/response"
	"github.com/Alijeyrad/formora_backend/pkg/authorize"
	"github.com/Alijeyrad/formora_backend/pkg/constants"
	"github.com/Alijeyrad/formora_backend/pkg/crypto"
	"github.com/Alijeyrad/formora_backend/pkg/gemini"
	"github.com/Alijeyrad/formora_backend/pkg/observability"
	pasetotoken "github.com/Alijeyrad/formora_backend/pkg/paseto"
	rediscache "github.com/Alijeyrad/formora_backend/pkg/redis"
	s3pkg "github.com/Alijeyrad/formora_backend/pkg/s3"
	"github.com/Alijeyrad/formora_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideAuthService,
		ProvideAssistant,
		ProvideFormService,
		ProvideResponseService,
		ProvideAnalyticsService,
		ProvideFileService,
		ProvidePasetoManager,
	),
)

func ProvideAuthService(db *repo.Client, rdb *redis.Client, paseto *pasetotoken.Manager, cfg *config.Config) (auth.Service, error) {
	hasher := password.NewHasher(password.ParamsFromConfig(cfg.Password))
	return auth.New(db, rdb, paseto, hasher)
}

func ProvideAssistant(gen gemini.Generator, metrics *observability.FormMetrics) assistant.Service {
	return assistant.New(gen, metrics)
}

func ProvideFormService(db *repo.Client, authz authorize.IAuthorization, ai assistant.Service, stats analytics.Service, nc *nats.Conn) formsvc.Service {
	return formsvc.New(db, db, authz, ai, stats, nc)
}

func ProvideAnalyticsService(db *repo.Client, rdb *redis.Client, ai assistant.Service, metrics *observability.FormMetrics, cfg *config.Config) analytics.Service {
	ttl := time.Duration(cfg.Analytics.CacheTTLSeconds) * time.Second
	var cache *rediscache.Cache
	if ttl > 0 {
		cache = rediscache.NewCache(rdb, constants.AnalyticsKeyPrefix, ttl)
	}
	return analytics.New(db, cache, ai, metrics)
}

func ProvideResponseService(
	db *repo.Client,
	box *crypto.Box,
	stats analytics.Service,
	nc *nats.Conn,
	metrics *observability.FormMetrics,
) response.Service {
	return response.New(db, box, stats, nc, metrics)
}

func ProvideFileService(db *repo.Client, s3 *s3pkg.Client, cfg *config.Config) svcfile.Service {
	// a nil *s3pkg.Client must not become a non-nil interface
	var store svcfile.ObjectStore
	if s3 != nil {
		store = s3
	}
	return svcfile.New(db, store, cfg.Uploads.MaxSizeMB)
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}
