// Package bootstrap wires the adapters, services and transport layers
// into runnable API and worker processes.
package bootstrap

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/official-panen138/seo-nexus/adapter/out/mongodb"
	"github.com/official-panen138/seo-nexus/adapter/out/notifier"
	"github.com/official-panen138/seo-nexus/config"
	"github.com/official-panen138/seo-nexus/core/service/assets"
	"github.com/official-panen138/seo-nexus/core/service/audit"
	"github.com/official-panen138/seo-nexus/core/service/enrich"
	"github.com/official-panen138/seo-nexus/core/service/ledger"
	"github.com/official-panen138/seo-nexus/core/service/linker"
	"github.com/official-panen138/seo-nexus/core/service/monitor"
	"github.com/official-panen138/seo-nexus/core/service/notify"
	"github.com/official-panen138/seo-nexus/core/service/optimization"
	"github.com/official-panen138/seo-nexus/core/service/seo"
	"github.com/official-panen138/seo-nexus/core/service/template"
	"github.com/official-panen138/seo-nexus/infra/database"
	"github.com/official-panen138/seo-nexus/pkg/logger"
	"github.com/official-panen138/seo-nexus/pkg/ratelimit"
)

const startupTimeout = 30 * time.Second

// Dependencies holds every wired adapter and service. Both the API and
// the worker build from the same set so behavior cannot drift between
// processes.
type Dependencies struct {
	Mongo *mongo.Client
	DB    *mongo.Database
	Redis *redis.Client

	// Persistence adapters
	Networks      *mongodb.NetworkAdapter
	Entries       *mongodb.EntryAdapter
	Domains       *mongodb.AssetDomainAdapter
	Brands        *mongodb.BrandAdapter
	Conflicts     *mongodb.ConflictAdapter
	ChangeLogs    *mongodb.ChangeLogAdapter
	Optimizations *mongodb.OptimizationAdapter
	Complaints    *mongodb.ComplaintAdapter
	Templates     *mongodb.TemplateAdapter
	Settings      *mongodb.SettingsAdapter
	AuditLogs     *mongodb.AuditAdapter
	State         *mongodb.SchedulerStateAdapter

	// Services
	TemplateEngine *template.Engine
	Dispatcher     *notify.Dispatcher
	Enricher       *enrich.Enricher
	Ledger         *ledger.Service
	SEO            *seo.Service
	Linker         *linker.Service
	Optimization   *optimization.Service
	Assets         *assets.Service
	Monitor        *monitor.Service
	Audit          *audit.Service
}

// NewDependencies connects the stores and wires the service graph.
// The returned cleanup closes the store connections.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	mongoClient, db, err := database.NewMongo(ctx, cfg.MongoDBURL, cfg.MongoDBName)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		// Redis is an optimization for cross-worker dedup; the in-process
		// fallback keeps a single worker correct.
		logger.WithError(err).Warn("redis unavailable, continuing with local dedup")
		redisClient = nil
	}

	d := &Dependencies{
		Mongo: mongoClient,
		DB:    db,
		Redis: redisClient,

		Networks:      mongodb.NewNetworkAdapter(db),
		Entries:       mongodb.NewEntryAdapter(db),
		Domains:       mongodb.NewAssetDomainAdapter(db),
		Brands:        mongodb.NewBrandAdapter(db),
		Conflicts:     mongodb.NewConflictAdapter(db),
		ChangeLogs:    mongodb.NewChangeLogAdapter(db),
		Optimizations: mongodb.NewOptimizationAdapter(db),
		Complaints:    mongodb.NewComplaintAdapter(db),
		Templates:     mongodb.NewTemplateAdapter(db),
		Settings:      mongodb.NewSettingsAdapter(db),
		AuditLogs:     mongodb.NewAuditAdapter(db),
		State:         mongodb.NewSchedulerStateAdapter(db),
	}

	if err := ensureIndexes(ctx, d); err != nil {
		logger.WithError(err).Warn("index creation failed, continuing")
	}

	dedup := ratelimit.NewDeduper(redisClient)

	d.TemplateEngine = template.NewEngine(d.Templates)

	telegram := notifier.NewTelegramNotifier(cfg.TelegramBaseURL, cfg.TelegramBotToken, d.Settings)
	email := notifier.NewEmailNotifier(cfg.EmailAPIURL, cfg.EmailAPIKey, d.Settings)
	d.Dispatcher = notify.NewDispatcher(d.TemplateEngine, d.Settings, telegram, email)

	d.Enricher = enrich.New(d.Entries, d.Networks)
	d.Ledger = ledger.New(d.ChangeLogs, d.Dispatcher, ratelimit.NewNotifyThrottle(dedup, time.Minute))
	d.SEO = seo.New(d.Networks, d.Entries, d.Domains, d.Brands, d.Ledger)
	d.Linker = linker.New(d.Conflicts, d.Optimizations, d.Networks, d.Entries, d.Dispatcher)
	d.Optimization = optimization.New(d.Optimizations, d.Complaints, d.Networks, d.Linker, d.Dispatcher)
	d.Assets = assets.New(d.Domains, d.Brands, d.Entries)
	d.Monitor = monitor.New(d.Domains, d.Brands, d.Settings, d.Enricher, d.Dispatcher, dedup)
	d.Audit = audit.New(d.AuditLogs)

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.WithError(err).Warn("redis close failed")
			}
		}
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			logger.WithError(err).Warn("mongodb disconnect failed")
		}
	}
	return d, cleanup, nil
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(ctx context.Context, d *Dependencies) error {
	for _, a := range []indexer{
		d.Networks, d.Entries, d.Domains, d.Brands, d.Conflicts,
		d.ChangeLogs, d.Optimizations, d.Complaints, d.Templates,
		d.Settings, d.AuditLogs, d.State,
	} {
		if err := a.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
