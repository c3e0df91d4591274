package bootstrap

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/official-panen138/seo-nexus/adapter/in/http"
	"github.com/official-panen138/seo-nexus/config"
	"github.com/official-panen138/seo-nexus/infra/middleware"
	"github.com/official-panen138/seo-nexus/pkg/logger"
)

// NewAPI builds the fiber app with every route registered. The returned
// cleanup closes the store connections.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.ParseLevel(cfg.LogLevel)
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{Level: logLevel, Service: "seo-nexus-api"})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             2 * 1024 * 1024,
	})

	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Probes bypass auth.
	http.NewHealthHandler(deps.Mongo, deps.Redis).Register(app)

	api := app.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret))

	http.NewNetworkHandler(deps.SEO, deps.Linker).Register(api)
	http.NewDomainHandler(deps.Assets, deps.Monitor).Register(api)
	http.NewConflictHandler(deps.Linker, deps.Audit).Register(api)
	http.NewChangeLogHandler(deps.Ledger, deps.SEO).Register(api)
	http.NewOptimizationHandler(deps.Optimization).Register(api)
	http.NewTemplateHandler(deps.TemplateEngine, deps.Dispatcher, deps.Audit).Register(api)
	http.NewSettingsHandler(deps.Settings, deps.Audit).Register(api)
	http.NewAuditHandler(deps.Audit).Register(api)

	logger.Info("API initialized")
	return app, cleanup, nil
}
