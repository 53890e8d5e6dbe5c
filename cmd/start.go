package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"platform-common/core/config"
	"platform-common/core/loader"
	"platform-common/core/logger"
	"platform-common/core/metrics"
	"platform-common/core/middleware/auth"
	"platform-common/core/middleware/rayid"
	"platform-common/core/storage"
	"platform-common/core/telemetry"

	"platform-common/feature/collections"
	"platform-common/feature/params"
	"platform-common/feature/status"
	"platform-common/feature/vectorstore"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the platform common server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		if !cfg.Server.IsValidEnv() {
			logg.Fatal("Invalid server environment", zap.String("env", cfg.Server.Env))
		}

		// 3. Initialize Telemetry (no-op without a DSN)
		if cfg.Telemetry.Environment == "" {
			cfg.Telemetry.Environment = cfg.Server.Env
		}
		if err := telemetry.Setup(&cfg.Telemetry); err != nil {
			logg.Warn("Telemetry initialization failed", zap.Error(err))
		}
		defer telemetry.Flush(2 * time.Second)
		reporter := telemetry.NewReporter(logg)

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 5. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}
		if ok, err := store.BucketExists(cmd.Context(), cfg.Storage.Bucket); err != nil || !ok {
			logg.Warn("Storage bucket not reachable at startup",
				zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
		}

		// 6. Register Features
		// Status stays public (k8s liveness probe), everything else sits
		// behind the API key.
		public := loader.NewManager()
		public.Register(status.NewFeature(logg, reporter))

		protected := loader.NewManager()
		protected.Register(collections.NewFeature(store, cfg.Storage.Bucket, logg, reporter))
		protected.Register(vectorstore.NewFeature(cfg.Vector, logg, reporter))

		if cfg.Params.Enabled {
			api, err := params.NewAPI(cmd.Context(), cfg.Params)
			if err != nil {
				logg.Fatal("Failed to create parameter store client", zap.Error(err))
			}
			protected.Register(params.NewFeature(api, cfg.Params, logg, reporter))
		}

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request metrics
		app.Use(metrics.Middleware())

		// 3. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 4. Public surface: metrics scrape endpoint and status routes
		app.Get("/metrics", metrics.Handler())
		if err := public.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 5. Auth (Protect API)
		if cfg.Server.ApiKey == "" && !cfg.Server.IsLocal() {
			logg.Warn("API key not set, API is unauthenticated", zap.String("env", cfg.Server.Env))
		}
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 6. Load Features
		if err := protected.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
