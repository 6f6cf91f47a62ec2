package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ecoguard_backend/internals/configs"
	database "ecoguard_backend/internals/databases"
	attRepo "ecoguard_backend/internals/features/field/attendance/repository"
	attService "ecoguard_backend/internals/features/field/attendance/service"
	contributionRepo "ecoguard_backend/internals/features/field/contributions/repository"
	contributionService "ecoguard_backend/internals/features/field/contributions/service"
	geocoding "ecoguard_backend/internals/features/field/geocoding/service"
	oracle "ecoguard_backend/internals/features/field/oracle/service"
	projectRepo "ecoguard_backend/internals/features/field/projects/repository"
	rewardService "ecoguard_backend/internals/features/field/rewards/service"
	mintRepo "ecoguard_backend/internals/features/progress/mint/repository"
	mintService "ecoguard_backend/internals/features/progress/mint/service"
	progressRepo "ecoguard_backend/internals/features/progress/progress/repository"
	progressService "ecoguard_backend/internals/features/progress/progress/service"
	"ecoguard_backend/internals/helpers/keylock"
	middlewares "ecoguard_backend/internals/middlewares"
	loggerMiddleware "ecoguard_backend/internals/middlewares/logger"
	routes "ecoguard_backend/internals/route"
	routeDetails "ecoguard_backend/internals/route/details"
	"ecoguard_backend/internals/seeds"
)

var (
	log       *zap.Logger
	seedsFile string
)

var rootCmd = &cobra.Command{
	Use:   "ecoguard",
	Short: "EcoGuard backend: absensi lapangan, XP, dan mint token",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = configs.NewLogger(os.Getenv("APP_ENV"))
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Jalankan HTTP server + dispatcher mint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "AutoMigrate semua tabel lalu keluar",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("✅ Migrasi selesai")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Isi data proyek contoh dari file JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		return seeds.RunAllSeeds(db, seedsFile, log)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedsFile, "file", seeds.DefaultProjectsFile, "path file JSON proyek")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDB() (*configs.Config, *gorm.DB, error) {
	cfg, err := configs.Load(log)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	return cfg, db, nil
}

// newLocker: Redis kalau REDIS_URL diset (multi-instance), selain itu lock in-process.
func newLocker(cfg *configs.Config) (keylock.Locker, func()) {
	if cfg.RedisURL == "" {
		log.Info("[LOCK] REDIS_URL kosong, pakai lock in-process")
		return keylock.NewMemoryLocker(), func() {}
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("[LOCK] REDIS_URL tidak valid, fallback lock in-process", zap.Error(err))
		return keylock.NewMemoryLocker(), func() {}
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("[LOCK] Redis tidak bisa dihubungi, fallback lock in-process", zap.Error(err))
		_ = client.Close()
		return keylock.NewMemoryLocker(), func() {}
	}
	log.Info("[LOCK] pakai Redis lock")
	return keylock.NewRedisLocker(client, "ecoguard:lock:", 30*time.Second), func() { _ = client.Close() }
}

func newFiberConfig(cfg *configs.Config) fiber.Config {
	fc := fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		BodyLimit:             int(cfg.MaxPhotoBytes) + 1<<20, // foto + field multipart
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          60 * time.Second, // oracle foto bisa lambat
		IdleTimeout:           90 * time.Second,
	}
	// c.IP() baca X-Forwarded-For hanya dari proxy yang terdaftar
	if proxies := cfg.TrustedProxyList(); len(proxies) > 0 {
		fc.ProxyHeader = fiber.HeaderXForwardedFor
		fc.EnableTrustedProxyCheck = true
		fc.TrustedProxies = proxies
	}
	return fc
}

func runServe() error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	database.TunePool(db, log)
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	locker, closeLocker := newLocker(cfg)
	defer closeLocker()

	// ===================== MINT BRIDGE =====================
	mints := mintRepo.NewMintRequestRepository(db)
	bridge := mintService.NewHTTPBridge(mintService.Options{
		Enabled:       cfg.MintEnabled,
		BaseURL:       cfg.MintBaseURL,
		Timeout:       cfg.MintTimeout,
		RatePerSecond: cfg.MintRatePerSecond,
	}, log)
	dispatcher := mintService.NewDispatcher(bridge, mints, cfg.MintWorkers, cfg.MintQueueSize, cfg.MintLease, log)
	reconciler := mintService.NewReconciler(mints, dispatcher, cfg.MintRetryGrace, cfg.MintMaxAttempts, log)

	// ===================== LEDGER =====================
	ledger := progressService.NewService(progressRepo.NewGormStore(db), dispatcher, bridge, log)

	// ===================== FIELD =====================
	projects := projectRepo.NewProjectRepository(db)
	attendanceStore := attRepo.NewGormStore(db)
	contributionStore := contributionRepo.NewGormStore(db)

	o, err := oracle.New(context.Background(), oracle.Options{
		Mode:    cfg.OracleMode,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.OracleTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("init oracle: %w", err)
	}
	geocoder := geocoding.NewNominatimGeocoder(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout)
	photos, err := attService.NewDiskPhotoStore(cfg.PhotoDir, cfg.PhotoPublicPrefix)
	if err != nil {
		return fmt.Errorf("init photo store: %w", err)
	}

	attendance := attService.NewService(projects, attendanceStore, o, geocoder, photos, locker, attService.Options{
		NGORadiusKm:       cfg.NGORadiusKm,
		CommunityRadiusKm: cfg.CommunityRadiusKm,
		MaxFixAge:         cfg.MaxFixAge,
		MaxPhotoBytes:     cfg.MaxPhotoBytes,
		Location:          cfg.Location(),
	}, log)
	contributions := contributionService.NewService(projects, contributionStore, ledger, cfg.Location(), log)
	rewards := rewardService.NewService(projects, attendanceStore, contributionStore, ledger, locker, rewardService.Options{
		MinProgress: cfg.CompletionMinProgress,
		Workers:     cfg.RewardWorkers,
	}, log)

	// ===================== HTTP =====================
	app := fiber.New(newFiberConfig(cfg))

	app.Use(middlewares.RecoveryMiddleware(log))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// 🔎 Request-ID + timing
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("X-Request-ID", id)
		c.Locals("reqid", id)
		start := time.Now()
		err := c.Next()
		log.Debug("[REQ]",
			zap.String("id", id),
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("dur", time.Since(start)))
		return err
	})

	app.Use(middlewares.CorsMiddleware(cfg.CorsOrigins))
	app.Use(middlewares.GlobalRateLimiter())
	app.Use(loggerMiddleware.LoggerMiddleware(cfg.Timezone))

	routes.SetupRoutes(app, &routeDetails.Deps{
		DB:            db,
		Config:        cfg,
		Log:           log,
		Projects:      projects,
		Attendance:    attendance,
		Contributions: contributions,
		Rewards:       rewards,
		Ledger:        ledger,
		Mints:         mints,
		Bridge:        bridge,
	})

	// ⏱ worker mint + reconciler setelah DB siap
	dispatcher.Start()
	if err := reconciler.Start(cfg.MintReconcileSpec); err != nil {
		dispatcher.Stop()
		return fmt.Errorf("start reconciler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("✅ Listening", zap.String("port", cfg.Port))
		errCh <- app.Listen("0.0.0.0:" + cfg.Port)
	}()

	// graceful shutdown: HTTP → reconciler → dispatcher → DB (defer)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var serveErr error
	select {
	case <-quit:
	case serveErr = <-errCh:
		log.Error("server error", zap.Error(serveErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	reconciler.Stop()
	dispatcher.Stop()
	log.Info("👋 server berhenti")
	return serveErr
}
