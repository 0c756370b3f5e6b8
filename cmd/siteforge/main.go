package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	v1 "siteforge/api/v1"
	"siteforge/internal/auth"
	"siteforge/internal/cache"
	"siteforge/internal/config"
	"siteforge/internal/db"
	"siteforge/internal/edge"
	"siteforge/internal/provisioning"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("✓ Configuration loaded")

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := db.Migrate(db.GetDB()); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// 3. Initialize Redis
	if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer cache.Close()

	auth.InitJWT(cfg.JWT.Secret)

	// 4. Build the provisioning stack: one shared edge client per process
	edgeClient := edge.NewClient(cfg.Edge.ClientConfig(), nil)
	store := provisioning.NewGormSiteStore(db.GetDB())
	svc := provisioning.NewService(edgeClient, store,
		cfg.Edge.PlatformDomain, cfg.Edge.ProxySubdomain, cfg.Edge.WorkerName)

	// 5. Start the SSL status worker
	worker := provisioning.NewWorker(db.GetDB(), svc, logrus.NewEntry(logrus.StandardLogger()), provisioning.WorkerConfig{
		Enabled:     cfg.SSLWorker.Enabled,
		IntervalSec: cfg.SSLWorker.IntervalSec,
		BatchSize:   cfg.SSLWorker.BatchSize,
	})
	worker.Start()
	defer worker.Stop()

	// 6. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	v1.SetupRouter(r, db.GetDB(), cfg, svc, store)

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
