package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yourorg/isp-sorter/internal/api"
	"github.com/yourorg/isp-sorter/internal/bounce"
	"github.com/yourorg/isp-sorter/internal/config"
	znmetrics "github.com/yourorg/isp-sorter/internal/metrics"
	"github.com/yourorg/isp-sorter/internal/pipeline"
	"github.com/yourorg/isp-sorter/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	zl := config.NewLogger(cfg.LogLevel)
	defer zl.Sync()
	znmetrics.Init()

	var checker bounce.Checker = bounce.Simulated{Delay: cfg.BounceDelay}
	if cfg.BounceCacheDir != "" {
		cache, err := bounce.OpenCache(cfg.BounceCacheDir, checker, zl)
		if err != nil {
			log.Fatalf("bounce cache: %v", err)
		}
		defer cache.Close()
		checker = cache
	}
	orch := pipeline.New(checker, pipeline.WithLogger(zl))

	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadBytes() + 1<<20

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
	}))

	r.GET("/metrics", gin.WrapH(znmetrics.Handler()))

	apiV1 := r.Group("/api/v1")
	api.NewHandler(api.NewStore(), orch, cfg.MaxUploadBytes(), zl).Register(apiV1)

	// Workflow routes are only mounted when Temporal is reachable.
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		zl.Warn("temporal unavailable; workflow routes disabled", zap.Error(err))
	} else {
		defer temporalClient.Close()
		store, err := uploadStore(cfg)
		if err != nil {
			log.Fatalf("upload store: %v", err)
		}
		api.NewWorkflowHandler(temporalClient, store, cfg.TaskQueue, cfg.MaxUploadBytes(), zl).Register(apiV1)
	}

	zl.Info("server starting", zap.String("port", cfg.Port), zap.Duration("bounceDelay", cfg.BounceDelay), zap.Bool("cache", cfg.BounceCacheDir != ""))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// uploadStore picks S3 when UPLOAD_BUCKET is set and a local directory otherwise.
func uploadStore(cfg config.Config) (storage.ObjectStore, error) {
	if cfg.UploadBucket != "" {
		return storage.NewS3(context.Background(), cfg.UploadBucket, "")
	}
	return storage.Local{Dir: cfg.UploadDir}, nil
}
