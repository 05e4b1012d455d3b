package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-roles/internal/analysis"
	"resume-roles/internal/classify"
	"resume-roles/internal/extract"
	"resume-roles/internal/queue"
	"resume-roles/internal/results"
	"resume-roles/internal/services/health"
	"resume-roles/internal/shared/config"
	"resume-roles/internal/shared/server"
	"resume-roles/internal/shared/storage/db"
	"resume-roles/internal/shared/storage/object"
	localstore "resume-roles/internal/shared/storage/object/local"
	miniostore "resume-roles/internal/shared/storage/object/minio"
	s3store "resume-roles/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	Queue           queue.Client
	Model           *classify.Model
	ResultsRepo     results.Repo
	AnalysisService *analysis.Service
	AnalysisHandler *analysis.Handler
	Health          *health.Service
}

// Build prepares every dependency and the router from cfg.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	model, err := classify.Load(cfg.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("load model from %s: %w", cfg.ModelDir, err)
	}
	log.Printf("bootstrap: model loaded dir=%s classes=%d", cfg.ModelDir, len(model.Classes()))

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
		Model:  model,
		Health: health.NewService(),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		AnalysisHandler: app.AnalysisHandler,
		Health:          app.Health,
	})
	return app, nil
}

// Close releases connections held by the app.
func (a *App) Close() error {
	var firstErr error
	if closer, ok := a.Queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("bootstrap: DATABASE_URL empty; result table kept in memory")
		return nil, nil
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; result table kept in memory: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.AWSRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.UploadDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	switch cfg.QueueType {
	case "sqs":
		return queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
	case "amqp":
		return queue.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange)
	default:
		return queue.Noop{}, nil
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.ResultsRepo = &results.PGRepo{DB: app.DB}
		app.Health.Register("database", app.DB.PingContext)
	} else {
		app.ResultsRepo = results.NewMemoryRepo()
	}

	model := app.Model
	app.Health.Register("model", func(context.Context) error {
		if model == nil || len(model.Classes()) == 0 {
			return fmt.Errorf("model not loaded")
		}
		return nil
	})

	app.AnalysisService = &analysis.Service{
		Store:      app.Store,
		Extractor:  extract.Documents{},
		Classifier: app.Model,
		Results:    app.ResultsRepo,
		Notifier:   app.Queue,
	}
	app.AnalysisHandler = analysis.NewHandler(app.AnalysisService, app.Config.MaxUploadBytes)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
