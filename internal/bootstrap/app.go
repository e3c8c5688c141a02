package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"truthguard-backend/internal/engine"
	"truthguard-backend/internal/engine/remote"
	"truthguard-backend/internal/media"
	"truthguard-backend/internal/queue"
	"truthguard-backend/internal/scans"
	"truthguard-backend/internal/shared/config"
	"truthguard-backend/internal/shared/server"
	"truthguard-backend/internal/shared/storage/db"
	"truthguard-backend/internal/shared/storage/object"
	localstore "truthguard-backend/internal/shared/storage/object/local"
	s3store "truthguard-backend/internal/shared/storage/object/s3"
	"truthguard-backend/internal/stats"
)

// App holds shared dependencies.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Store        object.ObjectStore
	Queue        queue.Client
	Engine       engine.Engine
	ScansRepo    scans.Repo
	ScanService  *scans.Service
	MediaService *media.Service
	StatsService *stats.Service
	ScanHandler  *scans.Handler
	MediaHandler *media.Handler
	StatsHandler *stats.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

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

	scoringEngine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
		Engine: scoringEngine,
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       app.Config,
		ScanHandler:  app.ScanHandler,
		MediaHandler: app.MediaHandler,
		StatsHandler: app.StatsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func buildEngine(cfg config.Config) (engine.Engine, error) {
	if cfg.EngineProvider == "remote" {
		return remote.NewClient(cfg.EngineURL)
	}
	return engine.NewHeuristic(), nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var scansRepo scans.Repo
	if app.DB != nil {
		scansRepo = &scans.PGRepo{DB: app.DB}
	} else {
		scansRepo = scans.NewMemoryRepo()
	}

	// Media records stay memory-only regardless of the database so uploads
	// never outlive the process.
	mediaSvc := &media.Service{
		Store: app.Store,
		Repo:  media.NewMemoryRepo(),
	}

	var statsSvc *stats.Service
	if app.DB != nil {
		statsSvc = stats.NewPostgresService(stats.NewPGStore(app.DB))
	} else {
		statsSvc = stats.NewService()
	}

	scanSvc := &scans.Service{
		Repo:          scansRepo,
		Engine:        app.Engine,
		Sessions:      scans.NewSessionManager(),
		Stats:         statsSvc,
		Media:         mediaSvc,
		JobQueue:      app.Queue,
		StageInterval: app.Config.StageInterval,
		Timeout:       app.Config.ScanTimeout,
	}

	app.ScansRepo = scansRepo
	app.ScanService = scanSvc
	app.MediaService = mediaSvc
	app.StatsService = statsSvc
	app.ScanHandler = scans.NewHandler(scanSvc, mediaResolver{svc: mediaSvc})
	app.MediaHandler = media.NewHandler(mediaSvc)
	app.StatsHandler = stats.NewHandler(statsSvc)
}

type mediaResolver struct {
	svc *media.Service
}

func (r mediaResolver) Resolve(ctx context.Context, mediaID string) (*scans.MediaRef, error) {
	m, err := r.svc.Get(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	return &scans.MediaRef{
		ID:         m.ID,
		FileName:   m.FileName,
		MimeType:   m.MimeType,
		SizeBytes:  m.SizeBytes,
		StorageKey: m.StorageKey,
		LiftedText: m.LiftedText,
	}, nil
}
