package app

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/shinyes/pastpaper/internal/config"
	"github.com/shinyes/pastpaper/internal/db"
	"github.com/shinyes/pastpaper/internal/facet"
	httpserver "github.com/shinyes/pastpaper/internal/http"
	"github.com/shinyes/pastpaper/internal/markdown"
	"github.com/shinyes/pastpaper/internal/service"
	"github.com/shinyes/pastpaper/internal/sheets"
	"github.com/shinyes/pastpaper/internal/storage"
	"github.com/shinyes/pastpaper/internal/store"
)

type Container struct {
	Config          config.Config
	Logger          *logrus.Logger
	Store           *store.SQLStore
	UserService     *service.UserService
	QuestionService *service.QuestionService
	StatsService    *service.StatsService
	ArchiveService  *service.ArchiveService
	MetadataService *service.MetadataService
	// Syncer is nil when no spreadsheet endpoint is configured.
	Syncer *sheets.Syncer
	Router *fiber.App
}

func Build(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*Container, func() error, error) {
	table, err := facet.LoadTable(cfg.FacetsConfig)
	if err != nil {
		return nil, nil, err
	}

	sqliteDB, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error {
		return sqliteDB.Close()
	}

	if err := db.Migrate(sqliteDB); err != nil {
		_ = cleanup()
		return nil, nil, err
	}

	sqlStore := store.New(sqliteDB)
	sheetsClient := sheets.NewClient(cfg.Sheets)
	userService := service.NewUserService(sqlStore)
	if sheetsClient.Enabled() {
		userService.WithAdminVerifier(sheetsClient, cfg.BootstrapUser)
	}
	if err := userService.EnsureBootstrap(ctx, cfg.BootstrapUser, cfg.BootstrapToken); err != nil {
		_ = cleanup()
		return nil, nil, fmt.Errorf("bootstrap setup: %w", err)
	}

	var exportStorage storage.Store
	switch cfg.ExportStorage {
	case config.StorageBackendLocal:
		localStore, err := storage.NewLocalStore(cfg.ExportDir)
		if err != nil {
			_ = cleanup()
			return nil, nil, err
		}
		exportStorage = localStore
	case config.StorageBackendS3:
		s3Store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			_ = cleanup()
			return nil, nil, err
		}
		exportStorage = s3Store
	default:
		_ = cleanup()
		return nil, nil, fmt.Errorf("unsupported storage backend %s", cfg.ExportStorage)
	}

	var syncer *sheets.Syncer
	if sheetsClient.Enabled() {
		syncer = sheets.NewSyncer(sheetsClient, sqlStore, logger.WithField("component", "sync"))
	}

	questionService := service.NewQuestionService(sqlStore, table, markdown.NewService())
	statsService := service.NewStatsService(sqlStore)
	archiveService := service.NewArchiveService(sqlStore, exportStorage)
	metadataService := service.NewMetadataService(sqlStore)
	router := httpserver.NewRouter(cfg, logger.WithField("component", "http"), httpserver.Dependencies{
		Users:     userService,
		Questions: questionService,
		Stats:     statsService,
		Archive:   archiveService,
		Metadata:  metadataService,
		Syncer:    syncer,
	})

	return &Container{
		Config:          cfg,
		Logger:          logger,
		Store:           sqlStore,
		UserService:     userService,
		QuestionService: questionService,
		StatsService:    statsService,
		ArchiveService:  archiveService,
		MetadataService: metadataService,
		Syncer:          syncer,
		Router:          router,
	}, cleanup, nil
}
