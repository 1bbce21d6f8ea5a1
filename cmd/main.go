package main

import (
	"context"
	"net/http"

	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/poofware/listings-service/internal/app"
	"github.com/poofware/listings-service/internal/config"
	"github.com/poofware/listings-service/internal/constants"
	"github.com/poofware/listings-service/internal/controllers"
	"github.com/poofware/listings-service/internal/middleware"
	"github.com/poofware/listings-service/internal/repositories"
	"github.com/poofware/listings-service/internal/services"
	"github.com/poofware/listings-service/internal/storage"
	"github.com/poofware/listings-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize listings-service:", err)
	}
	defer application.Close()

	repos := repositories.NewRepos(application.DB)
	uow := repositories.NewPgUnitOfWork(application.DB)

	files, err := storage.NewLocalFileStore(cfg.UploadsDir)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to open uploads dir")
	}

	propertyService := services.NewPropertyService(repos, cfg.DBTimeout)
	imageService := services.NewImageService(repos, uow, files, cfg.DBTimeout)
	queryService := services.NewListingQueryService(repos, imageService, cfg.DBTimeout)
	commandService := services.NewListingCommandService(repos, uow, imageService, cfg.DBTimeout)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedAllTestData(context.Background(), repos.Users, queryService, commandService); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed test data")
		} else {
			utils.Logger.Info("Seeded test data successfully")
		}
	}

	sessions := middleware.NewCacheSessionStore(constants.SessionTTL, constants.SessionCleanupInterval)

	router := app.NewRouter(app.Controllers{
		Health:   controllers.NewHealthController(application),
		Listings: controllers.NewListingsController(propertyService, queryService, commandService),
		Sessions: controllers.NewSessionsController(sessions),
	}, sessions, repos.Users, cfg.UploadsDir)

	c := cron.New()
	if cfg.LDFlag_OrphanSweepEnabled {
		sweeper := services.NewOrphanSweepService(repos.Images, files, cfg.OrphanSweepGrace, constants.OrphanSweepWorkers)
		_, sweepErr := c.AddFunc(cfg.OrphanSweepSchedule, func() {
			if _, e := sweeper.Run(context.Background()); e != nil {
				utils.Logger.WithError(e).Error("Scheduled orphan sweep failed")
			}
		})
		if sweepErr != nil {
			utils.Logger.WithError(sweepErr).Fatal("Failed to schedule orphan sweep cron")
		}
	} else {
		utils.Logger.Info("Orphan sweep disabled by flag")
	}
	c.Start()
	defer c.Stop()

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", constants.UserIDHeader},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("listings-service failed to start:", err)
	}
}
