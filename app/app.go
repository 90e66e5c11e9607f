package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"textile-studio/app/controller"
	"textile-studio/app/router"
	"textile-studio/capture"
	"textile-studio/composition"
	"textile-studio/config"
	"textile-studio/db"
	"textile-studio/pricing"
	"textile-studio/repository"
	"textile-studio/service"
	"textile-studio/svgasset"
)

// Initialize initializes the application and returns its HTTP handler
func Initialize(ctx context.Context, cfg *config.Config) (http.Handler, error) {
	// Initialize database connection
	if err := db.InitDB(ctx, cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	engine, err := pricing.NewEngine(cfg.PricingFile)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository()
	cartRepo := repository.NewCartRepository()
	orderRepo := repository.NewOrderRepository()
	generationRepo := repository.NewGenerationRepository()

	// Rendering
	if err := composition.EnsureCacheDir(cfg.AssetCacheDir); err != nil {
		return nil, err
	}
	resolver := svgasset.NewResolver(nil)
	renderer := composition.NewRenderer(catalogRepo, resolver)
	loader := composition.NewAssetLoader(nil, cfg.AssetCacheDir)
	painter := composition.NewPainter()

	// Drive is optional unless it is the upload backend
	var drive service.DriveServiceInterface
	if cfg.HasDriveCredentials() {
		driveService, err := service.NewDriveService(ctx, cfg.CredentialsPath, cfg.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		drive = driveService
	} else {
		log.Printf("⚠️  Drive credentials not set, design sync is disabled")
	}

	uploader, err := newUploader(cfg, drive)
	if err != nil {
		return nil, err
	}
	pipeline := capture.NewPipeline(
		newRasterizer(cfg, painter),
		uploader,
		capture.LogObserver{Verbose: cfg.VerboseCaptures},
		capture.WithDOMWait(cfg.DOMAttempts, cfg.DOMInterval),
	)
	mounter := service.NewRendererMounter(renderer, loader)

	tiers := service.DefaultTiers()
	tiers.Preview.UploadTimeout = cfg.UploadTimeoutPreview
	tiers.Production.UploadTimeout = cfg.UploadTimeoutHD

	// Initialize services
	cartService := service.NewCartService(cartRepo, catalogRepo, engine, mounter, pipeline, service.CartOptions{
		SettleDelay:   cfg.SettleDelay,
		MaxLines:      cfg.MaxCartLines,
		MaxQuantity:   cfg.MaxQuantity,
		AddsPerMinute: cfg.AddsPerMinute,
		Tiers:         tiers,
	})
	regenerationService := service.NewRegenerationService(orderRepo, mounter, pipeline, tiers.Production, cfg.RegenPause)
	syncService := service.NewSyncService(drive, catalogRepo, resolver)

	optimizer := service.NewImageOptimizer(cfg.AssetCacheDir)
	if err := optimizer.EnsureCacheDir(); err != nil {
		return nil, err
	}
	studioService := service.NewStudioService(renderer, loader, painter, svgasset.NewCache(resolver), optimizer)
	generator := service.NewImageGenerator(cfg.AIEndpoint, nil, generationRepo, cfg.AIDailyQuota)

	// Create controllers
	controllers := &router.Controllers{
		Catalog: controller.NewCatalogController(catalogRepo),
		Studio:  controller.NewStudioController(studioService, service.NewQRService(), generator),
		Cart:    controller.NewCartController(cartService),
		Admin:   controller.NewAdminController(regenerationService, syncService, cfg.DesignsFolderID),
	}

	// Setup routes using standard http router
	return router.SetupRoutes(controllers, cfg.AllowedOrigin), nil
}

func newRasterizer(cfg *config.Config, painter *composition.Painter) capture.Rasterizer {
	if cfg.Rasterizer == config.RasterizerNative {
		log.Printf("🖌️  Using native rasterizer")
		return capture.NewNativeRasterizer(painter)
	}
	log.Printf("🖌️  Using Chrome rasterizer")
	return capture.NewChromeRasterizer(cfg.ChromePath, cfg.ChromeTimeout)
}

func newUploader(cfg *config.Config, drive service.DriveServiceInterface) (capture.Uploader, error) {
	if cfg.UploadBackend == config.UploadDrive {
		if drive == nil {
			return nil, fmt.Errorf("drive upload backend requires Drive credentials")
		}
		log.Printf("☁️  Uploading captures to Drive folder %s", cfg.CapturesFolderID)
		return capture.NewDriveUploader(drive, cfg.CapturesFolderID), nil
	}
	log.Printf("☁️  Uploading captures to %s", cfg.UploadEndpoint)
	return capture.NewHTTPUploader(cfg.UploadEndpoint, nil), nil
}
