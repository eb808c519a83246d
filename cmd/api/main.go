package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bardoun7894/basplast/internal/compositor"
	"github.com/bardoun7894/basplast/internal/generation"
	"github.com/bardoun7894/basplast/internal/http/handlers"
	"github.com/bardoun7894/basplast/internal/http/httpapi"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/metrics"
	"github.com/bardoun7894/basplast/internal/providers/kie"
	"github.com/bardoun7894/basplast/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)
	collector := metrics.NewCollector("basplast")

	ctx := context.Background()
	records, closeRecords, err := openRecords(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.RecordStore).Msg("failed to open record store")
	}
	defer closeRecords()

	upstream := infra.NewHTTPClient(cfg.UpstreamHTTPTimeout)
	kieClient, err := kie.NewClient(kie.Options{
		APIKey:        cfg.KieAPIKey,
		BaseURL:       cfg.KieBaseURL,
		Resolution:    cfg.KieResolution,
		MaxConcurrent: cfg.KieMaxConcurrent,
		HTTPClient:    upstream,
		Logger:        &logger,
		Metrics:       collector,
		CreditsTTL:    cfg.CreditsCacheTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build kie client")
	}

	uploads, err := storage.NewFileStore(cfg.UploadDir, cfg.PublicBaseURL()+"/uploads")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}
	comp, err := compositor.New(compositor.Options{
		AssetsDir:  cfg.AssetsDir,
		Store:      uploads,
		HTTPClient: upstream,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build compositor")
	}

	svc, err := generation.NewService(generation.Options{
		Generator:    kieClient,
		Compositor:   comp,
		Records:      records,
		DefaultModel: cfg.DefaultModel,
		Logger:       &logger,
		Metrics:      collector,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generation service")
	}

	app := &handlers.App{
		Generation:  svc,
		Records:     records,
		Enhancer:    newEnhancer(cfg, upstream, logger),
		Credits:     kieClient,
		Uploads:     uploads,
		ProxyClient: upstream,
		Metrics:     collector,
		Logger:      &logger,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		Metrics:         collector,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RateLimitBurst:  cfg.RateLimitBurst,
		UploadDir:       cfg.UploadDir,
		AssetsDir:       cfg.AssetsDir,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("store", cfg.RecordStore).
			Str("public_base", cfg.PublicBaseURL()).
			Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
