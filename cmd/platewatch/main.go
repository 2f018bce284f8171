package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/rs/zerolog"

	"platewatch/internal/alert"
	"platewatch/internal/camera"
	"platewatch/internal/capture"
	"platewatch/internal/config"
	"platewatch/internal/db"
	"platewatch/internal/detector"
	httpapi "platewatch/internal/http"
	"platewatch/internal/repository"
	"platewatch/internal/service"
	"platewatch/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)

	gdb, err := db.Connect(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().Str("host", cfg.Database.Host).Msg("connected to database")

	repo := repository.NewWatchlistRepository(gdb)
	watchlist := service.NewWatchlistService(repo, log.With().Str("component", "watchlist").Logger())

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	if err := watchlist.Load(loadCtx); err != nil {
		cancelLoad()
		log.Fatal().Err(err).Msg("failed to load watchlist")
	}
	cancelLoad()

	det, err := newDetector(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize detector")
	}

	frames := camera.NewHTTPCamera(
		cfg.Camera.SnapshotURL,
		cfg.Capture.FrameWidth,
		cfg.Capture.JPEGQuality,
		log.With().Str("component", "camera").Logger(),
	)

	hub := alert.NewHub(log.With().Str("component", "hub").Logger())
	evaluator := session.NewEvaluator(
		watchlist,
		hub,
		cfg.Capture.LogCapacity,
		cfg.Capture.AlertDuration,
		log.With().Str("component", "session").Logger(),
	)
	controller := capture.NewController(
		frames,
		det,
		evaluator,
		cfg.Capture.Interval,
		log.With().Str("component", "capture").Logger(),
	)

	handler := httpapi.NewHandler(watchlist, controller, evaluator, hub, cfg, log)
	router := httpapi.NewRouter(cfg, handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	// The camera must be released on teardown as well.
	controller.Stop()
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

func newDetector(cfg *config.Config, log zerolog.Logger) (detector.Detector, error) {
	switch cfg.Detector.Backend {
	case "rekognition":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.Detector.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client := rekognition.NewFromConfig(awsCfg)
		return detector.NewRekognitionDetector(client, log.With().Str("component", "detector").Logger()), nil
	case "stub":
		log.Warn().Msg("using stub detector, no real detection will happen")
		return detector.NewStub(), nil
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.Detector.Backend)
	}
}
