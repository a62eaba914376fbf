package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/content-transcriber/internal/config"
	"github.com/codebuildervaibhav/content-transcriber/internal/extract"
	"github.com/codebuildervaibhav/content-transcriber/internal/handlers"
	"github.com/codebuildervaibhav/content-transcriber/internal/queue"
	"github.com/codebuildervaibhav/content-transcriber/internal/service"
	"github.com/codebuildervaibhav/content-transcriber/internal/store"
	"github.com/codebuildervaibhav/content-transcriber/internal/transcription"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if missing := cfg.MissingKeys(); len(missing) > 0 {
		log.Warn().Str("keys", strings.Join(missing, ", ")).Msg("missing environment variables")
	}

	// Components, leaves first.
	whisper := transcription.NewWhisperClient(cfg.OpenAIAPIKey)
	videoExtractor := extract.NewYouTubeExtractor()
	audioExtractor := extract.NewPodcastExtractor(whisper)
	svc := service.New(videoExtractor, audioExtractor)
	notion := store.NewClient(cfg.NotionAPIKey)

	pool := queue.NewWorkerPool(cfg.Workers, svc, notion, log)
	pool.Start()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Webhook-Secret",
	}))

	webhookHandler := handlers.NewWebhookHandler(pool, cfg.WebhookSecret, log)
	transcriptHandler := handlers.NewTranscriptHandler(svc)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": version,
		})
	})
	app.Post("/webhook", webhookHandler.Handle)
	app.Post("/transcript", transcriptHandler.Handle)

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down")
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Msg("server starting")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
