package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/orbitalk/relay/internal/adapters/http"
	"github.com/orbitalk/relay/internal/app"
	"github.com/orbitalk/relay/internal/app/orch"
	"github.com/orbitalk/relay/internal/azure"
	"github.com/orbitalk/relay/internal/config"
	"github.com/orbitalk/relay/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Adapters are constructed here, from config, and handed to the core;
	// the relay itself never touches credentials.
	recognizer := azure.NewRecognizer(cfg.SpeechKey, cfg.SpeechRegion)
	translator := azure.NewTranslator(cfg.TranslatorEndpoint, cfg.TranslatorKey, cfg.TranslatorRegion)
	synthesizer := azure.NewSynthesizer(cfg.SpeechKey, cfg.SpeechRegion)

	o := &orch.Orchestrator{
		Registry:    app.NewRegistry(),
		Rooms:       app.NewRoomManager(),
		Recognizer:  recognizer,
		Translator:  translator,
		Synthesizer: synthesizer,
		DefaultRoom: domain.RoomID(cfg.DefaultRoom),
		GateMargin:  cfg.GateMargin,
	}

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Relay server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
