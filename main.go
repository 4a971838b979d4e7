package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	apix "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/api"
	appx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/app"
	_ "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/logger/autoload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := appx.Build(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build assistant")
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("close assistant")
		}
	}()

	server := apix.NewServer(app.Assistant, app.Metrics, app.Registry)
	if err := server.Run(ctx, app.Config.HTTPAddr); err != nil {
		log.Error().Err(err).Msg("api server stopped")
	}
}
