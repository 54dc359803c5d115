// relayd runs the presence relay: a websocket fan-out server that
// forwards cursor messages between connected whiteboard clients.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/collabboard/collabboard/internal/config"
	"github.com/collabboard/collabboard/pkg/relay"
)

func main() {
	cfg := config.Load()

	var (
		addr    string
		verbose bool
	)
	flag.StringVar(&addr, "addr", ":"+cfg.Port, "listen address")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	hub := relay.NewHub(log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           hub.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("presence relay listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("relay server failed")
	}
}
