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

	"github.com/joho/godotenv"

	"github.com/jask/pathoscreen/internal/catalog"
	"github.com/jask/pathoscreen/internal/config"
	"github.com/jask/pathoscreen/internal/logx"
	"github.com/jask/pathoscreen/internal/stub"
)

func main() {
	_ = godotenv.Load()

	addr := flag.String("addr", ":8000", "listen address")
	delay := flag.Duration("delay", 1500*time.Millisecond, "artificial latency per analysis")
	token := flag.String("token", os.Getenv("PATHOSCREEN_TOKEN"), "required bearer token, empty disables auth")
	flag.Parse()

	// the stub logs to stderr in development format
	logx.Init(logx.Options{Environment: logx.Development, Level: "debug"})

	var variants []string
	if cfg, err := config.Load(); err != nil {
		logx.Warn().Err(err).Msg("config unavailable, accepting any model")
	} else if cat, err := catalog.Load(cfg.Catalog.Path); err != nil {
		logx.Warn().Err(err).Msg("catalog unavailable, accepting any model")
	} else {
		for _, t := range cat.Tiers() {
			variants = append(variants, t.Variant.Tag)
		}
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      stub.NewRouter(stub.Options{Variants: variants, Token: *token, Delay: *delay}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", *addr).Strs("variants", variants).Msg("stub listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logx.Info().Msg("shutting down stub")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logx.Error().Err(err).Msg("shutdown")
	}
}
