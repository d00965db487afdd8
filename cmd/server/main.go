// Command server is a thin, illustrative HTTP query surface over the
// aggregator's store: GET /restful/cve/{id}, /restful/cve, /restful/vendor/{name},
// /restful/product, /restful/kb, plus an XLSX export of the current CVE
// query page. It delegates every filter and pagination decision to
// pkg/query; no query logic lives in this package.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyw0ng95/vulnintel/pkg/appconfig"
	"github.com/cyw0ng95/vulnintel/pkg/applog"
	"github.com/cyw0ng95/vulnintel/pkg/query"
	"github.com/cyw0ng95/vulnintel/pkg/store"
)

// storePoolSize is the connection pool size for the read-only query surface;
// it serves GETs only, so a small pool is enough.
const storePoolSize = 4

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := appconfig.Load()
	applog.Init(cfg.Logging.Level, cfg.Logging.Pretty, os.Stderr)
	log := applog.Named("server")

	st, err := store.Open(cfg.Database.URL, storePoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("server: opening store")
	}
	defer st.Close()

	svc := query.New(st)
	router := setupRouter(svc)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("server: listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server: listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server: forced shutdown")
		os.Exit(1)
	}
	log.Info().Msg("server: stopped")
}
