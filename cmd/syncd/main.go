// Command syncd runs the scheduled ingestion pipeline: on the configured
// interval it pulls everything new from NVD since the last watermark, then
// drives the CNNVD translation, AttackerKB, and Git-template enrichment
// adapters over whatever landed. It is a long-running daemon, not a CLI —
// the subcommand surface (cve/cwe/cpe/kb/sync with their own flags) is an
// external collaborator this repository does not implement.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyw0ng95/vulnintel/pkg/appconfig"
	"github.com/cyw0ng95/vulnintel/pkg/applog"
	"github.com/cyw0ng95/vulnintel/pkg/feed/attackerkb"
	"github.com/cyw0ng95/vulnintel/pkg/feed/cnnvd"
	"github.com/cyw0ng95/vulnintel/pkg/feed/gittemplates"
	"github.com/cyw0ng95/vulnintel/pkg/feed/nvd"
	"github.com/cyw0ng95/vulnintel/pkg/ingest"
	"github.com/cyw0ng95/vulnintel/pkg/ingest/watermark"
	"github.com/cyw0ng95/vulnintel/pkg/model"
	"github.com/cyw0ng95/vulnintel/pkg/store"
)

const storePoolSize = 8

// dagConcurrency bounds how many per-CVE Taskflow DAGs run at once within a
// single batch.
const dagConcurrency = 4

const (
	nvdResultsPerPage = 200
	cnnvdPageSize     = 50
	attackerkbPage    = 50
)

func main() {
	cfg := appconfig.Load()
	applog.Init(cfg.Logging.Level, cfg.Logging.Pretty, os.Stderr)
	log := applog.Named("syncd")

	st, err := store.Open(cfg.Database.URL, storePoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("syncd: opening store")
	}
	defer st.Close()

	wm, err := watermark.Open(cfg.Sync.WatermarkPath)
	if err != nil {
		log.Fatal().Err(err).Msg("syncd: opening watermark store")
	}
	defer wm.Close()

	gitClient := gittemplates.NewClient(cfg.GitFeed.RepoURL, cfg.GitFeed.RepoPath)

	svc := ingest.New(st, wm, dagConcurrency,
		ingest.WithNVD(nvd.NewFetcher(cfg.NVD.APIKey)),
		ingest.WithCNNVD(cnnvd.NewFetcher(cfg.CNNVD.BaseURL)),
		ingest.WithAttackerKB(attackerkb.NewFetcher(cfg.AttackerKB.BaseURL, cfg.AttackerKB.APIToken)),
		ingest.WithGitTemplates(gitClient),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("syncd: shutdown signal received")
		cancel()
	}()

	interval := cfg.SyncInterval()
	log.Info().Dur("interval", interval).Msg("syncd: starting sync loop")

	runOnce(ctx, svc, wm, cfg)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("syncd: stopped")
			return
		case <-ticker.C:
			runOnce(ctx, svc, wm, cfg)
		}
	}
}

// runOnce drives one pass of every configured adapter. Each adapter's
// failure is logged and does not block the others, matching the per-adapter
// isolation the pipeline itself enforces on watermark advancement.
func runOnce(ctx context.Context, svc *ingest.Service, wm *watermark.Store, cfg *appconfig.Config) {
	runNVD(ctx, svc, wm)
	runCNNVD(ctx, svc, wm)
	runAttackerKB(ctx, svc)
	runGitTemplates(ctx, svc, cfg)
}

func runNVD(ctx context.Context, svc *ingest.Service, wm *watermark.Store) {
	log := applog.Named("syncd.nvd")
	state, err := wm.Get("nvd")
	if err != nil {
		log.Error().Err(err).Msg("reading watermark")
		return
	}
	start := state.Time
	if start.IsZero() {
		start = time.Now().Add(-24 * time.Hour)
	}
	end := time.Now()
	n, err := svc.SyncNVD(ctx, start, end, nvdResultsPerPage)
	if err != nil {
		log.Error().Err(err).Int("stored", n).Msg("sync failed")
		return
	}
	log.Info().Int("stored", n).Msg("sync complete")
}

func runCNNVD(ctx context.Context, svc *ingest.Service, wm *watermark.Store) {
	log := applog.Named("syncd.cnnvd")
	state, err := wm.Get("cnnvd")
	if err != nil {
		log.Error().Err(err).Msg("reading watermark")
		return
	}
	start := state.Time
	if start.IsZero() {
		start = time.Now().Add(-24 * time.Hour)
	}
	end := time.Now()
	n, err := svc.SyncCNNVD(ctx, start, end, cnnvdPageSize)
	if err != nil {
		log.Error().Err(err).Int("stored", n).Msg("sync failed")
		return
	}
	log.Info().Int("stored", n).Msg("sync complete")
}

func runAttackerKB(ctx context.Context, svc *ingest.Service) {
	log := applog.Named("syncd.attackerkb")
	n, err := svc.SyncAttackerKB(ctx, attackerkbPage)
	if err != nil {
		log.Error().Err(err).Int("stored", n).Msg("sync failed")
		return
	}
	log.Info().Int("stored", n).Msg("sync complete")
}

func runGitTemplates(ctx context.Context, svc *ingest.Service, cfg *appconfig.Config) {
	log := applog.Named("syncd.gittemplates")
	n, err := svc.SyncGitTemplates(ctx, cfg.GitFeed.PathFilter, model.KBSourceGitTemplates)
	if err != nil {
		log.Error().Err(err).Int("stored", n).Msg("sync failed")
		return
	}
	log.Info().Int("stored", n).Msg("sync complete")
}
