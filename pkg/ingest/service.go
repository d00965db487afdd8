// Package ingest is the per-CVE idempotent pipeline that turns a fetched
// feed record into persisted rows: normalize, score, derive the affected
// vendor/product set, upsert, and reconcile edge tables. It also drives the
// translation, exploit/PoC, and template sync loops that enrich CVEs
// already on file, each isolated so one adapter's failure can't take down
// the others.
package ingest

import (
	"context"
	"fmt"
	"time"

	gotaskflow "github.com/noneback/go-taskflow"

	"github.com/cyw0ng95/vulnintel/pkg/applog"
	"github.com/cyw0ng95/vulnintel/pkg/configtree"
	"github.com/cyw0ng95/vulnintel/pkg/feed/attackerkb"
	"github.com/cyw0ng95/vulnintel/pkg/feed/cnnvd"
	"github.com/cyw0ng95/vulnintel/pkg/feed/gittemplates"
	"github.com/cyw0ng95/vulnintel/pkg/feed/nvd"
	"github.com/cyw0ng95/vulnintel/pkg/ingest/watermark"
	"github.com/cyw0ng95/vulnintel/pkg/model"
	"github.com/cyw0ng95/vulnintel/pkg/store"
)

var log = applog.Named("ingest")

const (
	adapterNVD          = "nvd"
	adapterCNNVD        = "cnnvd"
	adapterAttackerKB   = "attackerkb"
	adapterGitTemplates = "gittemplates"
)

// Service wires the store and every feed adapter into one ingestion
// surface. Any adapter field left nil has its corresponding Sync* method
// become a no-op error, so a deployment only needs to configure the feeds
// it actually wants.
type Service struct {
	store        *store.Store
	watermark    *watermark.Store
	nvd          *nvd.Fetcher
	cnnvd        *cnnvd.Fetcher
	attackerkb   *attackerkb.Fetcher
	gittemplates *gittemplates.Client
	executor     gotaskflow.Executor
}

// Option configures optional adapters on a Service.
type Option func(*Service)

func WithNVD(f *nvd.Fetcher) Option                  { return func(s *Service) { s.nvd = f } }
func WithCNNVD(f *cnnvd.Fetcher) Option              { return func(s *Service) { s.cnnvd = f } }
func WithAttackerKB(f *attackerkb.Fetcher) Option    { return func(s *Service) { s.attackerkb = f } }
func WithGitTemplates(c *gittemplates.Client) Option { return func(s *Service) { s.gittemplates = c } }

// New builds a Service over st and wm with the given adapters and DAG
// concurrency.
func New(st *store.Store, wm *watermark.Store, concurrency uint, opts ...Option) *Service {
	s := &Service{store: st, watermark: wm, executor: gotaskflow.NewExecutor(concurrency)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestArchive runs the per-CVE pipeline over every item in a previously
// downloaded NVD JSON archive, for the one-shot bulk-load path.
func (s *Service) IngestArchive(ctx context.Context, path string) (int, error) {
	resp, err := nvd.FetchArchive(path)
	if err != nil {
		return 0, fmt.Errorf("ingest: fetch archive: %w", err)
	}
	return s.processBatch(ctx, resp)
}

// SyncNVD fetches every CVE modified within [start, end] in pages and runs
// each through the per-CVE pipeline, advancing the watermark to end only
// once the whole window has been processed. A single CVE's persistence
// failure is logged and skipped; a fetch failure aborts the remainder of
// this pass without touching the watermark, so the next run retries the
// same window.
func (s *Service) SyncNVD(ctx context.Context, start, end time.Time, resultsPerPage int) (int, error) {
	if s.nvd == nil {
		return 0, fmt.Errorf("ingest: nvd adapter not configured")
	}
	total := 0
	startIndex := 0
	for {
		resp, err := s.nvd.FetchModifiedSince(start, end, startIndex, resultsPerPage)
		if err != nil {
			return total, fmt.Errorf("ingest: nvd fetch at index %d: %w", startIndex, err)
		}
		n, err := s.processBatch(ctx, resp)
		total += n
		if err != nil {
			return total, err
		}
		startIndex += len(resp.Vulnerabilities)
		if startIndex >= resp.TotalResults || len(resp.Vulnerabilities) == 0 {
			break
		}
	}
	return total, s.watermark.Set(adapterNVD, watermark.State{Time: end}, end)
}

func (s *Service) processBatch(ctx context.Context, resp *nvd.CVEResponse) (int, error) {
	stored := 0
	for _, v := range resp.Vulnerabilities {
		if err := s.processCVE(ctx, v.CVE); err != nil {
			log.Warn().Str("cve", v.CVE.ID).Err(err).Msg("ingest: skipping CVE after pipeline failure")
			continue
		}
		stored++
	}
	return stored, nil
}

// processCVE runs one CVE through a small Taskflow DAG: convert+score,
// then persist+reconcile edges, then attach any KB entries already on file
// under this CVE's ID. Each stage depends on the previous one completing.
func (s *Service) processCVE(ctx context.Context, item nvd.CVEItem) error {
	var cve model.CVE
	var vendorProducts []configtree.VendorProduct
	var convertErr error

	tf := gotaskflow.NewTaskFlow("cve-" + item.ID)

	convertTask := tf.NewTask("convert", func() {
		c, err := nvd.ToModelCVE(item)
		if err != nil {
			convertErr = err
			return
		}
		cve = c
		vendorProducts = configtree.VendorProductSet(buildForest(item.Configurations))
	})

	var persistErr error
	persistTask := tf.NewTask("persist", func() {
		if convertErr != nil {
			persistErr = convertErr
			return
		}
		persistErr = s.persistCVE(ctx, cve, vendorProducts)
	})

	var attachErr error
	attachTask := tf.NewTask("attach-kb", func() {
		if persistErr != nil {
			attachErr = persistErr
			return
		}
		attachErr = s.attachExistingKB(ctx, item.ID)
	})

	convertTask.Precede(persistTask)
	persistTask.Precede(attachTask)

	s.executor.Run(tf).Wait()

	if attachErr != nil {
		return attachErr
	}
	return nil
}

func (s *Service) persistCVE(ctx context.Context, cve model.CVE, vendorProducts []configtree.VendorProduct) error {
	if err := s.store.CVECreateOrUpdate(ctx, cve); err != nil {
		return fmt.Errorf("persist cve: %w", err)
	}

	stored, _, err := s.store.CVEQuery(ctx, store.CVEFilter{CVEID: cve.CVEID, PageSize: 1})
	if err != nil || len(stored) == 0 {
		return fmt.Errorf("persist cve: re-read after upsert: %w", err)
	}
	cveID := stored[0].ID

	productIDs := make([]model.UUID, 0, len(vendorProducts))
	for _, vp := range vendorProducts {
		vendor, err := s.store.VendorQueryOrCreate(ctx, vp.Vendor)
		if err != nil {
			return fmt.Errorf("persist cve: vendor %q: %w", vp.Vendor, err)
		}
		product, err := s.store.ProductQueryOrCreate(ctx, vendor.ID, vp.Product, vp.Part)
		if err != nil {
			return fmt.Errorf("persist cve: product %q: %w", vp.Product, err)
		}
		productIDs = append(productIDs, product.ID)
	}

	return s.store.EdgeCVEProductReplace(ctx, cveID, productIDs)
}

// attachExistingKB links any KB entries whose name already equals this
// CVE's ID, covering the case where a KB adapter ran before the CVE itself
// was ever ingested.
func (s *Service) attachExistingKB(ctx context.Context, cveIDStr string) error {
	cves, _, err := s.store.CVEQuery(ctx, store.CVEFilter{CVEID: cveIDStr, PageSize: 1})
	if err != nil || len(cves) == 0 {
		return nil
	}
	kbs, err := s.store.KBFindByName(ctx, cveIDStr)
	if err != nil {
		return fmt.Errorf("attach kb: lookup %q: %w", cveIDStr, err)
	}
	for _, kb := range kbs {
		if err := s.store.EdgeCVEKBInsert(ctx, cves[0].ID, kb.ID); err != nil {
			return fmt.Errorf("attach kb: insert edge %q: %w", cveIDStr, err)
		}
	}
	return nil
}
