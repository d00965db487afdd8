package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/cyw0ng95/vulnintel/pkg/feed/cnnvd"
	"github.com/cyw0ng95/vulnintel/pkg/ingest/watermark"
)

// SyncCNNVD walks the CNNVD list pages for [start, end), fetches each
// record's detail, and merges the translated description into any CVE
// already on file. A record whose detail can't be fetched or parsed is
// logged and skipped; the whole pass aborts only on a list-page fetch
// failure, consistent with the per-adapter failure isolation policy.
func (s *Service) SyncCNNVD(ctx context.Context, start, end time.Time, pageSize int) (int, error) {
	if s.cnnvd == nil {
		return 0, fmt.Errorf("ingest: cnnvd adapter not configured")
	}
	translated := 0
	pageIndex := 1
	for {
		list, err := s.cnnvd.FetchByDateRange(start, end, pageIndex, pageSize)
		if err != nil {
			return translated, fmt.Errorf("ingest: cnnvd list page %d: %w", pageIndex, err)
		}
		if len(list.Records) == 0 {
			break
		}
		for _, rec := range list.Records {
			cveID := cnnvd.RecordCVEID(rec)
			if cveID == "" {
				continue
			}
			detail, err := s.cnnvd.FetchDetail(rec.CnnvdCode)
			if err != nil {
				log.Warn().Str("cnnvd_code", rec.CnnvdCode).Err(err).Msg("ingest: skipping cnnvd record after detail fetch failure")
				continue
			}
			id, description, ok := cnnvd.TranslatedDescription(*detail)
			if !ok {
				continue
			}
			if err := s.store.CVEUpdateTranslated(ctx, id, "zh", description); err != nil {
				log.Warn().Str("cve", id).Err(err).Msg("ingest: skipping cnnvd translation merge failure")
				continue
			}
			translated++
		}
		if pageIndex*pageSize >= list.Total {
			break
		}
		pageIndex++
	}
	return translated, s.watermark.Set(adapterCNNVD, watermark.State{Time: end}, end)
}
