package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/cyw0ng95/vulnintel/pkg/feed/attackerkb"
	"github.com/cyw0ng95/vulnintel/pkg/ingest/watermark"
)

// SyncAttackerKB walks AttackerKB's cursor-paginated topic feed since the
// last watermark, ingesting every analyzed, CVE-named topic as a KB entry
// and attaching it to the matching CVE when one is already on file. The
// cursor is persisted after every page so a crash mid-run resumes close to
// where it left off rather than re-walking the whole feed.
func (s *Service) SyncAttackerKB(ctx context.Context, pageSize int) (int, error) {
	if s.attackerkb == nil {
		return 0, fmt.Errorf("ingest: attackerkb adapter not configured")
	}
	wm, err := s.watermark.Get(adapterAttackerKB)
	if err != nil {
		return 0, fmt.Errorf("ingest: attackerkb watermark: %w", err)
	}

	ingested := 0
	var resp *attackerkb.ListResponse
	if wm.Cursor != "" {
		// Resume a pass that stopped part-way through the feed.
		resp, err = s.attackerkb.FetchNext(wm.Cursor)
	} else {
		resp, err = s.attackerkb.FetchTopics(wm.Time, 1, pageSize)
	}
	if err != nil {
		return 0, fmt.Errorf("ingest: attackerkb fetch topics: %w", err)
	}

	now := time.Now()
	for {
		for _, topic := range resp.Data {
			kb, ok := attackerkb.ToKB(topic)
			if !ok {
				continue
			}
			if err := s.store.KBCreateOrUpdate(ctx, kb); err != nil {
				log.Warn().Str("kb", kb.Name).Err(err).Msg("ingest: skipping attackerkb entry after store failure")
				continue
			}
			ingested++
			if err := s.attachExistingKB(ctx, kb.Name); err != nil {
				log.Warn().Str("kb", kb.Name).Err(err).Msg("ingest: failed attaching attackerkb entry to cve")
			}
		}
		if resp.Links.Next == "" {
			break
		}
		if err := s.watermark.Set(adapterAttackerKB, watermark.State{Time: wm.Time, Cursor: resp.Links.Next}, now); err != nil {
			return ingested, err
		}
		next, err := s.attackerkb.FetchNext(resp.Links.Next)
		if err != nil {
			return ingested, fmt.Errorf("ingest: attackerkb fetch next page: %w", err)
		}
		resp = next
	}

	return ingested, s.watermark.Set(adapterAttackerKB, watermark.State{Time: now}, now)
}
