package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/cyw0ng95/vulnintel/pkg/feed/gittemplates"
	"github.com/cyw0ng95/vulnintel/pkg/ingest/watermark"
	"github.com/cyw0ng95/vulnintel/pkg/model"
)

// SyncGitTemplates pulls the template repository, walks commits under
// pathPrefix since the last watermark, and applies each file's change:
// added/modified files are parsed and upserted as KB entries and attached
// to their CVE if one is already on file, removed files are deleted. A
// single file's parse failure is logged and skipped rather than aborting
// the pass.
func (s *Service) SyncGitTemplates(ctx context.Context, pathPrefix string, source model.KBSource) (int, error) {
	if s.gittemplates == nil {
		return 0, fmt.Errorf("ingest: gittemplates adapter not configured")
	}
	if err := s.gittemplates.Sync(); err != nil {
		return 0, fmt.Errorf("ingest: gittemplates pull: %w", err)
	}

	wm, err := s.watermark.Get(adapterGitTemplates)
	if err != nil {
		return 0, fmt.Errorf("ingest: gittemplates watermark: %w", err)
	}

	changes, err := s.gittemplates.CommitsSince(pathPrefix, wm.Time)
	if err != nil {
		return 0, fmt.Errorf("ingest: gittemplates commits since %s: %w", wm.Time, err)
	}

	applied := 0
	for _, change := range changes {
		switch change.Status {
		case gittemplates.Removed:
			name := gittemplates.NameFromPath(change.Path)
			if name == "" {
				continue
			}
			if err := s.store.KBDelete(ctx, name, source); err != nil {
				log.Warn().Str("path", change.Path).Err(err).Msg("ingest: failed deleting removed template")
				continue
			}
			applied++
		default:
			data, err := s.gittemplates.ReadFile(change.Path)
			if err != nil {
				log.Warn().Str("path", change.Path).Err(err).Msg("ingest: failed reading changed template")
				continue
			}
			tpl, err := gittemplates.ParseTemplate(data)
			if err != nil {
				log.Warn().Str("path", change.Path).Err(err).Msg("ingest: failed parsing changed template")
				continue
			}
			kb := gittemplates.ToKB(tpl, change.Path, source)
			if err := s.store.KBCreateOrUpdate(ctx, kb); err != nil {
				log.Warn().Str("path", change.Path).Err(err).Msg("ingest: failed storing changed template")
				continue
			}
			applied++
			if err := s.attachExistingKB(ctx, kb.Name); err != nil {
				log.Warn().Str("kb", kb.Name).Err(err).Msg("ingest: failed attaching template to cve")
			}
		}
	}

	now := time.Now()
	return applied, s.watermark.Set(adapterGitTemplates, watermark.State{Time: now}, now)
}
