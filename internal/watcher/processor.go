package watcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/falcon-incidents/internal/domain"
	"github.com/samvad-hq/falcon-incidents/internal/logger"
	"github.com/samvad-hq/falcon-incidents/internal/storage"
	"github.com/samvad-hq/falcon-incidents/pkg/feeds"
	"github.com/samvad-hq/falcon-incidents/pkg/publishers"
)

// FeedProcessor runs one feed end to end: fetch, diff against stored
// versions, enrich, publish, tag.
type FeedProcessor struct {
	registry  feeds.FetcherRegistry
	enricher  Enricher
	tagger    Tagger
	publisher EventPublisher
	log       logger.Logger
	versions  VersionStore
}

// change is a record that differs from what was last published.
type change struct {
	rec     domain.Record
	version string
	kind    string
}

// NewFeedProcessor wires a processor. enricher, tagger and versions may be nil;
// without a version store every fetched record is published.
func NewFeedProcessor(reg feeds.FetcherRegistry, enricher Enricher, tagger Tagger, pub EventPublisher, log logger.Logger, versions VersionStore) *FeedProcessor {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &FeedProcessor{
		registry:  reg,
		enricher:  enricher,
		tagger:    tagger,
		publisher: pub,
		log:       log,
		versions:  versions,
	}
}

// Process handles a single feed pass.
func (p *FeedProcessor) Process(ctx context.Context, f feeds.Feed) error {
	if p.publisher == nil {
		return fmt.Errorf("feed %s: no publisher configured", f.ID)
	}

	fetcher, err := p.registry.FetcherFor(f)
	if err != nil {
		return fmt.Errorf("resolve fetcher for feed %s: %w", f.ID, err)
	}

	records, err := fetcher.Fetch(ctx, f)
	if err != nil {
		return fmt.Errorf("fetch feed %s: %w", f.ID, err)
	}

	changes := p.diff(f, records)
	if len(changes) == 0 {
		p.log.DebugObj("feed has no changed records", "feed_result", map[string]any{
			"feed_id": f.ID,
			"fetched": len(records),
		})
		return nil
	}

	if f.Enrich && p.enricher != nil {
		recs := make([]domain.Record, len(changes))
		for i, c := range changes {
			recs[i] = c.rec
		}
		recs = p.enricher.Enrich(ctx, f, recs)
		for i := range recs {
			changes[i].rec = recs[i]
		}
	}

	var (
		errs      []error
		published []string
		updated   int
	)
	for _, c := range changes {
		evt := publishers.NewEvent(c.rec)
		evt.Change = c.kind
		evt.Version = c.version

		n, err := p.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish record %s: %w", c.rec.ID, err))
			if n == 0 {
				continue
			}
		}
		published = append(published, c.rec.ID)
		if c.kind == publishers.ChangeUpdated {
			updated++
		}
		p.remember(f, c)
	}

	if f.Tag != "" && p.tagger != nil && len(published) > 0 {
		if err := p.tagger.Tag(ctx, f, published); err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", f.ID, err))
		}
	}

	p.log.InfoObj("feed processed", "feed_result", map[string]any{
		"feed_id":   f.ID,
		"fetched":   len(records),
		"changed":   len(changes),
		"updated":   updated,
		"published": len(published),
	})
	return errors.Join(errs...)
}

// diff keeps records whose version differs from the stored one. Lookup errors
// keep the record as new.
func (p *FeedProcessor) diff(f feeds.Feed, records []domain.Record) []change {
	out := make([]change, 0, len(records))
	for _, rec := range records {
		c := change{rec: rec, version: rec.Version(), kind: publishers.ChangeNew}
		if p.versions == nil {
			out = append(out, c)
			continue
		}

		stored, found, err := p.versions.Version(storage.RecordKey(f.ID, rec.ID))
		switch {
		case err != nil:
			p.log.WarnObj("version lookup failed", "versions_error", map[string]any{
				"feed_id":   f.ID,
				"record_id": rec.ID,
				"error":     err.Error(),
			})
		case !found:
		case stored == c.version:
			continue
		default:
			c.kind = publishers.ChangeUpdated
		}
		out = append(out, c)
	}
	return out
}

func (p *FeedProcessor) remember(f feeds.Feed, c change) {
	if p.versions == nil {
		return
	}
	if err := p.versions.Put(storage.RecordKey(f.ID, c.rec.ID), c.version); err != nil {
		p.log.WarnObj("store version failed", "versions_error", map[string]any{
			"feed_id":   f.ID,
			"record_id": c.rec.ID,
			"error":     err.Error(),
		})
	}
}
