package watcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/falcon-incidents/internal/logger"
	"github.com/samvad-hq/falcon-incidents/pkg/feeds"
)

// Service runs a watch pass over every configured feed.
type Service struct {
	processor *FeedProcessor
	log       logger.Logger
}

// NewService wires the watcher. api backs behavior enrichment and tagging;
// when nil, feeds are published without either.
func NewService(reg feeds.FetcherRegistry, api ActionAPI, pub EventPublisher, log logger.Logger, versions VersionStore) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	var (
		enricher Enricher
		tagger   Tagger
	)
	if api != nil {
		enricher = NewBehaviorEnricher(api, log)
		tagger = NewIncidentTagger(api)
	}
	return &Service{
		processor: NewFeedProcessor(reg, enricher, tagger, pub, log, versions),
		log:       log,
	}
}

// Run processes feeds in order and joins their errors.
func (s *Service) Run(ctx context.Context, fs []feeds.Feed) error {
	if s == nil || s.processor == nil || s.processor.registry == nil {
		return fmt.Errorf("watcher service is not initialized")
	}
	if len(fs) == 0 {
		return fmt.Errorf("no feeds configured for watching")
	}
	return errors.Join(s.runAll(ctx, fs)...)
}

func (s *Service) runAll(ctx context.Context, fs []feeds.Feed) []error {
	errs := make([]error, 0, len(fs))
	for _, f := range fs {
		if ctx.Err() != nil {
			break
		}
		if err := s.processor.Process(ctx, f); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("feed watch failed", "feed_error", map[string]any{
				"feed_id": f.ID,
				"error":   err.Error(),
			})
		}
	}
	return errs
}
