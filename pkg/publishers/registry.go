package publishers

import (
	"context"
	"fmt"
	"slices"
)

// Builder creates a Publisher from a validated config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps publisher types to builders.
type Registry map[string]Builder

// DefaultRegistry wires up the sinks this module ships.
func DefaultRegistry() Registry {
	return Registry{
		TypeHTTP:   newHTTPPublisher,
		TypeSQS:    newSQSPublisher,
		TypeSNS:    newSNSPublisher,
		TypePubSub: newPubSubPublisher,
	}
}

// Build normalizes and validates cfg before handing it to the builder for
// its type, so builders can rely on their block being present. Entries with
// kinds are wrapped so the fanout only offers them matching records.
func (r Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	build := r[cfg.Type]
	if build == nil {
		return nil, fmt.Errorf("publisher %q: no builder registered for type %q", cfg.ID, cfg.Type)
	}
	pub, err := build(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	if len(cfg.Kinds) > 0 {
		pub = &kindFiltered{Publisher: pub, kinds: cfg.Kinds}
	}
	return pub, nil
}

// BuildAll builds every config, closing what was built if one fails.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			closeAll(pubs)
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// kindFilter is implemented by publishers restricted to some record kinds.
type kindFilter interface {
	Accepts(kind string) bool
}

type kindFiltered struct {
	Publisher
	kinds []string
}

func (k *kindFiltered) Accepts(kind string) bool {
	return slices.Contains(k.kinds, kind)
}

func (k *kindFiltered) Close() error {
	return closeAll([]Publisher{k.Publisher})
}
