package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// Fanout delivers each event to every publisher that accepts its kind.
type Fanout struct {
	publishers []Publisher
}

// NewFanout drops nil entries and keeps the rest in order.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			cp = append(cp, p)
		}
	}
	return &Fanout{publishers: cp}
}

// Publish sends evt to the matching publishers concurrently and returns how
// many accepted it. A sink failure never cancels the others; every failure
// is joined into the returned error.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	targets := f.targets(evt.Kind)
	if len(targets) == 0 {
		return 0, nil
	}

	errs := make([]error, len(targets))
	var g errgroup.Group
	for i, p := range targets {
		g.Go(func() error {
			if err := p.Publish(ctx, evt); err != nil {
				errs[i] = fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	delivered := 0
	for _, err := range errs {
		if err == nil {
			delivered++
		}
	}
	return delivered, errors.Join(errs...)
}

func (f *Fanout) targets(kind string) []Publisher {
	if f == nil {
		return nil
	}
	out := make([]Publisher, 0, len(f.publishers))
	for _, p := range f.publishers {
		if kf, ok := p.(kindFilter); ok && !kf.Accepts(kind) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Size returns the number of configured publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases publishers that hold client resources.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.publishers)
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
