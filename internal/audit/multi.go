package audit

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// MultiSink fans each record out to every sink concurrently. Every sink is
// attempted even when another fails; the first error is returned.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Write(ctx context.Context, rec Record) error {
	var g errgroup.Group
	for _, s := range m.sinks {
		g.Go(func() error {
			return s.Write(ctx, rec)
		})
	}
	return g.Wait()
}

func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
