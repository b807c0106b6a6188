package slot

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Mirror reads from a primary slot and writes to the primary plus every
// secondary. Writes run concurrently; the first failure is returned after all
// writes have finished.
type Mirror struct {
	primary     Slot
	secondaries []Slot
}

func NewMirror(primary Slot, secondaries ...Slot) *Mirror {
	return &Mirror{primary: primary, secondaries: secondaries}
}

func (m *Mirror) Get(ctx context.Context, key string) ([]byte, error) {
	return m.primary.Get(ctx, key)
}

func (m *Mirror) Put(ctx context.Context, key string, value []byte) error {
	return m.each(ctx, func(ctx context.Context, s Slot) error {
		return s.Put(ctx, key, value)
	})
}

func (m *Mirror) Delete(ctx context.Context, key string) error {
	return m.each(ctx, func(ctx context.Context, s Slot) error {
		return s.Delete(ctx, key)
	})
}

func (m *Mirror) each(ctx context.Context, fn func(context.Context, Slot) error) error {
	var g errgroup.Group
	for i, s := range append([]Slot{m.primary}, m.secondaries...) {
		g.Go(func() error {
			if err := fn(ctx, s); err != nil {
				return fmt.Errorf("mirror %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Mirror) Close() error {
	var errs []error
	for _, s := range append([]Slot{m.primary}, m.secondaries...) {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
