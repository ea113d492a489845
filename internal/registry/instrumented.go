package registry

import (
	"context"
	"time"

	"github.com/sundayezeilo/linkshort/internal/errx"
	"github.com/sundayezeilo/linkshort/internal/metrics"
)

type instrumented struct {
	next   Store
	driver string
}

// Instrument wraps next so every operation is timed and failures are counted per kind.
func Instrument(next Store, driver string) Store {
	return &instrumented{next: next, driver: driver}
}

func (s *instrumented) Load(ctx context.Context) (Registry, error) {
	start := time.Now()
	reg, err := s.next.Load(ctx)
	s.observe("load", start, err, func() {
		metrics.RegistrySize.WithLabelValues(s.driver).Set(float64(len(reg)))
	})
	return reg, err
}

func (s *instrumented) Save(ctx context.Context, reg Registry) error {
	start := time.Now()
	err := s.next.Save(ctx, reg)
	s.observe("save", start, err, nil)
	return err
}

func (s *instrumented) Update(ctx context.Context, fn UpdateFunc) error {
	start := time.Now()
	size := -1
	err := s.next.Update(ctx, func(reg Registry) error {
		if err := fn(reg); err != nil {
			return err
		}
		size = len(reg)
		return nil
	})
	s.observe("update", start, err, func() {
		if size >= 0 {
			metrics.RegistrySize.WithLabelValues(s.driver).Set(float64(size))
		}
	})
	return err
}

func (s *instrumented) Close() error { return s.next.Close() }

// observe records duration; onSuccess runs only when err is nil. Rejections from
// the update function (Invalid, Conflict) are not store failures and are not counted.
func (s *instrumented) observe(op string, start time.Time, err error, onSuccess func()) {
	metrics.StoreOperationDuration.WithLabelValues(s.driver, op).Observe(time.Since(start).Seconds())

	switch kind := errx.KindOf(err); {
	case err == nil:
		if onSuccess != nil {
			onSuccess()
		}
	case kind == errx.Invalid || kind == errx.Conflict:
	default:
		metrics.StoreErrorsTotal.WithLabelValues(s.driver, op, kind.String()).Inc()
	}
}
