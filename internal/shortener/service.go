package shortener

import (
	"context"
	"errors"
	"fmt"

	"github.com/sundayezeilo/linkshort/codegen"
	"github.com/sundayezeilo/linkshort/internal/errx"
	"github.com/sundayezeilo/linkshort/internal/metrics"
	"github.com/sundayezeilo/linkshort/internal/registry"
)

// Link sources, used as metric labels.
const (
	sourceCustom    = "custom"
	sourceGenerated = "generated"
)

var (
	errURLRequired = errors.New("url is required")
	errCodeInUse   = errors.New("short code already in use")
)

// Service defines the business logic operations for URL shortening.
type Service interface {
	// Shorten binds a short code to req.URL and returns the code.
	Shorten(ctx context.Context, req ShortenRequest) (string, error)
	// List returns every stored link.
	List(ctx context.Context) (registry.Registry, error)
	// Check reports whether the store can be read.
	Check(ctx context.Context) error
}

// service implements the Service interface.
type service struct {
	store     registry.Store
	generator codegen.Generator
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	CodeGenerator codegen.Generator
}

// NewService creates a new service instance.
func NewService(store registry.Store, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	gen := config.CodeGenerator
	if gen == nil {
		gen = codegen.NewHex()
	}

	return &service{
		store:     store,
		generator: gen,
	}
}

// Shorten validates req, picks the code and inserts it. A code that is already
// bound is rejected with errx.Conflict; there is no retry with a fresh code.
func (s *service) Shorten(ctx context.Context, req ShortenRequest) (string, error) {
	const op = "shortener.service.Shorten"

	if req.URL == "" {
		return "", errx.E(op, errx.Invalid, errURLRequired)
	}

	code, source := req.ShortCode, sourceCustom
	if code == "" {
		generated, err := s.generator.Generate()
		if err != nil {
			return "", errx.E(op, errx.Internal, fmt.Errorf("generate short code: %w", err))
		}
		code, source = generated, sourceGenerated
	}

	err := s.store.Update(ctx, func(reg registry.Registry) error {
		if reg.Has(code) {
			return errx.E(op, errx.Conflict, fmt.Errorf("%w: %q", errCodeInUse, code))
		}
		reg[code] = req.URL
		return nil
	})
	if err != nil {
		if errx.Is(err, errx.Conflict) {
			metrics.CodeCollisionsTotal.Inc()
		}
		return "", errx.Wrap(op, err)
	}

	metrics.LinksCreatedTotal.WithLabelValues(source).Inc()
	return code, nil
}

func (s *service) List(ctx context.Context) (registry.Registry, error) {
	const op = "shortener.service.List"

	reg, err := s.store.Load(ctx)
	if err != nil {
		return nil, errx.Wrap(op, err)
	}
	if reg == nil {
		reg = registry.Registry{}
	}
	return reg, nil
}

func (s *service) Check(ctx context.Context) error {
	const op = "shortener.service.Check"

	if _, err := s.store.Load(ctx); err != nil {
		return errx.Wrap(op, err)
	}
	return nil
}
