// Package captcha generates text and arithmetic challenges, renders them
// as noisy PNG images and validates single-use answers kept in a
// caller-supplied session store.
package captcha

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service ties a Generator and a Renderer to one set of options.
type Service struct {
	opts     Options
	gen      *Generator
	renderer *Renderer
	log      *zap.Logger
}

// New validates opts up front so configuration errors surface at
// startup rather than on the first request.
func New(opts Options, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	fonts := NewFontLoader(log)
	if _, err := fonts.Load(opts.Font); err != nil {
		return nil, err
	}
	return &Service{
		opts:     opts,
		gen:      NewGenerator(),
		renderer: NewRenderer(fonts),
		log:      log,
	}, nil
}

// NewWith assembles a Service from explicit parts.
func NewWith(opts Options, gen *Generator, renderer *Renderer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{opts: opts.WithDefaults(), gen: gen, renderer: renderer, log: log}
}

// Options returns the options the service was built with.
func (s *Service) Options() Options { return s.opts }

// Generate issues a new challenge and renders it without touching any
// session. Callers that manage storage themselves use this.
func (s *Service) Generate() (Challenge, *Image, error) {
	ch, err := s.gen.Generate(s.opts)
	if err != nil {
		return Challenge{}, nil, err
	}
	img, err := s.renderer.Render(ch.Display, s.opts)
	if err != nil {
		return Challenge{}, nil, err
	}
	return ch, img, nil
}

// IssueImage generates a challenge, stores its secret in store under
// SessionKey (replacing any outstanding one) and returns the image.
func (s *Service) IssueImage(ctx context.Context, store SessionStore) (*Image, error) {
	ch, img, err := s.Generate()
	if err != nil {
		s.log.Error("captcha generation failed", zap.Error(err))
		return nil, err
	}
	if err := store.Put(ctx, SessionKey, ch.Secret); err != nil {
		return nil, fmt.Errorf("captcha: write session: %w", err)
	}
	s.log.Debug("captcha issued", zap.String("type", string(s.opts.Type)), zap.Int("bytes", len(img.Bytes)))
	return img, nil
}

// Issue is IssueImage returning a base64 data URI.
func (s *Service) Issue(ctx context.Context, store SessionStore) (string, error) {
	img, err := s.IssueImage(ctx, store)
	if err != nil {
		return "", err
	}
	return img.DataURI(), nil
}

// Validate consumes the outstanding challenge in store.
func (s *Service) Validate(ctx context.Context, submitted string, store SessionStore) error {
	err := Validate(ctx, submitted, store)
	if err != nil && !IsValidationError(err) {
		s.log.Error("captcha validation failed", zap.Error(err))
	}
	return err
}
