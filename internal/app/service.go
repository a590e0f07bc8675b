// Package app runs the "generate" action: render the editor's layers,
// deliver the image, and record the result.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/mockup"
	"github.com/gogpu/mockup/internal/events"
	"github.com/gogpu/mockup/internal/manifest"
	"github.com/gogpu/mockup/internal/storage"
	"github.com/gogpu/mockup/internal/store"
)

// ErrHistoryDisabled is returned by history reads when no database is
// configured.
var ErrHistoryDisabled = errors.New("app: generation history is not configured")

// Uploader stores an encoded image and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, key string) error
}

// Recorder persists generations.
type Recorder interface {
	Create(ctx context.Context, g *store.Generation) (*store.Generation, error)
	Get(ctx context.Context, userID, id string) (*store.Generation, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]store.Generation, error)
}

// Config wires a Service. Only Options is required; nil collaborators
// disable their step.
type Config struct {
	// Options configure the compositor. Manifest overrides are appended.
	Options []mockup.Option

	Uploader  Uploader
	Recorder  Recorder
	Publisher events.Publisher

	// Exchange receives generation events.
	Exchange string
}

// Service orchestrates generation.
type Service struct {
	compositor *mockup.Compositor
	opts       []mockup.Option
	uploader   Uploader
	recorder   Recorder
	publisher  events.Publisher
	exchange   string
}

// NewService creates a Service.
func NewService(cfg Config) *Service {
	s := &Service{
		compositor: mockup.New(cfg.Options...),
		opts:       cfg.Options,
		uploader:   cfg.Uploader,
		recorder:   cfg.Recorder,
		publisher:  cfg.Publisher,
		exchange:   cfg.Exchange,
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.exchange == "" {
		s.exchange = "mockup_events"
	}
	return s
}

// Output is the outcome of one generation.
type Output struct {
	Generation *store.Generation
	Result     *mockup.Result
}

// Stored reports whether the image was uploaded. When false the caller
// must deliver Result.Data itself.
func (o *Output) Stored() bool {
	return o.Generation.URL != ""
}

// Generate composites m for userID, uploads the image and records it.
// Event publication is best effort; its failure is only logged.
func (s *Service) Generate(ctx context.Context, userID string, m *manifest.Manifest) (*Output, error) {
	start := time.Now()

	layers, err := m.Layers()
	if err != nil {
		return nil, err
	}

	c := s.compositor
	if overrides := m.Options(); len(overrides) > 0 {
		c = mockup.New(append(append([]mockup.Option(nil), s.opts...), overrides...)...)
	}

	res, err := c.Composite(ctx, layers)
	if err != nil {
		return nil, err
	}

	g := &store.Generation{
		ID:         uuid.NewString(),
		UserID:     userID,
		LayerCount: len(layers),
		Format:     res.Format.String(),
		Width:      res.Width,
		Height:     res.Height,
		Bytes:      len(res.Data),
		CreatedAt:  time.Now().UTC(),
	}

	var key string
	if s.uploader != nil {
		key = storage.ObjectKey(userID, g.ID, res.Format)
		url, err := s.uploader.Upload(ctx, key, res.ContentType(), res.Data)
		if err != nil {
			return nil, fmt.Errorf("app: upload: %w", err)
		}
		g.URL = url
	}

	if s.recorder != nil {
		created, err := s.recorder.Create(ctx, g)
		if err != nil {
			// Storage and database share no transaction; drop the object
			// so no unrecorded upload is left behind.
			if key != "" {
				s.discard(ctx, key)
			}
			return nil, fmt.Errorf("app: record: %w", err)
		}
		g = created
	}

	s.publish(ctx, g)

	mockup.Logger().Info("app: generation completed",
		slog.String("generation", g.ID),
		slog.String("user", userID),
		slog.Int("layers", g.LayerCount),
		slog.String("format", g.Format),
		slog.Int("bytes", g.Bytes),
		slog.Duration("elapsed", time.Since(start)))

	return &Output{Generation: g, Result: res}, nil
}

func (s *Service) publish(ctx context.Context, g *store.Generation) {
	event := events.GenerationEvent{
		GenerationID: g.ID,
		UserID:       g.UserID,
		URL:          g.URL,
		Format:       g.Format,
		Width:        g.Width,
		Height:       g.Height,
		Bytes:        g.Bytes,
		LayerCount:   g.LayerCount,
		Timestamp:    g.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, s.exchange, events.GenerationCompleted, event); err != nil {
		mockup.Logger().Warn("app: generation event not published",
			slog.String("generation", g.ID),
			slog.Any("error", err))
	}
}

// Generation returns one generation of userID.
func (s *Service) Generation(ctx context.Context, userID, id string) (*store.Generation, error) {
	if s.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	return s.recorder.Get(ctx, userID, id)
}

// Generations lists the latest generations of userID.
func (s *Service) Generations(ctx context.Context, userID string, limit int) ([]store.Generation, error) {
	if s.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	return s.recorder.ListByUser(ctx, userID, limit)
}

// discard removes an uploaded object after a failed generation. It runs
// even when the request context is already canceled.
func (s *Service) discard(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.uploader.Remove(ctx, key); err != nil {
		mockup.Logger().Warn("app: orphaned upload",
			slog.String("key", key),
			slog.Any("error", err))
	}
}
