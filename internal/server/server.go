package server

import (
	"context"
	"log/slog"

	"github.com/groblegark/krecords/internal/attrs"
	"github.com/groblegark/krecords/internal/events"
	"github.com/groblegark/krecords/internal/prefs"
	"github.com/groblegark/krecords/internal/resolve"
	"github.com/groblegark/krecords/internal/schema"
	"github.com/groblegark/krecords/internal/store"
)

// RecordsServer wires the engine components behind the HTTP API.
type RecordsServer struct {
	store     store.Store
	registry  *schema.Registry
	attrs     *attrs.Service
	resolver  *resolve.Resolver
	prefs     *prefs.StoreProvider
	publisher events.Publisher
	logger    *slog.Logger
}

// NewRecordsServer returns a server backed by the given store and publisher.
func NewRecordsServer(s store.Store, publisher events.Publisher, logger *slog.Logger) *RecordsServer {
	if logger == nil {
		logger = slog.Default()
	}
	registry := schema.New(s, logger)
	preferences := prefs.New(s)
	return &RecordsServer{
		store:     s,
		registry:  registry,
		attrs:     attrs.New(s, registry, logger),
		resolver:  resolve.New(s, registry, preferences, logger),
		prefs:     preferences,
		publisher: publisher,
		logger:    logger,
	}
}

// publish emits an event best-effort; failures are logged, never surfaced.
func (s *RecordsServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}
