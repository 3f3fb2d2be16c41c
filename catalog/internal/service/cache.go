package service

import (
	"context"
	"time"

	"github.com/bookhive/catalog-service/catalog/internal/model"
	"github.com/bookhive/catalog-service/pkg/cache"
	"github.com/bookhive/catalog-service/pkg/kafka"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// The cache is a performance optimization, never a correctness dependency:
// every failure below is logged and swallowed, so a broken cache degrades the
// service to plain store reads. The same policy applies to event publishing.

func (s *Service) cacheGet(ctx context.Context, key string, v any) bool {
	err := s.cache.Get(ctx, key, v)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("cache get", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (s *Service) cacheSet(ctx context.Context, key string, v any) {
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		s.log.Warn("cache set", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) cacheDelete(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("cache delete", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *Service) publish(event model.BookEvent) {
	if s.publisher == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if err := s.publisher.Publish(kafka.BookEventsTopic, event); err != nil {
		s.log.Warn("publish event", zap.String("type", event.Type), zap.Error(err))
	}
}
