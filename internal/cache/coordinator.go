package cache

import (
	"context"

	"github.com/inkhub/content-go/internal/logger"
	"github.com/inkhub/content-go/internal/metrics"
	"go.uber.org/zap"
)

// TagStore 标签失效底层原语。协调器只会说"失效标签X，用档位P"，
// 不管理缓存存储本身。
type TagStore interface {
	Invalidate(ctx context.Context, tag string, profile Profile) error
}

// Event 一次需要失效缓存的生命周期事件。
// Slug取事件发生时的路径——删除场景必须在文档消失前捕获。
type Event struct {
	Kind       string
	Slug       string
	Transition Transition
}

// Coordinator 缓存失效协调器。消费声明式失效表，
// 失败只记日志：缓存失效绝不能让触发它的内容写入失败。
type Coordinator struct {
	store    TagStore
	profiles Profiles
	enabled  bool
}

func NewCoordinator(store TagStore, profiles Profiles, enabled bool) *Coordinator {
	return &Coordinator{
		store:    store,
		profiles: profiles,
		enabled:  enabled,
	}
}

// OnTransition 按失效表处理一次生命周期转换。尽力而为，不返回错误。
func (c *Coordinator) OnTransition(ctx context.Context, event Event) {
	if c == nil || !c.enabled || c.store == nil {
		return
	}

	steps, ok := invalidationPlan[event.Transition]
	if !ok {
		return
	}

	for _, s := range steps {
		tag := c.resolveTag(s.surface, event)
		profile := s.profile(&c.profiles)

		if err := c.store.Invalidate(ctx, tag, profile); err != nil {
			metrics.CacheInvalidationFailures.Inc()
			logger.Warn("cache invalidation failed",
				zap.String("tag", tag),
				zap.String("profile", profile.Name),
				zap.Error(err))
			continue
		}

		metrics.CacheInvalidations.WithLabelValues(string(event.Transition)).Inc()
		logger.Debug("cache tag invalidated",
			zap.String("tag", tag),
			zap.String("profile", profile.Name),
			zap.String("transition", string(event.Transition)))
	}
}

func (c *Coordinator) resolveTag(s surface, event Event) string {
	switch s {
	case surfaceItem:
		return ItemTag(event.Kind, event.Slug)
	case surfaceListing:
		return ListingTag(event.Kind)
	case surfaceHomepage:
		return TagHomepage
	case surfaceSitemap:
		return TagSitemap
	case surfaceFeed:
		return TagFeed
	default:
		return ""
	}
}
