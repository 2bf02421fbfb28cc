package content

import (
	"github.com/inkhub/content-go/internal/cache"
	"github.com/inkhub/content-go/internal/models"
)

// detectTransition 判断一次写入造成的生命周期转换。
// prev为nil表示创建。返回false表示没有需要缓存协调的转换。
func detectTransition(prev *models.ContentItem, newStatus string) (cache.Transition, bool) {
	wasPublished := prev != nil && prev.Status == models.ContentStatusPublished
	isPublished := newStatus == models.ContentStatusPublished

	switch {
	case !wasPublished && isPublished:
		return cache.TransitionPublish, true
	case wasPublished && isPublished:
		return cache.TransitionEdit, true
	case wasPublished && !isPublished:
		return cache.TransitionUnpublish, true
	default:
		// draft间的变化不触达任何缓存面
		return "", false
	}
}
