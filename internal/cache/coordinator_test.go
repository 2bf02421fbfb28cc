package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingStore 记录失效调用的桩
type recordingStore struct {
	calls []invalidation
	err   error
}

type invalidation struct {
	tag     string
	profile Profile
}

func (r *recordingStore) Invalidate(ctx context.Context, tag string, profile Profile) error {
	r.calls = append(r.calls, invalidation{tag: tag, profile: profile})
	return r.err
}

func (r *recordingStore) tags() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.tag)
	}
	return out
}

func testProfiles() Profiles {
	return Profiles{
		Edit:    EditProfile(10 * time.Minute),
		Removal: RemovalProfile(time.Minute),
	}
}

// TestCoordinator_Publish 新发布全量零延迟失效
func TestCoordinator_Publish(t *testing.T) {
	store := &recordingStore{}
	c := NewCoordinator(store, testProfiles(), true)

	c.OnTransition(context.Background(), Event{
		Kind:       "post",
		Slug:       "hello-world",
		Transition: TransitionPublish,
	})

	assert.Equal(t, []string{
		"item:post:hello-world",
		"listing:post",
		TagHomepage,
		TagSitemap,
		TagFeed,
	}, store.tags())

	for _, call := range store.calls {
		assert.Equal(t, time.Duration(0), call.profile.Window, "发布必须立即失效: %s", call.tag)
	}
}

// TestCoordinator_Edit 编辑不碰feed和sitemap，用编辑档位
func TestCoordinator_Edit(t *testing.T) {
	store := &recordingStore{}
	c := NewCoordinator(store, testProfiles(), true)

	c.OnTransition(context.Background(), Event{
		Kind:       "post",
		Slug:       "hello-world",
		Transition: TransitionEdit,
	})

	tags := store.tags()
	assert.Equal(t, []string{"item:post:hello-world", "listing:post", TagHomepage}, tags)
	assert.NotContains(t, tags, TagFeed)
	assert.NotContains(t, tags, TagSitemap)

	for _, call := range store.calls {
		assert.Equal(t, 10*time.Minute, call.profile.Window)
	}
}

// TestCoordinator_UnpublishAndDelete 下线与删除全量失效，用移除档位
func TestCoordinator_UnpublishAndDelete(t *testing.T) {
	for _, transition := range []Transition{TransitionUnpublish, TransitionDelete} {
		store := &recordingStore{}
		c := NewCoordinator(store, testProfiles(), true)

		c.OnTransition(context.Background(), Event{
			Kind:       "project",
			Slug:       "old-project",
			Transition: transition,
		})

		assert.Len(t, store.calls, 5, "transition %s", transition)
		assert.Contains(t, store.tags(), "item:project:old-project")
		assert.Contains(t, store.tags(), TagFeed)
		for _, call := range store.calls {
			assert.Equal(t, time.Minute, call.profile.Window)
		}
	}
}

// TestCoordinator_FailureSwallowed 失效失败不得向上传播，剩余步骤继续
func TestCoordinator_FailureSwallowed(t *testing.T) {
	store := &recordingStore{err: errors.New("redis down")}
	c := NewCoordinator(store, testProfiles(), true)

	assert.NotPanics(t, func() {
		c.OnTransition(context.Background(), Event{
			Kind:       "post",
			Slug:       "x",
			Transition: TransitionPublish,
		})
	})
	assert.Len(t, store.calls, 5, "单步失败后其余标签照常处理")
}

// TestCoordinator_Disabled 禁用或缺少存储时为空操作
func TestCoordinator_Disabled(t *testing.T) {
	store := &recordingStore{}
	c := NewCoordinator(store, testProfiles(), false)
	c.OnTransition(context.Background(), Event{Kind: "post", Slug: "x", Transition: TransitionPublish})
	assert.Empty(t, store.calls)

	c = NewCoordinator(nil, testProfiles(), true)
	assert.NotPanics(t, func() {
		c.OnTransition(context.Background(), Event{Kind: "post", Slug: "x", Transition: TransitionPublish})
	})

	var nilCoordinator *Coordinator
	assert.NotPanics(t, func() {
		nilCoordinator.OnTransition(context.Background(), Event{Transition: TransitionPublish})
	})
}

func TestTags(t *testing.T) {
	assert.Equal(t, "item:post:my-slug", ItemTag("post", "my-slug"))
	assert.Equal(t, "listing:page", ListingTag("page"))
}
