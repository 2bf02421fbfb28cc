package cache

import "fmt"

// surface 缓存分区类别，失效时结合内容类型/路径展开成具体标签
type surface int

const (
	surfaceItem surface = iota
	surfaceListing
	surfaceHomepage
	surfaceSitemap
	surfaceFeed
)

// 固定标签
const (
	TagHomepage = "homepage"
	TagSitemap  = "sitemap"
	TagFeed     = "feed"
)

// ItemTag 单条内容的缓存标签
func ItemTag(kind, slug string) string {
	return fmt.Sprintf("item:%s:%s", kind, slug)
}

// ListingTag 内容类型列表页的缓存标签
func ListingTag(kind string) string {
	return fmt.Sprintf("listing:%s", kind)
}

// step 失效计划中的一项：哪个分区、用哪个档位
type step struct {
	surface surface
	// profile 解析函数，档位窗口来自运行时配置
	profile func(p *Profiles) Profile
}

// Profiles 运行时档位集合
type Profiles struct {
	Edit    Profile
	Removal Profile
}

func immediate(*Profiles) Profile     { return Immediate }
func editProfile(p *Profiles) Profile { return p.Edit }
func removalStep(p *Profiles) Profile { return p.Removal }

// invalidationPlan 声明式失效表：转换类型 -> 分区集合与档位。
// 新发布全量零延迟（内容必须立刻可被发现和分发）；
// 编辑刻意跳过feed/sitemap，避免小改动重建昂贵的派生产物；
// 下线/删除与发布对称但用配置档位，移除不如新增时间敏感。
var invalidationPlan = map[Transition][]step{
	TransitionPublish: {
		{surfaceItem, immediate},
		{surfaceListing, immediate},
		{surfaceHomepage, immediate},
		{surfaceSitemap, immediate},
		{surfaceFeed, immediate},
	},
	TransitionEdit: {
		{surfaceItem, editProfile},
		{surfaceListing, editProfile},
		{surfaceHomepage, editProfile},
	},
	TransitionUnpublish: {
		{surfaceItem, removalStep},
		{surfaceListing, removalStep},
		{surfaceHomepage, removalStep},
		{surfaceSitemap, removalStep},
		{surfaceFeed, removalStep},
	},
	TransitionDelete: {
		{surfaceItem, removalStep},
		{surfaceListing, removalStep},
		{surfaceHomepage, removalStep},
		{surfaceSitemap, removalStep},
		{surfaceFeed, removalStep},
	},
}
