// Package cache 实现按标签的缓存失效协调。
// 新增内容激进失效，小幅编辑温和失效，是这个组件的核心取舍。
package cache

import "time"

// Profile 失效档位。Window为0表示立即失效（删除），
// 否则按stale-while-revalidate语义在窗口内允许旧值继续服务。
type Profile struct {
	Name   string
	Window time.Duration
}

// Immediate 零延迟档位，用于新发布必须立刻可见的场景
var Immediate = Profile{Name: "immediate", Window: 0}

// EditProfile 编辑场景档位
func EditProfile(window time.Duration) Profile {
	return Profile{Name: "edit", Window: window}
}

// RemovalProfile 下线/删除场景档位。移除没有新增那么紧迫。
func RemovalProfile(window time.Duration) Profile {
	return Profile{Name: "removal", Window: window}
}

// Transition 内容生命周期转换类型
type Transition string

const (
	// TransitionPublish 首次发布
	TransitionPublish Transition = "publish"
	// TransitionEdit 已发布内容的编辑
	TransitionEdit Transition = "edit"
	// TransitionUnpublish 取消发布
	TransitionUnpublish Transition = "unpublish"
	// TransitionDelete 删除（失效目标取删除前的路径）
	TransitionDelete Transition = "delete"
)
