package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WatchConfig 监听配置文件变更并热更新可调参数。
// 只有运行时可以安全变更的字段会被更新（推荐条数、重试预算、缓存窗口），
// 连接类配置变更需要重启进程。
func WatchConfig(onChange func(*Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if AppConfig == nil {
			return
		}

		AppConfig.Recommend.TopK = viper.GetInt("recommend.top_k")
		AppConfig.Recommend.MaxRetries = viper.GetInt("recommend.max_retries")
		AppConfig.Recommend.CandidateLimit = viper.GetInt("recommend.candidate_limit")
		AppConfig.Embedding.MaxRetries = viper.GetInt("embedding.max_retries")
		AppConfig.Cache.EditWindowSec = viper.GetInt("cache.edit_window_sec")
		AppConfig.Cache.RemovalWindowSec = viper.GetInt("cache.removal_window_sec")

		if onChange != nil {
			onChange(AppConfig)
		}
	})
	viper.WatchConfig()
}
