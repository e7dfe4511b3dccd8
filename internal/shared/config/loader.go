package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load 读取 configPath 解码到 out。onChange 非空时开启热更新，
// 文件变化后重新解码并回调；解码失败时保留旧值并把错误交给回调。
func Load(configPath string, out any, onChange func(error)) error {
	if !fileExist(configPath) {
		return fmt.Errorf("config file not exist, configPath=%v", configPath)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", configPath, err)
	}
	if err := v.Unmarshal(out, viper.DecodeHook(decodeHook())); err != nil {
		return fmt.Errorf("unmarshal config %s: %w", configPath, err)
	}

	if onChange != nil {
		v.OnConfigChange(func(e fsnotify.Event) {
			onChange(v.Unmarshal(out, viper.DecodeHook(decodeHook())))
		})
		v.WatchConfig()
	}
	return nil
}

// decodeHook 支持 "100ms"/"5s" 这样的时长写法和逗号分隔的列表。
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}
