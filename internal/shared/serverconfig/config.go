package serverconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sync"

	"Paddlers/internal/shared/config"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var (
	mu   sync.RWMutex
	conf = Defaults()

	// OnReload 在配置文件热更新且校验通过后回调，例如调整日志级别。
	OnReload func(Config)
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Current 返回当前配置的拷贝。
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return conf
}

// Load 读取 .env 与 conf.yml。cfgName 为空时向上查找 configs/conf.yml。
func Load(cfgName string) error {
	// .env 可选，本地开发时放 JWT_SECRET
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	path, err := config.Resolve(cfgName)
	if err != nil {
		return err
	}
	loaded := Defaults()
	err = config.Load(path, &loaded, func(err error) {
		if err == nil {
			err = validate.Struct(loaded)
		}
		if err != nil {
			log.Printf("配置文件变更，解析失败: %v", err)
			return
		}
		log.Println("配置文件变更")
		mu.Lock()
		conf = loaded
		mu.Unlock()
		if OnReload != nil {
			OnReload(loaded)
		}
	})
	if err != nil {
		return err
	}
	if err := validate.Struct(loaded); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	// 环境变量优先；未设置时回填配置中的 jwt_secret
	if os.Getenv("JWT_SECRET") == "" && loaded.JWTSecret != "" {
		_ = os.Setenv("JWT_SECRET", loaded.JWTSecret)
	}
	mu.Lock()
	conf = loaded
	mu.Unlock()
	return nil
}
