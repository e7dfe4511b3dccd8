package config

import (
	"os"
	"path/filepath"
)

const defaultConfigRelPath = "configs/conf.yml"

// Resolve 决定配置文件路径：
// 1) cfgName 非空则使用（相对路径按当前目录解析）；
// 2) 否则从当前目录向上查找 configs/conf.yml。
func Resolve(cfgName string) (string, error) {
	curDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if cfgName != "" {
		if filepath.IsAbs(cfgName) {
			return cfgName, nil
		}
		return filepath.Join(curDir, cfgName), nil
	}
	return findConfigUpward(curDir)
}

func findConfigUpward(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, defaultConfigRelPath)
		if fileExist(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &NotFoundError{From: startDir}
		}
		dir = parent
	}
}

type NotFoundError struct {
	From string
}

func (e *NotFoundError) Error() string {
	return "config file not exist, searched " + defaultConfigRelPath + " from: " + e.From
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
