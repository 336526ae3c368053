// Package embedded 提供嵌入默认数据文件的统一访问接口
//
// 由于 Go embed 指令只能嵌入当前包目录及其子目录的文件，
// embed.FS 变量必须声明在项目根目录（embed.go）。
// 本包提供包装函数，让 config 等包可以在磁盘文件缺失时读取内置的默认配置。
//
// 磁盘上的同名文件总是优先，方便直接编辑 data/*.yaml 调参。
// 未调用 Init() 时（cmd 下的工具、测试）只读磁盘。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	dataFS      fs.FS
	initialized bool
)

// Init 注册内置数据文件系统
// 必须在 main() 开始时、任何配置加载之前调用
func Init(data fs.FS) {
	dataFS = data
	initialized = true
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	return initialized
}

// normalize 标准化路径分隔符为正斜杠（embed.FS 使用正斜杠）并移除 "./" 前缀
func normalize(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(path), "./")
}

// ReadFile 读取数据文件
//
// 先读磁盘；磁盘上不存在且路径以 "data/" 开头时读取内置副本。
//
// 返回：
//   - []byte: 文件内容
//   - error: 两处都不存在时返回包装 fs.ErrNotExist 的错误
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return data, err
	}

	name := normalize(path)
	if !initialized || !strings.HasPrefix(name, "data/") {
		return nil, err
	}
	data, embErr := fs.ReadFile(dataFS, name)
	if embErr != nil {
		return nil, fmt.Errorf("%s not found on disk or embedded: %w", path, fs.ErrNotExist)
	}
	return data, nil
}

// Exists 检查文件是否存在（磁盘或内置）
func Exists(path string) bool {
	if _, err := os.Stat(path); err == nil {
		return true
	}
	if !initialized {
		return false
	}
	_, err := fs.Stat(dataFS, normalize(path))
	return err == nil
}
