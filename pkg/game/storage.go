package game

import (
	"log"

	"github.com/quasilyte/gdata/v2"
)

// StorageAppName 沙盒与命令行工具共用的 gdata 存储目录名
const StorageAppName = "worm_sandbox"

// OpenStorage 打开 gdata 跨平台存储
//
// 打开失败不是致命错误：返回 nil，调参预设和录像退化为仅内存保存。
//
// 参数：
//   - appName: 存储目录名
func OpenStorage(appName string) *gdata.Manager {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[Storage] Warning: failed to open storage %q: %v (memory only)", appName, err)
		return nil
	}
	log.Printf("[Storage] Opened storage %q", appName)
	return manager
}
