package game

import (
	"fmt"
	"log"

	"github.com/gonewx/worm/pkg/config"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// 存储路径常量
const (
	tuningObject = "tuning"
	// DefaultPresetName 沙盒 F5/F9 使用的预设名
	DefaultPresetName = "quicksave"
)

// TuningManager 调参预设管理器
// 负责把 WormConfig 以 YAML 形式保存到 gdata，并按名称读回
type TuningManager struct {
	store *objectStore
}

// NewTuningManager 创建调参预设管理器
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存保存）
//
// 返回：
//   - *TuningManager: 预设管理器实例
func NewTuningManager(gdataManager *gdata.Manager) *TuningManager {
	if gdataManager == nil {
		log.Printf("[TuningManager] No storage available, presets are kept in memory only")
	}
	return &TuningManager{store: newObjectStore(gdataManager, tuningObject)}
}

// Save 保存预设
//
// 参数：
//   - name: 预设名（[a-z0-9_-]）
//   - cfg: 要保存的配置（先校验）
//
// 返回：
//   - error: 名称或配置无效、序列化或保存失败时返回错误
func (tm *TuningManager) Save(name string, cfg *config.WormConfig) error {
	if cfg == nil {
		return fmt.Errorf("worm config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save preset %q: %w", name, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}
	if err := tm.store.save(name, data); err != nil {
		return fmt.Errorf("failed to save preset: %w", err)
	}

	log.Printf("[TuningManager] Preset %q saved", name)
	return nil
}

// Load 读取预设
//
// 缺省字段取默认值，读回后重新校验。
//
// 返回：
//   - *config.WormConfig: 预设配置
//   - error: 不存在时返回包装 ErrNotFound 的错误
func (tm *TuningManager) Load(name string) (*config.WormConfig, error) {
	data, err := tm.store.load(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load preset: %w", err)
	}
	cfg, err := config.ParseWormConfig(data)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	log.Printf("[TuningManager] Preset %q loaded", name)
	return cfg, nil
}

// Exists 预设是否存在
func (tm *TuningManager) Exists(name string) bool {
	return tm.store.exists(name)
}

// Names 已保存的预设名（升序）
func (tm *TuningManager) Names() ([]string, error) {
	return tm.store.names()
}
