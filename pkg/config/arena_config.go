package config

import (
	"fmt"

	"github.com/gonewx/worm/pkg/embedded"
	"gopkg.in/yaml.v3"
)

// 沙盒运行常量
const (
	// GameWindowWidth 逻辑屏幕宽度
	GameWindowWidth = 960
	// GameWindowHeight 逻辑屏幕高度
	GameWindowHeight = 540

	// TicksPerSecond 固定步长频率
	TicksPerSecond = 60
	// FixedTimestep 固定步长（秒）
	FixedTimestep = 1.0 / TicksPerSecond

	// PhysicsIterations chipmunk 求解迭代次数
	PhysicsIterations = 20
)

// ArenaConfig 沙盒场地配置
//
// 只描述沙盒需要的静态几何：一条地面和若干矩形平台。
// 世界坐标 y 轴向上。
//
// 配置文件位置: data/arena.yaml
type ArenaConfig struct {
	GroundY   float64        `yaml:"groundY"`
	MinX      float64        `yaml:"minX"`
	MaxX      float64        `yaml:"maxX"`
	Friction  float64        `yaml:"friction"`
	Gravity   float64        `yaml:"gravity"` // 向下的重力加速度（正值）
	SpawnX    float64        `yaml:"spawnX"`
	SpawnY    float64        `yaml:"spawnY"` // 头部出生高度（身体向 -X 平躺展开）
	Platforms []PlatformRect `yaml:"platforms"`
}

// PlatformRect 矩形平台
type PlatformRect struct {
	MinX float64 `yaml:"minX"`
	MinY float64 `yaml:"minY"`
	MaxX float64 `yaml:"maxX"`
	MaxY float64 `yaml:"maxY"`
}

// DefaultArenaConfig 返回默认场地
func DefaultArenaConfig() *ArenaConfig {
	return &ArenaConfig{
		GroundY:  0,
		MinX:     -2000,
		MaxX:     2000,
		Friction: 1.0,
		Gravity:  600,
		SpawnX:   0,
		SpawnY:   40,
		Platforms: []PlatformRect{
			{MinX: 250, MinY: 0, MaxX: 450, MaxY: 60},
			{MinX: -600, MinY: 80, MaxX: -380, MaxY: 110},
		},
	}
}

// LoadArenaConfig 加载场地配置
func LoadArenaConfig(path string) (*ArenaConfig, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read arena config: %w", err)
	}

	cfg := DefaultArenaConfig()
	cfg.Platforms = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse arena config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid arena config: %w", err)
	}
	return cfg, nil
}

// Validate 验证场地配置
func (c *ArenaConfig) Validate() error {
	if c.MinX >= c.MaxX {
		return fmt.Errorf("arena minX(%.1f) >= maxX(%.1f)", c.MinX, c.MaxX)
	}
	if c.Gravity < 0 {
		return fmt.Errorf("arena gravity must be >= 0, got %.1f", c.Gravity)
	}
	for i, p := range c.Platforms {
		if p.MinX >= p.MaxX || p.MinY >= p.MaxY {
			return fmt.Errorf("platform %d has an empty rectangle", i)
		}
	}
	return nil
}
