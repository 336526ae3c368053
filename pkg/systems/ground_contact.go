package systems

import (
	"math"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/physics"
	"github.com/jakecoffman/cp"
)

// GroundSensor 着地判定
//
// 任意一个体节支撑在静态物体上即视为着地。收缩跳跃用它防止空中"游泳"。
type GroundSensor interface {
	Grounded(worm *components.WormComponent) bool
}

// GroundSensorFunc 函数适配器
type GroundSensorFunc func(worm *components.WormComponent) bool

// Grounded 调用函数本身
func (f GroundSensorFunc) Grounded(worm *components.WormComponent) bool {
	return f(worm)
}

// ContactGroundSensor 基于碰撞对的通用判定
//
// 物理引擎报告某体节与静态刚体存在活动碰撞，且接触法线与"上"方向的点积
// 超过阈值时为着地。不依赖任何场景几何，平台布局未知时也成立。
// 上方向与阈值每次从蠕虫配置读取。
type ContactGroundSensor struct {
	World physics.World
}

// NewContactGroundSensor 创建碰撞判定
func NewContactGroundSensor(world physics.World) *ContactGroundSensor {
	return &ContactGroundSensor{World: world}
}

// Grounded 任一体节存在向上的静态接触
func (s *ContactGroundSensor) Grounded(worm *components.WormComponent) bool {
	if s.World == nil || worm == nil || worm.Config == nil {
		return false
	}
	g := worm.Config.Ground
	up := cp.Vector{X: g.UpX, Y: g.UpY}
	if l := up.Length(); l > 0 {
		up = up.Mult(1 / l)
	}

	for i := range worm.Segments {
		grounded := false
		s.World.EachContact(worm.Segments[i].Body, func(c physics.Contact) {
			if c.Static && c.Normal.Dot(up) > g.NormalThreshold {
				grounded = true
			}
		})
		if grounded {
			return true
		}
	}
	return false
}

// HeightGroundSensor 基于已知地面高度与平台矩形的判定
//
// 只适用于静态几何在构建时已知的场地（沙盒）。体节底部与地面或
// 平台顶面的距离在容差内即为着地。
type HeightGroundSensor struct {
	GroundY   float64
	Platforms []config.PlatformRect
}

// NewHeightGroundSensor 从场地配置创建高度判定
func NewHeightGroundSensor(arena *config.ArenaConfig) *HeightGroundSensor {
	return &HeightGroundSensor{
		GroundY:   arena.GroundY,
		Platforms: arena.Platforms,
	}
}

// Grounded 任一体节底部贴近地面或平台顶面
func (s *HeightGroundSensor) Grounded(worm *components.WormComponent) bool {
	if worm == nil || worm.Config == nil {
		return false
	}
	tol := worm.Config.Ground.Tolerance

	for i := range worm.Segments {
		seg := &worm.Segments[i]
		pos := seg.Body.Position()
		bottom := pos.Y - seg.Radius

		if math.Abs(bottom-s.GroundY) <= tol {
			return true
		}
		for _, p := range s.Platforms {
			if pos.X < p.MinX-seg.Radius || pos.X > p.MaxX+seg.Radius {
				continue
			}
			if math.Abs(bottom-p.MaxY) <= tol {
				return true
			}
		}
	}
	return false
}

// AnyGroundSensor 多个判定取或
type AnyGroundSensor []GroundSensor

// Grounded 任一判定为真即着地
func (a AnyGroundSensor) Grounded(worm *components.WormComponent) bool {
	for _, s := range a {
		if s != nil && s.Grounded(worm) {
			return true
		}
	}
	return false
}
