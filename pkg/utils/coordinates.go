// Package utils 提供通用工具函数
//
// coordinates.go 提供世界坐标与屏幕坐标之间的转换。
//
// # 坐标系统概述
//
//   - **世界坐标**：物理世界使用的坐标，y 轴向上，单位与物理引擎一致
//   - **屏幕坐标**：相对于游戏窗口左上角，y 轴向下（Ebiten 默认）
//
// # 核心转换公式
//
//	screenX = (worldX - cameraX) * scale + screenWidth/2
//	screenY = screenHeight/2 - (worldY - cameraY) * scale
//
// 摄像机位置是屏幕中心对应的世界坐标。
package utils

import "math"

// Camera 跟随目标的 2D 摄像机
type Camera struct {
	// X, Y 屏幕中心对应的世界坐标
	X, Y float64
	// Scale 每个世界单位对应的像素数
	Scale float64
	// ScreenWidth, ScreenHeight 逻辑屏幕尺寸
	ScreenWidth, ScreenHeight float64
	// FollowRate 每秒向目标逼近的速率（<=0 时直接对齐）
	FollowRate float64
}

// NewCamera 创建摄像机
//
// 参数:
//   - screenWidth, screenHeight: 逻辑屏幕尺寸
//   - scale: 像素/世界单位（<=0 时取 1）
func NewCamera(screenWidth, screenHeight, scale float64) *Camera {
	if scale <= 0 {
		scale = 1
	}
	return &Camera{
		Scale:        scale,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		FollowRate:   4,
	}
}

// WorldToScreen 世界坐标 → 屏幕坐标
func (c *Camera) WorldToScreen(x, y float64) (float64, float64) {
	return (x-c.X)*c.Scale + c.ScreenWidth/2, c.ScreenHeight/2 - (y-c.Y)*c.Scale
}

// ScreenToWorld 屏幕坐标 → 世界坐标
func (c *Camera) ScreenToWorld(sx, sy float64) (float64, float64) {
	return (sx-c.ScreenWidth/2)/c.Scale + c.X, (c.ScreenHeight/2-sy)/c.Scale + c.Y
}

// ScreenAngle 世界角度（逆时针）→ 屏幕角度（y 轴向下时为顺时针）
func (c *Camera) ScreenAngle(angle float64) float64 {
	return -angle
}

// Follow 以指数平滑让摄像机追随目标
//
// 参数:
//   - x, y: 目标世界坐标
//   - deltaTime: 帧间隔（秒）
func (c *Camera) Follow(x, y, deltaTime float64) {
	if c.FollowRate <= 0 {
		c.X, c.Y = x, y
		return
	}
	k := 1 - math.Exp(-c.FollowRate*deltaTime)
	c.X += (x - c.X) * k
	c.Y += (y - c.Y) * k
}

// Visible 以 (x, y) 为中心、半径 r 的圆是否落在屏幕内
func (c *Camera) Visible(x, y, r float64) bool {
	sx, sy := c.WorldToScreen(x, y)
	sr := r * c.Scale
	return sx+sr >= 0 && sx-sr <= c.ScreenWidth && sy+sr >= 0 && sy-sr <= c.ScreenHeight
}
