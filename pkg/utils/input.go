// Package utils 提供通用工具函数
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// KeySource 键盘状态来源
// 沙盒场景只通过它读键盘，测试可以替换为脚本输入
type KeySource interface {
	// IsPressed 按键当前是否按下
	IsPressed(key ebiten.Key) bool
	// JustPressed 按键是否在本帧刚按下
	JustPressed(key ebiten.Key) bool
}

// EbitenKeys 读取 Ebiten 真实键盘状态
type EbitenKeys struct{}

// IsPressed 按键当前是否按下
func (EbitenKeys) IsPressed(key ebiten.Key) bool {
	return ebiten.IsKeyPressed(key)
}

// JustPressed 按键是否在本帧刚按下
func (EbitenKeys) JustPressed(key ebiten.Key) bool {
	return inpututil.IsKeyJustPressed(key)
}

// AxisFromKeys 由一对按键得到 [-1, 1] 的轴向输入
// 同时按下时相互抵消
func AxisFromKeys(keys KeySource, negative, positive ebiten.Key) float64 {
	axis := 0.0
	if keys.IsPressed(negative) {
		axis--
	}
	if keys.IsPressed(positive) {
		axis++
	}
	return axis
}

// ScriptedKeys 可编程的按键状态
// 每帧调用 Advance 推进，JustPressed 由前后两帧的状态推出
type ScriptedKeys struct {
	pressed map[ebiten.Key]bool
	prev    map[ebiten.Key]bool
}

// NewScriptedKeys 创建可编程按键状态
func NewScriptedKeys() *ScriptedKeys {
	return &ScriptedKeys{
		pressed: make(map[ebiten.Key]bool),
		prev:    make(map[ebiten.Key]bool),
	}
}

// Press 按下按键
func (k *ScriptedKeys) Press(keys ...ebiten.Key) {
	for _, key := range keys {
		k.pressed[key] = true
	}
}

// Release 松开按键
func (k *ScriptedKeys) Release(keys ...ebiten.Key) {
	for _, key := range keys {
		delete(k.pressed, key)
	}
}

// Advance 结束一帧，记录本帧状态
func (k *ScriptedKeys) Advance() {
	clear(k.prev)
	for key, down := range k.pressed {
		k.prev[key] = down
	}
}

// IsPressed 按键当前是否按下
func (k *ScriptedKeys) IsPressed(key ebiten.Key) bool {
	return k.pressed[key]
}

// JustPressed 按键是否在本帧刚按下
func (k *ScriptedKeys) JustPressed(key ebiten.Key) bool {
	return k.pressed[key] && !k.prev[key]
}
