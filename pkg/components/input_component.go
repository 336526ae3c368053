package components

// InputComponent 控制输入
//
// 输入设备抽象不在核心范围内：外部每 tick 写入方向与按键状态，
// 跳跃系统自己保存上一 tick 的按键状态来检测上升沿。
type InputComponent struct {
	// Direction 目标方向 [-1, 1]
	Direction float64
	// Up "向上"键
	Up bool
	// JumpHeld 跳跃键当前是否按下
	JumpHeld bool
	// PrevJumpHeld 上一 tick 跳跃键状态
	PrevJumpHeld bool
}

// SetDirection 设置方向（限制在 [-1, 1]）
func (c *InputComponent) SetDirection(direction float64) {
	switch {
	case direction != direction: // NaN
		direction = 0
	case direction > 1:
		direction = 1
	case direction < -1:
		direction = -1
	}
	c.Direction = direction
}

// JumpPressed 本 tick 是否为按下的上升沿
func (c *InputComponent) JumpPressed() bool {
	return c.JumpHeld && !c.PrevJumpHeld
}

// Latch 在 tick 结束时记录按键状态
func (c *InputComponent) Latch() {
	c.PrevJumpHeld = c.JumpHeld
}
