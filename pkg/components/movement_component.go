package components

import (
	"math/rand/v2"

	"github.com/gonewx/worm/pkg/types"
	"github.com/tanema/gween"
)

// MovementComponent 蠕虫运动状态
//
// 随体节链创建、每 tick 由运动系统与跳跃系统修改、随蠕虫销毁。
// 所有定时效果都用 tick 倒计时表达，不依赖真实时间，保证回放确定性。
type MovementComponent struct {
	// Time 累计运动时间（仅在有方向输入时推进，已乘波速）
	Time float64
	// Direction 当前方向 [-1, 1]，无输入时向 0 衰减
	Direction float64
	// Facing 最近一次非零方向的符号（±1），步态用它决定朝向
	Facing float64
	// ContractionPhase 蠕动收缩相位累加器
	ContractionPhase float64

	// ActiveGait 当前步态（GaitNone 表示没有）
	ActiveGait types.GaitStrategy
	// GaitTick 当前步态已运行的 tick 数
	GaitTick int
	// GaitTicksLeft 当前步态剩余 tick 数
	GaitTicksLeft int
	// CooldownTicks 距可再次触发的剩余 tick 数
	CooldownTicks int
	// WaveArrived 压缩波是否已到达头部（每次触发只踢一次）
	WaveArrived bool
	// ForceTicksLeft 收缩步态剩余施力 tick 数
	ForceTicksLeft int

	// SpineHoldTicks 步态加硬脊柱后的保持倒计时；>0 时脊柱归步态所有
	SpineHoldTicks int
	// SpineHeldStiffness 保持期内的目标刚度
	SpineHeldStiffness float64
	// RestoreTween 保持期结束后的恢复补间（0→1 的混合因子，每 tick 推进 1）
	RestoreTween *gween.Tween
	// RestoreFrom 恢复起点刚度（每条脊柱一项）
	RestoreFrom []float64

	// Tick 已处理的 tick 数
	Tick uint64

	// Rand 每只蠕虫独立的确定性随机源（待机抖动）
	Rand *rand.Rand
}

// NewMovementComponent 创建运动状态
func NewMovementComponent(seed uint64) *MovementComponent {
	return &MovementComponent{
		Facing: 1,
		Rand:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// SpineLocked 脊柱刚度是否由步态控制（保持期或恢复补间中）
func (m *MovementComponent) SpineLocked() bool {
	return m.SpineHoldTicks > 0 || m.RestoreTween != nil
}

// GaitActive 是否有步态正在运行
func (m *MovementComponent) GaitActive() bool {
	return m.ActiveGait != types.GaitNone && m.GaitTicksLeft > 0
}
