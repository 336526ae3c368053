package systems

import (
	"log"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/ecs"
	"github.com/gonewx/worm/pkg/types"
	"github.com/gonewx/worm/pkg/utils"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// JumpSystem 跳跃/发射状态机
//
// 跳跃键的上升沿触发配置中选中的步态。步态在 DurationTicks 内接管
// 各体节的力矩与摩擦；会改变脊柱刚度的步态（盘绕、收缩）在保持期后
// 用补间恢复到配置基线。恢复目标总是基线而不是触发时的快照，
// 因此任何重复触发序列都不会把刚度永久留在修改后的值上。
//
// 所有定时都是 tick 计数，与帧率无关。
type JumpSystem struct {
	entityManager *ecs.EntityManager
	sensor        GroundSensor
}

// NewJumpSystem 创建跳跃系统
//
// 参数:
//   - em: 实体管理器
//   - sensor: 着地判定，收缩步态需要；nil 时收缩步态永远被拒绝
func NewJumpSystem(em *ecs.EntityManager, sensor GroundSensor) *JumpSystem {
	return &JumpSystem{
		entityManager: em,
		sensor:        sensor,
	}
}

// SetGroundSensor 替换着地判定
func (s *JumpSystem) SetGroundSensor(sensor GroundSensor) {
	s.sensor = sensor
}

// Grounded 使用当前判定检查蠕虫是否着地
func (s *JumpSystem) Grounded(worm *components.WormComponent) bool {
	return s.sensor != nil && s.sensor.Grounded(worm)
}

// Update 推进所有蠕虫的跳跃状态
func (s *JumpSystem) Update(deltaTime float64) {
	entities := ecs.GetEntitiesWith3[
		*components.WormComponent,
		*components.MovementComponent,
		*components.InputComponent,
	](s.entityManager)

	for _, id := range entities {
		worm, _ := ecs.GetComponent[*components.WormComponent](s.entityManager, id)
		move, _ := ecs.GetComponent[*components.MovementComponent](s.entityManager, id)
		input, _ := ecs.GetComponent[*components.InputComponent](s.entityManager, id)
		if worm.Config == nil || worm.SegmentCount() < 2 {
			input.Latch()
			continue
		}
		s.updateWorm(id, worm, move, input)
	}
}

func (s *JumpSystem) updateWorm(id ecs.EntityID, worm *components.WormComponent, move *components.MovementComponent, input *components.InputComponent) {
	move.Tick++
	if move.CooldownTicks > 0 {
		move.CooldownTicks--
	}

	if input.JumpPressed() && move.CooldownTicks == 0 {
		s.trigger(id, worm, move, worm.Config.Jump.Strategy)
	}
	input.Latch()

	if move.GaitActive() {
		s.stepGait(worm, move)
		move.GaitTick++
		move.GaitTicksLeft--
		if move.GaitTicksLeft <= 0 {
			s.endGait(id, worm, move)
		}
	}

	s.updateSpineHold(id, worm, move)
}

// trigger 启动步态
//
// 收缩步态需要着地；未着地时本次触发被消耗但不施力、不改刚度。
func (s *JumpSystem) trigger(id ecs.EntityID, worm *components.WormComponent, move *components.MovementComponent, strategy types.GaitStrategy) {
	cfg := &worm.Config.Jump
	if strategy == types.GaitNone {
		return
	}
	if strategy == types.GaitContraction && !s.Grounded(worm) {
		log.Printf("[JumpSystem] Worm %d: contraction ignored, not grounded", id)
		return
	}

	if move.GaitActive() {
		log.Printf("[JumpSystem] Worm %d: %s interrupted by %s", id, move.ActiveGait, strategy)
	}
	move.ActiveGait = strategy
	move.GaitTick = 0
	move.GaitTicksLeft = gaitDuration(cfg, strategy)
	move.WaveArrived = false
	move.ForceTicksLeft = 0
	move.CooldownTicks = cfg.CooldownTicks

	switch strategy {
	case types.GaitCoil:
		holdSpine(worm, move, cfg.Coil.Stiffness, cfg.Coil.HoldTicks)
	case types.GaitContraction:
		move.ForceTicksLeft = cfg.Contraction.ForceTicks
		holdSpine(worm, move, cfg.Contraction.Stiffness, cfg.Contraction.HoldTicks)
	}

	log.Printf("[JumpSystem] Worm %d: %s started (%d ticks, facing %+.0f)",
		id, strategy, move.GaitTicksLeft, move.Facing)
}

// stepGait 按标签分派到步态程序
func (s *JumpSystem) stepGait(worm *components.WormComponent, move *components.MovementComponent) {
	switch move.ActiveGait {
	case types.GaitSpiral:
		stepSpiral(worm, move)
	case types.GaitCatapult:
		stepCatapult(worm, move)
	case types.GaitCoil:
		stepCoil(worm, move)
	case types.GaitCompressionWave:
		stepWave(worm, move)
	case types.GaitContraction:
		stepContraction(worm, move)
		if move.ForceTicksLeft > 0 {
			move.ForceTicksLeft--
		}
	}
}

func (s *JumpSystem) endGait(id ecs.EntityID, worm *components.WormComponent, move *components.MovementComponent) {
	log.Printf("[JumpSystem] Worm %d: %s finished after %d ticks", id, move.ActiveGait, move.GaitTick)
	move.ActiveGait = types.GaitNone
	move.GaitTicksLeft = 0
	move.ForceTicksLeft = 0
	for i := range worm.Segments {
		setBaseFriction(&worm.Segments[i], worm.Config)
	}
}

// Cancel 立即结束当前步态；已开始的刚度保持/恢复照常进行
func (s *JumpSystem) Cancel(id ecs.EntityID) {
	worm, ok := ecs.GetComponent[*components.WormComponent](s.entityManager, id)
	if !ok {
		return
	}
	move, ok := ecs.GetComponent[*components.MovementComponent](s.entityManager, id)
	if !ok || !move.GaitActive() {
		return
	}
	s.endGait(id, worm, move)
}

func gaitDuration(cfg *config.JumpConfig, strategy types.GaitStrategy) int {
	switch strategy {
	case types.GaitSpiral:
		return cfg.Spiral.DurationTicks
	case types.GaitCatapult:
		return cfg.Catapult.DurationTicks
	case types.GaitCoil:
		return cfg.Coil.DurationTicks
	case types.GaitCompressionWave:
		return cfg.Wave.DurationTicks
	case types.GaitContraction:
		return cfg.Contraction.ForceTicks
	default:
		return 0
	}
}

// holdSpine 把脊柱刚度设为 stiffness 并保持 holdTicks 个 tick
//
// 覆盖任何正在进行的保持或恢复（后写者生效）；静止长度回到基线，
// 避免蠕动调制停在半途。
func holdSpine(worm *components.WormComponent, move *components.MovementComponent, stiffness float64, holdTicks int) {
	move.SpineHeldStiffness = stiffness
	move.SpineHoldTicks = max(holdTicks, 1)
	move.RestoreTween = nil
	move.RestoreFrom = nil
	for j := range worm.Spine {
		link := &worm.Spine[j]
		link.Spring.SetStiffness(stiffness)
		link.Spring.SetRestLength(link.BaseLength)
	}
}

// updateSpineHold 推进保持倒计时与恢复补间
//
// 保持期最后一个 tick 结束后开始恢复；恢复持续 RestoreTicks 个 tick，
// 结束时精确写回基线。
func (s *JumpSystem) updateSpineHold(id ecs.EntityID, worm *components.WormComponent, move *components.MovementComponent) {
	if move.SpineHoldTicks > 0 {
		for j := range worm.Spine {
			worm.Spine[j].Spring.SetStiffness(move.SpineHeldStiffness)
		}
		move.SpineHoldTicks--
		if move.SpineHoldTicks == 0 {
			move.RestoreFrom = make([]float64, len(worm.Spine))
			for j := range worm.Spine {
				move.RestoreFrom[j] = worm.Spine[j].Spring.Stiffness()
			}
			move.RestoreTween = gween.New(0, 1, float32(worm.Config.Jump.RestoreTicks), ease.OutQuad)
		}
		return
	}

	if move.RestoreTween == nil {
		return
	}
	f, done := move.RestoreTween.Update(1)
	for j := range worm.Spine {
		link := &worm.Spine[j]
		from := link.BaseStiffness
		if j < len(move.RestoreFrom) {
			from = move.RestoreFrom[j]
		}
		if done {
			link.Spring.SetStiffness(link.BaseStiffness)
			continue
		}
		link.Spring.SetStiffness(utils.Lerp(from, link.BaseStiffness, float64(f)))
	}
	if done {
		move.RestoreTween = nil
		move.RestoreFrom = nil
		log.Printf("[JumpSystem] Worm %d: spine stiffness restored", id)
	}
}
