package systems

import (
	"math"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/ecs"
	"github.com/gonewx/worm/pkg/physics"
	"github.com/gonewx/worm/pkg/types"
	"github.com/gonewx/worm/pkg/utils"
	"github.com/jakecoffman/cp"
)

// LocomotionSystem 蠕虫运动控制
//
// 每个固定步长把方向输入和累计时间转换为各体节的力矩、摩擦和
// 脊柱/肌肉约束参数。没有内部状态机：所有状态都在 MovementComponent 中。
//
// 体节正在朝运动方向"发力"（接触点相对地面向后滑）时给高摩擦，
// 否则给低摩擦。摆动与蠕动收缩都是往复的，这种不对称只让向前的
// 半程起作用，从而把往复转换为净位移。
//
// 角度一律使用 WormComponent.Lean 的前倾角（顺时针为正），
// 因此 direction = +1 的正倾斜就是向 +X 倒。
type LocomotionSystem struct {
	entityManager *ecs.EntityManager
}

// NewLocomotionSystem 创建运动控制系统
func NewLocomotionSystem(em *ecs.EntityManager) *LocomotionSystem {
	return &LocomotionSystem{
		entityManager: em,
	}
}

// Update 更新所有蠕虫
func (s *LocomotionSystem) Update(deltaTime float64) {
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
			continue
		}
		s.updateWorm(worm, move, input, deltaTime)
	}
}

func (s *LocomotionSystem) updateWorm(worm *components.WormComponent, move *components.MovementComponent, input *components.InputComponent, dt float64) {
	cfg := &worm.Config.Locomotion

	updateDirection(move, input.Direction, cfg)
	active := math.Abs(move.Direction) > cfg.DirectionEpsilon

	if active {
		move.Time += dt * cfg.WaveSpeed
		move.ContractionPhase += dt * cfg.ContractionSpeed
	}

	// 步态运行期间力矩与摩擦归跳跃系统所有，这里只做阻尼
	gaitOwnsSegments := move.GaitActive()
	n := worm.SegmentCount()

	up := upVector(worm.Config)
	for i := range worm.Segments {
		seg := &worm.Segments[i]
		body := seg.Body

		if !gaitOwnsSegments {
			lean := worm.Lean(i)
			if active {
				wave := WaveValue(move.Time, i, n, cfg)
				target := TargetAngle(seg.Class, i, move.Direction, wave, cfg)
				worm.ApplyLeanTorque(i, classGain(seg.Class, cfg)*utils.AngleDiff(target, lean)*body.Moment())

				if seg.Class == types.SegmentHead {
					setBaseFriction(seg, worm.Config)
				} else if Committed(TractionLean(body, seg.Radius, up), move.Direction, cfg.CommitThreshold) {
					setFriction(seg, worm.Config, cfg.HighFriction)
				} else {
					setFriction(seg, worm.Config, cfg.LowFriction)
				}
			} else {
				torque := cfg.IdleGain * utils.AngleDiff(0, lean)
				if cfg.IdleJitter > 0 && move.Rand != nil {
					torque += (move.Rand.Float64()*2 - 1) * cfg.IdleJitter
				}
				worm.ApplyLeanTorque(i, torque*body.Moment())
				setBaseFriction(seg, worm.Config)
			}
		}

		body.SetAngularVelocity(body.AngularVelocity() * (1 - cfg.AngularDamping))
	}

	s.updateSpine(worm, move, active, cfg)
	s.updateMuscles(worm, move, active, cfg)
}

// updateDirection 平滑方向输入；无输入时向 0 衰减
func updateDirection(move *components.MovementComponent, input float64, cfg *config.LocomotionConfig) {
	if math.Abs(input) > cfg.DirectionEpsilon {
		move.Direction += (input - move.Direction) * cfg.DirectionResponse
	} else {
		move.Direction *= cfg.DirectionDecay
		if math.Abs(move.Direction) < cfg.DirectionEpsilon*1e-3 {
			move.Direction = 0
		}
	}
	move.Direction = utils.Clamp(move.Direction, -1, 1)
	if math.Abs(move.Direction) > cfg.DirectionEpsilon {
		move.Facing = utils.Sign(move.Direction)
	}
}

// updateSpine 输入有效时正弦调制脊柱长度与刚度（蠕动收缩），否则指数回归基线
//
// 步态持有脊柱（保持期或恢复补间）时不做任何修改。
func (s *LocomotionSystem) updateSpine(worm *components.WormComponent, move *components.MovementComponent, active bool, cfg *config.LocomotionConfig) {
	if move.SpineLocked() {
		return
	}
	n := float64(worm.SegmentCount())
	for j := range worm.Spine {
		link := &worm.Spine[j]
		if active {
			phase := float64(j) / n * cfg.WaveFrequency * 2 * math.Pi
			wave := math.Sin(move.ContractionPhase - phase)
			link.Spring.SetRestLength(link.BaseLength * (1 + cfg.ContractionAmplitude*wave))
			link.Spring.SetStiffness(link.BaseStiffness * (1 + cfg.ContractionStiffness*wave))
			continue
		}
		link.Spring.SetRestLength(utils.ExpBlend(link.Spring.RestLength(), link.BaseLength, cfg.RestoreRate))
		link.Spring.SetStiffness(utils.ExpBlend(link.Spring.Stiffness(), link.BaseStiffness, cfg.RestoreRate))
	}
}

// updateMuscles 弯曲内侧的肌肉缩短、外侧伸长；无输入时回归基线
func (s *LocomotionSystem) updateMuscles(worm *components.WormComponent, move *components.MovementComponent, active bool, cfg *config.LocomotionConfig) {
	for j := range worm.Muscles {
		link := &worm.Muscles[j]
		target := link.BaseLength
		if active && !move.GaitActive() {
			side := 1.0
			if link.Side == components.MuscleRight {
				side = -1
			}
			target = link.BaseLength * (1 - cfg.MuscleContraction*side*move.Direction)
			link.Spring.SetRestLength(target)
			continue
		}
		link.Spring.SetRestLength(utils.ExpBlend(link.Spring.RestLength(), target, cfg.RestoreRate))
	}
}

// WaveValue 体节 i 的行波值
//
// 相位偏移 i/N × 频率 × 2π，波值 sin(time − phase×delay) × 振幅。
func WaveValue(time float64, i, n int, cfg *config.LocomotionConfig) float64 {
	phase := float64(i) / float64(n) * cfg.WaveFrequency * 2 * math.Pi
	return math.Sin(time-phase*cfg.WaveDelay) * cfg.WaveAmplitude
}

// TargetAngle 计算体节目标前倾角（与 WormComponent.Lean 同一坐标）
//
//   - 头：保持水平（0）
//   - 颈：direction × 倾斜强度 × (1 − i×衰减) + wave × 颈部波权重
//   - 身体：同样的倾斜乘以身体比例，加上 wave × 身体波权重
//
// 倾斜项对 direction 是奇函数，因此 wave 为 0 时 ±d 的结果互为相反数。
func TargetAngle(class types.SegmentClass, i int, direction, wave float64, cfg *config.LocomotionConfig) float64 {
	decay := math.Max(0, 1-float64(i)*cfg.LeanDecay)
	switch class {
	case types.SegmentHead:
		return 0
	case types.SegmentNeck:
		return direction*cfg.WeightLeanStrength*decay + wave*cfg.NeckWaveScale
	default:
		return direction*cfg.WeightLeanStrength*cfg.BodyLeanScale*decay + wave*cfg.BodyWaveScale
	}
}

// Committed 体节的发力方向是否与运动方向一致
//
// lean 是带符号的发力量（TractionLean），绝对值不超过 threshold 时视为不发力。
func Committed(lean, direction, threshold float64) bool {
	if direction == 0 || math.Abs(lean) <= threshold {
		return false
	}
	return utils.Sign(lean) == utils.Sign(direction)
}

// TractionLean 体节接触点的发力方向与大小
//
// 取体节最低点（沿 -up 方向）相对静止支撑面切向滑动速度的相反数。
// 切向为 up 顺时针转 90°（up = (0, 1) 时即 +X）。接触点向后滑时为正：
// 体节正把支撑面往后推，自身向 +X 发力。平移与转动都计入，因此
// 顺时针滚动和被邻节向后拖都算作向 +X 发力。
func TractionLean(body physics.Body, radius float64, up cp.Vector) float64 {
	tangent := cp.Vector{X: up.Y, Y: -up.X}
	w := body.AngularVelocity()
	// ω × (-up·r)
	spin := cp.Vector{X: w * up.Y * radius, Y: -w * up.X * radius}
	return -body.Velocity().Add(spin).Dot(tangent)
}

func classGain(class types.SegmentClass, cfg *config.LocomotionConfig) float64 {
	switch class {
	case types.SegmentHead:
		return cfg.HeadGain
	case types.SegmentNeck:
		return cfg.NeckGain
	default:
		return cfg.BodyGain
	}
}

// setFriction 设置动摩擦，静摩擦按材质比例跟随
func setFriction(seg *components.Segment, cfg *config.WormConfig, kinetic float64) {
	ratio := 1.0
	if cfg.Body.Friction > 0 {
		ratio = cfg.Body.StaticFriction / cfg.Body.Friction
	}
	seg.Body.SetFriction(kinetic, kinetic*ratio)
}

func setBaseFriction(seg *components.Segment, cfg *config.WormConfig) {
	seg.Body.SetFriction(cfg.Body.Friction, cfg.Body.StaticFriction)
}
