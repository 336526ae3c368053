package systems

import (
	"math"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/utils"
)

// 各步态每 tick 的力矩/摩擦程序
//
// 所有步态使用 MovementComponent.Facing（±1）决定朝向，
// 使用 GaitTick（从 0 开始）作为步态内时间。
// 角度与力矩都在前倾坐标中（WormComponent.Lean，顺时针为正）。

// stepSpiral 螺旋：逐节正弦力矩，奇偶节方向交替，摩擦按奇偶高低交替
func stepSpiral(worm *components.WormComponent, move *components.MovementComponent) {
	cfg := &worm.Config.Jump.Spiral
	loc := &worm.Config.Locomotion
	t := float64(move.GaitTick)

	for i := range worm.Segments {
		seg := &worm.Segments[i]
		parity := 1.0
		friction := loc.HighFriction
		if i%2 == 1 {
			parity = -1
			friction = loc.LowFriction
		}
		s := math.Sin(t*cfg.PhaseStep + float64(i)*cfg.SegmentOffset)
		worm.ApplyLeanTorque(i, cfg.Gain*s*move.Facing*parity*seg.Body.Moment())
		setFriction(seg, worm.Config, friction)
	}
}

// stepCatapult 投石机：前半段（头侧）上仰，后半段下压作为配重
//
// 头在 +X 端，朝 +X 时上仰就是后仰（负前倾），下压是正前倾；
// 朝 -X 时两者镜像。
func stepCatapult(worm *components.WormComponent, move *components.MovementComponent) {
	cfg := &worm.Config.Jump.Catapult
	half := worm.SegmentCount() / 2

	for i := range worm.Segments {
		seg := &worm.Segments[i]
		target := cfg.DownAngle * move.Facing
		friction := cfg.BackFriction
		if i < half {
			target = -cfg.UpAngle * move.Facing
			friction = cfg.FrontFriction
		}
		diff := utils.AngleDiff(target, worm.Lean(i))
		worm.ApplyLeanTorque(i, cfg.Gain*diff*seg.Body.Moment())
		setFriction(seg, worm.Config, friction)
	}
}

// CoilTarget 盘绕步态中体节 i 的目标角度
func CoilTarget(cfg *config.CoilGaitConfig, i, n int, facing float64) float64 {
	center := float64(n / 2)
	if cfg.CenterIndex >= 0 {
		center = float64(min(cfg.CenterIndex, n-1))
	}
	return cfg.Amplitude * math.Sin((float64(i)-center)*cfg.Tightness) * facing
}

// stepCoil 盘绕：围绕中心体节的正弦目标角，弯曲大的体节给高摩擦
//
// 脊柱刚度在触发时由 holdSpine 抬高。
func stepCoil(worm *components.WormComponent, move *components.MovementComponent) {
	cfg := &worm.Config.Jump.Coil
	loc := &worm.Config.Locomotion
	n := worm.SegmentCount()

	for i := range worm.Segments {
		seg := &worm.Segments[i]
		target := CoilTarget(cfg, i, n, move.Facing)
		diff := utils.AngleDiff(target, worm.Lean(i))
		worm.ApplyLeanTorque(i, cfg.Gain*diff*seg.Body.Moment())

		if math.Abs(target) > cfg.FrictionThreshold {
			setFriction(seg, worm.Config, loc.HighFriction)
		} else {
			setFriction(seg, worm.Config, loc.LowFriction)
		}
	}
}

// WavePulse 压缩波在体节 i 处的强度 [0, 1]
//
// 脉冲中心从尾部 (N-1) 在 travelTicks 内线性移动到头部 (0)。
func WavePulse(cfg *config.WaveGaitConfig, i, n, tick int) (pulse, pos float64) {
	pos = float64(n-1) * (1 - float64(tick)/float64(cfg.TravelTicks))
	d := (float64(i) - pos) / cfg.PulseWidth
	return math.Exp(-d * d), pos
}

// stepWave 压缩波：从尾到头移动的脉冲力矩，到达头部时一次性踢头并上抬
func stepWave(worm *components.WormComponent, move *components.MovementComponent) {
	cfg := &worm.Config.Jump.Wave
	loc := &worm.Config.Locomotion
	n := worm.SegmentCount()

	if move.WaveArrived {
		return
	}

	_, pos := WavePulse(cfg, 0, n, move.GaitTick)
	if pos <= 0 {
		move.WaveArrived = true
		head := worm.Head().Body
		worm.ApplyLeanTorque(0, cfg.HeadKickGain*move.Facing*head.Moment())
		head.ApplyForce(upVector(worm.Config).Mult(cfg.HeadLift*head.Mass()), head.Position())
		for i := range worm.Segments {
			setBaseFriction(&worm.Segments[i], worm.Config)
		}
		return
	}

	for i := range worm.Segments {
		seg := &worm.Segments[i]
		pulse, _ := WavePulse(cfg, i, n, move.GaitTick)
		worm.ApplyLeanTorque(i, cfg.Gain*pulse*move.Facing*seg.Body.Moment())

		if pulse > cfg.FrictionThreshold {
			setFriction(seg, worm.Config, loc.HighFriction)
		} else {
			setFriction(seg, worm.Config, loc.LowFriction)
		}
	}
}
