package systems

import (
	"math"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/jakecoffman/cp"
)

// PairForce 一对相邻体节间的收缩力
type PairForce struct {
	A, B int
	OnA  cp.Vector
	OnB  cp.Vector
}

// ContractionForces 计算相邻体节两两互拉的力
//
// 每对 (i, i+1) 沿连线方向施加等大反向的拉力，大小为 f = force × 两节平均质量；
// 另外两节都获得一个向上的分量 f × (upwardFactor × 夹角 + baseLift)，
// 夹角为该对连线相对水平面的角度（弧度）。平躺的体节对夹角为 0，
// 只靠 baseLift 离地。纯函数，不修改任何状态。
//
// 参数:
//   - positions, masses: 头到尾的体节位置与质量，长度相同
//   - force: 单位质量的拉力
//   - upwardFactor: 上抬分量系数（乘以夹角）
//   - baseLift: 与夹角无关的上抬比例
//   - up: 单位"上"方向
//
// 返回:
//   - []PairForce: len = N-1；重合的体节对给零力
func ContractionForces(positions []cp.Vector, masses []float64, force, upwardFactor, baseLift float64, up cp.Vector) []PairForce {
	if len(positions) < 2 || len(masses) != len(positions) {
		return nil
	}

	forces := make([]PairForce, 0, len(positions)-1)
	for i := 0; i < len(positions)-1; i++ {
		pf := PairForce{A: i, B: i + 1}
		d := positions[i+1].Sub(positions[i])
		dist := d.Length()
		if dist > 1e-9 {
			u := d.Mult(1 / dist)
			f := force * (masses[i] + masses[i+1]) / 2

			// 与水平面的夹角：沿"上"轴的分量对垂直分量
			vertical := math.Abs(d.Dot(up))
			horizontal := math.Abs(d.Cross(up))
			lift := up.Mult(f * (upwardFactor*math.Atan2(vertical, horizontal) + baseLift))

			pf.OnA = u.Mult(f).Add(lift)
			pf.OnB = u.Mult(-f).Add(lift)
		}
		forces = append(forces, pf)
	}
	return forces
}

// stepContraction 收缩：在施力窗口内对每对相邻体节施加互拉力
//
// 着地判定在触发时完成；脊柱刚度由 holdSpine 抬高。
func stepContraction(worm *components.WormComponent, move *components.MovementComponent) {
	cfg := &worm.Config.Jump.Contraction
	if move.GaitTick >= cfg.ForceTicks {
		return
	}

	n := worm.SegmentCount()
	positions := make([]cp.Vector, n)
	masses := make([]float64, n)
	for i := range worm.Segments {
		positions[i] = worm.Segments[i].Body.Position()
		masses[i] = worm.Segments[i].Body.Mass()
	}

	for _, pf := range ContractionForces(positions, masses, cfg.Force, cfg.UpwardFactor, cfg.BaseLift, upVector(worm.Config)) {
		a := worm.Segments[pf.A].Body
		b := worm.Segments[pf.B].Body
		a.ApplyForce(pf.OnA, a.Position())
		b.ApplyForce(pf.OnB, b.Position())
	}
}

// upVector 配置中的单位"上"方向
func upVector(cfg *config.WormConfig) cp.Vector {
	up := cp.Vector{X: cfg.Ground.UpX, Y: cfg.Ground.UpY}
	if l := up.Length(); l > 0 {
		return up.Mult(1 / l)
	}
	return cp.Vector{X: 0, Y: 1}
}
