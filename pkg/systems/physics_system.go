package systems

import (
	"github.com/gonewx/worm/pkg/physics"
)

// PhysicsSystem 推进物理世界
//
// 在运动与跳跃系统写完本 tick 的力矩、摩擦和约束参数后调用，
// 所有写入在同一 tick 内对求解器可见。
type PhysicsSystem struct {
	world    physics.World
	substeps int
}

// NewPhysicsSystem 创建物理系统
//
// 参数:
//   - world: 物理世界
//   - substeps: 每个 tick 的子步数（<1 时按 1 处理）
//
// 返回:
//   - *PhysicsSystem: 物理系统实例
func NewPhysicsSystem(world physics.World, substeps int) *PhysicsSystem {
	return &PhysicsSystem{
		world:    world,
		substeps: max(substeps, 1),
	}
}

// Update 以固定步长推进世界
//
// 子步之间不重新施加力矩：chipmunk 每步结束会清零力与力矩，
// 因此只有第一个子步受控制器输出影响。默认 1 个子步。
func (ps *PhysicsSystem) Update(deltaTime float64) {
	if ps.world == nil || deltaTime <= 0 {
		return
	}
	dt := deltaTime / float64(ps.substeps)
	for range ps.substeps {
		ps.world.Step(dt)
	}
}
