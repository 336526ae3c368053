package systems

import (
	"testing"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/ecs"
	"github.com/gonewx/worm/pkg/entities"
	"github.com/gonewx/worm/pkg/physics"
	"github.com/jakecoffman/cp"
)

const testDT = config.FixedTimestep

// testWorm 在内存世界中的一只蠕虫及其系统
type testWorm struct {
	em    *ecs.EntityManager
	world *physics.FakeWorld
	id    ecs.EntityID

	worm  *components.WormComponent
	move  *components.MovementComponent
	input *components.InputComponent

	loco *LocomotionSystem
	jump *JumpSystem
}

// newTestWorm 创建内存世界中的测试蠕虫
//
// grounded 决定收缩步态的着地判定结果。
func newTestWorm(t *testing.T, cfg *config.WormConfig, grounded bool) *testWorm {
	t.Helper()

	em := ecs.NewEntityManager()
	world := physics.NewFakeWorld()
	id, err := entities.NewWormEntity(em, world, cfg, cp.Vector{X: 0, Y: 400})
	if err != nil {
		t.Fatalf("failed to create worm: %v", err)
	}

	tw := &testWorm{em: em, world: world, id: id}
	tw.worm, _ = ecs.GetComponent[*components.WormComponent](em, id)
	tw.move, _ = ecs.GetComponent[*components.MovementComponent](em, id)
	tw.input, _ = ecs.GetComponent[*components.InputComponent](em, id)
	tw.loco = NewLocomotionSystem(em)
	tw.jump = NewJumpSystem(em, GroundSensorFunc(func(*components.WormComponent) bool {
		return grounded
	}))
	return tw
}

// tick 按仿真顺序推进一步：运动 → 跳跃 → 物理
func (tw *testWorm) tick() {
	tw.loco.Update(testDT)
	tw.jump.Update(testDT)
	tw.world.Step(testDT)
}

// body 返回体节 i 的内存刚体
func (tw *testWorm) body(i int) *physics.FakeBody {
	return tw.worm.Segments[i].Body.(*physics.FakeBody)
}

// spineStiffness 返回所有脊柱约束的当前刚度
func (tw *testWorm) spineStiffness() []float64 {
	out := make([]float64, len(tw.worm.Spine))
	for i, l := range tw.worm.Spine {
		out[i] = l.Spring.Stiffness()
	}
	return out
}

// quietConfig 关闭随机抖动的默认配置
func quietConfig() *config.WormConfig {
	cfg := config.DefaultWormConfig()
	cfg.Locomotion.IdleJitter = 0
	return cfg
}
