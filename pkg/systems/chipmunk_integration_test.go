package systems

import (
	"math"
	"testing"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/ecs"
	"github.com/gonewx/worm/pkg/entities"
	"github.com/gonewx/worm/pkg/physics"
	"github.com/gonewx/worm/pkg/types"
	"github.com/jakecoffman/cp"
)

// cpWorm 真实 chipmunk 世界中的测试蠕虫，系统顺序与 Simulation 相同
type cpWorm struct {
	em    *ecs.EntityManager
	world *physics.CPWorld
	worm  *components.WormComponent
	move  *components.MovementComponent
	input *components.InputComponent
	loco  *LocomotionSystem
	jump  *JumpSystem
	phys  *PhysicsSystem
}

// newCPWorm 在平地上放一条默认配置的蠕虫，并让它先静置 settle 个 tick
func newCPWorm(t *testing.T, cfg *config.WormConfig, settle int) *cpWorm {
	t.Helper()

	arena := config.DefaultArenaConfig()
	worldCfg := physics.DefaultCPWorldConfig()
	worldCfg.Gravity = cp.Vector{X: 0, Y: -arena.Gravity}
	worldCfg.Iterations = config.PhysicsIterations
	world := physics.NewCPWorld(worldCfg)
	world.AddGround(0, -5000, 5000, arena.Friction)

	em := ecs.NewEntityManager()
	id, err := entities.NewWormEntity(em, world, cfg, cp.Vector{X: 0, Y: arena.SpawnY})
	if err != nil {
		t.Fatalf("failed to create worm: %v", err)
	}

	cw := &cpWorm{
		em:    em,
		world: world,
		loco:  NewLocomotionSystem(em),
		jump:  NewJumpSystem(em, NewContactGroundSensor(world)),
		phys:  NewPhysicsSystem(world, 1),
	}
	cw.worm, _ = ecs.GetComponent[*components.WormComponent](em, id)
	cw.move, _ = ecs.GetComponent[*components.MovementComponent](em, id)
	cw.input, _ = ecs.GetComponent[*components.InputComponent](em, id)

	for range settle {
		cw.tick()
	}
	return cw
}

func (cw *cpWorm) tick() {
	cw.loco.Update(config.FixedTimestep)
	cw.jump.Update(config.FixedTimestep)
	cw.phys.Update(config.FixedTimestep)
}

// centroid 按质量加权的体节中心
func (cw *cpWorm) centroid() cp.Vector {
	var sum cp.Vector
	mass := 0.0
	for _, s := range cw.worm.Segments {
		m := s.Body.Mass()
		sum = sum.Add(s.Body.Position().Mult(m))
		mass += m
	}
	return sum.Mult(1 / mass)
}

// overlap 不相邻体节之间最大的穿透深度
func (cw *cpWorm) overlap() (depth float64, a, b int) {
	segs := cw.worm.Segments
	for i := range segs {
		for j := i + 2; j < len(segs); j++ {
			d := segs[i].Radius + segs[j].Radius - segs[i].Body.Position().Distance(segs[j].Body.Position())
			if d > depth {
				depth, a, b = d, i, j
			}
		}
	}
	return depth, a, b
}

// TestSettledWormStaysStretched 静置后蠕虫平躺在地面上，不会折叠到自己身上
func TestSettledWormStaysStretched(t *testing.T) {
	cw := newCPWorm(t, quietConfig(), 120)

	if depth, a, b := cw.overlap(); depth > 2 {
		t.Errorf("segments %d and %d overlap by %f after settling", a, b, depth)
	}
	head := cw.worm.Segments[0].Body.Position()
	tail := cw.worm.Segments[cw.worm.SegmentCount()-1].Body.Position()
	if head.X <= tail.X {
		t.Errorf("head should stay ahead of the tail, head x %f tail x %f", head.X, tail.X)
	}
	for i := range cw.worm.Segments {
		if lean := cw.worm.Lean(i); math.Abs(lean) > 0.5 {
			t.Errorf("segment %d leans %f after settling, want near flat", i, lean)
		}
	}
}

// TestCrawlFollowsDirection 持续输入时质心沿输入方向移动
func TestCrawlFollowsDirection(t *testing.T) {
	for _, direction := range []float64{1, -1} {
		cw := newCPWorm(t, quietConfig(), 60)
		start := cw.centroid()

		cw.input.SetDirection(direction)
		for range 600 {
			cw.tick()
		}

		dx := cw.centroid().X - start.X
		if math.Signbit(dx) != math.Signbit(direction) || math.Abs(dx) < 5 {
			t.Errorf("direction %+.0f: centroid moved %f px, want at least 5 px the same way", direction, dx)
		}
		if depth, a, b := cw.overlap(); depth > 4 {
			t.Errorf("direction %+.0f: segments %d and %d overlap by %f while crawling", direction, a, b, depth)
		}
	}
}

// TestEveryGaitLifts 每种步态都让质心离开静止高度
func TestEveryGaitLifts(t *testing.T) {
	for _, gait := range types.AllGaits {
		t.Run(gait.String(), func(t *testing.T) {
			cfg := quietConfig()
			cfg.Jump.Strategy = gait
			cw := newCPWorm(t, cfg, 90)
			rest := cw.centroid().Y

			cw.input.JumpHeld = true
			cw.tick()
			cw.input.JumpHeld = false
			if cw.move.ActiveGait != gait {
				t.Fatalf("gait %s did not start, active %s", gait, cw.move.ActiveGait)
			}

			peak := rest
			for range 120 {
				cw.tick()
				peak = math.Max(peak, cw.centroid().Y)
			}
			if lift := peak - rest; lift < 1 {
				t.Errorf("gait %s lifted the centroid by %f px, want at least 1", gait, lift)
			}
		})
	}
}
