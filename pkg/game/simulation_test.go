package game

import (
	"errors"
	"math"
	"testing"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/physics"
	"github.com/gonewx/worm/pkg/systems"
	"github.com/gonewx/worm/pkg/types"
	"github.com/jakecoffman/cp"
)

// newFakeSimulation 在内存世界中创建仿真（着地判定恒为 grounded）
func newFakeSimulation(t *testing.T, grounded bool) (*Simulation, *physics.FakeWorld) {
	t.Helper()
	world := physics.NewFakeWorld()
	cfg := config.DefaultWormConfig()
	cfg.Locomotion.IdleJitter = 0
	sensor := systems.GroundSensorFunc(func(*components.WormComponent) bool { return grounded })
	sim, err := NewSimulationWithWorld(world, cfg, cp.Vector{X: 0, Y: 400}, sensor)
	if err != nil {
		t.Fatalf("NewSimulationWithWorld failed: %v", err)
	}
	return sim, world
}

func TestSimulationTick(t *testing.T) {
	sim, world := newFakeSimulation(t, true)
	n := len(config.DefaultSizeFactors())

	if len(sim.Snapshot()) != n {
		t.Fatalf("initial snapshot has %d poses, want %d", len(sim.Snapshot()), n)
	}

	for range 5 {
		sim.Tick()
	}
	if sim.TickCount() != 5 || world.Steps != 5 {
		t.Errorf("tick count %d, world steps %d, want 5", sim.TickCount(), world.Steps)
	}
	if len(sim.Snapshot()) != n {
		t.Errorf("snapshot length changed to %d", len(sim.Snapshot()))
	}
	if !sim.Grounded() {
		t.Error("sensor reports grounded")
	}
}

func TestSimulationRejectsInvalidConfig(t *testing.T) {
	if _, err := NewSimulationWithWorld(nil, nil, cp.Vector{}, nil); err == nil {
		t.Error("expected error for nil world")
	}

	sim, _ := newFakeSimulation(t, true)
	bad := config.DefaultWormConfig()
	bad.Locomotion.AngularDamping = -1
	err := sim.UpdateConfig(bad)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	sim.Tick()
	if sim.Config().Locomotion.AngularDamping < 0 {
		t.Error("invalid config must not be applied")
	}
}

// TestSimulationUpdateConfigAppliesNextTick 新配置在下一个 tick 开始时生效，形状字段等待重建
func TestSimulationUpdateConfigAppliesNextTick(t *testing.T) {
	sim, world := newFakeSimulation(t, true)

	next := sim.Config()
	next.Locomotion.HighFriction = 3.5
	next.Body.SpineStiffness = 4321
	next.Body.SizeFactors = []float64{1, 0.9, 0.8}
	if err := sim.UpdateConfig(next); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	next.Locomotion.HighFriction = 99 // 调用方之后的修改不影响已提交的配置

	if sim.Config().Locomotion.HighFriction == 3.5 {
		t.Fatal("config should not change before the next tick")
	}

	sim.Tick()
	got := sim.Config()
	if got.Locomotion.HighFriction != 3.5 {
		t.Errorf("HighFriction = %f, want 3.5", got.Locomotion.HighFriction)
	}
	if len(got.Body.SizeFactors) != len(config.DefaultSizeFactors()) {
		t.Errorf("shape fields should wait for Rebuild, got %d factors", len(got.Body.SizeFactors))
	}
	if sim.Worm().Spine[0].BaseStiffness != 4321 {
		t.Errorf("spine baseline %f, want 4321", sim.Worm().Spine[0].BaseStiffness)
	}

	shape := sim.Config()
	shape.Body.SizeFactors = []float64{1, 0.9, 0.8}
	if err := sim.UpdateConfig(shape); err != nil {
		t.Fatal(err)
	}
	if err := sim.Rebuild(); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if len(sim.Snapshot()) != 3 || len(world.Bodies) != 3 {
		t.Errorf("after rebuild: %d poses, %d bodies, want 3", len(sim.Snapshot()), len(world.Bodies))
	}
	if len(world.Springs) != 2+4+1 {
		t.Errorf("after rebuild: %d springs, want 7", len(world.Springs))
	}
}

// failingWorld 接受前 accept 条约束，之后拒绝新约束
type failingWorld struct {
	*physics.FakeWorld
	accept int
}

func (w *failingWorld) AddSpring(spec physics.SpringSpec) physics.Spring {
	if w.accept <= 0 {
		return nil
	}
	w.accept--
	return w.FakeWorld.AddSpring(spec)
}

// TestSimulationRebuildFailureKeepsWorm 重建失败时旧蠕虫保留且仍可推进
func TestSimulationRebuildFailureKeepsWorm(t *testing.T) {
	cfg := config.DefaultWormConfig()
	n := len(cfg.Body.SizeFactors)
	springs := (n - 1) + 2*(n-1) + (n - 2)
	world := &failingWorld{FakeWorld: physics.NewFakeWorld(), accept: springs}
	sensor := systems.GroundSensorFunc(func(*components.WormComponent) bool { return true })

	sim, err := NewSimulationWithWorld(world, cfg, cp.Vector{X: 0, Y: 400}, sensor)
	if err != nil {
		t.Fatalf("NewSimulationWithWorld failed: %v", err)
	}
	before := sim.Worm()

	if err := sim.Rebuild(); err == nil {
		t.Fatal("expected rebuild to fail once the world rejects constraints")
	}
	if sim.Worm() != before {
		t.Fatal("failed rebuild should keep the previous worm")
	}
	if len(world.Bodies) != n || len(world.Springs) != springs {
		t.Errorf("world has %d bodies, %d springs, want %d/%d", len(world.Bodies), len(world.Springs), n, springs)
	}

	sim.SetInput(1, false)
	sim.Tick()
	if len(sim.Snapshot()) != n {
		t.Errorf("snapshot has %d poses after failed rebuild, want %d", len(sim.Snapshot()), n)
	}
}

func TestSimulationSelectStrategy(t *testing.T) {
	sim, _ := newFakeSimulation(t, true)

	sim.SelectStrategy(types.GaitSpiral)
	sim.SetJump(true)
	sim.Tick()

	st := sim.State()
	if st.Strategy != types.GaitSpiral || st.Active != types.GaitSpiral {
		t.Fatalf("state %+v, want spiral selected and active", st)
	}
	if st.Cooldown == 0 {
		t.Error("cooldown should start when a gait triggers")
	}

	sim.CancelGait()
	if sim.State().Active != types.GaitNone {
		t.Error("CancelGait should end the active gait")
	}

	if err := sim.SelectStrategyByName("catapult"); err != nil {
		t.Fatal(err)
	}
	if sim.Config().Jump.Strategy != types.GaitCatapult {
		t.Error("strategy should be selected by name")
	}
	if err := sim.SelectStrategyByName("backflip"); err == nil {
		t.Error("unknown strategy name should fail")
	}
}

// TestSimulationStrategySurvivesPendingConfig 待生效配置不会覆盖之后选择的步态
func TestSimulationStrategySurvivesPendingConfig(t *testing.T) {
	sim, _ := newFakeSimulation(t, true)
	if err := sim.UpdateConfig(sim.Config()); err != nil {
		t.Fatal(err)
	}
	sim.SelectStrategy(types.GaitCompressionWave)
	sim.Tick()
	if sim.Config().Jump.Strategy != types.GaitCompressionWave {
		t.Errorf("strategy = %s, want wave", sim.Config().Jump.Strategy)
	}
}

func TestSimulationInput(t *testing.T) {
	sim, _ := newFakeSimulation(t, false)
	sim.SetInput(5, true)
	for range 30 {
		sim.Tick()
	}
	st := sim.State()
	if st.Direction <= 0.9 || st.Direction > 1 {
		t.Errorf("direction %f should approach the clamped input 1", st.Direction)
	}
	if st.Facing != 1 {
		t.Errorf("facing %f, want 1", st.Facing)
	}
}

func TestSimulationRecording(t *testing.T) {
	sim, _ := newFakeSimulation(t, true)
	if sim.StopRecording() != nil {
		t.Error("StopRecording without recording should return nil")
	}

	sim.StartRecording()
	sim.SetInput(-1, false)
	for range 10 {
		sim.Tick()
	}
	ghost := sim.StopRecording()
	if ghost == nil || len(ghost.Frames) != 10 {
		t.Fatalf("expected 10 frames, got %+v", ghost)
	}
	if ghost.SegmentCount() != len(sim.Snapshot()) {
		t.Errorf("ghost has %d segments", ghost.SegmentCount())
	}
	for i, f := range ghost.Frames {
		if f.Tick != uint64(i+1) {
			t.Errorf("frame %d tick %d", i, f.Tick)
		}
		if f.Direction != -1 {
			t.Errorf("frame %d direction %f", i, f.Direction)
		}
	}
	if sim.Recording() {
		t.Error("recording should have stopped")
	}
}

// TestSimulationChipmunk 默认场地中蠕虫落地且状态保持有限
func TestSimulationChipmunk(t *testing.T) {
	cfg := config.DefaultWormConfig()
	sim, err := NewSimulation(cfg, nil)
	if err != nil {
		t.Fatalf("NewSimulation failed: %v", err)
	}
	if sim.CPWorld() == nil || sim.Arena() == nil {
		t.Fatal("chipmunk simulation should expose its world and arena")
	}

	landed := false
	for range 240 {
		sim.Tick()
		if sim.Grounded() {
			landed = true
		}
	}
	if !landed {
		t.Error("worm should land within 4 seconds")
	}

	sim.SetInput(1, false)
	for range 120 {
		sim.Tick()
	}
	for _, p := range sim.Snapshot() {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			t.Fatalf("segment %d has non-finite position (%f, %f)", p.Index, p.X, p.Y)
		}
		if p.Y+p.Radius < -1 {
			t.Errorf("segment %d fell through the ground: y=%f", p.Index, p.Y)
		}
	}
}
