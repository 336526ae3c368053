package game

import (
	"fmt"
	"log"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/ecs"
	"github.com/gonewx/worm/pkg/entities"
	"github.com/gonewx/worm/pkg/physics"
	"github.com/gonewx/worm/pkg/systems"
	"github.com/gonewx/worm/pkg/types"
	"github.com/jakecoffman/cp"
)

// Simulation 蠕虫仿真门面
//
// 持有实体管理器、物理世界、系统和一只蠕虫。外部（窗口、终端、脚本）
// 只通过这里写输入、切换步态、修改配置和读取姿态快照。
//
// 每个 Tick 的顺序固定为：应用待生效配置 → 运动控制 → 跳跃状态机 → 物理步进 → 快照。
type Simulation struct {
	em     *ecs.EntityManager
	world  physics.World
	cp     *physics.CPWorld // 使用 chipmunk 时非空
	arena  *config.ArenaConfig
	sensor systems.GroundSensor

	// cfg 是蠕虫持有的配置指针，整个生命周期不变；修改通过 pending 在 tick 开始时写入
	cfg     *config.WormConfig
	pending *config.WormConfig

	wormID ecs.EntityID
	spawn  cp.Vector

	locomotionSystem *systems.LocomotionSystem
	jumpSystem       *systems.JumpSystem
	physicsSystem    *systems.PhysicsSystem

	tick     uint64
	poses    []components.SegmentPose
	recorder *GhostRecorder
}

// SimulationState HUD 使用的状态摘要
type SimulationState struct {
	Tick      uint64
	Direction float64
	Facing    float64
	Strategy  types.GaitStrategy
	Active    types.GaitStrategy
	Cooldown  int
	Grounded  bool
	Recording bool
	Head      cp.Vector
}

// NewSimulation 创建基于 chipmunk 的仿真
//
// 参数:
//   - cfg: 调参配置（会被复制，之后通过 UpdateConfig 修改）
//   - arena: 场地配置，nil 时使用默认场地
//
// 返回:
//   - *Simulation: 仿真实例
//   - error: 配置无效或蠕虫创建失败时返回错误
func NewSimulation(cfg *config.WormConfig, arena *config.ArenaConfig) (*Simulation, error) {
	if arena == nil {
		arena = config.DefaultArenaConfig()
	}
	if err := arena.Validate(); err != nil {
		return nil, fmt.Errorf("invalid arena: %w", err)
	}

	worldCfg := physics.DefaultCPWorldConfig()
	worldCfg.Gravity = cp.Vector{X: 0, Y: -arena.Gravity}
	worldCfg.Iterations = config.PhysicsIterations
	world := physics.NewCPWorld(worldCfg)
	world.AddGround(arena.GroundY, arena.MinX, arena.MaxX, arena.Friction)
	for _, p := range arena.Platforms {
		world.AddPlatform(p.MinX, p.MinY, p.MaxX, p.MaxY, arena.Friction)
	}

	sim, err := NewSimulationWithWorld(world, cfg, cp.Vector{X: arena.SpawnX, Y: arena.SpawnY}, systems.NewContactGroundSensor(world))
	if err != nil {
		return nil, err
	}
	sim.cp = world
	sim.arena = arena
	return sim, nil
}

// NewSimulationWithWorld 在给定物理世界中创建仿真
//
// 参数:
//   - world: 物理世界（测试可传入 physics.FakeWorld）
//   - cfg: 调参配置（会被复制）
//   - spawn: 头部出生点
//   - sensor: 着地判定，nil 时使用接触法线判定
//
// 返回:
//   - *Simulation: 仿真实例
//   - error: 配置无效或蠕虫创建失败时返回错误
func NewSimulationWithWorld(world physics.World, cfg *config.WormConfig, spawn cp.Vector, sensor systems.GroundSensor) (*Simulation, error) {
	if world == nil {
		return nil, fmt.Errorf("physics world cannot be nil")
	}
	if cfg == nil {
		cfg = config.DefaultWormConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sensor == nil {
		sensor = systems.NewContactGroundSensor(world)
	}

	em := ecs.NewEntityManager()
	sim := &Simulation{
		em:               em,
		world:            world,
		sensor:           sensor,
		cfg:              cfg.Clone(),
		spawn:            spawn,
		locomotionSystem: systems.NewLocomotionSystem(em),
		jumpSystem:       systems.NewJumpSystem(em, sensor),
		physicsSystem:    systems.NewPhysicsSystem(world, 1),
	}

	id, err := entities.NewWormEntity(em, world, sim.cfg, spawn)
	if err != nil {
		return nil, fmt.Errorf("failed to create worm: %w", err)
	}
	sim.wormID = id
	sim.poses = systems.SnapshotWorm(em, id)

	log.Printf("[Simulation] Created: %d segments at (%.1f, %.1f), strategy %s",
		len(sim.poses), spawn.X, spawn.Y, sim.cfg.Jump.Strategy)
	return sim, nil
}

// SetInput 设置本 tick 的方向输入与"向上"键
func (s *Simulation) SetInput(direction float64, up bool) {
	if input, ok := ecs.GetComponent[*components.InputComponent](s.em, s.wormID); ok {
		input.SetDirection(direction)
		input.Up = up
	}
}

// SetJump 设置跳跃键状态（上升沿触发）
func (s *Simulation) SetJump(held bool) {
	if input, ok := ecs.GetComponent[*components.InputComponent](s.em, s.wormID); ok {
		input.JumpHeld = held
	}
}

// SelectStrategy 选择下一次触发使用的步态
//
// 立即生效，不影响正在运行的步态。
func (s *Simulation) SelectStrategy(strategy types.GaitStrategy) {
	if s.pending != nil {
		s.pending.Jump.Strategy = strategy
	}
	if s.cfg.Jump.Strategy != strategy {
		log.Printf("[Simulation] Strategy selected: %s", strategy)
	}
	s.cfg.Jump.Strategy = strategy
}

// SelectStrategyByName 按名称选择步态
func (s *Simulation) SelectStrategyByName(name string) error {
	strategy, err := types.ParseGaitStrategy(name)
	if err != nil {
		return err
	}
	s.SelectStrategy(strategy)
	return nil
}

// UpdateConfig 替换调参配置
//
// 配置先校验，再在下一个 Tick 开始时生效。决定体节形状的字段
// （半径、体节系数、间隙、肌肉开关、密度、弹性）要等 Rebuild 才生效。
//
// 返回:
//   - error: 校验失败时返回错误，当前配置保持不变
func (s *Simulation) UpdateConfig(cfg *config.WormConfig) error {
	if cfg == nil {
		return fmt.Errorf("worm config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.pending = cfg.Clone()
	return nil
}

// applyPending 在 tick 开始时写入待生效配置
func (s *Simulation) applyPending(includeShape bool) {
	if s.pending == nil {
		return
	}
	next := s.pending
	s.pending = nil

	if !includeShape {
		live := s.cfg.Body
		next.Body.BaseRadius = live.BaseRadius
		next.Body.SizeFactors = live.SizeFactors
		next.Body.SegmentGap = live.SegmentGap
		next.Body.MuscleEnabled = live.MuscleEnabled
		next.Body.Density = live.Density
		next.Body.Restitution = live.Restitution
	}
	*s.cfg = *next

	if worm := s.Worm(); worm != nil {
		entities.RefreshBaselines(worm, s.cfg.Body)
	}
	log.Printf("[Simulation] Config applied at tick %d", s.tick)
}

// Tick 推进一个固定步长
func (s *Simulation) Tick() {
	s.applyPending(false)

	s.locomotionSystem.Update(config.FixedTimestep)
	s.jumpSystem.Update(config.FixedTimestep)
	s.physicsSystem.Update(config.FixedTimestep)
	s.tick++

	s.poses = s.poses[:0]
	if worm := s.Worm(); worm != nil {
		s.poses = systems.AppendSnapshot(s.poses, worm)
	}

	if s.recorder != nil {
		input, _ := ecs.GetComponent[*components.InputComponent](s.em, s.wormID)
		s.recorder.Record(s.tick, input, s.poses)
	}
}

// Rebuild 按当前（含待生效的）配置在出生点重建蠕虫
//
// 运动状态、步态和冷却全部重置；tick 计数保留。
// 新蠕虫创建成功后才移除旧蠕虫，失败时旧蠕虫原样保留。
func (s *Simulation) Rebuild() error {
	s.applyPending(true)

	id, err := entities.NewWormEntity(s.em, s.world, s.cfg, s.spawn)
	if err != nil {
		return fmt.Errorf("failed to rebuild worm: %w", err)
	}
	entities.DestroyWormEntity(s.em, s.world, s.wormID)
	s.wormID = id
	s.poses = systems.AppendSnapshot(s.poses[:0], s.Worm())
	log.Printf("[Simulation] Worm rebuilt at tick %d", s.tick)
	return nil
}

// Snapshot 返回最近一次 tick 后的体节姿态
//
// 返回的切片在下一次 Tick 时会被覆盖，需要保留时请复制。
func (s *Simulation) Snapshot() []components.SegmentPose {
	return s.poses
}

// Grounded 蠕虫当前是否着地
func (s *Simulation) Grounded() bool {
	worm := s.Worm()
	if worm == nil {
		return false
	}
	return s.jumpSystem.Grounded(worm)
}

// TickCount 已推进的 tick 数
func (s *Simulation) TickCount() uint64 {
	return s.tick
}

// State 返回 HUD 状态摘要
func (s *Simulation) State() SimulationState {
	st := SimulationState{
		Tick:      s.tick,
		Strategy:  s.cfg.Jump.Strategy,
		Grounded:  s.Grounded(),
		Recording: s.recorder != nil,
	}
	if move, ok := ecs.GetComponent[*components.MovementComponent](s.em, s.wormID); ok {
		st.Direction = move.Direction
		st.Facing = move.Facing
		st.Cooldown = move.CooldownTicks
		if move.GaitActive() {
			st.Active = move.ActiveGait
		}
	}
	if worm := s.Worm(); worm != nil {
		st.Head = worm.Head().Body.Position()
	}
	return st
}

// StartRecording 开始录制幽灵回放（覆盖之前的录制）
func (s *Simulation) StartRecording() {
	s.recorder = NewGhostRecorder(s.Worm())
	log.Printf("[Simulation] Ghost recording started at tick %d", s.tick)
}

// StopRecording 结束录制并返回录像（未录制时返回 nil）
func (s *Simulation) StopRecording() *Ghost {
	if s.recorder == nil {
		return nil
	}
	ghost := s.recorder.Ghost()
	s.recorder = nil
	log.Printf("[Simulation] Ghost recording stopped: %d frames", len(ghost.Frames))
	return ghost
}

// Recording 是否正在录制
func (s *Simulation) Recording() bool {
	return s.recorder != nil
}

// Config 返回当前生效配置的副本
func (s *Simulation) Config() *config.WormConfig {
	return s.cfg.Clone()
}

// Arena 返回场地配置（使用外部世界创建时为 nil）
func (s *Simulation) Arena() *config.ArenaConfig {
	return s.arena
}

// World 返回物理世界
func (s *Simulation) World() physics.World {
	return s.world
}

// CPWorld 返回 chipmunk 世界（使用外部世界创建时为 nil）
func (s *Simulation) CPWorld() *physics.CPWorld {
	return s.cp
}

// Worm 返回蠕虫组件
func (s *Simulation) Worm() *components.WormComponent {
	worm, _ := ecs.GetComponent[*components.WormComponent](s.em, s.wormID)
	return worm
}

// CancelGait 中止正在运行的步态（脊柱保持与恢复照常进行）
func (s *Simulation) CancelGait() {
	s.jumpSystem.Cancel(s.wormID)
}
