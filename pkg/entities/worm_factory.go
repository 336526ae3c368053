package entities

import (
	"fmt"
	"log"
	"math"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/ecs"
	"github.com/gonewx/worm/pkg/physics"
	"github.com/gonewx/worm/pkg/types"
	"github.com/jakecoffman/cp"
)

// RestAngle 放平的体节刚体角度：局部 -Y（指向尾部）对准世界 -X
const RestAngle = -math.Pi / 2

// LayFlat 把局部链偏移（沿 -Y）转到世界中的水平布局（沿 -X）
//
// 等价于旋转 RestAngle，但直接交换分量，避免三角函数引入的舍入误差。
func LayFlat(offset cp.Vector) cp.Vector {
	return cp.Vector{X: offset.Y, Y: -offset.X}
}

// PlanConstraints 计算约束网络的几何与基线参数（不创建物理约束）
//
// 对每对相邻体节 (i, i+1):
//   - 一条脊柱：锚定在 i 的下切点与 i+1 的上切点，静止长度 = gap
//   - 两条肌肉（启用时）：锚定在左右两端，静止长度为真实的两端距离
//     sqrt((r_i - r_{i+1})² + d²)，d 为圆心距，半径不同时也保持静止几何正确
//
// 对每对隔一节的体节 (i, i+2) 一条间隔约束，锚定在圆心，
// 静止长度 = r_i + r_{i+2} + margin。
//
// 参数:
//   - links: BuildChain 的结果
//   - body: 体节链配置
//
// 返回:
//   - spine, muscles, spacers: Spring 字段为空的约束描述
func PlanConstraints(links []ChainLink, body config.BodyConfig) (spine, muscles, spacers []components.ConstraintLink) {
	n := len(links)
	if n < 2 {
		return nil, nil, nil
	}

	spine = make([]components.ConstraintLink, 0, n-1)
	if body.MuscleEnabled {
		muscles = make([]components.ConstraintLink, 0, 2*(n-1))
	}
	spacers = make([]components.ConstraintLink, 0, n-2)

	for i := 0; i < n-1; i++ {
		ra, rb := links[i].Radius, links[i+1].Radius

		spine = append(spine, components.ConstraintLink{
			Kind:          components.ConstraintSpine,
			A:             i,
			B:             i + 1,
			AnchorA:       cp.Vector{X: 0, Y: -ra},
			AnchorB:       cp.Vector{X: 0, Y: rb},
			BaseLength:    body.SegmentGap,
			BaseStiffness: body.SpineStiffness,
			BaseDamping:   body.SpineDamping,
		})

		if !body.MuscleEnabled {
			continue
		}
		d := CenterDistance(ra, rb, body.SegmentGap)
		length := math.Sqrt((ra-rb)*(ra-rb) + d*d)
		for _, side := range []components.MuscleSide{components.MuscleLeft, components.MuscleRight} {
			sign := -1.0
			if side == components.MuscleRight {
				sign = 1
			}
			muscles = append(muscles, components.ConstraintLink{
				Kind:          components.ConstraintMuscle,
				Side:          side,
				A:             i,
				B:             i + 1,
				AnchorA:       cp.Vector{X: sign * ra, Y: 0},
				AnchorB:       cp.Vector{X: sign * rb, Y: 0},
				BaseLength:    length,
				BaseStiffness: body.MuscleStiffness,
				BaseDamping:   body.MuscleDamping,
			})
		}
	}

	for i := 0; i+2 < n; i++ {
		spacers = append(spacers, components.ConstraintLink{
			Kind:          components.ConstraintSpacer,
			A:             i,
			B:             i + 2,
			BaseLength:    links[i].Radius + links[i+2].Radius + body.SpacerMargin,
			BaseStiffness: body.SpacerStiffness,
			BaseDamping:   body.SpacerDamping,
		})
	}
	return spine, muscles, spacers
}

// AssembleConstraints 在物理世界中创建约束网络
//
// 参数:
//   - world: 物理世界
//   - segs: 已创建刚体的体节
//   - links: PlanConstraints 的结果（原地写入 Spring）
//
// 返回:
//   - error: 索引越界时返回错误
func AssembleConstraints(world physics.World, segs []components.Segment, links []components.ConstraintLink) error {
	for i := range links {
		l := &links[i]
		if l.A < 0 || l.B >= len(segs) || l.A >= l.B {
			return fmt.Errorf("%s constraint has invalid segment pair (%d, %d)", l.Kind, l.A, l.B)
		}
		// 隔一节的两节仍然互相碰撞，间隔约束只是软性的第一道防线
		l.Spring = world.AddSpring(physics.SpringSpec{
			A:             segs[l.A].Body,
			B:             segs[l.B].Body,
			AnchorA:       l.AnchorA,
			AnchorB:       l.AnchorB,
			RestLength:    l.BaseLength,
			Stiffness:     l.BaseStiffness,
			Damping:       l.BaseDamping,
			OneSided:      l.Kind == components.ConstraintSpacer,
			CollideBodies: l.Kind == components.ConstraintSpacer,
		})
		if l.Spring == nil {
			return fmt.Errorf("physics world rejected %s constraint (%d, %d)", l.Kind, l.A, l.B)
		}
	}
	return nil
}

// NewWormEntity 创建蠕虫实体
//
// 依次构建体节链、在物理世界中创建刚体和约束网络，
// 并挂载 WormComponent / MovementComponent / InputComponent。
// 体节链在局部坐标中沿 -Y 排列，放进世界时整体转为水平：
// 头在 +X 端，尾部向 -X 延伸，每个刚体的初始角度为 RestAngle。
// 约束组装失败时已创建的约束和刚体全部移除，世界保持原样。
//
// 参数:
//   - em: 实体管理器
//   - world: 物理世界
//   - cfg: 调参配置（由调用方持有，蠕虫只保存指针）
//   - head: 头部圆心的世界坐标
//
// 返回:
//   - ecs.EntityID: 蠕虫实体 ID
//   - error: 参数无效或体节不足时返回错误
func NewWormEntity(em *ecs.EntityManager, world physics.World, cfg *config.WormConfig, head cp.Vector) (ecs.EntityID, error) {
	if em == nil {
		return 0, fmt.Errorf("entity manager cannot be nil")
	}
	if world == nil {
		return 0, fmt.Errorf("physics world cannot be nil")
	}
	if cfg == nil {
		return 0, fmt.Errorf("worm config cannot be nil")
	}

	chain, err := BuildChain(cfg.Body.BaseRadius, cfg.Body.SizeFactors, cfg.Body.SegmentGap)
	if err != nil {
		return 0, fmt.Errorf("failed to build worm chain: %w", err)
	}

	mat := physics.Material{
		Friction:       cfg.Body.Friction,
		StaticFriction: cfg.Body.StaticFriction,
		Density:        cfg.Body.Density,
		Restitution:    cfg.Body.Restitution,
	}
	segs := make([]components.Segment, len(chain))
	for i, link := range chain {
		body := world.AddCircle(head.Add(LayFlat(link.Offset)), link.Radius, mat)
		body.SetAngle(RestAngle)
		segs[i] = components.Segment{
			Index:  i,
			Radius: link.Radius,
			Class:  types.ClassifySegment(i),
			Body:   body,
		}
	}

	spine, muscles, spacers := PlanConstraints(chain, cfg.Body)
	for _, group := range [][]components.ConstraintLink{spine, muscles, spacers} {
		if err := AssembleConstraints(world, segs, group); err != nil {
			removeConstraints(world, spine, muscles, spacers)
			for _, s := range segs {
				world.RemoveBody(s.Body)
			}
			return 0, fmt.Errorf("failed to assemble constraints: %w", err)
		}
	}

	id := em.CreateEntity()
	em.AddComponent(id, &components.WormComponent{
		Segments:  segs,
		Spine:     spine,
		Muscles:   muscles,
		Spacers:   spacers,
		Config:    cfg,
		RestAngle: RestAngle,
	})
	em.AddComponent(id, components.NewMovementComponent(cfg.Locomotion.Seed))
	em.AddComponent(id, &components.InputComponent{})

	log.Printf("[WormFactory] Created worm entity %d: %d segments, %d spine, %d muscle, %d spacer",
		id, len(segs), len(spine), len(muscles), len(spacers))
	return id, nil
}

// DestroyWormEntity 从物理世界移除蠕虫的约束与刚体，并标记实体删除
func DestroyWormEntity(em *ecs.EntityManager, world physics.World, id ecs.EntityID) {
	worm, ok := ecs.GetComponent[*components.WormComponent](em, id)
	if !ok {
		return
	}
	removeConstraints(world, worm.Spine, worm.Muscles, worm.Spacers)
	for _, s := range worm.Segments {
		world.RemoveBody(s.Body)
	}
	em.DestroyEntity(id)
	em.RemoveMarkedEntities()
	log.Printf("[WormFactory] Destroyed worm entity %d", id)
}

// removeConstraints 移除已创建的约束并清空 Spring
func removeConstraints(world physics.World, groups ...[]components.ConstraintLink) {
	for _, group := range groups {
		for j := range group {
			if group[j].Spring != nil {
				world.RemoveSpring(group[j].Spring)
				group[j].Spring = nil
			}
		}
	}
}

// RefreshBaselines 用新的体节配置刷新约束基线（不重建体节链）
//
// 刚度、阻尼和间隔余量可以在运行中修改；半径、间隙等几何参数
// 只在重建时生效。运行时调制会在之后的 tick 中向新基线回归。
func RefreshBaselines(worm *components.WormComponent, body config.BodyConfig) {
	for j := range worm.Spine {
		worm.Spine[j].BaseStiffness = body.SpineStiffness
		worm.Spine[j].BaseDamping = body.SpineDamping
		if s := worm.Spine[j].Spring; s != nil {
			s.SetDamping(body.SpineDamping)
		}
	}
	for j := range worm.Muscles {
		worm.Muscles[j].BaseStiffness = body.MuscleStiffness
		worm.Muscles[j].BaseDamping = body.MuscleDamping
		if s := worm.Muscles[j].Spring; s != nil {
			s.SetStiffness(body.MuscleStiffness)
			s.SetDamping(body.MuscleDamping)
		}
	}
	for j := range worm.Spacers {
		l := &worm.Spacers[j]
		l.BaseLength = worm.Segments[l.A].Radius + worm.Segments[l.B].Radius + body.SpacerMargin
		l.BaseStiffness = body.SpacerStiffness
		l.BaseDamping = body.SpacerDamping
		if l.Spring != nil {
			l.Spring.SetRestLength(l.BaseLength)
			l.Spring.SetStiffness(body.SpacerStiffness)
			l.Spring.SetDamping(body.SpacerDamping)
		}
	}
}
