package components

import (
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/physics"
	"github.com/gonewx/worm/pkg/types"
	"github.com/gonewx/worm/pkg/utils"
	"github.com/jakecoffman/cp"
)

// Segment 蠕虫的一个圆形体节
//
// 半径与顺序在创建后固定；位置、角度等运动学字段由物理引擎持有，
// 通过 Body 读写。体节不持有任何渲染对象的引用，渲染端按索引查找。
type Segment struct {
	Index  int
	Radius float64
	Class  types.SegmentClass
	Body   physics.Body
}

// ConstraintKind 约束类别
type ConstraintKind int

const (
	// ConstraintSpine 脊柱：相邻体节，锚定在相切点
	ConstraintSpine ConstraintKind = iota
	// ConstraintMuscle 肌肉：相邻体节，锚定在左右两侧
	ConstraintMuscle
	// ConstraintSpacer 间隔：隔一节相连，只防止自相交
	ConstraintSpacer
)

// String 返回约束类别名
func (k ConstraintKind) String() string {
	switch k {
	case ConstraintSpine:
		return "spine"
	case ConstraintMuscle:
		return "muscle"
	default:
		return "spacer"
	}
}

// MuscleSide 肌肉约束所在侧
type MuscleSide int

const (
	MuscleNone MuscleSide = iota
	MuscleLeft
	MuscleRight
)

// ConstraintLink 一条约束及其基线参数
//
// Base* 是恢复的目标值；运行时调制只改 Spring 上的当前值。
type ConstraintLink struct {
	Kind             ConstraintKind
	Side             MuscleSide
	A, B             int // 体节索引
	AnchorA, AnchorB cp.Vector
	BaseLength       float64
	BaseStiffness    float64
	BaseDamping      float64
	Spring           physics.Spring
}

// WormComponent 蠕虫的体节链与约束网络
type WormComponent struct {
	Segments []Segment
	Spine    []ConstraintLink // len = N-1，Spine[i] 连接 i 与 i+1
	Muscles  []ConstraintLink // len = 2(N-1) 或 0
	Spacers  []ConstraintLink // len = N-2

	// Config 外部持有的调参记录，每 tick 读取
	Config *config.WormConfig

	// RestAngle 体节放平（链水平、头朝 +X）时刚体的角度
	RestAngle float64
}

// Lean 体节 i 相对放平姿态的前倾角，范围 [-π, π]
//
// 顺时针为正：正值表示体节上沿倒向 +X。y 轴向上时刚体角度以逆时针为正，
// 因此这里取反，使"向 +X 前倾"与 direction = +1 同号。
func (w *WormComponent) Lean(i int) float64 {
	return -utils.NormalizeAngle(w.Segments[i].Body.Angle() - w.RestAngle)
}

// ApplyLeanTorque 按前倾方向（顺时针为正）给体节 i 施加力矩
func (w *WormComponent) ApplyLeanTorque(i int, torque float64) {
	w.Segments[i].Body.ApplyTorque(-torque)
}

// SegmentCount 返回体节数量
func (w *WormComponent) SegmentCount() int {
	return len(w.Segments)
}

// Head 返回头部体节
func (w *WormComponent) Head() *Segment {
	return &w.Segments[0]
}

// SegmentPose 每 tick 对外暴露的只读体节姿态
type SegmentPose struct {
	Index  int
	X, Y   float64
	Angle  float64
	Radius float64
}
