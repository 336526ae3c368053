// Package physics 定义蠕虫核心与物理引擎之间的边界
//
// 核心只通过 World / Body / Spring 三个接口读写物理状态，
// 具体实现 CPWorld 基于 chipmunk (github.com/jakecoffman/cp)。
// 测试可以提供自己的实现，不必运行真实求解器。
package physics

import "github.com/jakecoffman/cp"

// Material 刚体材质参数
type Material struct {
	Friction       float64 // 动摩擦系数
	StaticFriction float64 // 静摩擦系数
	Density        float64 // 密度（质量 = 密度 × 面积）
	Restitution    float64 // 弹性
}

// Body 单个刚体的读写接口
type Body interface {
	Position() cp.Vector
	Velocity() cp.Vector
	Angle() float64
	// SetAngle 运动学覆盖：直接写入角度
	SetAngle(angle float64)
	AngularVelocity() float64
	// SetAngularVelocity 运动学覆盖：直接写入角速度
	SetAngularVelocity(w float64)
	Mass() float64
	Moment() float64
	// ApplyTorque 叠加本步的持续力矩，求解一步后清零
	ApplyTorque(torque float64)
	// ApplyForce 在世界坐标点施加力
	ApplyForce(force, worldPoint cp.Vector)
	SetFriction(kinetic, static float64)
	Friction() (kinetic, static float64)
}

// Spring 距离约束（阻尼弹簧）
type Spring interface {
	RestLength() float64
	SetRestLength(length float64)
	Stiffness() float64
	SetStiffness(k float64)
	Damping() float64
	SetDamping(d float64)
}

// Contact 刚体的一个活动碰撞对
type Contact struct {
	// Normal 接触法线，方向从支撑物指向该刚体
	Normal cp.Vector
	// Static 对方是否为静态刚体
	Static bool
}

// SpringSpec 创建约束所需的参数
type SpringSpec struct {
	A, B             Body
	AnchorA, AnchorB cp.Vector // 各自刚体局部坐标
	RestLength       float64
	Stiffness        float64
	Damping          float64
	// OneSided 为 true 时只在压缩（距离小于静止长度）时产生推力
	OneSided bool
	// CollideBodies 为 false 时两端刚体之间不产生碰撞
	CollideBodies bool
}

// World 物理世界
type World interface {
	AddCircle(pos cp.Vector, radius float64, mat Material) Body
	AddSpring(spec SpringSpec) Spring
	RemoveSpring(s Spring)
	RemoveBody(b Body)
	// EachContact 遍历刚体当前的所有碰撞对
	EachContact(b Body, fn func(Contact))
	Step(dt float64)
}
