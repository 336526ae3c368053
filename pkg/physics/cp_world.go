package physics

import (
	"math"

	"github.com/jakecoffman/cp"
)

// CPWorldConfig chipmunk 世界参数
type CPWorldConfig struct {
	Gravity    cp.Vector
	Iterations uint
	// RestSpeed 低于该线速度的刚体使用静摩擦系数
	RestSpeed float64
}

// DefaultCPWorldConfig 返回沙盒使用的默认世界参数（y 轴向上）
func DefaultCPWorldConfig() CPWorldConfig {
	return CPWorldConfig{
		Gravity:    cp.Vector{X: 0, Y: -600},
		Iterations: 20,
		RestSpeed:  2.0,
	}
}

// CPWorld 基于 chipmunk 的 World 实现
type CPWorld struct {
	space  *cp.Space
	cfg    CPWorldConfig
	bodies []*cpBody
}

// NewCPWorld 创建 chipmunk 物理世界
func NewCPWorld(cfg CPWorldConfig) *CPWorld {
	space := cp.NewSpace()
	space.SetGravity(cfg.Gravity)
	if cfg.Iterations > 0 {
		space.Iterations = cfg.Iterations
	}
	return &CPWorld{space: space, cfg: cfg}
}

// Space 暴露底层 chipmunk 空间（用于调试绘制等外部用途）
func (w *CPWorld) Space() *cp.Space {
	return w.space
}

// AddGround 添加一条水平静态地面线段
func (w *CPWorld) AddGround(y, minX, maxX, friction float64) {
	w.AddStaticSegment(cp.Vector{X: minX, Y: y}, cp.Vector{X: maxX, Y: y}, 0, friction)
}

// AddStaticSegment 添加一条静态线段（地面、平台上沿、墙）
func (w *CPWorld) AddStaticSegment(a, b cp.Vector, radius, friction float64) {
	shape := w.space.AddShape(cp.NewSegment(w.space.StaticBody, a, b, radius))
	shape.SetFriction(friction)
	shape.SetElasticity(0)
}

// AddPlatform 添加一个矩形静态平台（以四条线段围成）
func (w *CPWorld) AddPlatform(minX, minY, maxX, maxY, friction float64) {
	corners := []cp.Vector{
		{X: minX, Y: minY}, {X: maxX, Y: minY},
		{X: maxX, Y: maxY}, {X: minX, Y: maxY},
	}
	for i := range corners {
		w.AddStaticSegment(corners[i], corners[(i+1)%len(corners)], 0, friction)
	}
}

// AddCircle 创建圆形动态刚体，质量由密度和面积决定
//
// 刚体之间默认互相碰撞；被 CollideBodies 为 false 的约束连接的两体除外。
func (w *CPWorld) AddCircle(pos cp.Vector, radius float64, mat Material) Body {
	mass := mat.Density * math.Pi * radius * radius
	if mass <= 0 {
		mass = 1
	}
	body := w.space.AddBody(cp.NewBody(mass, cp.MomentForCircle(mass, 0, radius, cp.Vector{})))
	body.SetPosition(pos)

	shape := w.space.AddShape(cp.NewCircle(body, radius, cp.Vector{}))
	shape.SetFriction(mat.Friction)
	shape.SetElasticity(mat.Restitution)

	b := &cpBody{
		body:           body,
		shape:          shape,
		friction:       mat.Friction,
		staticFriction: mat.StaticFriction,
	}
	w.bodies = append(w.bodies, b)
	return b
}

// RemoveBody 从世界中移除刚体及其形状
func (w *CPWorld) RemoveBody(b Body) {
	cb, ok := b.(*cpBody)
	if !ok {
		return
	}
	for i, existing := range w.bodies {
		if existing == cb {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	w.space.RemoveShape(cb.shape)
	w.space.RemoveBody(cb.body)
}

// AddSpring 创建阻尼弹簧约束
//
// OneSided 弹簧替换 chipmunk 的弹力函数：距离不小于静止长度时不出力，
// 只在两端被压近时推开。
func (w *CPWorld) AddSpring(spec SpringSpec) Spring {
	a, okA := spec.A.(*cpBody)
	b, okB := spec.B.(*cpBody)
	if !okA || !okB {
		return nil
	}
	constraint := w.space.AddConstraint(cp.NewDampedSpring(
		a.body, b.body, spec.AnchorA, spec.AnchorB,
		spec.RestLength, spec.Stiffness, spec.Damping,
	))
	constraint.SetCollideBodies(spec.CollideBodies)

	spring := constraint.Class.(*cp.DampedSpring)
	if spec.OneSided {
		spring.SpringForceFunc = pushOnlySpringForce
	}
	return &cpSpring{constraint: constraint, spring: spring}
}

func pushOnlySpringForce(spring *cp.DampedSpring, dist float64) float64 {
	if dist >= spring.RestLength {
		return 0
	}
	return (spring.RestLength - dist) * spring.Stiffness
}

// RemoveSpring 从世界中移除约束
func (w *CPWorld) RemoveSpring(s Spring) {
	if cs, ok := s.(*cpSpring); ok {
		w.space.RemoveConstraint(cs.constraint)
	}
}

// EachContact 遍历刚体的活动碰撞对
//
// chipmunk 的碰撞法线从形状 A 指向形状 B；EachArbiter 保证当前刚体为 A，
// 因此取反后得到"支撑物 → 刚体"方向。
func (w *CPWorld) EachContact(b Body, fn func(Contact)) {
	cb, ok := b.(*cpBody)
	if !ok {
		return
	}
	cb.body.EachArbiter(func(arb *cp.Arbiter) {
		_, other := arb.Bodies()
		fn(Contact{
			Normal: arb.Normal().Neg(),
			Static: other.GetType() == cp.BODY_STATIC,
		})
	})
}

// Step 推进一步
//
// 求解前按刚体速度选择静/动摩擦系数（chipmunk 只有一个摩擦系数）。
func (w *CPWorld) Step(dt float64) {
	for _, b := range w.bodies {
		f := b.friction
		if b.body.Velocity().Length() < w.cfg.RestSpeed {
			f = b.staticFriction
		}
		b.shape.SetFriction(f)
	}
	w.space.Step(dt)
}

type cpBody struct {
	body           *cp.Body
	shape          *cp.Shape
	friction       float64
	staticFriction float64
}

func (b *cpBody) Position() cp.Vector { return b.body.Position() }
func (b *cpBody) Velocity() cp.Vector { return b.body.Velocity() }
func (b *cpBody) Angle() float64 { return b.body.Angle() }
func (b *cpBody) SetAngle(angle float64) { b.body.SetAngle(angle) }
func (b *cpBody) AngularVelocity() float64 { return b.body.AngularVelocity() }
func (b *cpBody) SetAngularVelocity(w float64) { b.body.SetAngularVelocity(w) }
func (b *cpBody) Mass() float64 { return b.body.Mass() }
func (b *cpBody) Moment() float64 { return b.body.Moment() }

func (b *cpBody) ApplyTorque(torque float64) {
	b.body.SetTorque(b.body.Torque() + torque)
}

func (b *cpBody) ApplyForce(force, worldPoint cp.Vector) {
	b.body.ApplyForceAtWorldPoint(force, worldPoint)
}

func (b *cpBody) SetFriction(kinetic, static float64) {
	b.friction = kinetic
	b.staticFriction = static
}

func (b *cpBody) Friction() (float64, float64) {
	return b.friction, b.staticFriction
}

type cpSpring struct {
	constraint *cp.Constraint
	spring     *cp.DampedSpring
}

func (s *cpSpring) RestLength() float64 { return s.spring.RestLength }

func (s *cpSpring) SetRestLength(length float64) {
	s.spring.RestLength = length
}

func (s *cpSpring) Stiffness() float64 { return s.spring.Stiffness }

func (s *cpSpring) SetStiffness(k float64) {
	s.spring.Stiffness = k
}

func (s *cpSpring) Damping() float64 { return s.spring.Damping }

func (s *cpSpring) SetDamping(d float64) {
	s.spring.Damping = d
}
