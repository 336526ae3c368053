package physics

import (
	"math"

	"github.com/jakecoffman/cp"
)

// FakeWorld 不做碰撞求解的内存世界
//
// 只按显式欧拉积分力与力矩，约束只保存参数不产生力，接触由调用方设置。
// 用于控制器的确定性测试和无物理的回放。
type FakeWorld struct {
	Gravity cp.Vector
	Bodies  []*FakeBody
	Springs []*FakeSpring
	Steps   int
}

// NewFakeWorld 创建内存世界
func NewFakeWorld() *FakeWorld {
	return &FakeWorld{}
}

// AddCircle 创建圆形刚体
func (w *FakeWorld) AddCircle(pos cp.Vector, radius float64, mat Material) Body {
	mass := mat.Density * math.Pi * radius * radius
	if mass <= 0 {
		mass = 1
	}
	b := &FakeBody{
		Pos:         pos,
		M:           mass,
		I:           mass * radius * radius / 2,
		Radius:      radius,
		KineticFric: mat.Friction,
		StaticFric:  mat.StaticFriction,
	}
	w.Bodies = append(w.Bodies, b)
	return b
}

// AddSpring 记录约束参数
func (w *FakeWorld) AddSpring(spec SpringSpec) Spring {
	s := &FakeSpring{
		Spec:   spec,
		Length: spec.RestLength,
		K:      spec.Stiffness,
		D:      spec.Damping,
	}
	w.Springs = append(w.Springs, s)
	return s
}

// RemoveSpring 移除约束
func (w *FakeWorld) RemoveSpring(s Spring) {
	for i, existing := range w.Springs {
		if existing == s {
			w.Springs = append(w.Springs[:i], w.Springs[i+1:]...)
			return
		}
	}
}

// RemoveBody 移除刚体
func (w *FakeWorld) RemoveBody(b Body) {
	for i, existing := range w.Bodies {
		if existing == b {
			w.Bodies = append(w.Bodies[:i], w.Bodies[i+1:]...)
			return
		}
	}
}

// EachContact 返回调用方为刚体设置的接触
func (w *FakeWorld) EachContact(b Body, fn func(Contact)) {
	fb, ok := b.(*FakeBody)
	if !ok {
		return
	}
	for _, c := range fb.ContactNormals {
		fn(c)
	}
}

// Step 显式欧拉积分一步
func (w *FakeWorld) Step(dt float64) {
	for _, b := range w.Bodies {
		b.AngVel += b.PendingTorque / b.I * dt
		b.Ang += b.AngVel * dt

		accel := b.PendingForce.Mult(1 / b.M).Add(w.Gravity)
		b.Vel = b.Vel.Add(accel.Mult(dt))
		b.Pos = b.Pos.Add(b.Vel.Mult(dt))

		b.LastTorque = b.PendingTorque
		b.LastForces = b.PendingForces
		b.PendingTorque = 0
		b.PendingForce = cp.Vector{}
		b.PendingForces = nil
	}
	w.Steps++
}

// FakeBody FakeWorld 的刚体
type FakeBody struct {
	Pos, Vel    cp.Vector
	Ang, AngVel float64
	M, I        float64
	Radius      float64

	KineticFric, StaticFric float64

	// PendingTorque / PendingForce 本步累计的力矩与合力
	PendingTorque float64
	PendingForce  cp.Vector
	// PendingForces 本步每次 ApplyForce 的记录
	PendingForces []cp.Vector
	// LastTorque / LastForces 上一步积分时使用的值
	LastTorque float64
	LastForces []cp.Vector

	// ContactNormals 由测试设置的接触
	ContactNormals []Contact
}

func (b *FakeBody) Position() cp.Vector { return b.Pos }
func (b *FakeBody) Velocity() cp.Vector { return b.Vel }
func (b *FakeBody) Angle() float64 { return b.Ang }
func (b *FakeBody) SetAngle(angle float64) { b.Ang = angle }
func (b *FakeBody) AngularVelocity() float64 { return b.AngVel }
func (b *FakeBody) SetAngularVelocity(w float64) { b.AngVel = w }
func (b *FakeBody) Mass() float64 { return b.M }
func (b *FakeBody) Moment() float64 { return b.I }
func (b *FakeBody) ApplyTorque(torque float64) { b.PendingTorque += torque }

func (b *FakeBody) ApplyForce(force, _ cp.Vector) {
	b.PendingForce = b.PendingForce.Add(force)
	b.PendingForces = append(b.PendingForces, force)
}

func (b *FakeBody) SetFriction(kinetic, static float64) {
	b.KineticFric = kinetic
	b.StaticFric = static
}

func (b *FakeBody) Friction() (float64, float64) {
	return b.KineticFric, b.StaticFric
}

// FakeSpring FakeWorld 的约束
type FakeSpring struct {
	Spec   SpringSpec
	Length float64
	K      float64
	D      float64
}

func (s *FakeSpring) RestLength() float64 { return s.Length }
func (s *FakeSpring) SetRestLength(length float64) { s.Length = length }
func (s *FakeSpring) Stiffness() float64 { return s.K }
func (s *FakeSpring) SetStiffness(k float64) { s.K = k }
func (s *FakeSpring) Damping() float64 { return s.D }
func (s *FakeSpring) SetDamping(d float64) { s.D = d }
