package physics

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

func newTestWorld(gravity cp.Vector) *CPWorld {
	cfg := DefaultCPWorldConfig()
	cfg.Gravity = gravity
	return NewCPWorld(cfg)
}

var testMaterial = Material{Friction: 0.8, StaticFriction: 1.0, Density: 0.01, Restitution: 0}

// TestCircleRestsOnGroundWithUpNormal 圆落到地面后应报告一个来自静态刚体、法线向上的接触
func TestCircleRestsOnGroundWithUpNormal(t *testing.T) {
	w := newTestWorld(cp.Vector{X: 0, Y: -600})
	w.AddGround(0, -500, 500, 1)
	body := w.AddCircle(cp.Vector{X: 0, Y: 12}, 10, testMaterial)

	for i := 0; i < 120; i++ {
		w.Step(1.0 / 60.0)
	}

	found := false
	w.EachContact(body, func(c Contact) {
		found = true
		if !c.Static {
			t.Errorf("ground contact should be static")
		}
		if c.Normal.Dot(cp.Vector{X: 0, Y: 1}) < 0.9 {
			t.Errorf("contact normal should point up from the ground, got %+v", c.Normal)
		}
	})
	if !found {
		t.Fatalf("expected a contact after resting on the ground, body at %+v", body.Position())
	}
}

func TestCircleMassFromDensity(t *testing.T) {
	w := newTestWorld(cp.Vector{})
	body := w.AddCircle(cp.Vector{}, 10, testMaterial)

	want := testMaterial.Density * math.Pi * 100
	if math.Abs(body.Mass()-want) > 1e-9 {
		t.Errorf("Mass() = %f, want %f", body.Mass(), want)
	}
	if body.Moment() <= 0 {
		t.Errorf("Moment() should be positive, got %f", body.Moment())
	}
}

func TestKinematicOverride(t *testing.T) {
	w := newTestWorld(cp.Vector{})
	body := w.AddCircle(cp.Vector{}, 10, testMaterial)

	body.SetAngle(1.25)
	body.SetAngularVelocity(-3)
	if body.Angle() != 1.25 {
		t.Errorf("Angle() = %f, want 1.25", body.Angle())
	}
	if body.AngularVelocity() != -3 {
		t.Errorf("AngularVelocity() = %f, want -3", body.AngularVelocity())
	}
}

func TestTorqueSpinsBody(t *testing.T) {
	w := newTestWorld(cp.Vector{})
	body := w.AddCircle(cp.Vector{}, 10, testMaterial)

	body.ApplyTorque(body.Moment() * 5)
	w.Step(1.0 / 60.0)

	if body.AngularVelocity() <= 0 {
		t.Errorf("positive torque should produce positive angular velocity, got %f", body.AngularVelocity())
	}
}

// TestOneSidedSpringDoesNotPull 单向弹簧在拉伸状态下不应产生拉力
func TestOneSidedSpringDoesNotPull(t *testing.T) {
	w := newTestWorld(cp.Vector{})
	a := w.AddCircle(cp.Vector{X: 0, Y: 0}, 5, testMaterial)
	b := w.AddCircle(cp.Vector{X: 100, Y: 0}, 5, testMaterial)

	w.AddSpring(SpringSpec{A: a, B: b, RestLength: 20, Stiffness: 500, Damping: 0, OneSided: true})
	for i := 0; i < 30; i++ {
		w.Step(1.0 / 60.0)
	}

	dist := b.Position().Distance(a.Position())
	if math.Abs(dist-100) > 1e-6 {
		t.Errorf("one-sided spring pulled the bodies together: distance %f", dist)
	}
}

func TestTwoSidedSpringPulls(t *testing.T) {
	w := newTestWorld(cp.Vector{})
	a := w.AddCircle(cp.Vector{X: 0, Y: 0}, 5, testMaterial)
	b := w.AddCircle(cp.Vector{X: 100, Y: 0}, 5, testMaterial)

	s := w.AddSpring(SpringSpec{A: a, B: b, RestLength: 20, Stiffness: 500, Damping: 1})
	for i := 0; i < 30; i++ {
		w.Step(1.0 / 60.0)
	}

	if dist := b.Position().Distance(a.Position()); dist >= 100 {
		t.Errorf("spring should pull bodies together, distance %f", dist)
	}

	s.SetStiffness(123)
	s.SetRestLength(7)
	s.SetDamping(0.5)
	if s.Stiffness() != 123 || s.RestLength() != 7 || s.Damping() != 0.5 {
		t.Errorf("spring parameters not written back: k=%f len=%f d=%f", s.Stiffness(), s.RestLength(), s.Damping())
	}
}

func TestFrictionPairRoundTrip(t *testing.T) {
	w := newTestWorld(cp.Vector{})
	body := w.AddCircle(cp.Vector{}, 5, testMaterial)

	body.SetFriction(0.2, 0.4)
	kinetic, static := body.Friction()
	if kinetic != 0.2 || static != 0.4 {
		t.Errorf("Friction() = (%f, %f), want (0.2, 0.4)", kinetic, static)
	}
}

// TestCircleCollision 重叠的圆被推开；CollideBodies 为 false 的约束两端允许重叠
func TestCircleCollision(t *testing.T) {
	tests := []struct {
		name     string
		spring   bool
		collide  bool
		separate bool
	}{
		{"free circles", false, false, true},
		{"linked without collision", true, false, false},
		{"linked with collision", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(cp.Vector{})
			a := w.AddCircle(cp.Vector{X: 0, Y: 0}, 5, testMaterial)
			b := w.AddCircle(cp.Vector{X: 4, Y: 0}, 5, testMaterial)
			if tt.spring {
				// 零刚度：只影响碰撞过滤，不出力
				w.AddSpring(SpringSpec{A: a, B: b, RestLength: 4, CollideBodies: tt.collide})
			}
			for i := 0; i < 60; i++ {
				w.Step(1.0 / 60.0)
			}

			dist := b.Position().Distance(a.Position())
			if tt.separate && dist < 9 {
				t.Errorf("overlapping circles should be pushed apart, distance %f", dist)
			}
			if !tt.separate && math.Abs(dist-4) > 1e-6 {
				t.Errorf("linked circles should pass through each other, distance %f", dist)
			}
		})
	}
}
