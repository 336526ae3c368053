package utils

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestNormalizeAngleRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10000; i++ {
		a := (rng.Float64() - 0.5) * 200
		b := (rng.Float64() - 0.5) * 200
		d := AngleDiff(a, b)
		if d < -math.Pi || d > math.Pi {
			t.Fatalf("AngleDiff(%f, %f) = %f, out of [-π, π]", a, b, d)
		}
		// 归一化后的差值与原差值相差 2π 的整数倍
		k := (a - b - d) / (2 * math.Pi)
		if math.Abs(k-math.Round(k)) > 1e-6 {
			t.Fatalf("AngleDiff(%f, %f) = %f is not congruent to the raw difference", a, b, d)
		}
	}
}

func TestNormalizeAngleCases(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"just over pi", math.Pi + 0.1, -math.Pi + 0.1},
		{"just under -pi", -math.Pi - 0.1, math.Pi - 0.1},
		{"three turns", 6*math.Pi + 0.5, 0.5},
		{"negative turns", -4*math.Pi - 0.25, -0.25},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAngle(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// 跨越 ±π 边界时，差值应取最短路径而不是绕一整圈
func TestAngleDiffAcrossBoundary(t *testing.T) {
	d := AngleDiff(-math.Pi+0.05, math.Pi-0.05)
	if math.Abs(d-0.1) > 1e-9 {
		t.Errorf("AngleDiff across boundary = %f, want 0.1", d)
	}
}

func TestLerpEndpoints(t *testing.T) {
	if got := Lerp(0.37, 0.9, 1); got != 0.9 {
		t.Errorf("Lerp(a, b, 1) = %v, want exactly b", got)
	}
	if got := Lerp(0.37, 0.9, 0); got != 0.37 {
		t.Errorf("Lerp(a, b, 0) = %v, want exactly a", got)
	}
}

func TestExpBlendConverges(t *testing.T) {
	v := 10.0
	for i := 0; i < 200; i++ {
		v = ExpBlend(v, 2, 0.1)
	}
	if math.Abs(v-2) > 1e-6 {
		t.Errorf("ExpBlend did not converge: %f", v)
	}
}
