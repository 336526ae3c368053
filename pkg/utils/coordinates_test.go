package utils

import (
	"math"
	"testing"
)

func TestCameraWorldToScreen(t *testing.T) {
	c := NewCamera(960, 540, 2)
	c.X, c.Y = 100, 50

	tests := []struct {
		name           string
		wx, wy         float64
		wantSX, wantSY float64
	}{
		{"camera center", 100, 50, 480, 270},
		{"right of center", 110, 50, 500, 270},
		{"above center goes up on screen", 100, 60, 480, 250},
		{"below center goes down on screen", 100, 40, 480, 290},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sx, sy := c.WorldToScreen(tt.wx, tt.wy)
			if sx != tt.wantSX || sy != tt.wantSY {
				t.Errorf("WorldToScreen(%v, %v) = (%v, %v), want (%v, %v)", tt.wx, tt.wy, sx, sy, tt.wantSX, tt.wantSY)
			}
			wx, wy := c.ScreenToWorld(sx, sy)
			if math.Abs(wx-tt.wx) > 1e-9 || math.Abs(wy-tt.wy) > 1e-9 {
				t.Errorf("ScreenToWorld round trip = (%v, %v)", wx, wy)
			}
		})
	}
}

func TestCameraFollow(t *testing.T) {
	c := NewCamera(960, 540, 1)
	for range 600 {
		c.Follow(200, -30, 1.0/60)
	}
	if math.Abs(c.X-200) > 1e-3 || math.Abs(c.Y+30) > 1e-3 {
		t.Errorf("camera at (%f, %f), want (200, -30)", c.X, c.Y)
	}

	c.FollowRate = 0
	c.Follow(5, 6, 1.0/60)
	if c.X != 5 || c.Y != 6 {
		t.Errorf("zero follow rate should snap, got (%f, %f)", c.X, c.Y)
	}
}

func TestCameraVisible(t *testing.T) {
	c := NewCamera(960, 540, 1)
	if !c.Visible(0, 0, 10) {
		t.Error("center should be visible")
	}
	if c.Visible(1000, 0, 10) {
		t.Error("far right should not be visible")
	}
	if !c.Visible(-485, 0, 10) {
		t.Error("circle overlapping the left edge should be visible")
	}
}
