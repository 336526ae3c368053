package utils

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestScriptedKeys(t *testing.T) {
	keys := NewScriptedKeys()
	keys.Press(ebiten.KeySpace)

	if !keys.IsPressed(ebiten.KeySpace) || !keys.JustPressed(ebiten.KeySpace) {
		t.Fatal("first frame should report pressed and just pressed")
	}
	keys.Advance()
	if !keys.IsPressed(ebiten.KeySpace) || keys.JustPressed(ebiten.KeySpace) {
		t.Error("held key should not be just pressed on the next frame")
	}

	keys.Release(ebiten.KeySpace)
	keys.Advance()
	keys.Press(ebiten.KeySpace)
	if !keys.JustPressed(ebiten.KeySpace) {
		t.Error("re-pressed key should be just pressed again")
	}
}

func TestAxisFromKeys(t *testing.T) {
	tests := []struct {
		name        string
		left, right bool
		want        float64
	}{
		{"none", false, false, 0},
		{"left", true, false, -1},
		{"right", false, true, 1},
		{"both cancel", true, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := NewScriptedKeys()
			if tt.left {
				keys.Press(ebiten.KeyArrowLeft)
			}
			if tt.right {
				keys.Press(ebiten.KeyArrowRight)
			}
			if got := AxisFromKeys(keys, ebiten.KeyArrowLeft, ebiten.KeyArrowRight); got != tt.want {
				t.Errorf("AxisFromKeys() = %v, want %v", got, tt.want)
			}
		})
	}
}
