package main

import (
	"testing"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
)

func TestCanvasDrawPoses(t *testing.T) {
	c := newCanvas(80, 20, 0.1)
	poses := []components.SegmentPose{
		{Index: 0, X: 0, Y: 0},
		{Index: 1, X: 0, Y: -20},
		{Index: 2, X: 5000, Y: 0}, // 画面外
	}
	c.drawPoses(poses, cellBody, cellHead)

	col, row, ok := c.cellAt(0, 0)
	if !ok {
		t.Fatal("camera center should be on the canvas")
	}
	if col != 40 || row != 10 {
		t.Errorf("center cell (%d, %d), want (40, 10)", col, row)
	}
	if c.get(col, row) != cellHead {
		t.Error("head should be drawn at the center")
	}
	if c.get(40, 11) != cellBody {
		t.Error("segment 20 units below should be one row down")
	}
	if _, _, ok := c.cellAt(5000, 0); ok {
		t.Error("far point should be off canvas")
	}
}

func TestCanvasDrawArena(t *testing.T) {
	c := newCanvas(80, 20, 0.1)
	c.camera.Y = 50
	arena := config.DefaultArenaConfig()
	arena.Platforms = nil
	c.drawArena(arena)

	// 地面 y=0 在摄像机下方 50 单位 → 半行坐标 20+5 → 第 12 行
	if c.get(10, 11) != cellEmpty {
		t.Error("row above the ground should be empty")
	}
	if c.get(10, 12) != cellGround || c.get(10, 19) != cellGround {
		t.Error("rows at and below the ground should be filled")
	}

	c.resize(10, 5)
	if len(c.cells) != 50 || c.get(0, 0) != cellEmpty {
		t.Error("resize should reset the canvas")
	}
}
