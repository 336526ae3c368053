package main

import (
	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/utils"
)

// 单元格种类，绘制时映射为字符和颜色
const (
	cellEmpty byte = iota
	cellGround
	cellPlatform
	cellBody
	cellHead
	cellGhost
)

// canvas 终端字符画布
//
// 摄像机工作在"半行"坐标上：终端字符高约为宽的两倍，
// 因此虚拟像素高度 = 行数 × 2，落到行时再除以 2。
type canvas struct {
	cols, rows int
	cells      []byte
	camera     *utils.Camera
}

func newCanvas(cols, rows int, scale float64) *canvas {
	c := &canvas{camera: utils.NewCamera(0, 0, scale)}
	c.resize(cols, rows)
	return c
}

func (c *canvas) resize(cols, rows int) {
	c.cols, c.rows = max(cols, 1), max(rows, 1)
	c.cells = make([]byte, c.cols*c.rows)
	c.camera.ScreenWidth = float64(c.cols)
	c.camera.ScreenHeight = float64(c.rows * 2)
}

func (c *canvas) clear() {
	clear(c.cells)
}

// cellAt 世界坐标 → 单元格；越界时 ok 为 false
func (c *canvas) cellAt(x, y float64) (col, row int, ok bool) {
	sx, sy := c.camera.WorldToScreen(x, y)
	col, row = int(sx), int(sy/2)
	if sx < 0 || sy < 0 || col >= c.cols || row >= c.rows {
		return 0, 0, false
	}
	return col, row, true
}

func (c *canvas) set(col, row int, kind byte) {
	if col >= 0 && row >= 0 && col < c.cols && row < c.rows {
		c.cells[row*c.cols+col] = kind
	}
}

func (c *canvas) get(col, row int) byte {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return cellEmpty
	}
	return c.cells[row*c.cols+col]
}

// fillWorldRect 填充世界坐标矩形
func (c *canvas) fillWorldRect(minX, minY, maxX, maxY float64, kind byte) {
	x0, y0 := c.camera.WorldToScreen(minX, maxY)
	x1, y1 := c.camera.WorldToScreen(maxX, minY)
	for row := max(int(y0/2), 0); row <= min(int(y1/2), c.rows-1); row++ {
		for col := max(int(x0), 0); col <= min(int(x1), c.cols-1); col++ {
			c.set(col, row, kind)
		}
	}
}

// drawArena 地面以下全部填充，平台画成实心块
func (c *canvas) drawArena(arena *config.ArenaConfig) {
	if arena == nil {
		return
	}
	_, bottom := c.camera.ScreenToWorld(0, c.camera.ScreenHeight)
	c.fillWorldRect(arena.MinX, bottom, arena.MaxX, arena.GroundY, cellGround)
	for _, p := range arena.Platforms {
		c.fillWorldRect(p.MinX, p.MinY, p.MaxX, p.MaxY, cellPlatform)
	}
}

// drawPoses 每个体节占据其圆心所在单元格；头部最后绘制，保证可见
func (c *canvas) drawPoses(poses []components.SegmentPose, body, head byte) {
	for i := len(poses) - 1; i >= 0; i-- {
		kind := body
		if i == 0 {
			kind = head
		}
		if col, row, ok := c.cellAt(poses[i].X, poses[i].Y); ok {
			c.set(col, row, kind)
		}
	}
}
