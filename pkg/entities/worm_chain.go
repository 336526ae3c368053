package entities

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
)

// ErrTooFewSegments 体型系数不足两个
//
// 控制器的头/颈/尾索引都假定至少有两节，单节"蠕虫"在创建时就拒绝。
var ErrTooFewSegments = errors.New("worm needs at least 2 segments")

// ChainLink 体节链中一节的几何描述
type ChainLink struct {
	Index  int
	Radius float64
	// Offset 相对头部圆心的偏移（世界 y 轴向上，链沿 -Y 方向延伸）
	Offset cp.Vector
}

// BuildChain 根据体型系数生成体节链
//
// 相邻两节圆心距离为 r[i] + r[i+1] + gap，即两圆相切后再留出 gap 的间隙。
// 纯函数，不接触物理世界。
//
// 参数:
//   - baseRadius: 基础半径，必须 > 0
//   - sizeFactors: 头到尾的半径系数，至少 2 个
//   - gap: 相邻切点之间的间隙
//
// 返回:
//   - []ChainLink: 头到尾排列的体节
//   - error: 系数不足时返回 ErrTooFewSegments
func BuildChain(baseRadius float64, sizeFactors []float64, gap float64) ([]ChainLink, error) {
	if len(sizeFactors) < 2 {
		return nil, fmt.Errorf("%w: got %d size factors", ErrTooFewSegments, len(sizeFactors))
	}
	if baseRadius <= 0 {
		return nil, fmt.Errorf("base radius must be > 0, got %.3f", baseRadius)
	}

	links := make([]ChainLink, len(sizeFactors))
	y := 0.0
	for i, factor := range sizeFactors {
		if factor <= 0 {
			return nil, fmt.Errorf("size factor %d must be > 0, got %.3f", i, factor)
		}
		r := baseRadius * factor
		if i > 0 {
			y -= links[i-1].Radius + r + gap
		}
		links[i] = ChainLink{Index: i, Radius: r, Offset: cp.Vector{X: 0, Y: y}}
	}
	return links, nil
}

// CenterDistance 相邻两节圆心间距
func CenterDistance(ra, rb, gap float64) float64 {
	return ra + rb + gap
}
