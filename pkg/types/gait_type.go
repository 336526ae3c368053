// Package types 定义共享的基础类型
// 这个包不依赖任何其他业务包，用于解决循环引用问题
package types

import (
	"fmt"
	"strings"
)

// GaitStrategy 跳跃/发射步态策略
type GaitStrategy int

const (
	// GaitNone 没有激活的步态
	GaitNone GaitStrategy = iota
	// GaitSpiral 螺旋：按奇偶交替的正弦力矩
	GaitSpiral
	// GaitCatapult 投石机：前半身抬起、后半身压低作配重
	GaitCatapult
	// GaitCoil 盘绕：围绕盘绕中心弯曲并加硬脊柱
	GaitCoil
	// GaitCompressionWave 压缩波：从尾到头传播的脉冲，到达头部时抬头
	GaitCompressionWave
	// GaitContraction 收缩：相邻体节互相拉近并带向上分量（需着地）
	GaitContraction
)

// AllGaits 可选择的步态（不含 GaitNone）
var AllGaits = []GaitStrategy{
	GaitSpiral,
	GaitCatapult,
	GaitCoil,
	GaitCompressionWave,
	GaitContraction,
}

// String 返回步态的配置名
func (g GaitStrategy) String() string {
	switch g {
	case GaitSpiral:
		return "spiral"
	case GaitCatapult:
		return "catapult"
	case GaitCoil:
		return "coil"
	case GaitCompressionWave:
		return "wave"
	case GaitContraction:
		return "contraction"
	default:
		return "none"
	}
}

// ParseGaitStrategy 解析配置文件中的步态名（大小写不敏感）
func ParseGaitStrategy(name string) (GaitStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "spiral":
		return GaitSpiral, nil
	case "catapult":
		return GaitCatapult, nil
	case "coil":
		return GaitCoil, nil
	case "wave", "compression-wave", "compression_wave":
		return GaitCompressionWave, nil
	case "contraction":
		return GaitContraction, nil
	case "", "none":
		return GaitNone, nil
	default:
		return GaitNone, fmt.Errorf("unknown gait strategy %q", name)
	}
}

// MarshalYAML 以字符串形式写出
func (g GaitStrategy) MarshalYAML() (interface{}, error) {
	return g.String(), nil
}

// UnmarshalYAML 从字符串读入
func (g *GaitStrategy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseGaitStrategy(name)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// SegmentClass 体节在链中的分类
type SegmentClass int

const (
	// SegmentHead 头（索引 0）
	SegmentHead SegmentClass = iota
	// SegmentNeck 颈（索引 1–2）
	SegmentNeck
	// SegmentBody 身体（其余）
	SegmentBody
)

// ClassifySegment 按索引分类体节
func ClassifySegment(index int) SegmentClass {
	switch {
	case index <= 0:
		return SegmentHead
	case index <= 2:
		return SegmentNeck
	default:
		return SegmentBody
	}
}

// String 返回体节分类名
func (c SegmentClass) String() string {
	switch c {
	case SegmentHead:
		return "head"
	case SegmentNeck:
		return "neck"
	default:
		return "body"
	}
}
