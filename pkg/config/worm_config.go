package config

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/gonewx/worm/pkg/embedded"
	"github.com/gonewx/worm/pkg/types"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid worm config")

// WormConfig 蠕虫调参配置
//
// 外部持有、可在任意两个 tick 之间修改的扁平参数集合。核心每个 tick 读取，
// 从不持久化或做版本管理；持久化由 game.TuningManager 负责。
//
// 配置文件位置: data/worm.yaml
type WormConfig struct {
	Body       BodyConfig       `yaml:"body"`
	Locomotion LocomotionConfig `yaml:"locomotion"`
	Jump       JumpConfig       `yaml:"jump"`
	Ground     GroundConfig     `yaml:"ground"`
}

// BodyConfig 体节链与约束网络参数（只在创建时读取）
type BodyConfig struct {
	BaseRadius  float64   `yaml:"baseRadius"`
	SizeFactors []float64 `yaml:"sizeFactors"` // 头到尾的半径系数，至少 2 个
	SegmentGap  float64   `yaml:"segmentGap"`  // 相邻体节切点之间的间隙

	Density        float64 `yaml:"density"`
	Friction       float64 `yaml:"friction"`
	StaticFriction float64 `yaml:"staticFriction"`
	Restitution    float64 `yaml:"restitution"`

	SpineStiffness float64 `yaml:"spineStiffness"`
	SpineDamping   float64 `yaml:"spineDamping"`

	MuscleEnabled   bool    `yaml:"muscleEnabled"`
	MuscleStiffness float64 `yaml:"muscleStiffness"`
	MuscleDamping   float64 `yaml:"muscleDamping"`

	SpacerStiffness float64 `yaml:"spacerStiffness"`
	SpacerDamping   float64 `yaml:"spacerDamping"`
	SpacerMargin    float64 `yaml:"spacerMargin"`
}

// LocomotionConfig 每 tick 运动控制参数
//
// 所有 *Gain 都是"每弧度角误差对应的角加速度"，施加时乘以刚体转动惯量，
// 因此与物理引擎的质量单位无关。
type LocomotionConfig struct {
	WaveAmplitude float64 `yaml:"waveAmplitude"`
	WaveFrequency float64 `yaml:"waveFrequency"`
	WaveSpeed     float64 `yaml:"waveSpeed"`
	WaveDelay     float64 `yaml:"waveDelay"`
	NeckWaveScale float64 `yaml:"neckWaveScale"`
	BodyWaveScale float64 `yaml:"bodyWaveScale"`

	DirectionEpsilon  float64 `yaml:"directionEpsilon"`
	DirectionResponse float64 `yaml:"directionResponse"` // 有输入时每 tick 逼近比例
	DirectionDecay    float64 `yaml:"directionDecay"`    // 无输入时每 tick 保留比例

	WeightLeanStrength float64 `yaml:"weightLeanStrength"`
	LeanDecay          float64 `yaml:"leanDecay"`
	BodyLeanScale      float64 `yaml:"bodyLeanScale"`

	HeadGain float64 `yaml:"headGain"`
	NeckGain float64 `yaml:"neckGain"`
	BodyGain float64 `yaml:"bodyGain"`

	HighFriction    float64 `yaml:"highFriction"`
	LowFriction     float64 `yaml:"lowFriction"`
	CommitThreshold float64 `yaml:"commitThreshold"` // 接触点滑动速度（像素/秒）超过该值才算发力

	AngularDamping float64 `yaml:"angularDamping"`

	ContractionAmplitude float64 `yaml:"contractionAmplitude"` // 脊柱长度调制幅度（比例）
	ContractionStiffness float64 `yaml:"contractionStiffness"` // 脊柱刚度调制幅度（比例）
	ContractionSpeed     float64 `yaml:"contractionSpeed"`     // 相位推进速度（弧度/秒）
	MuscleContraction    float64 `yaml:"muscleContraction"`
	RestoreRate          float64 `yaml:"restoreRate"`

	IdleGain   float64 `yaml:"idleGain"`
	IdleJitter float64 `yaml:"idleJitter"`
	Seed       uint64  `yaml:"seed"`
}

// JumpConfig 跳跃状态机参数
type JumpConfig struct {
	Strategy      types.GaitStrategy `yaml:"strategy"`
	CooldownTicks int                `yaml:"cooldownTicks"`
	RestoreTicks  int                `yaml:"restoreTicks"` // 刚度恢复补间长度

	Spiral      SpiralGaitConfig      `yaml:"spiral"`
	Catapult    CatapultGaitConfig    `yaml:"catapult"`
	Coil        CoilGaitConfig        `yaml:"coil"`
	Wave        WaveGaitConfig        `yaml:"wave"`
	Contraction ContractionGaitConfig `yaml:"contraction"`
}

// SpiralGaitConfig 螺旋步态
type SpiralGaitConfig struct {
	DurationTicks int     `yaml:"durationTicks"`
	Gain          float64 `yaml:"gain"`
	PhaseStep     float64 `yaml:"phaseStep"`     // 每 tick 相位增量
	SegmentOffset float64 `yaml:"segmentOffset"` // 相邻体节相位差
}

// CatapultGaitConfig 投石机步态
type CatapultGaitConfig struct {
	DurationTicks int     `yaml:"durationTicks"`
	UpAngle       float64 `yaml:"upAngle"`
	DownAngle     float64 `yaml:"downAngle"`
	Gain          float64 `yaml:"gain"`
	FrontFriction float64 `yaml:"frontFriction"`
	BackFriction  float64 `yaml:"backFriction"`
}

// CoilGaitConfig 盘绕步态
type CoilGaitConfig struct {
	DurationTicks     int     `yaml:"durationTicks"`
	Tightness         float64 `yaml:"tightness"`
	CenterIndex       int     `yaml:"centerIndex"` // <0 表示链中点
	Amplitude         float64 `yaml:"amplitude"`
	Gain              float64 `yaml:"gain"`
	FrictionThreshold float64 `yaml:"frictionThreshold"`
	Stiffness         float64 `yaml:"stiffness"`
	HoldTicks         int     `yaml:"holdTicks"`
}

// WaveGaitConfig 压缩波步态
type WaveGaitConfig struct {
	DurationTicks     int     `yaml:"durationTicks"`
	TravelTicks       int     `yaml:"travelTicks"` // 脉冲从尾到头所需 tick
	PulseWidth        float64 `yaml:"pulseWidth"`  // 以体节为单位
	Gain              float64 `yaml:"gain"`
	FrictionThreshold float64 `yaml:"frictionThreshold"`
	HeadKickGain      float64 `yaml:"headKickGain"`
	HeadLift          float64 `yaml:"headLift"` // 到达头部时的向上加速度
}

// ContractionGaitConfig 收缩步态
type ContractionGaitConfig struct {
	Force        float64 `yaml:"force"` // 相邻体节互拉的加速度（乘以平均质量）
	UpwardFactor float64 `yaml:"upwardFactor"`
	BaseLift     float64 `yaml:"baseLift"` // 与体节对倾角无关的上抬比例，平躺时靠它离地
	ForceTicks   int     `yaml:"forceTicks"`
	Stiffness    float64 `yaml:"stiffness"`
	HoldTicks    int     `yaml:"holdTicks"`
}

// GroundConfig 着地判定参数
type GroundConfig struct {
	Tolerance       float64 `yaml:"tolerance"`
	NormalThreshold float64 `yaml:"normalThreshold"`
	UpX             float64 `yaml:"upX"`
	UpY             float64 `yaml:"upY"`
}

// DefaultSizeFactors 默认 12 节体型（头略小，尾部收细）
func DefaultSizeFactors() []float64 {
	return []float64{0.75, 1, 1, 0.95, 0.9, 0.8, 0.8, 0.8, 0.8, 0.8, 0.8, 0.8}
}

// DefaultWormConfig 返回默认调参
func DefaultWormConfig() *WormConfig {
	return &WormConfig{
		Body: BodyConfig{
			BaseRadius:      15,
			SizeFactors:     DefaultSizeFactors(),
			SegmentGap:      3,
			Density:         0.01,
			Friction:        0.6,
			StaticFriction:  0.9,
			Restitution:     0.05,
			SpineStiffness:  6000,
			SpineDamping:    60,
			MuscleEnabled:   true,
			MuscleStiffness: 400,
			MuscleDamping:   5,
			SpacerStiffness: 2000,
			SpacerDamping:   10,
			SpacerMargin:    2,
		},
		Locomotion: LocomotionConfig{
			WaveAmplitude:        0.35,
			WaveFrequency:        1.0,
			WaveSpeed:            6,
			WaveDelay:            1.0,
			NeckWaveScale:        0.5,
			BodyWaveScale:        1.0,
			DirectionEpsilon:     0.05,
			DirectionResponse:    0.15,
			DirectionDecay:       0.85,
			WeightLeanStrength:   0.3,
			LeanDecay:            0.06,
			BodyLeanScale:        0.5,
			HeadGain:             40,
			NeckGain:             250,
			BodyGain:             200,
			HighFriction:         1.6,
			LowFriction:          0.15,
			CommitThreshold:      2,
			AngularDamping:       0.05,
			ContractionAmplitude: 0.9,
			ContractionStiffness: 0.3,
			ContractionSpeed:     8,
			MuscleContraction:    0.05,
			RestoreRate:          0.1,
			IdleGain:             6,
			IdleJitter:           0,
			Seed:                 1,
		},
		Jump: JumpConfig{
			Strategy:      types.GaitCoil,
			CooldownTicks: 20,
			RestoreTicks:  9,
			Spiral: SpiralGaitConfig{
				DurationTicks: 30,
				Gain:          300,
				PhaseStep:     0.5,
				SegmentOffset: 0.8,
			},
			Catapult: CatapultGaitConfig{
				DurationTicks: 24,
				UpAngle:       1.0,
				DownAngle:     0.6,
				Gain:          400,
				FrontFriction: 0.1,
				BackFriction:  3.0,
			},
			Coil: CoilGaitConfig{
				DurationTicks:     30,
				Tightness:         0.7,
				CenterIndex:       -1,
				Amplitude:         1.2,
				Gain:              300,
				FrictionThreshold: 0.5,
				Stiffness:         20000,
				HoldTicks:         20,
			},
			Wave: WaveGaitConfig{
				DurationTicks:     40,
				TravelTicks:       30,
				PulseWidth:        1.5,
				Gain:              250,
				FrictionThreshold: 0.5,
				HeadKickGain:      600,
				HeadLift:          4000,
			},
			Contraction: ContractionGaitConfig{
				Force:        2500,
				UpwardFactor: 1.0,
				BaseLift:     0.8,
				ForceTicks:   4,
				Stiffness:    18000,
				HoldTicks:    12,
			},
		},
		Ground: GroundConfig{
			Tolerance:       3,
			NormalThreshold: 0.5,
			UpX:             0,
			UpY:             1,
		},
	}
}

// LoadWormConfig 加载蠕虫调参文件
//
// 未在文件中出现的字段保留默认值。
//
// 参数:
//   - path: 配置文件路径（如 "data/worm.yaml"）
//
// 返回:
//   - *WormConfig: 加载并校验后的配置
//   - error: 读取、解析或校验失败时返回错误
func LoadWormConfig(path string) (*WormConfig, error) {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read worm config: %w", err)
	}
	return ParseWormConfig(data)
}

// ParseWormConfig 从 YAML 数据解析配置（缺省字段取默认值）
func ParseWormConfig(data []byte) (*WormConfig, error) {
	cfg := DefaultWormConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse worm config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Clone 深拷贝配置
func (c *WormConfig) Clone() *WormConfig {
	clone := *c
	clone.Body.SizeFactors = slices.Clone(c.Body.SizeFactors)
	return &clone
}

// Validate 验证配置有效性
//
// 越界值（负长度、负刚度、NaN、±Inf 等）在这里拒绝，每 tick 的热路径不再检查。
//
// 返回:
//   - error: 包装 ErrInvalidConfig 的错误，成功返回 nil
func (c *WormConfig) Validate() error {
	if err := checkFinite(reflect.ValueOf(*c), ""); err != nil {
		return err
	}

	b := c.Body
	if b.BaseRadius <= 0 {
		return invalid("body.baseRadius must be > 0, got %.3f", b.BaseRadius)
	}
	if len(b.SizeFactors) < 2 {
		return invalid("body.sizeFactors needs at least 2 entries, got %d", len(b.SizeFactors))
	}
	for i, f := range b.SizeFactors {
		if f <= 0 {
			return invalid("body.sizeFactors[%d] must be > 0, got %.3f", i, f)
		}
	}
	if err := nonNegative(map[string]float64{
		"body.segmentGap":      b.SegmentGap,
		"body.friction":        b.Friction,
		"body.staticFriction":  b.StaticFriction,
		"body.restitution":     b.Restitution,
		"body.spineStiffness":  b.SpineStiffness,
		"body.spineDamping":    b.SpineDamping,
		"body.muscleStiffness": b.MuscleStiffness,
		"body.muscleDamping":   b.MuscleDamping,
		"body.spacerStiffness": b.SpacerStiffness,
		"body.spacerDamping":   b.SpacerDamping,
		"body.spacerMargin":    b.SpacerMargin,
	}); err != nil {
		return err
	}
	if b.Density <= 0 {
		return invalid("body.density must be > 0, got %.4f", b.Density)
	}

	l := c.Locomotion
	if l.DirectionEpsilon <= 0 || l.DirectionEpsilon >= 1 {
		return invalid("locomotion.directionEpsilon must be in (0, 1), got %.3f", l.DirectionEpsilon)
	}
	if err := unitInterval(map[string]float64{
		"locomotion.directionResponse":    l.DirectionResponse,
		"locomotion.directionDecay":       l.DirectionDecay,
		"locomotion.angularDamping":       l.AngularDamping,
		"locomotion.restoreRate":          l.RestoreRate,
		"locomotion.contractionAmplitude": l.ContractionAmplitude,
		"locomotion.contractionStiffness": l.ContractionStiffness,
		"locomotion.muscleContraction":    l.MuscleContraction,
	}); err != nil {
		return err
	}
	if err := nonNegative(map[string]float64{
		"locomotion.waveAmplitude":   l.WaveAmplitude,
		"locomotion.waveSpeed":       l.WaveSpeed,
		"locomotion.headGain":        l.HeadGain,
		"locomotion.neckGain":        l.NeckGain,
		"locomotion.bodyGain":        l.BodyGain,
		"locomotion.highFriction":    l.HighFriction,
		"locomotion.lowFriction":     l.LowFriction,
		"locomotion.commitThreshold": l.CommitThreshold,
		"locomotion.idleGain":        l.IdleGain,
		"locomotion.idleJitter":      l.IdleJitter,
	}); err != nil {
		return err
	}

	j := c.Jump
	if j.CooldownTicks < 0 {
		return invalid("jump.cooldownTicks must be >= 0, got %d", j.CooldownTicks)
	}
	if j.RestoreTicks < 1 {
		return invalid("jump.restoreTicks must be >= 1, got %d", j.RestoreTicks)
	}
	durations := map[string]int{
		"jump.spiral.durationTicks":   j.Spiral.DurationTicks,
		"jump.catapult.durationTicks": j.Catapult.DurationTicks,
		"jump.coil.durationTicks":     j.Coil.DurationTicks,
		"jump.wave.durationTicks":     j.Wave.DurationTicks,
		"jump.wave.travelTicks":       j.Wave.TravelTicks,
		"jump.contraction.forceTicks": j.Contraction.ForceTicks,
	}
	for _, name := range sortedKeys(durations) {
		if durations[name] < 1 {
			return invalid("%s must be >= 1, got %d", name, durations[name])
		}
	}
	if j.Coil.HoldTicks < 0 || j.Contraction.HoldTicks < 0 {
		return invalid("jump hold ticks must be >= 0")
	}
	if j.Wave.PulseWidth <= 0 {
		return invalid("jump.wave.pulseWidth must be > 0, got %.3f", j.Wave.PulseWidth)
	}
	if err := nonNegative(map[string]float64{
		"jump.coil.stiffness":         j.Coil.Stiffness,
		"jump.contraction.stiffness":  j.Contraction.Stiffness,
		"jump.contraction.force":      j.Contraction.Force,
		"jump.contraction.baseLift":   j.Contraction.BaseLift,
		"jump.catapult.frontFriction": j.Catapult.FrontFriction,
		"jump.catapult.backFriction":  j.Catapult.BackFriction,
	}); err != nil {
		return err
	}

	g := c.Ground
	if g.UpX == 0 && g.UpY == 0 {
		return invalid("ground up axis must be non-zero")
	}
	if g.NormalThreshold < -1 || g.NormalThreshold > 1 {
		return invalid("ground.normalThreshold must be in [-1, 1], got %.3f", g.NormalThreshold)
	}
	if g.Tolerance < 0 {
		return invalid("ground.tolerance must be >= 0, got %.3f", g.Tolerance)
	}
	return nil
}

// checkFinite 递归检查所有浮点字段（含切片元素）不是 NaN 或 ±Inf
//
// NaN 与任何值比较都为 false，会绕过下面所有的区间检查，因此最先拒绝。
// 字段名取 yaml 标签，与配置文件中的写法一致。
func checkFinite(v reflect.Value, path string) error {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return invalid("%s must be a finite number, got %v", path, f)
		}
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			if err := checkFinite(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
			if name == "" {
				name = t.Field(i).Name
			}
			if path != "" {
				name = path + "." + name
			}
			if err := checkFinite(v.Field(i), name); err != nil {
				return err
			}
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func nonNegative(fields map[string]float64) error {
	for _, name := range sortedKeys(fields) {
		if fields[name] < 0 {
			return invalid("%s must be >= 0, got %.4f", name, fields[name])
		}
	}
	return nil
}

func unitInterval(fields map[string]float64) error {
	for _, name := range sortedKeys(fields) {
		if v := fields[name]; v < 0 || v > 1 {
			return invalid("%s must be in [0, 1], got %.4f", name, v)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
