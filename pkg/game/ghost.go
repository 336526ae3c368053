package game

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/gonewx/worm/pkg/components"
	"github.com/quasilyte/gdata/v2"
)

// ErrGhostFormat 录像数据损坏或版本不支持
var ErrGhostFormat = errors.New("invalid ghost data")

const (
	ghostMagic   = "WGST"
	ghostVersion = uint16(1)

	ghostObject = "ghosts"

	// DefaultGhostFrames 录制上限（两分钟）
	DefaultGhostFrames = 60 * 120
)

const (
	ghostFlagUp   = 1 << 0
	ghostFlagJump = 1 << 1
)

// GhostPoint 体节圆心
type GhostPoint struct {
	X, Y float32
}

// GhostFrame 一个 tick 的录像帧
type GhostFrame struct {
	Tick      uint64
	Direction float32
	Up        bool
	Jump      bool
	Points    []GhostPoint
}

// Ghost 一段录像：体节半径 + 按 tick 递增的帧
type Ghost struct {
	Radii  []float32
	Frames []GhostFrame
}

// SegmentCount 录像中的体节数
func (g *Ghost) SegmentCount() int {
	return len(g.Radii)
}

// GhostRecorder 录像采集器
//
// 每 tick 从 Simulation.Snapshot 采样一次，只读，不影响仿真。
type GhostRecorder struct {
	ghost     Ghost
	maxFrames int
	full      bool
}

// NewGhostRecorder 创建录像采集器
//
// 参数:
//   - worm: 被录制的蠕虫（用于记录体节半径），可为 nil
func NewGhostRecorder(worm *components.WormComponent) *GhostRecorder {
	r := &GhostRecorder{maxFrames: DefaultGhostFrames}
	if worm != nil {
		r.ghost.Radii = make([]float32, len(worm.Segments))
		for i, seg := range worm.Segments {
			r.ghost.Radii[i] = float32(seg.Radius)
		}
	}
	return r
}

// Record 记录一帧
//
// 体节数与首帧不一致（中途重建）或达到上限时忽略该帧。
func (r *GhostRecorder) Record(tick uint64, input *components.InputComponent, poses []components.SegmentPose) {
	if len(r.ghost.Frames) >= r.maxFrames {
		if !r.full {
			r.full = true
			log.Printf("[GhostRecorder] Frame limit %d reached, further ticks are dropped", r.maxFrames)
		}
		return
	}
	if r.ghost.Radii == nil {
		r.ghost.Radii = make([]float32, len(poses))
		for i, p := range poses {
			r.ghost.Radii[i] = float32(p.Radius)
		}
	}
	if len(poses) != len(r.ghost.Radii) {
		return
	}

	frame := GhostFrame{
		Tick:   tick,
		Points: make([]GhostPoint, len(poses)),
	}
	if input != nil {
		frame.Direction = float32(input.Direction)
		frame.Up = input.Up
		frame.Jump = input.JumpHeld
	}
	for i, p := range poses {
		frame.Points[i] = GhostPoint{X: float32(p.X), Y: float32(p.Y)}
	}
	r.ghost.Frames = append(r.ghost.Frames, frame)
}

// Ghost 返回目前为止的录像
func (r *GhostRecorder) Ghost() *Ghost {
	g := r.ghost
	return &g
}

// EncodeGhost 编码录像
//
// 格式（小端）: magic[4] version u16 segments u16 frames u32
// radii f32×N，然后每帧 tick u64 direction f32 flags u8 (x,y) f32×N。
func EncodeGhost(g *Ghost) ([]byte, error) {
	n := len(g.Radii)
	if n > math.MaxUint16 || len(g.Frames) > math.MaxUint32 {
		return nil, fmt.Errorf("ghost too large: %d segments, %d frames", n, len(g.Frames))
	}

	var buf bytes.Buffer
	buf.Grow(12 + 4*n + len(g.Frames)*(13+8*n))
	buf.WriteString(ghostMagic)
	header := struct {
		Version  uint16
		Segments uint16
		Frames   uint32
	}{ghostVersion, uint16(n), uint32(len(g.Frames))}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to encode ghost header: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, g.Radii); err != nil {
		return nil, fmt.Errorf("failed to encode ghost radii: %w", err)
	}

	for i, f := range g.Frames {
		if len(f.Points) != n {
			return nil, fmt.Errorf("frame %d has %d points, want %d", i, len(f.Points), n)
		}
		var flags uint8
		if f.Up {
			flags |= ghostFlagUp
		}
		if f.Jump {
			flags |= ghostFlagJump
		}
		buf.Write(binary.LittleEndian.AppendUint64(nil, f.Tick))
		buf.Write(binary.LittleEndian.AppendUint32(nil, math.Float32bits(f.Direction)))
		buf.WriteByte(flags)
		if err := binary.Write(&buf, binary.LittleEndian, f.Points); err != nil {
			return nil, fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeGhost 解码录像
//
// 返回:
//   - error: 数据损坏或版本不符时返回包装 ErrGhostFormat 的错误
func DecodeGhost(data []byte) (*Ghost, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(ghostMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != ghostMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrGhostFormat)
	}
	var header struct {
		Version  uint16
		Segments uint16
		Frames   uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrGhostFormat)
	}
	if header.Version != ghostVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrGhostFormat, header.Version)
	}

	n := int(header.Segments)
	frameSize := 13 + 8*n
	if int64(r.Len()) != int64(4*n)+int64(header.Frames)*int64(frameSize) {
		return nil, fmt.Errorf("%w: size mismatch for %d segments, %d frames", ErrGhostFormat, n, header.Frames)
	}

	g := &Ghost{
		Radii:  make([]float32, n),
		Frames: make([]GhostFrame, header.Frames),
	}
	if err := binary.Read(r, binary.LittleEndian, g.Radii); err != nil {
		return nil, fmt.Errorf("%w: radii: %v", ErrGhostFormat, err)
	}

	var fixed [13]byte
	var prev uint64
	for i := range g.Frames {
		if _, err := io.ReadFull(r, fixed[:]); err != nil {
			return nil, fmt.Errorf("%w: frame %d: %v", ErrGhostFormat, i, err)
		}
		f := &g.Frames[i]
		f.Tick = binary.LittleEndian.Uint64(fixed[0:8])
		f.Direction = math.Float32frombits(binary.LittleEndian.Uint32(fixed[8:12]))
		f.Up = fixed[12]&ghostFlagUp != 0
		f.Jump = fixed[12]&ghostFlagJump != 0
		if i > 0 && f.Tick <= prev {
			return nil, fmt.Errorf("%w: frame %d tick %d not after %d", ErrGhostFormat, i, f.Tick, prev)
		}
		prev = f.Tick

		f.Points = make([]GhostPoint, n)
		if err := binary.Read(r, binary.LittleEndian, f.Points); err != nil {
			return nil, fmt.Errorf("%w: frame %d points: %v", ErrGhostFormat, i, err)
		}
	}
	return g, nil
}

// GhostStore 录像存储
type GhostStore struct {
	store *objectStore
}

// NewGhostStore 创建录像存储
//
// 参数:
//   - gdataManager: 可为 nil（降级模式，仅内存保存）
func NewGhostStore(gdataManager *gdata.Manager) *GhostStore {
	return &GhostStore{store: newObjectStore(gdataManager, ghostObject)}
}

// Save 编码并保存录像
func (gs *GhostStore) Save(name string, g *Ghost) error {
	data, err := EncodeGhost(g)
	if err != nil {
		return err
	}
	if err := gs.store.save(name, data); err != nil {
		return fmt.Errorf("failed to save ghost: %w", err)
	}
	log.Printf("[GhostRecorder] Ghost %q saved: %d frames, %d bytes", name, len(g.Frames), len(data))
	return nil
}

// Load 读取并解码录像
func (gs *GhostStore) Load(name string) (*Ghost, error) {
	data, err := gs.store.load(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load ghost: %w", err)
	}
	return DecodeGhost(data)
}

// Names 已保存的录像名
func (gs *GhostStore) Names() ([]string, error) {
	return gs.store.names()
}

// GhostPlayer 录像回放
type GhostPlayer struct {
	ghost *Ghost
	poses []components.SegmentPose
}

// NewGhostPlayer 创建回放器
func NewGhostPlayer(g *Ghost) *GhostPlayer {
	return &GhostPlayer{ghost: g}
}

// Span 录像覆盖的 tick 区间；没有帧时 ok 为 false
func (p *GhostPlayer) Span() (first, last uint64, ok bool) {
	frames := p.ghost.Frames
	if len(frames) == 0 {
		return 0, 0, false
	}
	return frames[0].Tick, frames[len(frames)-1].Tick, true
}

// PoseAt 返回 tick 时刻的插值姿态
//
// tick 可以是小数；区间外取首帧或末帧。角度由相邻体节连线推算。
// 返回的切片在下一次调用时会被覆盖。
func (p *GhostPlayer) PoseAt(tick float64) []components.SegmentPose {
	frames := p.ghost.Frames
	if len(frames) == 0 {
		return nil
	}

	// 第一个 Tick >= tick 的帧
	lo, hi := 0, len(frames)
	for lo < hi {
		mid := (lo + hi) / 2
		if float64(frames[mid].Tick) < tick {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	var a, b *GhostFrame
	t := 0.0
	switch {
	case lo == 0:
		a, b = &frames[0], &frames[0]
	case lo == len(frames):
		a, b = &frames[len(frames)-1], &frames[len(frames)-1]
	default:
		a, b = &frames[lo-1], &frames[lo]
		t = (tick - float64(a.Tick)) / float64(b.Tick-a.Tick)
	}

	n := len(p.ghost.Radii)
	p.poses = p.poses[:0]
	for i := range n {
		pa, pb := a.Points[i], b.Points[i]
		p.poses = append(p.poses, components.SegmentPose{
			Index:  i,
			X:      float64(pa.X) + (float64(pb.X)-float64(pa.X))*t,
			Y:      float64(pa.Y) + (float64(pb.Y)-float64(pa.Y))*t,
			Radius: float64(p.ghost.Radii[i]),
		})
	}
	for i := range p.poses {
		// 头部朝向取自第一节指向头的方向，其余取前一节指向本节
		var dx, dy float64
		if i == 0 {
			if n < 2 {
				break
			}
			dx, dy = p.poses[0].X-p.poses[1].X, p.poses[0].Y-p.poses[1].Y
		} else {
			dx, dy = p.poses[i-1].X-p.poses[i].X, p.poses[i-1].Y-p.poses[i].Y
		}
		// 与刚体角度同一坐标：前一节在正上方为 0，平躺时前一节在 +X 方向，得到 -π/2
		p.poses[i].Angle = math.Atan2(-dx, dy)
	}
	return p.poses
}
