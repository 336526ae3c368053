package scenes

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/game"
	"github.com/gonewx/worm/pkg/types"
	"github.com/gonewx/worm/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	// lastGhostName 最近一次录像的存储名
	lastGhostName = "last"
	// autosavePresetName 退出时自动保存的预设名
	autosavePresetName = "autosave"
	// messageTicks 提示信息显示时长
	messageTicks = 120
)

// 绘制颜色
var (
	colorBackground = color.RGBA{R: 24, G: 28, B: 36, A: 255}
	colorGround     = color.RGBA{R: 96, G: 140, B: 72, A: 255}
	colorPlatform   = color.RGBA{R: 120, G: 110, B: 90, A: 255}
	colorSegment    = color.RGBA{R: 226, G: 150, B: 160, A: 255}
	colorHead       = color.RGBA{R: 240, G: 110, B: 120, A: 255}
	colorSpine      = color.RGBA{R: 250, G: 220, B: 220, A: 255}
	colorGhost      = color.RGBA{R: 140, G: 180, B: 255, A: 90}
	colorGrounded   = color.RGBA{R: 120, G: 230, B: 120, A: 255}
)

// gaitKeys 数字键 1–5 对应的步态
var gaitKeys = []struct {
	key  ebiten.Key
	gait types.GaitStrategy
}{
	{ebiten.KeyDigit1, types.GaitSpiral},
	{ebiten.KeyDigit2, types.GaitCatapult},
	{ebiten.KeyDigit3, types.GaitCoil},
	{ebiten.KeyDigit4, types.GaitCompressionWave},
	{ebiten.KeyDigit5, types.GaitContraction},
}

// SandboxScene 蠕虫调试沙盒
//
// 键位：
//   - ←/→: 方向输入
//   - ↑: "向上"键
//   - Space: 跳跃（上升沿触发当前步态）
//   - 1–5: 选择步态（螺旋 / 投石机 / 盘绕 / 压缩波 / 收缩）
//   - F5 / F9: 保存 / 读取快速预设
//   - R: 在出生点重建蠕虫
//   - G: 开始 / 结束录像，结束后回放幽灵
//   - H / M: 显示幽灵 / 提示音开关（需绑定设置）
type SandboxScene struct {
	sim    *game.Simulation
	tuning *game.TuningManager
	ghosts *game.GhostStore
	keys   utils.KeySource
	camera *utils.Camera

	lastGhost   *game.Ghost
	ghostPlayer *game.GhostPlayer
	ghostTick   float64

	message      string
	messageTicks int

	settings   *game.SettingsManager
	cues       GaitCuePlayer
	lastActive types.GaitStrategy
}

// GaitCuePlayer 步态开始时的提示音（*game.AudioManager 实现）
type GaitCuePlayer interface {
	PlayGait(strategy types.GaitStrategy) bool
}

// NewSandboxScene 创建沙盒场景
//
// 参数:
//   - sim: 仿真实例
//   - tuning: 预设管理器（可用 game.NewTuningManager(nil) 得到仅内存版本）
//   - ghosts: 录像存储
//   - keys: 键盘来源，nil 时读取真实键盘
func NewSandboxScene(sim *game.Simulation, tuning *game.TuningManager, ghosts *game.GhostStore, keys utils.KeySource) *SandboxScene {
	if keys == nil {
		keys = utils.EbitenKeys{}
	}
	s := &SandboxScene{
		sim:    sim,
		tuning: tuning,
		ghosts: ghosts,
		keys:   keys,
		camera: utils.NewCamera(config.GameWindowWidth, config.GameWindowHeight, 1),
	}
	head := sim.State().Head
	s.camera.X, s.camera.Y = head.X, head.Y

	if g, err := ghosts.Load(lastGhostName); err == nil {
		s.setGhost(g)
		log.Printf("[SandboxScene] Loaded previous ghost: %d frames", len(g.Frames))
	}
	return s
}

// SetSettings 绑定全局设置（幽灵显示、提示音开关）
func (s *SandboxScene) SetSettings(sm *game.SettingsManager) {
	s.settings = sm
}

// SetCuePlayer 绑定步态提示音
func (s *SandboxScene) SetCuePlayer(cues GaitCuePlayer) {
	s.cues = cues
}

// Update 读取键盘、推进仿真一步并更新摄像机
func (s *SandboxScene) Update(deltaTime float64) {
	s.handleCommands()

	s.sim.SetInput(utils.AxisFromKeys(s.keys, ebiten.KeyArrowLeft, ebiten.KeyArrowRight), s.keys.IsPressed(ebiten.KeyArrowUp))
	s.sim.SetJump(s.keys.IsPressed(ebiten.KeySpace))
	s.sim.Tick()

	state := s.sim.State()
	if state.Active != types.GaitNone && s.lastActive == types.GaitNone && s.cues != nil {
		s.cues.PlayGait(state.Active)
	}
	s.lastActive = state.Active
	s.camera.Follow(state.Head.X, state.Head.Y, deltaTime)

	if s.ghostPlayer != nil {
		first, last, _ := s.ghostPlayer.Span()
		s.ghostTick++
		if s.ghostTick > float64(last) {
			s.ghostTick = float64(first)
		}
	}
	if s.messageTicks > 0 {
		s.messageTicks--
	}
}

// handleCommands 处理单次按键命令
func (s *SandboxScene) handleCommands() {
	for _, gk := range gaitKeys {
		if s.keys.JustPressed(gk.key) {
			s.sim.SelectStrategy(gk.gait)
			s.notify("Strategy: %s", gk.gait)
		}
	}

	if s.keys.JustPressed(ebiten.KeyF5) {
		if err := s.tuning.Save(game.DefaultPresetName, s.sim.Config()); err != nil {
			s.notify("Save preset failed: %v", err)
		} else {
			s.notify("Preset saved")
		}
	}

	if s.keys.JustPressed(ebiten.KeyF9) {
		s.loadPreset(game.DefaultPresetName)
	}

	if s.keys.JustPressed(ebiten.KeyR) {
		if err := s.sim.Rebuild(); err != nil {
			s.notify("Rebuild failed: %v", err)
		} else {
			s.notify("Worm rebuilt")
		}
	}

	if s.keys.JustPressed(ebiten.KeyG) {
		s.toggleRecording()
	}

	if s.settings != nil {
		if s.keys.JustPressed(ebiten.KeyH) {
			s.settings.SetShowGhost(!s.settings.GetSettings().ShowGhost)
			s.notify("Ghost: %v", s.settings.GetSettings().ShowGhost)
		}
		if s.keys.JustPressed(ebiten.KeyM) {
			s.settings.SetSoundEnabled(!s.settings.GetSettings().SoundEnabled)
			s.notify("Sound: %v", s.settings.GetSettings().SoundEnabled)
		}
	}
}

func (s *SandboxScene) showGhost() bool {
	return s.ghostPlayer != nil && (s.settings == nil || s.settings.GetSettings().ShowGhost)
}

// loadPreset 读取预设并重建蠕虫（预设可能改变体型）
func (s *SandboxScene) loadPreset(name string) {
	cfg, err := s.tuning.Load(name)
	if err != nil {
		if errors.Is(err, game.ErrNotFound) {
			s.notify("No preset %q yet (F5 to save)", name)
		} else {
			s.notify("Load preset failed: %v", err)
		}
		return
	}
	if err := s.sim.UpdateConfig(cfg); err != nil {
		s.notify("Preset rejected: %v", err)
		return
	}
	if err := s.sim.Rebuild(); err != nil {
		s.notify("Rebuild failed: %v", err)
		return
	}
	s.notify("Preset loaded")
}

func (s *SandboxScene) toggleRecording() {
	if !s.sim.Recording() {
		s.sim.StartRecording()
		s.notify("Recording...")
		return
	}

	g := s.sim.StopRecording()
	if len(g.Frames) == 0 {
		s.notify("Recording empty")
		return
	}
	s.setGhost(g)
	if err := s.ghosts.Save(lastGhostName, g); err != nil {
		s.notify("Save ghost failed: %v", err)
		return
	}
	s.notify("Ghost saved (%d frames)", len(g.Frames))
}

func (s *SandboxScene) setGhost(g *game.Ghost) {
	s.lastGhost = g
	s.ghostPlayer = game.NewGhostPlayer(g)
	first, _, _ := s.ghostPlayer.Span()
	s.ghostTick = float64(first)
}

func (s *SandboxScene) notify(format string, args ...any) {
	s.message = fmt.Sprintf(format, args...)
	s.messageTicks = messageTicks
	log.Printf("[SandboxScene] %s", s.message)
}

// SaveOnExit 保存当前配置为 autosave 预设，并保存最近的录像
func (s *SandboxScene) SaveOnExit() bool {
	ok := true
	if err := s.tuning.Save(autosavePresetName, s.sim.Config()); err != nil {
		log.Printf("[SandboxScene] Failed to autosave preset: %v", err)
		ok = false
	}
	if s.sim.Recording() {
		if g := s.sim.StopRecording(); len(g.Frames) > 0 {
			s.lastGhost = g
		}
	}
	if s.lastGhost != nil {
		if err := s.ghosts.Save(lastGhostName, s.lastGhost); err != nil {
			log.Printf("[SandboxScene] Failed to save ghost: %v", err)
			ok = false
		}
	}
	if s.settings != nil {
		if err := s.settings.Save(); err != nil {
			log.Printf("[SandboxScene] Failed to save settings: %v", err)
			ok = false
		}
	}
	return ok
}

// Draw 绘制场地、幽灵、蠕虫和 HUD
func (s *SandboxScene) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	s.drawArena(screen)

	if s.showGhost() {
		s.drawPoses(screen, s.ghostPlayer.PoseAt(s.ghostTick), colorGhost, colorGhost, false)
	}
	s.drawPoses(screen, s.sim.Snapshot(), colorHead, colorSegment, true)
	s.drawHUD(screen)
}

func (s *SandboxScene) drawArena(screen *ebiten.Image) {
	arena := s.sim.Arena()
	if arena == nil {
		return
	}
	x0, y0 := s.camera.WorldToScreen(arena.MinX, arena.GroundY)
	x1, _ := s.camera.WorldToScreen(arena.MaxX, arena.GroundY)
	vector.DrawFilledRect(screen, float32(x0), float32(y0), float32(x1-x0), float32(s.camera.ScreenHeight), colorGround, false)

	for _, p := range arena.Platforms {
		px, py := s.camera.WorldToScreen(p.MinX, p.MaxY)
		w := (p.MaxX - p.MinX) * s.camera.Scale
		h := (p.MaxY - p.MinY) * s.camera.Scale
		vector.DrawFilledRect(screen, float32(px), float32(py), float32(w), float32(h), colorPlatform, false)
	}
}

// drawPoses 绘制一条体节链；outline 为 true 时画出体节朝向
func (s *SandboxScene) drawPoses(screen *ebiten.Image, poses []components.SegmentPose, head, body color.Color, outline bool) {
	for i := 1; i < len(poses); i++ {
		ax, ay := s.camera.WorldToScreen(poses[i-1].X, poses[i-1].Y)
		bx, by := s.camera.WorldToScreen(poses[i].X, poses[i].Y)
		vector.StrokeLine(screen, float32(ax), float32(ay), float32(bx), float32(by), 2, colorSpine, true)
	}

	for i := len(poses) - 1; i >= 0; i-- {
		p := poses[i]
		if !s.camera.Visible(p.X, p.Y, p.Radius) {
			continue
		}
		clr := body
		if i == 0 {
			clr = head
		}
		sx, sy := s.camera.WorldToScreen(p.X, p.Y)
		r := float32(p.Radius * s.camera.Scale)
		vector.DrawFilledCircle(screen, float32(sx), float32(sy), r, clr, true)
		if !outline {
			continue
		}
		vector.StrokeCircle(screen, float32(sx), float32(sy), r, 1, colorSpine, true)
		// 体节局部 +Y 指向头部
		dx, dy := -math.Sin(p.Angle)*p.Radius, math.Cos(p.Angle)*p.Radius
		tx, ty := s.camera.WorldToScreen(p.X+dx, p.Y+dy)
		vector.StrokeLine(screen, float32(sx), float32(sy), float32(tx), float32(ty), 1, colorSpine, true)
	}
}

func (s *SandboxScene) drawHUD(screen *ebiten.Image) {
	st := s.sim.State()
	active := "-"
	if st.Active != types.GaitNone {
		active = st.Active.String()
	}
	rec := ""
	if st.Recording {
		rec = "  [REC]"
	}
	hud := fmt.Sprintf("tick %d  dir %+.2f  facing %+.0f%s\nstrategy %s  active %s  cooldown %d\n"+
		"arrows move  space jump  1-5 gait  F5/F9 preset  R rebuild  G record  H ghost  M sound",
		st.Tick, st.Direction, st.Facing, rec, st.Strategy, active, st.Cooldown)
	ebitenutil.DebugPrintAt(screen, hud, 8, 8)

	if st.Grounded {
		vector.DrawFilledCircle(screen, float32(s.camera.ScreenWidth-16), 16, 6, colorGrounded, true)
	}
	if s.messageTicks > 0 {
		ebitenutil.DebugPrintAt(screen, s.message, 8, int(s.camera.ScreenHeight)-24)
	}
}

// Message 当前提示信息（无提示时为空）
func (s *SandboxScene) Message() string {
	if s.messageTicks == 0 {
		return ""
	}
	return s.message
}

// Ghost 最近一次录像（没有时为 nil）
func (s *SandboxScene) Ghost() *game.Ghost {
	return s.lastGhost
}
