package scenes

import (
	"testing"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/game"
	"github.com/gonewx/worm/pkg/physics"
	"github.com/gonewx/worm/pkg/systems"
	"github.com/gonewx/worm/pkg/types"
	"github.com/gonewx/worm/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jakecoffman/cp"
)

// newTestSandbox 在内存世界与内存存储上创建沙盒场景
func newTestSandbox(t *testing.T) (*SandboxScene, *utils.ScriptedKeys, *game.GhostStore, *game.TuningManager) {
	t.Helper()
	cfg := config.DefaultWormConfig()
	cfg.Locomotion.IdleJitter = 0
	sensor := systems.GroundSensorFunc(func(*components.WormComponent) bool { return true })
	sim, err := game.NewSimulationWithWorld(physics.NewFakeWorld(), cfg, cp.Vector{X: 0, Y: 400}, sensor)
	if err != nil {
		t.Fatalf("failed to create simulation: %v", err)
	}
	keys := utils.NewScriptedKeys()
	ghosts := game.NewGhostStore(nil)
	tuning := game.NewTuningManager(nil)
	return NewSandboxScene(sim, tuning, ghosts, keys), keys, ghosts, tuning
}

// step 推进一帧并结束该帧的按键状态
func step(s *SandboxScene, keys *utils.ScriptedKeys, n int) {
	for range n {
		s.Update(config.FixedTimestep)
		keys.Advance()
	}
}

func TestSandboxSceneMovement(t *testing.T) {
	s, keys, _, _ := newTestSandbox(t)

	keys.Press(ebiten.KeyArrowLeft)
	step(s, keys, 30)
	st := s.sim.State()
	if st.Direction >= -0.9 || st.Facing != -1 {
		t.Errorf("left arrow should drive direction to -1, got %f (facing %f)", st.Direction, st.Facing)
	}
	if st.Tick != 30 {
		t.Errorf("each update should tick once, got %d", st.Tick)
	}
}

func TestSandboxSceneGaitKeys(t *testing.T) {
	s, keys, _, _ := newTestSandbox(t)

	keys.Press(ebiten.KeyDigit2)
	step(s, keys, 1)
	keys.Release(ebiten.KeyDigit2)
	if s.sim.Config().Jump.Strategy != types.GaitCatapult {
		t.Fatalf("digit 2 should select catapult, got %s", s.sim.Config().Jump.Strategy)
	}
	if s.Message() == "" {
		t.Error("strategy change should show a message")
	}

	keys.Press(ebiten.KeySpace)
	step(s, keys, 1)
	if s.sim.State().Active != types.GaitCatapult {
		t.Errorf("space should trigger the selected gait, active = %s", s.sim.State().Active)
	}
}

func TestSandboxScenePresets(t *testing.T) {
	s, keys, _, tuning := newTestSandbox(t)

	keys.Press(ebiten.KeyF9)
	step(s, keys, 1)
	keys.Release(ebiten.KeyF9)
	if tuning.Exists(game.DefaultPresetName) {
		t.Fatal("F9 without a saved preset should not create one")
	}

	keys.Press(ebiten.KeyDigit5)
	step(s, keys, 1)
	keys.Release(ebiten.KeyDigit5)
	keys.Press(ebiten.KeyF5)
	step(s, keys, 1)
	keys.Release(ebiten.KeyF5)
	if !tuning.Exists(game.DefaultPresetName) {
		t.Fatal("F5 should save the quick preset")
	}

	keys.Press(ebiten.KeyDigit1)
	step(s, keys, 1)
	keys.Release(ebiten.KeyDigit1)
	keys.Press(ebiten.KeyF9)
	step(s, keys, 1)
	keys.Release(ebiten.KeyF9)
	if s.sim.Config().Jump.Strategy != types.GaitContraction {
		t.Errorf("F9 should restore the saved strategy, got %s", s.sim.Config().Jump.Strategy)
	}
}

func TestSandboxSceneRecording(t *testing.T) {
	s, keys, ghosts, _ := newTestSandbox(t)

	keys.Press(ebiten.KeyG)
	step(s, keys, 1)
	keys.Release(ebiten.KeyG)
	if !s.sim.Recording() {
		t.Fatal("G should start recording")
	}

	step(s, keys, 20)
	keys.Press(ebiten.KeyG)
	step(s, keys, 1)
	keys.Release(ebiten.KeyG)
	if s.sim.Recording() {
		t.Fatal("second G should stop recording")
	}

	g, err := ghosts.Load(lastGhostName)
	if err != nil {
		t.Fatalf("ghost should be saved: %v", err)
	}
	// 开始录制的那一帧在 Tick 之前开始，因此包含该帧
	if len(g.Frames) != 21 {
		t.Errorf("ghost has %d frames, want 21", len(g.Frames))
	}
	if s.Ghost() == nil || s.ghostPlayer == nil {
		t.Error("stopped recording should become the replayed ghost")
	}

	step(s, keys, 50)
	first, last, _ := s.ghostPlayer.Span()
	if s.ghostTick < float64(first) || s.ghostTick > float64(last) {
		t.Errorf("ghost replay tick %f outside %d..%d", s.ghostTick, first, last)
	}
}

func TestSandboxSceneRebuild(t *testing.T) {
	s, keys, _, _ := newTestSandbox(t)
	keys.Press(ebiten.KeyArrowRight)
	step(s, keys, 10)
	keys.Release(ebiten.KeyArrowRight)

	keys.Press(ebiten.KeyR)
	step(s, keys, 1)
	if s.sim.State().Direction != 0 {
		t.Errorf("rebuilt worm should start with zero direction, got %f", s.sim.State().Direction)
	}
}

func TestSandboxSceneSaveOnExit(t *testing.T) {
	s, keys, ghosts, tuning := newTestSandbox(t)

	keys.Press(ebiten.KeyG)
	step(s, keys, 5)

	if !s.SaveOnExit() {
		t.Fatal("SaveOnExit should succeed with in-memory storage")
	}
	if !tuning.Exists(autosavePresetName) {
		t.Error("exit should autosave the current tuning")
	}
	if _, err := ghosts.Load(lastGhostName); err != nil {
		t.Errorf("exit should save the in-progress recording: %v", err)
	}

	// 场景实现 Saveable
	var _ game.Saveable = s
}

// recordingCues 记录收到的步态提示
type recordingCues struct {
	played []types.GaitStrategy
}

func (c *recordingCues) PlayGait(strategy types.GaitStrategy) bool {
	c.played = append(c.played, strategy)
	return true
}

func TestSandboxSceneGaitCue(t *testing.T) {
	s, keys, _, _ := newTestSandbox(t)
	cues := &recordingCues{}
	s.SetCuePlayer(cues)

	step(s, keys, 5)
	if len(cues.played) != 0 {
		t.Fatalf("no cue expected before a gait starts, got %v", cues.played)
	}

	keys.Press(ebiten.KeySpace)
	step(s, keys, 10)
	keys.Release(ebiten.KeySpace)
	if len(cues.played) != 1 || cues.played[0] != s.sim.Config().Jump.Strategy {
		t.Errorf("expected exactly one cue for %s, got %v", s.sim.Config().Jump.Strategy, cues.played)
	}
}

func TestSandboxSceneSettingsToggles(t *testing.T) {
	s, keys, _, _ := newTestSandbox(t)
	sm := game.NewSettingsManager(nil)
	s.SetSettings(sm)
	s.setGhost(&game.Ghost{
		Radii:  []float32{1},
		Frames: []game.GhostFrame{{Tick: 1, Points: []game.GhostPoint{{X: 0, Y: 0}}}},
	})

	if !s.showGhost() {
		t.Fatal("ghost should be visible by default")
	}
	keys.Press(ebiten.KeyH)
	keys.Press(ebiten.KeyM)
	step(s, keys, 1)
	if s.showGhost() {
		t.Error("H should hide the ghost")
	}
	if sm.GetSettings().SoundEnabled {
		t.Error("M should mute the gait cues")
	}
	if !s.SaveOnExit() {
		t.Error("SaveOnExit with in-memory storage should succeed")
	}
}
