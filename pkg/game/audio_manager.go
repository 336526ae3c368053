package game

import (
	"bytes"
	"log"
	"time"

	"github.com/gonewx/worm/pkg/types"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleRate 音频上下文采样率
const SampleRate = 48000

// cueDuration 步态提示音时长
const cueDuration = 120 * time.Millisecond

// cueFrequencies 各步态的提示音频率（Hz），音高随步态“力度”递增
var cueFrequencies = map[types.GaitStrategy]float64{
	types.GaitContraction:     330,
	types.GaitCompressionWave: 392,
	types.GaitCoil:            440,
	types.GaitSpiral:          523,
	types.GaitCatapult:        659,
}

// AudioManager 音频管理器
// 职责：
//   - 步态触发时播放短提示音（合成生成，不依赖音频资源文件）
//   - 从 SettingsManager 读取开关与音量
//
// audio.Context 为 nil 时（无头运行、测试）所有播放调用直接返回 false。
type AudioManager struct {
	context         *audio.Context
	settingsManager *SettingsManager
	players         map[types.GaitStrategy]*audio.Player
}

// NewAudioManager 创建新的音频管理器
//
// 参数：
//   - context: 全局音频上下文（可为 nil，静音模式）
//   - sm: SettingsManager 实例（用于读取音量设置，可为 nil）
//
// 返回：
//   - *AudioManager: 音频管理器实例
func NewAudioManager(context *audio.Context, sm *SettingsManager) *AudioManager {
	return &AudioManager{
		context:         context,
		settingsManager: sm,
		players:         make(map[types.GaitStrategy]*audio.Player),
	}
}

// PlayGait 播放步态提示音
//
// 返回：
//   - bool: 是否成功播放
func (am *AudioManager) PlayGait(strategy types.GaitStrategy) bool {
	if am.context == nil {
		return false
	}
	if am.settingsManager != nil && !am.settingsManager.GetSettings().SoundEnabled {
		return false
	}

	player := am.getPlayer(strategy)
	if player == nil {
		return false
	}
	player.SetVolume(am.GetSoundVolume())
	if err := player.Rewind(); err != nil {
		log.Printf("[AudioManager] Warning: Failed to rewind cue %s: %v", strategy, err)
	}
	player.Play()
	return true
}

// GetSoundVolume 获取当前提示音音量
func (am *AudioManager) GetSoundVolume() float64 {
	if am.settingsManager == nil {
		return DefaultSettings().SoundVolume
	}
	return am.settingsManager.GetSettings().SoundVolume
}

// getPlayer 获取或创建步态提示音播放器
func (am *AudioManager) getPlayer(strategy types.GaitStrategy) *audio.Player {
	if player, ok := am.players[strategy]; ok {
		return player
	}
	freq, ok := cueFrequencies[strategy]
	if !ok {
		return nil
	}

	pcm := SynthesizeCue(freq, cueDuration, am.context.SampleRate())
	player, err := am.context.NewPlayer(bytes.NewReader(pcm))
	if err != nil {
		log.Printf("[AudioManager] Warning: Failed to create cue player for %s: %v", strategy, err)
		return nil
	}
	am.players[strategy] = player
	return player
}
