// Package app 提供沙盒应用的核心包装器
//
// 该包把窗口初始化逻辑从 main 包提取出来：加载配置、打开存储、
// 创建仿真与场景，并实现 ebiten.Game 接口。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/game"
	"github.com/gonewx/worm/pkg/scenes"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// WormConfigPath 调参文件路径，为空时使用默认配置
	WormConfigPath string
	// ArenaPath 场地文件路径，为空时使用默认场地
	ArenaPath string
	// Preset 启动时加载的预设名（可选）
	Preset string
}

// App 是沙盒应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager             *game.SceneManager
	settingsManager          *game.SettingsManager
	verbose                  bool
	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化沙盒应用
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	wormCfg := config.DefaultWormConfig()
	if cfg.WormConfigPath != "" {
		loaded, err := config.LoadWormConfig(cfg.WormConfigPath)
		if err != nil {
			return nil, fmt.Errorf("调参配置加载失败: %w", err)
		}
		wormCfg = loaded
		log.Printf("[App] Loaded worm config: %s", cfg.WormConfigPath)
	}

	storage := game.OpenStorage(game.StorageAppName)
	tuning := game.NewTuningManager(storage)
	ghosts := game.NewGhostStore(storage)
	settings := game.NewSettingsManager(storage)
	audioManager := game.NewAudioManager(audio.NewContext(game.SampleRate), settings)

	if cfg.Preset != "" {
		preset, err := tuning.Load(cfg.Preset)
		if err != nil {
			return nil, fmt.Errorf("预设加载失败: %w", err)
		}
		wormCfg = preset
		log.Printf("[App] Loaded preset: %s", cfg.Preset)
	}

	// 场景名即场地文件路径，R 之外的整场重置通过 SceneManager.Reload 完成
	sceneManager := game.NewSceneManager()
	sceneManager.SetSceneFactory(func(arenaPath string) game.Scene {
		arena := config.DefaultArenaConfig()
		if arenaPath != "" {
			loaded, err := config.LoadArenaConfig(arenaPath)
			if err != nil {
				log.Printf("[App] Failed to load arena %s: %v", arenaPath, err)
				return nil
			}
			arena = loaded
		}
		sim, err := game.NewSimulation(wormCfg, arena)
		if err != nil {
			log.Printf("[App] Failed to create simulation: %v", err)
			return nil
		}
		scene := scenes.NewSandboxScene(sim, tuning, ghosts, nil)
		scene.SetSettings(settings)
		scene.SetCuePlayer(audioManager)
		return scene
	})

	if !sceneManager.Load(cfg.ArenaPath) {
		return nil, fmt.Errorf("沙盒场景创建失败 (arena %q)", cfg.ArenaPath)
	}

	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(config.TicksPerSecond)
	if settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return &App{
		sceneManager:    sceneManager,
		settingsManager: settings,
		verbose:         cfg.Verbose,
	}, nil
}

// Update 更新沙盒逻辑
// 每个 tick 调用一次（固定 60 次/秒）
func (a *App) Update() error {
	// 窗口关闭时先保存再退出
	if ebiten.IsWindowBeingClosed() {
		if !a.sceneManager.SaveCurrent() {
			log.Printf("[App] Save on exit failed")
		}
		return ebiten.Termination
	}

	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		fullscreen := !ebiten.IsFullscreen()
		a.settingsManager.SetFullscreen(fullscreen)
		if !fullscreen {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			log.Printf("[App] Exit fullscreen, will reset window size in 3 frames")
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	// Backspace 重新加载场地与仿真
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.sceneManager.Reload()
	}

	a.sceneManager.Update(config.FixedTimestep)
	return nil
}

// Draw 绘制沙盒画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.GameWindowWidth, config.GameWindowHeight
}

// GetSceneManager 返回场景管理器
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
