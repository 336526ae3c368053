package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gonewx/worm/pkg/app"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	verbose    = flag.Bool("verbose", false, "显示详细调试信息")
	configPath = flag.String("config", "data/worm.yaml", "蠕虫调参文件（为空使用内置默认值）")
	arenaPath  = flag.String("arena", "data/arena.yaml", "场地文件（为空使用内置默认场地）")
	preset     = flag.String("preset", "", "启动时加载的已保存预设")
)

func main() {
	flag.Parse()
	embedded.Init(dataFS)

	a, err := app.NewApp(app.Config{
		Verbose:        *verbose,
		WormConfigPath: *configPath,
		ArenaPath:      *arenaPath,
		Preset:         *preset,
	})
	if err != nil {
		// NewApp 在非 verbose 模式下会关闭 log 输出
		fmt.Fprintf(os.Stderr, "启动失败: %v\n", err)
		os.Exit(1)
	}

	ebiten.SetWindowSize(config.GameWindowWidth, config.GameWindowHeight)
	ebiten.SetWindowTitle("Worm Sandbox")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
