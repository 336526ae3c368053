// worm-headless 无窗口运行每种步态的脚本输入，输出位移与着地比例
//
// 用法:
//
//	go run ./cmd/worm-headless [-gait coil] [-ticks 240] [-config data/worm.yaml] [-save-ghost]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/game"
	"github.com/gonewx/worm/pkg/types"
)

var (
	verbose    = flag.Bool("verbose", false, "显示详细调试信息")
	configPath = flag.String("config", "", "蠕虫调参文件（为空使用内置默认值）")
	arenaPath  = flag.String("arena", "", "场地文件（为空使用内置默认场地）")
	gaitName   = flag.String("gait", "", "只运行指定步态（spiral|catapult|coil|wave|contraction）")
	settle     = flag.Int("settle", 120, "开始输入前的落地 tick 数")
	ticks      = flag.Int("ticks", 240, "每种步态的脚本长度（tick）")
	saveGhost  = flag.Bool("save-ghost", false, "把每次运行保存为录像（gdata: worm_sandbox/ghosts/<gait>）")
)

// runResult 单次脚本运行的统计
type runResult struct {
	gait       types.GaitStrategy
	dx, dy     float64
	maxLift    float64
	groundedPc float64
	ghost      *game.Ghost
}

func main() {
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	wormCfg := config.DefaultWormConfig()
	if *configPath != "" {
		loaded, err := config.LoadWormConfig(*configPath)
		if err != nil {
			fatal(err)
		}
		wormCfg = loaded
	}
	arena := config.DefaultArenaConfig()
	if *arenaPath != "" {
		loaded, err := config.LoadArenaConfig(*arenaPath)
		if err != nil {
			fatal(err)
		}
		arena = loaded
	}

	gaits := types.AllGaits
	if *gaitName != "" {
		g, err := types.ParseGaitStrategy(*gaitName)
		if err != nil {
			fatal(err)
		}
		gaits = []types.GaitStrategy{g}
	}

	var ghosts *game.GhostStore
	if *saveGhost {
		ghosts = game.NewGhostStore(game.OpenStorage(game.StorageAppName))
	}

	fmt.Printf("%-12s %10s %10s %10s %10s\n", "gait", "dx", "dy", "max lift", "grounded")
	for _, g := range gaits {
		res, err := runScript(wormCfg, arena, g)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%-12s %10.1f %10.1f %10.1f %9.0f%%\n", res.gait, res.dx, res.dy, res.maxLift, res.groundedPc*100)

		if ghosts != nil {
			if err := ghosts.Save(g.String(), res.ghost); err != nil {
				fatal(err)
			}
		}
	}
}

// runScript 落地 → 向右爬行 → 中途触发一次步态 → 继续爬行
func runScript(cfg *config.WormConfig, arena *config.ArenaConfig, gait types.GaitStrategy) (runResult, error) {
	sim, err := game.NewSimulation(cfg, arena)
	if err != nil {
		return runResult{}, fmt.Errorf("%s: %w", gait, err)
	}
	sim.SelectStrategy(gait)

	for range *settle {
		sim.Tick()
	}

	start := sim.State().Head
	res := runResult{gait: gait}
	grounded := 0
	jumpAt := *ticks / 3

	sim.StartRecording()
	for i := range *ticks {
		sim.SetInput(1, false)
		sim.SetJump(i == jumpAt || i == jumpAt+1)
		sim.Tick()

		st := sim.State()
		if st.Grounded {
			grounded++
		}
		res.maxLift = math.Max(res.maxLift, st.Head.Y-start.Y)
	}
	res.ghost = sim.StopRecording()

	end := sim.State().Head
	res.dx, res.dy = end.X-start.X, end.Y-start.Y
	if *ticks > 0 {
		res.groundedPc = float64(grounded) / float64(*ticks)
	}
	log.Printf("[Headless] %s: dx=%.1f dy=%.1f lift=%.1f grounded=%d/%d", gait, res.dx, res.dy, res.maxLift, grounded, *ticks)
	return res, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "worm-headless: %v\n", err)
	os.Exit(1)
}
