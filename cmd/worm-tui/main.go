// worm-tui 在终端中运行蠕虫沙盒
//
// 终端没有按键松开事件：方向键在最后一次按下（含自动重复）后保持
// holdTicks 个 tick；空格只产生一个 tick 的按下，正好构成一次上升沿。
//
// 键位: ←/→ 移动  ↑ 向上  Space 跳跃  1–5 步态  g 回放最近录像  r 重建  q/Esc 退出
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/game"
	"github.com/gonewx/worm/pkg/types"
)

const holdTicks = 8

var (
	verbose    = flag.Bool("verbose", false, "把日志写到 worm-tui.log")
	configPath = flag.String("config", "", "蠕虫调参文件（为空使用内置默认值）")
	arenaPath  = flag.String("arena", "", "场地文件（为空使用内置默认场地）")
	scale      = flag.Float64("scale", 0.1, "每个世界单位对应的列数")
)

var cellStyles = map[byte]struct {
	r     rune
	style tcell.Style
}{
	cellGround:   {'▒', tcell.StyleDefault.Foreground(tcell.ColorGreen)},
	cellPlatform: {'█', tcell.StyleDefault.Foreground(tcell.ColorOlive)},
	cellBody:     {'o', tcell.StyleDefault.Foreground(tcell.ColorPink)},
	cellHead:     {'@', tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)},
	cellGhost:    {'·', tcell.StyleDefault.Foreground(tcell.ColorBlue)},
}

// tui 终端沙盒
type tui struct {
	screen tcell.Screen
	sim    *game.Simulation
	canvas *canvas
	ghosts *game.GhostStore
	player *game.GhostPlayer
	ghostT float64

	direction     float64
	directionLeft int
	up            int
	jump          bool
}

func main() {
	flag.Parse()
	if *verbose {
		f, err := os.Create("worm-tui.log")
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
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

	sim, err := game.NewSimulation(wormCfg, arena)
	if err != nil {
		fatal(err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fatal(err)
	}
	if err := screen.Init(); err != nil {
		fatal(err)
	}

	cols, rows := screen.Size()
	t := &tui{
		screen: screen,
		sim:    sim,
		canvas: newCanvas(cols, rows-1, *scale),
		ghosts: game.NewGhostStore(game.OpenStorage(game.StorageAppName)),
	}
	head := sim.State().Head
	t.canvas.camera.X, t.canvas.camera.Y = head.X, head.Y

	t.run()
	screen.Fini()
}

func (t *tui) run() {
	ticker := time.NewTicker(time.Second / config.TicksPerSecond)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go pollEvents(t.screen, eventChan)

	for {
		select {
		case ev := <-eventChan:
			if !t.handleEvent(ev) {
				return
			}
		case <-ticker.C:
			t.step()
			t.draw()
		}
	}
}

// pollEvents 把终端事件转发到 out；屏幕 Fini 后 PollEvent 返回 nil，此时退出
func pollEvents(screen tcell.Screen, out chan<- tcell.Event) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		out <- ev
	}
}

// handleEvent 处理一个终端事件；返回 false 表示退出
func (t *tui) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			t.direction, t.directionLeft = -1, holdTicks
		case tcell.KeyRight:
			t.direction, t.directionLeft = 1, holdTicks
		case tcell.KeyUp:
			t.up = holdTicks
		case tcell.KeyRune:
			return t.handleRune(ev.Rune())
		}
	case *tcell.EventResize:
		cols, rows := t.screen.Size()
		t.canvas.resize(cols, rows-1)
		t.screen.Sync()
	}
	return true
}

func (t *tui) handleRune(r rune) bool {
	switch r {
	case 'q':
		return false
	case ' ':
		t.jump = true
	case '1', '2', '3', '4', '5':
		t.sim.SelectStrategy(types.AllGaits[r-'1'])
	case 'r':
		if err := t.sim.Rebuild(); err != nil {
			log.Printf("[WormTUI] Rebuild failed: %v", err)
		}
	case 'g':
		if t.player != nil {
			t.player = nil
			break
		}
		g, err := t.ghosts.Load("last")
		if err != nil {
			log.Printf("[WormTUI] No ghost to replay: %v", err)
			break
		}
		t.player = game.NewGhostPlayer(g)
		first, _, _ := t.player.Span()
		t.ghostT = float64(first)
	}
	return true
}

func (t *tui) step() {
	dir := 0.0
	if t.directionLeft > 0 {
		dir = t.direction
		t.directionLeft--
	}
	t.sim.SetInput(dir, t.up > 0)
	if t.up > 0 {
		t.up--
	}
	t.sim.SetJump(t.jump)
	t.jump = false
	t.sim.Tick()

	head := t.sim.State().Head
	t.canvas.camera.Follow(head.X, head.Y, config.FixedTimestep)

	if t.player != nil {
		first, last, _ := t.player.Span()
		t.ghostT++
		if t.ghostT > float64(last) {
			t.ghostT = float64(first)
		}
	}
}

func (t *tui) draw() {
	c := t.canvas
	c.clear()
	c.drawArena(t.sim.Arena())
	if t.player != nil {
		c.drawPoses(t.player.PoseAt(t.ghostT), cellGhost, cellGhost)
	}
	c.drawPoses(t.sim.Snapshot(), cellBody, cellHead)

	t.screen.Clear()
	for row := range c.rows {
		for col := range c.cols {
			if cs, ok := cellStyles[c.get(col, row)]; ok {
				t.screen.SetContent(col, row+1, cs.r, nil, cs.style)
			}
		}
	}

	st := t.sim.State()
	active := "-"
	if st.Active != types.GaitNone {
		active = st.Active.String()
	}
	ground := " "
	if st.Grounded {
		ground = "G"
	}
	status := fmt.Sprintf("[%s] tick %d  dir %+.2f  strategy %s  active %s  cd %d  | ←→ move  space jump  1-5 gait  g ghost  r rebuild  q quit",
		ground, st.Tick, st.Direction, st.Strategy, active, st.Cooldown)
	for i, r := range []rune(status) {
		t.screen.SetContent(i, 0, r, nil, tcell.StyleDefault.Reverse(true))
	}
	t.screen.Show()
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "worm-tui: %v\n", err)
	os.Exit(1)
}
