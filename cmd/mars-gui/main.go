package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/bitmapfont/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"

	"go.creack.net/mars/cli"
	"go.creack.net/mars/mars"
)

var fontFace = text.NewGoXFace(bitmapfont.Face)

const (
	initialScreenWidth, initialScreenHeight = 1024, 768

	gridCols  = 100
	gridLeft  = 8
	gridTop   = 8
	panelLeft = 740
	maxLogs   = 24
	listingN  = 12
)

var palette = []color.RGBA{
	colornames.Dodgerblue,
	colornames.Orange,
	colornames.Limegreen,
	colornames.Hotpink,
	colornames.Gold,
	colornames.Aqua,
	colornames.Crimson,
	colornames.Mediumpurple,
}

var (
	emptyColor = colornames.Darkslategray
	pcColor    = colornames.White
)

func tagColor(tag int) color.RGBA {
	if tag <= 0 {
		return emptyColor
	}
	return palette[(tag-1)%len(palette)]
}

// Game implements ebiten.Game interface.
type Game struct {
	core    *mars.Core
	players []*cli.Player
	tags    []int

	cellSize int
	speed    int
	over     bool // Set once the core stopped for good.
	selected int // Address of the listing shown in the panel.

	logs []string

	clipboardOK bool
}

func NewGame(core *mars.Core, players []*cli.Player) *Game {
	g := &Game{
		core:    core,
		players: players,
		speed:   1,
	}
	rows := (core.Size() + gridCols - 1) / gridCols
	g.cellSize = max(1, min((panelLeft-2*gridLeft)/gridCols, (initialScreenHeight-2*gridTop)/rows))
	g.clipboardOK = clipboard.Init() == nil
	g.reload()
	return g
}

func (g *Game) reload() {
	g.tags = g.tags[:0]
	for _, w := range g.core.Warriors() {
		g.tags = append(g.tags, w.Tag)
	}
	if ws := g.core.Warriors(); len(ws) > 0 {
		g.selected = ws[0].Start
	}
	g.drainMessages()
}

func (g *Game) logf(format string, args ...any) {
	g.logs = append(g.logs, fmt.Sprintf(format, args...))
	if len(g.logs) > maxLogs {
		g.logs = g.logs[len(g.logs)-maxLogs:]
	}
}

func (g *Game) drainMessages() {
	for _, msg := range g.core.PopMessages() {
		if msg.Type == mars.MsgClear {
			g.logs = g.logs[:0]
			continue
		}
		g.logf("%s", msg.Message)
	}
}

func (g *Game) restart() {
	g.core.Reset()
	if err := g.core.LoadWarriors(cli.Specs(g.players)); err != nil {
		g.logf("restart: %s", err)
	}
	g.over = false
	g.reload()
}

func (g *Game) copyListing() {
	if !g.clipboardOK {
		g.logf("clipboard unavailable")
		return
	}
	buf := &strings.Builder{}
	for _, w := range g.core.Warriors() {
		fmt.Fprintf(buf, "; %d: %s\n%s", w.Tag, w.Title, g.core.Listing(w.Start, len(w.Code)))
	}
	clipboard.Write(clipboard.FmtText, []byte(buf.String()))
	g.logf("listing copied")
}

// cellAt returns the address under the given screen position.
func (g *Game) cellAt(x, y int) (int, bool) {
	col, row := (x-gridLeft)/g.cellSize, (y-gridTop)/g.cellSize
	if x < gridLeft || y < gridTop || col >= gridCols {
		return 0, false
	}
	addr := row*gridCols + col
	return addr, addr < g.core.Size()
}

// step runs n steps. A paused core is resumed for the duration.
func (g *Game) step(n int) {
	if g.over {
		return
	}
	if !g.core.Running() {
		g.core.SetRunning(true)
		defer g.core.SetRunning(false)
	}

	switch _, err := g.core.RunSteps(n); {
	case err == nil:
	case errors.Is(err, io.EOF):
		g.over = true
	case errors.Is(err, mars.ErrBudgetSpent):
		g.over = true
		g.logf("cycle budget of %d spent", g.core.Config.CycleBudget)
	default:
		g.over = true
		g.logf("step: %s", err)
	}
}

// Update proceeds the game state.
// Update is called every tick (1/60 [s] by default).
func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if !g.over {
			g.core.SetRunning(!g.core.Running())
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		if !g.core.Running() {
			g.step(1)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.restart()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.copyListing()
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		g.speed = min(g.speed*2, 4096)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		g.speed = max(g.speed/2, 1)
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if addr, ok := g.cellAt(ebiten.CursorPosition()); ok {
			g.selected = addr
		}
	}

	if g.core.Running() {
		g.step(g.speed)
	}
	g.drainMessages()
	return nil
}

// Draw draws the game screen.
func (g *Game) Draw(screen *ebiten.Image) {
	pcs := map[int]bool{}
	for _, p := range g.core.Processes() {
		if p.Alive {
			pcs[p.PC] = true
		}
	}

	size := float32(g.cellSize)
	for addr, act := range g.core.Activity() {
		x := float32(gridLeft + (addr%gridCols)*g.cellSize)
		y := float32(gridTop + (addr/gridCols)*g.cellSize)
		c := emptyColor
		if act.Warrior >= 0 {
			c = tagColor(g.tags[act.Warrior])
		}
		if pcs[addr] {
			c = pcColor
		}
		vector.DrawFilledRect(screen, x, y, size-1, size-1, c, false)
	}

	g.drawPanel(screen)
}

func (g *Game) drawPanel(screen *ebiten.Image) {
	textOp := &text.DrawOptions{}
	textOp.LineSpacing = fontFace.Metrics().HLineGap + fontFace.Metrics().HAscent + fontFace.Metrics().HDescent
	textOp.GeoM.Translate(panelLeft, gridTop)

	state := "paused"
	switch {
	case g.over:
		state = "over"
	case g.core.Running():
		state = "running"
	}

	lines := []string{
		fmt.Sprintf("Cycle %d / %d  (%s, x%d)", g.core.Cycle(), g.core.Config.CycleBudget, state, g.speed),
		fmt.Sprintf("Core %d  Seed %d", g.core.Size(), g.core.Seed()),
		"space run  n step  +/- speed",
		"r restart  c copy  q quit",
		"",
	}
	textOp.ColorScale.ScaleWithColor(color.White)
	text.Draw(screen, strings.Join(lines, "\n"), fontFace, textOp)

	// Warriors, each in its own color.
	textOp.GeoM.Translate(0, float64(len(lines))*textOp.LineSpacing)
	for _, w := range g.core.Warriors() {
		op := *textOp
		op.ColorScale.Reset()
		op.ColorScale.ScaleWithColor(tagColor(w.Tag))
		text.Draw(screen, fmt.Sprintf("%d %s @%d", w.Tag, w.Title, w.Start), fontFace, &op)
		textOp.GeoM.Translate(0, textOp.LineSpacing)
	}

	textOp.GeoM.Translate(0, textOp.LineSpacing)
	text.Draw(screen, g.core.Listing(g.selected, listingN), fontFace, textOp)

	textOp.GeoM.Translate(0, float64(listingN+1)*textOp.LineSpacing)
	text.Draw(screen, strings.Join(g.logs, "\n"), fontFace, textOp)
}

// Layout takes the outside size (e.g., the window size) and returns the (logical) screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return initialScreenWidth, initialScreenHeight
}

func main() {
	log.SetFlags(0)

	cfg, players, err := cli.ParseConfig("mars-gui", os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Failed to parse cli config: %s.", err)
	}

	core := mars.NewCore(cfg)
	if err := core.LoadWarriors(cli.Specs(players)); err != nil {
		log.Fatalf("Failed to load warriors: %s.", err)
	}

	ebiten.SetWindowSize(initialScreenWidth, initialScreenHeight)
	ebiten.SetWindowTitle("MARS")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGameWithOptions(NewGame(core, players), &ebiten.RunGameOptions{
		InitUnfocused: true,
	}); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
