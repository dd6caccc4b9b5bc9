package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"go.creack.net/mars/cli"
	"go.creack.net/mars/mars"
)

const ramWidth = 80

var colors = []tcell.Color{
	tcell.ColorDodgerBlue,
	tcell.ColorOrange,
	tcell.ColorLightGreen,
	tcell.ColorHotPink,
	tcell.ColorYellow,
	tcell.ColorAqua,
	tcell.ColorRed,
	tcell.ColorMediumPurple,
}

func tagColor(tag int) tcell.Color {
	if tag <= 0 {
		return tcell.ColorDefault
	}
	return colors[(tag-1)%len(colors)]
}

func NewGame(ctx context.Context, core *mars.Core, players []*cli.Player) *Game {
	app := tview.NewApplication().EnableMouse(true)

	newTextView := func(text string) *tview.TextView {
		return tview.NewTextView().
			SetDynamicColors(true).
			SetText(text)
	}

	ramView := tview.NewTable().SetBorders(false)

	logsView := newTextView("")
	logsView.SetTitle("Logs").SetBorder(true)
	logsView.ScrollToEnd()

	processListView := tview.NewTable().SetBorders(false)
	processListView.SetTitle("Processes").SetBorder(true)

	stateView := newTextView("Settings")
	stateView.SetTitle("Settings").SetBorder(true)

	playersListView := tview.NewList()
	playersListView.SetBorder(true)
	playersListView.SetTitle("Warriors")
	playersListView.SetSelectedFocusOnly(true)

	rightPane := tview.NewFlex().SetDirection(tview.FlexRow)
	rightPane.
		AddItem(stateView, 0, 2, false).
		AddItem(playersListView, 0, 2, false).
		AddItem(logsView, 0, 3, false).
		AddItem(processListView, 0, 4, false)

	ramPane := tview.NewFlex()
	ramPane.SetBorder(true)
	ramPane.SetTitle("Core")
	ramPane.AddItem(ramView, 0, 1, false)

	flex := tview.NewFlex().
		AddItem(ramPane, 0, 3, true).
		AddItem(rightPane, 0, 1, false)

	pages := tview.NewPages()
	pages.AddPage("main", flex, true, true)

	ctx, cancel := context.WithCancel(ctx)

	g := &Game{
		app: app,

		root: pages,

		ramView:         ramView,
		processListView: processListView,
		stateView:       stateView,
		playerListView:  playersListView,
		logsView:        logsView,

		core:    core,
		players: players,
		ctx:     ctx,
		cancel:  cancel,

		speed: 1,
	}

	for _, p := range players {
		playersListView.AddItem("", "", 0, func() {
			pages.ShowPage(fmt.Sprintf("disasm-player-%d", p.Number))
		})
	}
	return g
}

// Game is the terminal host. Every field is owned by the tview event
// loop: the ticker only queues updates into it.
type Game struct {
	app *tview.Application

	root *tview.Pages

	ramView         *tview.Table
	processListView *tview.Table
	stateView       *tview.TextView
	playerListView  *tview.List
	logsView        *tview.TextView

	core    *mars.Core
	players []*cli.Player
	tags    []int // Warrior ID to tag.
	lastPCs []int // PCs highlighted by the previous draw.

	nextStep bool
	speed    int  // Steps per tick.
	over     bool // Set once the core stopped for good.

	ctx    context.Context
	cancel context.CancelFunc
}

func (g *Game) Stop() {
	g.app.Stop()
	g.cancel()
}

func (g *Game) Init() {
	f := func(event *tcell.EventKey) *tcell.EventKey {
		curPage, _ := g.root.GetFrontPage()
		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEscape:
			if curPage != "main" {
				g.root.SwitchToPage("main")
				return nil
			}
			g.Stop()
			return nil
		case tcell.KeyEnter:
			if curPage != "main" {
				g.root.SwitchToPage("main")
				return nil
			}
			return event
		}
		switch event.Rune() {
		case 'n':
			g.nextStep = true
			return nil
		case ' ':
			if curPage == "main" {
				if !g.over {
					g.core.SetRunning(!g.core.Running())
				}
			} else {
				g.root.SwitchToPage("main")
			}
			return nil
		case '+':
			g.speed = min(g.speed*2, 1024)
			g.drawState()
			return nil
		case '-':
			g.speed = max(g.speed/2, 1)
			g.drawState()
			return nil
		case 'r':
			g.restart()
			return nil
		case 'q':
			if curPage != "main" {
				g.root.SwitchToPage("main")
				return nil
			}
			g.Stop()
			return nil
		}
		return event
	}
	g.root.SetInputCapture(f)

	for _, w := range g.core.Warriors() {
		g.tags = append(g.tags, w.Tag)
	}
	g.ramView.SetSelectable(true, true)
	g.ramView.SetSelectedFunc(func(row, column int) {
		addr := row*ramWidth + column
		if addr < g.core.Size() {
			g.logf(tcell.ColorDefault, "%s", g.core.FormatCell(addr))
		}
	})
	g.drawAllRAM()
	g.drawMessages()
	g.Draw()
}

func (g *Game) logf(color tcell.Color, format string, args ...any) {
	// NOTE: tview can't reset the color to default with [:] or [:::], use the tcell default.
	fmt.Fprintf(g.logsView, "[%s:::]%s[%s:::]\n", color, fmt.Sprintf(format, args...), tcell.ColorDefault)
}

func (g *Game) drawMessages() {
	for _, msg := range g.core.PopMessages() {
		if msg.Type == mars.MsgClear {
			g.logsView.Clear()
			continue
		}
		color := tcell.ColorDefault
		if msg.Warrior >= 0 && msg.Warrior < len(g.tags) {
			color = tagColor(g.tags[msg.Warrior])
		}
		if msg.Process >= 0 {
			g.logf(color, "[%d] %s", msg.Process, strings.TrimSuffix(msg.Message, "\n"))
		} else {
			g.logf(color, "%s", strings.TrimSuffix(msg.Message, "\n"))
		}
	}
}

// restart reloads the same warriors into a cleared core.
func (g *Game) restart() {
	g.core.Reset()
	if err := g.core.LoadWarriors(cli.Specs(g.players)); err != nil {
		g.logf(tcell.ColorRed, "restart: %s", err)
	}
	g.over = false
	g.drawAllRAM()
	g.drawMessages()
	g.Draw()
}

// Update runs the steps due this tick.
func (g *Game) Update() {
	if g.over {
		return
	}
	steps := g.speed
	if !g.core.Running() {
		if !g.nextStep {
			return
		}
		// Paused, step once.
		g.core.SetRunning(true)
		defer g.core.SetRunning(false)
		steps = 1
	}
	g.nextStep = false

	switch _, err := g.core.RunSteps(steps); {
	case err == nil:
	case errors.Is(err, io.EOF):
		g.over = true
	case errors.Is(err, mars.ErrBudgetSpent):
		g.over = true
		g.logf(tcell.ColorDefault, "Cycle budget of %d spent.", g.core.Config.CycleBudget)
	default:
		g.over = true
		g.logf(tcell.ColorRed, "step: %s", err)
	}
}

func (g *Game) drawProcessList() {
	procs := g.core.Processes()
	g.processListView.SetTitle(fmt.Sprintf("Processes (%d)", len(procs)))
	g.processListView.Clear()
	for i, elem := range []string{
		"pid",
		"warrior",
		"pc",
		"instruction",
		"alive",
	} {
		cell := tview.NewTableCell(elem).
			SetAttributes(tcell.AttrBold).
			SetAlign(tview.AlignCenter)

		g.processListView.SetCell(0, i, cell).SetFixed(1, i)
	}

	cur := g.core.Current()
	for i, elem := range procs {
		tag := g.tags[elem.Warrior]
		for j, content := range []any{
			elem.ID,
			tag,
			fmt.Sprintf("%04d", elem.PC),
			g.core.ReadCell(elem.PC),
			elem.Alive,
		} {
			cell := tview.NewTableCell(fmt.Sprint(content)).SetAlign(tview.AlignRight)
			cell.SetTextColor(tagColor(tag))
			if i == cur {
				cell.SetAttributes(tcell.AttrReverse)
			}
			if !elem.Alive {
				cell.SetAttributes(tcell.AttrDim | tcell.AttrStrikeThrough)
			}
			g.processListView.SetCell(i+1, j, cell)
		}
	}
}

func (g *Game) drawPlayerList() {
	alive := map[int]bool{}
	for _, p := range g.core.Processes() {
		if p.Alive {
			alive[p.Warrior] = true
		}
	}
	for i, w := range g.core.Warriors() {
		deadCode := ""
		if !alive[w.ID] {
			deadCode = "s"
		}
		attr := "[" + tagColor(w.Tag).String() + "::" + deadCode + ":]"
		txt := fmt.Sprintf("%s[%d] %s @%d[:::]", attr, w.Tag, w.Title, w.Start)
		if i < g.playerListView.GetItemCount() {
			g.playerListView.SetItemText(i, txt, "")
		}
	}
}

func (g *Game) drawState() {
	g.stateView.Clear()

	state := "paused"
	switch {
	case g.over:
		state = "over"
	case g.core.Running():
		state = "running"
	}
	fmt.Fprintf(g.stateView, "State: %s\n", state)
	fmt.Fprintf(g.stateView, "Cycle: %d\n", g.core.Cycle())
	fmt.Fprintf(g.stateView, "Cycle budget: %d\n", g.core.Config.CycleBudget)
	fmt.Fprintf(g.stateView, "Core size: %d\n", g.core.Size())
	fmt.Fprintf(g.stateView, "Seed: %d\n", g.core.Seed())
	fmt.Fprintf(g.stateView, "Speed: %d steps/tick\n", g.speed)
	fmt.Fprintf(g.stateView, "Keys: space n + - r q\n")
}

func (g *Game) drawCell(addr int, act mars.CellActivity, pc bool) {
	cell := tview.NewTableCell("·")
	if act.Warrior >= 0 {
		tag := g.tags[act.Warrior]
		cell.SetText(fmt.Sprintf("%d", tag%10))
		cell.SetTextColor(tagColor(tag))
		switch act.Access {
		case mars.AccessWrite:
			cell.SetAttributes(tcell.AttrBold)
		case mars.AccessRead:
			cell.SetAttributes(tcell.AttrItalic | tcell.AttrDim)
		case mars.AccessExec:
			cell.SetAttributes(tcell.AttrUnderline)
		}
	} else {
		cell.SetTextColor(tcell.ColorDimGray)
		cell.SetAttributes(tcell.AttrDim)
	}
	if pc {
		cell.SetAttributes(tcell.AttrReverse)
	}
	g.ramView.SetCell(addr/ramWidth, addr%ramWidth, cell)
}

func (g *Game) livePCs() map[int]bool {
	out := map[int]bool{}
	for _, p := range g.core.Processes() {
		if p.Alive {
			out[p.PC] = true
		}
	}
	return out
}

func (g *Game) drawAllRAM() {
	pcs := g.livePCs()
	for addr, act := range g.core.Activity() {
		g.drawCell(addr, act, pcs[addr])
	}
	g.core.PopTouched()
	g.lastPCs = g.lastPCs[:0]
	for pc := range pcs {
		g.lastPCs = append(g.lastPCs, pc)
	}
}

// drawRAM redraws the cells touched since the last frame and the ones
// under a program counter, now or before.
func (g *Game) drawRAM() {
	pcs := g.livePCs()
	act := g.core.Activity()

	dirty := g.core.PopTouched()
	dirty = append(dirty, g.lastPCs...)
	g.lastPCs = g.lastPCs[:0]
	for pc := range pcs {
		dirty = append(dirty, pc)
		g.lastPCs = append(g.lastPCs, pc)
	}
	for _, addr := range dirty {
		g.drawCell(addr, act[addr], pcs[addr])
	}
}

func (g *Game) Draw() {
	g.drawRAM()
	g.drawMessages()
	g.drawState()
	g.drawPlayerList()
	g.drawProcessList()
}

func main() {
	log.SetFlags(0)

	cfg, players, err := cli.ParseConfig("mars-viewer", os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Failed to parse CLI config: %s.", err)
	}

	core := mars.NewCore(cfg)
	if err := core.LoadWarriors(cli.Specs(players)); err != nil {
		log.Fatalf("Failed to load warriors: %s.", err)
	}

	g := NewGame(context.Background(), core, players)

	for _, p := range players {
		src := tview.NewTextView().SetText(fmt.Sprintf("Warrior: %d (%s)\n\n%s", p.Number, p.Spec.Title, p.Source))
		src.SetTitle(p.ShortName).SetBorder(true)
		g.root.AddPage(fmt.Sprintf("disasm-player-%d", p.Number), src, true, false)
	}

	g.Init()
	go func() {
		defer func() {
			if e := recover(); e != nil {
				g.app.Stop()
				log.Printf("Recovered from panic: %v", e)
				debug.PrintStack()
			}
		}()

		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
			case <-g.ctx.Done():
				return
			}
			g.app.QueueUpdateDraw(func() {
				g.Update()
				g.Draw()
			})
		}
	}()

	if err := g.app.SetRoot(g.root, true).SetFocus(g.root).Run(); err != nil {
		log.Fatalf("Failed to run the viewer: %s.", err)
	}
	g.cancel()
}
