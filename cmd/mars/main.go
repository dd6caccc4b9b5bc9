package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"go.creack.net/mars/cli"
	"go.creack.net/mars/mars"
)

// palette of 256-color codes, indexed by warrior tag.
var palette = []int{39, 208, 118, 199, 226, 45, 160, 141}

func colorCodeModif(color int, mods ...int) string {
	modsStr := make([]string, 0, len(mods))
	for _, elem := range mods {
		modsStr = append(modsStr, fmt.Sprintf("%d", elem))
	}
	ansiMod := strings.Join(modsStr, ";")
	if ansiMod != "" {
		ansiMod += ";"
	}
	return fmt.Sprintf("\033[%s38;5;%dm", ansiMod, color)
}

const resetCode = "\033[0m"

type printer struct {
	out   io.Writer
	color bool
	width int
	tags  []int // Warrior ID to tag.
}

func (p *printer) paint(tag int, s string, mods ...int) string {
	if !p.color || tag <= 0 {
		return s
	}
	return colorCodeModif(palette[(tag-1)%len(palette)], mods...) + s + resetCode
}

func (p *printer) messages(msgs []mars.Message) {
	for _, msg := range msgs {
		tag := 0
		if msg.Warrior >= 0 && msg.Warrior < len(p.tags) {
			tag = p.tags[msg.Warrior]
		}
		fmt.Fprintln(p.out, p.paint(tag, fmt.Sprintf("[%s] %s", msg.Type, msg.Message)))
	}
}

// arena prints one character per cell: the tag of the last warrior
// that touched it, '.' for untouched cells, reversed for live PCs.
func (p *printer) arena(c *mars.Core) {
	pcs := map[int]bool{}
	for _, elem := range c.Processes() {
		if elem.Alive {
			pcs[elem.PC] = true
		}
	}

	buf := &strings.Builder{}
	for i, elem := range c.Activity() {
		if i > 0 && i%p.width == 0 {
			buf.WriteByte('\n')
		}
		if elem.Warrior < 0 {
			buf.WriteByte('.')
			continue
		}
		tag := p.tags[elem.Warrior]
		var mods []int
		if pcs[i] {
			mods = append(mods, 7)
		}
		buf.WriteString(p.paint(tag, fmt.Sprintf("%d", tag%10), mods...))
	}
	fmt.Fprintln(p.out, buf.String())
}

func (p *printer) listing(c *mars.Core, w mars.Warrior) {
	fmt.Fprintln(p.out, p.paint(w.Tag, fmt.Sprintf("%d: %s", w.Tag, w.Title), 1))
	for _, line := range strings.Split(strings.TrimSuffix(c.Listing(w.Start, len(w.Code)), "\n"), "\n") {
		fmt.Fprintln(p.out, p.paint(w.Tag, line))
	}
}

func run() error {
	cfg, players, err := cli.ParseConfig("mars", os.Args[1:], os.Stderr)
	if err != nil {
		return err
	}

	c := mars.NewCore(cfg)
	if err := c.LoadWarriors(cli.Specs(players)); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	fd := int(os.Stdout.Fd())
	p := &printer{out: os.Stdout, color: term.IsTerminal(fd), width: 80}
	if width, _, err := term.GetSize(fd); err == nil && width > 0 {
		p.width = width
	}
	for _, w := range c.Warriors() {
		p.tags = append(p.tags, w.Tag)
	}
	p.messages(c.PopMessages())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c.SetRunning(true)
	steps, err := c.Run(ctx)
	p.messages(c.PopMessages())

	switch {
	case errors.Is(err, io.EOF):
		if w, ok := c.Winner(); ok {
			fmt.Fprintln(p.out, p.paint(w.Tag, fmt.Sprintf("%s wins after %d cycles.", w.Title, c.Cycle()), 1))
		} else {
			fmt.Fprintf(p.out, "No survivor after %d cycles.\n", c.Cycle())
		}
	case errors.Is(err, mars.ErrBudgetSpent):
		fmt.Fprintf(p.out, "Draw, cycle budget of %d spent.\n", cfg.CycleBudget)
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(p.out, "Interrupted after %d steps.\n", steps)
	case err != nil:
		return fmt.Errorf("run: %w", err)
	}

	p.arena(c)
	for _, w := range c.Warriors() {
		p.listing(c, w)
	}
	return nil
}

func main() {
	log.SetFlags(0)
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Fail: %s.", err)
	}
}
