// Package cli provides the functions to parse the non-standard CLI flags.
//
// Global flags come first, then each warrior optionally preceded by its
// own flags:
//
//	mars [-size n] [-cycles n] [-seed n] [-retries n] [-prune] [-debug] [[-n tag] [-a addr] warrior]...
//
// A warrior is either a path to a .red file or the name of an embedded one.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.creack.net/mars/asm"
	"go.creack.net/mars/assets"
	"go.creack.net/mars/disasm"
	"go.creack.net/mars/mars"
)

const MaxPlayers = 8

var ErrNoPlayers = errors.New("no warriors provided")

type Player struct {
	PathName  string
	ShortName string
	Number    int // Display tag.
	Address   int
	Fixed     bool // Whether Address was given.

	Spec   mars.WarriorSpec
	Source string // Source as loaded, or as rebuilt by disasm.
}

// perPlayer reads an integer flag value, either "-n 3" or "-n3".
func perPlayer(args []string, i int, name string) (int, int, error) {
	arg := args[i]
	value := strings.TrimPrefix(arg, name)
	if value == "" {
		if i+1 >= len(args) {
			return 0, i, fmt.Errorf("missing value for %s flag", name)
		}
		i++
		value = args[i]
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, i, fmt.Errorf("invalid number for %s flag: %q", name, value)
	}
	return n, i, nil
}

func parse(args []string) ([]*Player, error) {
	// Values apply to the next player only.
	var (
		number  int
		address int
		fixed   bool
	)

	var players []*Player

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case strings.HasPrefix(arg, "-n"):
			n, next, err := perPlayer(args, i, "-n")
			if err != nil {
				return nil, err
			}
			number, i = n, next
			continue
		case strings.HasPrefix(arg, "-a"):
			n, next, err := perPlayer(args, i, "-a")
			if err != nil {
				return nil, err
			}
			address, fixed, i = n, true, next
			continue
		case arg == "" || arg[0] == '-':
			return nil, fmt.Errorf("unexpected flag %q after the first warrior", arg)
		}

		players = append(players, &Player{PathName: arg, Number: number, Address: address, Fixed: fixed})
		number, address, fixed = 0, 0, false
	}
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}
	if len(players) > MaxPlayers {
		return nil, fmt.Errorf("too many warriors: %d, max %d", len(players), MaxPlayers)
	}

	// Make sure we don't have a duplicate number.
	inputNumbers := map[int]string{}
	// Create a list with the available player numbers.
	numbers := make([]int, MaxPlayers)
	for i := range numbers {
		numbers[i] = i + 1
	}
	// Go over the parsed players, and remove from the available list the numbers we already have.
	for _, p := range players {
		if p.Number == 0 {
			continue
		}
		if p.Number < 1 || p.Number > MaxPlayers {
			return nil, fmt.Errorf("invalid warrior number: %d for %q, must be between 1 and %d", p.Number, p.PathName, MaxPlayers)
		}
		if n, ok := inputNumbers[p.Number]; ok {
			return nil, fmt.Errorf("duplicate warrior number: %d, used for %q and %q", p.Number, p.PathName, n)
		}
		inputNumbers[p.Number] = p.PathName
		numbers = slices.DeleteFunc(numbers, func(elem int) bool { return elem == p.Number })
	}

	// Allocate next available number to players that don't have one.
	for _, n := range numbers {
		for _, p := range players {
			if p.Number == 0 {
				p.Number = n
				break
			}
		}
	}

	return players, nil
}

// readSource loads a .red file, or falls back to the embedded warriors.
func readSource(pathName string) (string, error) {
	if strings.HasSuffix(pathName, assets.Ext) {
		if data, err := os.ReadFile(pathName); err == nil {
			return string(data), nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to read file %q: %w", pathName, err)
		}
	}
	src, err := assets.Source(pathName)
	if err != nil {
		return "", fmt.Errorf("%q is neither a readable file nor an embedded warrior: %w", pathName, err)
	}
	return src, nil
}

func loadPlayers(players []*Player) error {
	for _, p := range players {
		tmp := strings.Split(p.PathName, "/")
		p.ShortName = strings.TrimSuffix(tmp[len(tmp)-1], assets.Ext)

		src, err := readSource(p.PathName)
		if err != nil {
			return err
		}
		spec, err := asm.Compile(p.PathName, src)
		if err != nil {
			return fmt.Errorf("failed to compile %q: %w", p.PathName, err)
		}
		spec.Tag = p.Number
		spec.Start, spec.Fixed = p.Address, p.Fixed
		p.Spec = spec
		p.Source = disasm.Disasm(spec)
	}
	return nil
}

// NewFlagSet returns the global flags, bound to cfg.
func NewFlagSet(name string, cfg *mars.Config, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&cfg.CoreSize, "size", cfg.CoreSize, "number of cells in the arena")
	fs.IntVar(&cfg.CycleBudget, "cycles", cfg.CycleBudget, "steps to run, 0 for no limit")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "placement seed, 0 for a random one")
	fs.IntVar(&cfg.PlacementRetries, "retries", cfg.PlacementRetries, "start addresses tried per warrior")
	fs.BoolVar(&cfg.PruneDead, "prune", cfg.PruneDead, "remove dead processes from the rotation")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "trace every step")
	fs.Usage = func() {
		fmt.Fprintf(output, "usage: %s [flags] [[-n tag] [-a addr] warrior]...\n\nwarriors: %s, or a path to a .red file\n\nflags:\n", name, strings.Join(assets.Names(), ", "))
		fs.PrintDefaults()
	}
	return fs
}

// ParseConfig parses the command line (without the program name).
func ParseConfig(name string, args []string, output io.Writer) (mars.Config, []*Player, error) {
	cfg := mars.DefaultConfig()
	fs := NewFlagSet(name, &cfg, output)

	// The flag package doesn't know the per warrior flags, stop before them.
	split := slices.IndexFunc(args, func(arg string) bool {
		return strings.HasPrefix(arg, "-n") || strings.HasPrefix(arg, "-a")
	})
	if split == -1 {
		split = len(args)
	}
	if err := fs.Parse(args[:split]); err != nil {
		return mars.Config{}, nil, err
	}

	players, err := parse(append(fs.Args(), args[split:]...))
	if err != nil {
		return mars.Config{}, nil, fmt.Errorf("parse: %w", err)
	}
	if err := loadPlayers(players); err != nil {
		return mars.Config{}, nil, fmt.Errorf("load players: %w", err)
	}
	return cfg, players, nil
}

// Specs returns the loader requests of the players.
func Specs(players []*Player) []mars.WarriorSpec {
	out := make([]mars.WarriorSpec, 0, len(players))
	for _, p := range players {
		out = append(out, p.Spec)
	}
	return out
}
