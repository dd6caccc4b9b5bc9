package main

import (
	"flag"
	"fmt"
	"log"
	"maps"
	"os"
	"slices"
	"strings"

	"go.creack.net/mars/asm"
	"go.creack.net/mars/assets"
	"go.creack.net/mars/disasm"
)

func readSource(input string) (string, error) {
	if strings.HasSuffix(input, assets.Ext) {
		data, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}
	return assets.Source(input)
}

func run(input, output string, labels bool) error {
	src, err := readSource(input)
	if err != nil {
		return err
	}

	prog, err := asm.Assemble(input, src)
	if err != nil {
		return fmt.Errorf("failed to compile: %w", err)
	}

	out := disasm.Source(prog.Spec())
	if labels {
		for _, name := range slices.Sorted(maps.Keys(prog.Labels)) {
			out += fmt.Sprintf("; %s = %d\n", name, prog.Labels[name])
		}
	}

	if output == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func main() {
	log.SetFlags(0)
	output := flag.String("o", "", "output file, default to stdout")
	labels := flag.Bool("labels", false, "append the label table")
	list := flag.Bool("list", false, "list the embedded warriors")
	flag.Parse()

	if *list {
		for _, name := range assets.Names() {
			fmt.Println(name)
		}
		return
	}

	input := flag.Arg(0)
	if input == "" {
		tmp := strings.Split(os.Args[0], "/")
		binName := tmp[len(tmp)-1]
		fmt.Fprintf(os.Stderr, "usage: %s [options] <.red path | embedded name>\n", binName)
		flag.PrintDefaults()
		return
	}

	if err := run(input, *output, *labels); err != nil {
		log.Fatalf("fail: %s.", err)
	}
}
