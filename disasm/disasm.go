// Package disasm renders loaded code back to Redcode source.
package disasm

import (
	"crypto/md5"
	"fmt"
	"strings"
	"sync"

	"go.creack.net/mars/asm"
	"go.creack.net/mars/assets"
	"go.creack.net/mars/mars"
	"go.creack.net/mars/redcode"
)

// Instruction formats a single instruction the way the assembler reads it.
func Instruction(ins redcode.Instruction) string {
	return fmt.Sprintf("%-6s %c%d, %c%d", ins.Op.String()+"."+ins.Mod.String(), ins.A.Mode.Sigil(), ins.A.Value, ins.B.Mode.Sigil(), ins.B.Value)
}

// Source renders the warrior as assembler input. Every modifier is
// explicit, so assembling the result yields the same code.
func Source(spec mars.WarriorSpec) string {
	buf := &strings.Builder{}
	fmt.Fprintf(buf, ";redcode-94\n;name %s\n", spec.Title)
	if spec.Author != "" {
		fmt.Fprintf(buf, ";author %s\n", spec.Author)
	}
	fmt.Fprintf(buf, "\n        ORG     %d\n", spec.Entry)
	for _, ins := range spec.Code {
		fmt.Fprintf(buf, "        %s\n", Instruction(ins))
	}
	fmt.Fprintf(buf, "        END\n")
	return buf.String()
}

func md5sum(code []redcode.Instruction, entry int) string {
	h := md5.New()
	fmt.Fprintf(h, "ORG %d\n", entry)
	for _, ins := range code {
		fmt.Fprintln(h, Instruction(ins))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

var (
	knownOnce sync.Once
	known     map[string]string // Code checksum to asset name.
)

func indexAssets() {
	known = map[string]string{}
	for _, name := range assets.Names() {
		src, err := assets.Source(name)
		if err != nil {
			continue
		}
		prog, err := asm.Assemble(name+assets.Ext, src)
		if err != nil {
			// Should not happen, the assets are tested.
			continue
		}
		known[md5sum(prog.Code, prog.Entry)] = name
	}
}

// Lookup returns the name of the embedded warrior with the same code and
// entry offset, if any.
func Lookup(code []redcode.Instruction, entry int) (string, bool) {
	knownOnce.Do(indexAssets)
	name, ok := known[md5sum(code, entry)]
	return name, ok
}

// Disasm returns the source of the warrior. When code and entry match one of
// the embedded warriors, its embedded source (with labels and comments)
// is returned instead of the generated one.
func Disasm(spec mars.WarriorSpec) string {
	name, ok := Lookup(spec.Code, spec.Entry)
	if !ok {
		return Source(spec)
	}
	src, err := assets.Source(name)
	if err != nil {
		return Source(spec)
	}
	return src
}
