// Package assets embeds a few well known warriors.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"go.creack.net/mars/translate"
)

// Ext is the extension of Redcode sources.
const Ext = ".red"

// Warriors holds the sources, one per file.
//
//go:embed warriors/*.red
var Warriors embed.FS

var ErrUnknownWarrior = errors.New(translate.From("unknown warrior"))

// Names lists the embedded warriors, without extension.
func Names() []string {
	entries, err := fs.ReadDir(Warriors, "warriors")
	if err != nil {
		// Can't happen with a valid embed.
		panic(err)
	}
	out := make([]string, 0, len(entries))
	for _, elem := range entries {
		out = append(out, strings.TrimSuffix(elem.Name(), Ext))
	}
	slices.Sort(out)
	return out
}

// Source returns the source of the named warrior. The extension is optional.
func Source(name string) (string, error) {
	name = strings.TrimSuffix(name, Ext)
	buf, err := fs.ReadFile(Warriors, path.Join("warriors", name+Ext))
	if err != nil {
		return "", fmt.Errorf("%w %q", ErrUnknownWarrior, name)
	}
	return string(buf), nil
}
