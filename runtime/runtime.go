// Package runtime embeds the Python module that translated code imports.
package runtime

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FileName is the module file generated code expects next to it.
const FileName = "vba_runtime.py"

// ModuleName is the import name of the runtime module.
var ModuleName = strings.TrimSuffix(FileName, ".py")

//go:embed vba_runtime.py
var source []byte

// Source returns a copy of the runtime module.
func Source() []byte {
	return append([]byte(nil), source...)
}

// Write stores the runtime module in dir, creating it when missing, and
// returns the written path. An existing file with identical content is
// left untouched.
func Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create runtime dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if current, err := os.ReadFile(path); err == nil && string(current) == string(source) {
		return path, nil
	}
	if err := os.WriteFile(path, source, 0o644); err != nil {
		return "", fmt.Errorf("write runtime: %w", err)
	}
	return path, nil
}

var (
	exportBlock = regexp.MustCompile(`(?s)__all__ = \[(.*?)\]`)
	quotedName  = regexp.MustCompile(`"(\w+)"`)
)

// Exports lists the names the runtime module makes available to a star
// import, in declaration order.
func Exports() []string {
	m := exportBlock.FindSubmatch(source)
	if m == nil {
		return nil
	}
	var names []string
	for _, q := range quotedName.FindAllSubmatch(m[1], -1) {
		names = append(names, string(q[1]))
	}
	return names
}
